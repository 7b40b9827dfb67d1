package graph

import (
	"errors"
	"fmt"
)

// Configuration errors. They are returned before any mutation.
var (
	ErrCycle         = errors.New("link would create a cycle")
	ErrKindMismatch  = errors.New("port data kinds differ")
	ErrInputOccupied = errors.New("input port already linked")
	ErrNodeNotFound  = errors.New("node not found")
	ErrPortNotFound  = errors.New("port not found")
	ErrDirection     = errors.New("link must run from an output to an input")
	ErrDuplicateID   = errors.New("duplicate node id")
	ErrLinkNotFound  = errors.New("link not found")
)

// LinkError reports why a link was rejected.
type LinkError struct {
	Link Link
	Err  error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link %s: %v", e.Link, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

package graph

import (
	"fmt"

	"github.com/chazu/loam/pkg/node"
)

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   string             // which node has the problem (empty if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID, e.Message)
}

// Validate re-checks the committed graph and returns every finding. The
// mutating operations keep a graph valid, so errors here point at state
// assembled by hand or by a bug. Validate never mutates the graph.
func (g *Graph) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, g.validateDAG()...)
	errs = append(errs, g.validateLinks()...)
	errs = append(errs, g.validateIsolated()...)
	return errs
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
// If we encounter a gray node during traversal, we have found a cycle.
func (g *Graph) validateDAG() []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int)
	var errs []ValidationError

	var visit func(id string) bool
	visit = func(id string) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id),
				Severity: SeverityError,
			})
			return true
		}
		color[id] = gray
		for _, c := range g.children(id) {
			if visit(c) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, id := range g.ids {
		if color[id] == white && visit(id) {
			break
		}
	}
	return errs
}

// validateLinks checks endpoints, port kinds and single-feed inputs.
func (g *Graph) validateLinks() []ValidationError {
	var errs []ValidationError
	fed := make(map[[2]string]int)

	for _, l := range g.links {
		from, okFrom := g.nodes[l.FromNode]
		to, okTo := g.nodes[l.ToNode]
		if !okFrom || !okTo {
			errs = append(errs, ValidationError{
				NodeID:   l.ToNode,
				Message:  fmt.Sprintf("link %s references a missing node", l),
				Severity: SeverityError,
			})
			continue
		}
		out, okOut := from.Port(node.Out, l.FromPort)
		in, okIn := to.Port(node.In, l.ToPort)
		if !okOut || !okIn {
			errs = append(errs, ValidationError{
				NodeID:   l.ToNode,
				Message:  fmt.Sprintf("link %s references a missing port", l),
				Severity: SeverityError,
			})
			continue
		}
		if out.Kind != in.Kind {
			errs = append(errs, ValidationError{
				NodeID:   l.ToNode,
				Message:  fmt.Sprintf("link %s joins %s to %s", l, out.Kind, in.Kind),
				Severity: SeverityError,
			})
		}
		key := [2]string{l.ToNode, l.ToPort}
		fed[key]++
		if fed[key] == 2 {
			errs = append(errs, ValidationError{
				NodeID:   l.ToNode,
				Message:  fmt.Sprintf("input %q is fed by more than one link", l.ToPort),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateIsolated warns about nodes without any link in a graph that has
// more than one node.
func (g *Graph) validateIsolated() []ValidationError {
	if len(g.ids) < 2 {
		return nil
	}
	linked := make(map[string]bool)
	for _, l := range g.links {
		linked[l.FromNode] = true
		linked[l.ToNode] = true
	}
	var errs []ValidationError
	for _, id := range g.ids {
		if !linked[id] {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  "node is not linked to the rest of the graph",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// Package attr implements the node attribute system: a closed set of typed,
// bounded, serializable parameter values. Every variant implements the
// sealed Attribute interface; typed access goes through As, Get or the
// typed getters of Map.
package attr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrKindMismatch is returned when an attribute is accessed as the wrong
// kind.
var ErrKindMismatch = errors.New("attribute kind mismatch")

// ErrNotFound is returned when a key is absent from a Map.
var ErrNotFound = errors.New("attribute not found")

// KindError describes an access with the wrong kind.
type KindError struct {
	Key  string
	Want Kind
	Got  Kind
}

func (e *KindError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("attribute is %s, not %s", e.Got, e.Want)
	}
	return fmt.Sprintf("attribute %q is %s, not %s", e.Key, e.Got, e.Want)
}

func (e *KindError) Unwrap() error { return ErrKindMismatch }

// Attribute is one typed node parameter.
type Attribute interface {
	Kind() Kind
	Label() string
	SetLabel(label string)
	json.Marshaler
	// UnmarshalJSON loads a serialized value. On failure the attribute keeps
	// its previous value.
	json.Unmarshaler

	sealed()
}

// base carries the fields shared by every variant.
type base struct {
	label string
}

func (b *base) Label() string         { return b.label }
func (b *base) SetLabel(label string) { b.label = label }
func (b *base) sealed()               {}

// As returns a as a T, or a *KindError when a holds another kind.
func As[T Attribute](a Attribute) (T, error) {
	v, ok := a.(T)
	if !ok {
		var zero T
		return zero, &KindError{Want: zero.Kind(), Got: a.Kind()}
	}
	return v, nil
}

// wire is the serialized form of every attribute. Bounds and filters are
// written for readability but the declaring node owns them, so decoding
// only reads value, active and link_xy.
type wire struct {
	Type   string `json:"type"`
	Value  any    `json:"value"`
	Min    any    `json:"min,omitempty"`
	Max    any    `json:"max,omitempty"`
	Active *bool  `json:"active,omitempty"`
	LinkXY *bool  `json:"link_xy,omitempty"`
	Filter string `json:"filter,omitempty"`
}

type envelope struct {
	Type   string          `json:"type"`
	Value  json.RawMessage `json:"value"`
	Active *bool           `json:"active"`
	LinkXY *bool           `json:"link_xy"`
}

// decode unpacks an envelope and checks its type tag.
func decode(data []byte, k Kind) (envelope, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("decode %s: %w", k, err)
	}
	if e.Type != "" && e.Type != k.String() {
		return e, fmt.Errorf("decode %s: %w: record is %s", k, ErrKindMismatch, e.Type)
	}
	if len(e.Value) == 0 {
		return e, fmt.Errorf("decode %s: missing value", k)
	}
	return e, nil
}

// decodeValue unpacks the value of an envelope into a T.
func decodeValue[T any](data []byte, k Kind) (T, envelope, error) {
	var v T
	e, err := decode(data, k)
	if err != nil {
		return v, e, err
	}
	if err := json.Unmarshal(e.Value, &v); err != nil {
		return v, e, fmt.Errorf("decode %s value: %w", k, err)
	}
	return v, e, nil
}

func boolPtr(b bool) *bool { return &b }

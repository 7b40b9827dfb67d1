package attr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/chazu/loam/pkg/geom"
)

// Map is an insertion-ordered set of named attributes owned by one node.
type Map struct {
	keys  []string
	attrs map[string]Attribute
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{attrs: make(map[string]Attribute)}
}

// Add registers a under key and returns it. Keys are declared once by node
// setup code, so a duplicate key panics. An empty label defaults to key.
func (m *Map) Add(key string, a Attribute) Attribute {
	if _, dup := m.attrs[key]; dup {
		panic(fmt.Sprintf("attr: duplicate attribute key %q", key))
	}
	if a.Label() == "" {
		a.SetLabel(key)
	}
	m.keys = append(m.keys, key)
	m.attrs[key] = a
	return a
}

// Lookup returns the attribute under key.
func (m *Map) Lookup(key string) (Attribute, bool) {
	a, ok := m.attrs[key]
	return a, ok
}

// Keys returns the keys in declaration order.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of attributes.
func (m *Map) Len() int { return len(m.keys) }

// Get returns the attribute under key as a T.
func Get[T Attribute](m *Map, key string) (T, error) {
	var zero T
	a, ok := m.attrs[key]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	v, err := As[T](a)
	if err != nil {
		if ke, ok := err.(*KindError); ok {
			ke.Key = key
		}
		return zero, err
	}
	return v, nil
}

// MustGet is Get for keys declared by the caller's own setup code. A
// missing key or a wrong kind is a programming error and panics.
func MustGet[T Attribute](m *Map, key string) T {
	v, err := Get[T](m, key)
	if err != nil {
		panic("attr: " + err.Error())
	}
	return v
}

// Typed getters. They panic on a missing key or a kind mismatch.

func (m *Map) Bool(key string) bool                     { return MustGet[*Bool](m, key).Value() }
func (m *Map) Int(key string) int                       { return MustGet[*Int](m, key).Value() }
func (m *Map) Float(key string) float64                 { return MustGet[*Float](m, key).Value() }
func (m *Map) Range(key string) *Range                  { return MustGet[*Range](m, key) }
func (m *Map) Seed(key string) uint32                   { return MustGet[*Seed](m, key).Value() }
func (m *Map) Shape(key string) geom.Vec2[int]          { return MustGet[*Shape](m, key).Value() }
func (m *Map) VecFloat(key string) []float64            { return MustGet[*VecFloat](m, key).Value() }
func (m *Map) VecInt(key string) []int                  { return MustGet[*VecInt](m, key).Value() }
func (m *Map) WaveNumber(key string) geom.Vec2[float64] { return MustGet[*WaveNumber](m, key).Value() }
func (m *Map) MapEnum(key string) int                   { return MustGet[*MapEnum](m, key).Value() }
func (m *Map) Color(key string) [4]float64              { return MustGet[*Color](m, key).Value() }
func (m *Map) Filename(key string) string               { return MustGet[*Filename](m, key).Value() }
func (m *Map) Matrix(key string) [][]float64            { return MustGet[*Matrix](m, key).Value() }
func (m *Map) Cloud(key string) geom.Cloud              { return MustGet[*Cloud](m, key).Value() }
func (m *Map) Path(key string) geom.Path                { return MustGet[*Path](m, key).Value() }
func (m *Map) Text(key string) string                   { return MustGet[*String](m, key).Value() }
func (m *Map) Choice(key string) string                 { return MustGet[*Choice](m, key).Value() }
func (m *Map) ColorGradient(key string) *ColorGradient {
	return MustGet[*ColorGradient](m, key)
}

// MarshalJSON writes a flat key -> attribute record in declaration order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := m.attrs[key].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode attribute %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode loads a record written by MarshalJSON. Each key is decoded on its
// own: a malformed or missing field is logged and keeps its current value
// without affecting the other fields. Decode returns the keys that failed.
func (m *Map) Decode(data []byte, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("attribute record unreadable", "err", err)
		return m.Keys()
	}

	var failed []string
	for _, key := range m.keys {
		field, ok := raw[key]
		if !ok {
			logger.Debug("attribute missing from record, keeping default", "key", key)
			continue
		}
		if err := m.attrs[key].UnmarshalJSON(field); err != nil {
			logger.Warn("attribute decode failed, keeping previous value", "key", key, "err", err)
			failed = append(failed, key)
		}
	}
	for key := range raw {
		if _, ok := m.attrs[key]; !ok {
			logger.Debug("ignoring unknown attribute", "key", key)
		}
	}
	return failed
}

// Reseed assigns a new value from next to every Seed attribute and returns
// how many were changed.
func (m *Map) Reseed(next func() uint32) int {
	n := 0
	for _, key := range m.keys {
		if s, ok := m.attrs[key].(*Seed); ok {
			s.Set(next())
			n++
		}
	}
	return n
}

package attr

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// ---------------------------------------------------------------------------
// Bool
// ---------------------------------------------------------------------------

// Bool is a boolean toggle.
type Bool struct {
	base
	value bool
}

// NewBool returns a Bool attribute.
func NewBool(v bool) *Bool { return &Bool{value: v} }

func (*Bool) Kind() Kind    { return KindBool }
func (a *Bool) Value() bool { return a.value }
func (a *Bool) Set(v bool)  { a.value = v }
func (a *Bool) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindBool.String(), Value: a.value})
}
func (a *Bool) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[bool](data, KindBool)
	if err != nil {
		return err
	}
	a.value = v
	return nil
}

// ---------------------------------------------------------------------------
// Int
// ---------------------------------------------------------------------------

// Int is a bounded integer.
type Int struct {
	base
	value, min, max int
}

// NewInt returns an Int clamped into [min, max].
func NewInt(v, min, max int) *Int {
	a := &Int{min: min, max: max}
	a.Set(v)
	return a
}

func (*Int) Kind() Kind               { return KindInt }
func (a *Int) Value() int             { return a.value }
func (a *Int) Bounds() (min, max int) { return a.min, a.max }

// Set stores v clamped into the bounds.
func (a *Int) Set(v int) {
	a.value = max(a.min, min(a.max, v))
}

func (a *Int) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindInt.String(), Value: a.value, Min: a.min, Max: a.max})
}
func (a *Int) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[int](data, KindInt)
	if err != nil {
		return err
	}
	a.Set(v)
	return nil
}

// ---------------------------------------------------------------------------
// Float
// ---------------------------------------------------------------------------

// Float is a bounded real value.
type Float struct {
	base
	value, min, max float64
}

// NewFloat returns a Float clamped into [min, max].
func NewFloat(v, min, max float64) *Float {
	a := &Float{value: min, min: min, max: max}
	a.Set(v)
	return a
}

func (*Float) Kind() Kind                   { return KindFloat }
func (a *Float) Value() float64             { return a.value }
func (a *Float) Bounds() (min, max float64) { return a.min, a.max }

// Set stores v clamped into the bounds. NaN is ignored.
func (a *Float) Set(v float64) {
	if math.IsNaN(v) {
		return
	}
	a.value = math.Max(a.min, math.Min(a.max, v))
}

func (a *Float) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindFloat.String(), Value: a.value, Min: a.min, Max: a.max})
}
func (a *Float) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[float64](data, KindFloat)
	if err != nil {
		return err
	}
	a.Set(v)
	return nil
}

// ---------------------------------------------------------------------------
// Range
// ---------------------------------------------------------------------------

// Range is an ordered [lo, hi] pair inside [min, max] with an active flag.
// When inactive, the processing step it drives is skipped entirely.
type Range struct {
	base
	value    [2]float64
	min, max float64
	active   bool
}

// NewRange returns a Range attribute.
func NewRange(lo, hi, min, max float64, active bool) *Range {
	a := &Range{min: min, max: max, active: active}
	a.Set(lo, hi)
	return a
}

// DefaultRange returns the {0, 1} range with bounds [-0.5, 1.5].
func DefaultRange(active bool) *Range {
	return NewRange(0, 1, -0.5, 1.5, active)
}

func (*Range) Kind() Kind                   { return KindRange }
func (a *Range) Value() [2]float64          { return a.value }
func (a *Range) Lo() float64                { return a.value[0] }
func (a *Range) Hi() float64                { return a.value[1] }
func (a *Range) Bounds() (min, max float64) { return a.min, a.max }
func (a *Range) Active() bool               { return a.active }
func (a *Range) SetActive(active bool)      { a.active = active }

// Set stores the pair clamped into the bounds, swapping it when reversed.
func (a *Range) Set(lo, hi float64) {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	a.value[0] = math.Max(a.min, math.Min(a.max, lo))
	a.value[1] = math.Max(a.min, math.Min(a.max, hi))
}

func (a *Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{
		Type:   KindRange.String(),
		Value:  a.value,
		Min:    a.min,
		Max:    a.max,
		Active: boolPtr(a.active),
	})
}
func (a *Range) UnmarshalJSON(data []byte) error {
	v, e, err := decodeValue[[2]float64](data, KindRange)
	if err != nil {
		return err
	}
	a.Set(v[0], v[1])
	if e.Active != nil {
		a.active = *e.Active
	}
	return nil
}

// ---------------------------------------------------------------------------
// Seed
// ---------------------------------------------------------------------------

// Seed is a random generator seed.
type Seed struct {
	base
	value uint32
}

// NewSeed returns a Seed attribute.
func NewSeed(v uint32) *Seed { return &Seed{value: v} }

func (*Seed) Kind() Kind      { return KindSeed }
func (a *Seed) Value() uint32 { return a.value }
func (a *Seed) Set(v uint32)  { a.value = v }
func (a *Seed) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindSeed.String(), Value: a.value})
}
func (a *Seed) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[uint32](data, KindSeed)
	if err != nil {
		return err
	}
	a.value = v
	return nil
}

// ---------------------------------------------------------------------------
// MapEnum
// ---------------------------------------------------------------------------

// MapEnum is a choice among labelled integer values.
type MapEnum struct {
	base
	mapping map[string]int
	choice  string
}

// NewMapEnum returns a MapEnum selecting choice. choice must be a key of
// mapping.
func NewMapEnum(mapping map[string]int, choice string) *MapEnum {
	if _, ok := mapping[choice]; !ok {
		panic(fmt.Sprintf("attr: MapEnum choice %q not in mapping", choice))
	}
	m := make(map[string]int, len(mapping))
	for k, v := range mapping {
		m[k] = v
	}
	return &MapEnum{mapping: m, choice: choice}
}

func (*MapEnum) Kind() Kind       { return KindMapEnum }
func (a *MapEnum) Choice() string { return a.choice }
func (a *MapEnum) Value() int     { return a.mapping[a.choice] }

// Labels returns the labels ordered by their integer value.
func (a *MapEnum) Labels() []string {
	labels := make([]string, 0, len(a.mapping))
	for k := range a.mapping {
		labels = append(labels, k)
	}
	sort.Slice(labels, func(i, j int) bool {
		vi, vj := a.mapping[labels[i]], a.mapping[labels[j]]
		if vi != vj {
			return vi < vj
		}
		return labels[i] < labels[j]
	})
	return labels
}

// Set selects label.
func (a *MapEnum) Set(label string) error {
	if _, ok := a.mapping[label]; !ok {
		return fmt.Errorf("unknown choice %q", label)
	}
	a.choice = label
	return nil
}

// SetValue selects the label mapped to v.
func (a *MapEnum) SetValue(v int) error {
	for _, label := range a.Labels() {
		if a.mapping[label] == v {
			a.choice = label
			return nil
		}
	}
	return fmt.Errorf("no choice with value %d", v)
}

func (a *MapEnum) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindMapEnum.String(), Value: a.choice})
}
func (a *MapEnum) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[string](data, KindMapEnum)
	if err != nil {
		return err
	}
	return a.Set(v)
}

// ---------------------------------------------------------------------------
// String
// ---------------------------------------------------------------------------

// String is free text.
type String struct {
	base
	value string
}

// NewString returns a String attribute.
func NewString(v string) *String { return &String{value: v} }

func (*String) Kind() Kind      { return KindString }
func (a *String) Value() string { return a.value }
func (a *String) Set(v string)  { a.value = v }
func (a *String) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindString.String(), Value: a.value})
}
func (a *String) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[string](data, KindString)
	if err != nil {
		return err
	}
	a.value = v
	return nil
}

// ---------------------------------------------------------------------------
// Choice
// ---------------------------------------------------------------------------

// Choice is a string picked from a list that may change at runtime. The
// list itself is not persisted.
type Choice struct {
	base
	choices []string
	value   string
}

// NewChoice returns a Choice. An empty value selects the first choice.
func NewChoice(choices []string, value string) *Choice {
	a := &Choice{}
	a.SetChoices(choices)
	if value != "" {
		a.value = value
	}
	return a
}

func (*Choice) Kind() Kind          { return KindChoice }
func (a *Choice) Value() string     { return a.value }
func (a *Choice) Choices() []string { return append([]string(nil), a.choices...) }

// Set selects v, which must be one of the choices.
func (a *Choice) Set(v string) error {
	for _, c := range a.choices {
		if c == v {
			a.value = v
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %v", v, a.choices)
}

// SetChoices replaces the list. The current value is kept when still
// listed, otherwise the first choice is selected. It reports whether the
// value changed.
func (a *Choice) SetChoices(choices []string) bool {
	a.choices = append([]string(nil), choices...)
	for _, c := range a.choices {
		if c == a.value {
			return false
		}
	}
	prev := a.value
	a.value = ""
	if len(a.choices) > 0 {
		a.value = a.choices[0]
	}
	return a.value != prev
}

func (a *Choice) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindChoice.String(), Value: a.value})
}

// UnmarshalJSON accepts any string; the list is refreshed by its owner.
func (a *Choice) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[string](data, KindChoice)
	if err != nil {
		return err
	}
	a.value = v
	return nil
}

// ---------------------------------------------------------------------------
// Filename
// ---------------------------------------------------------------------------

// Filename is a file path with a dialog filter such as "PNG (*.png)".
type Filename struct {
	base
	path      string
	filter    string
	forSaving bool
}

// NewFilename returns a Filename attribute.
func NewFilename(path, filter string, forSaving bool) *Filename {
	return &Filename{path: path, filter: filter, forSaving: forSaving}
}

func (*Filename) Kind() Kind        { return KindFilename }
func (a *Filename) Value() string   { return a.path }
func (a *Filename) Filter() string  { return a.filter }
func (a *Filename) ForSaving() bool { return a.forSaving }
func (a *Filename) Set(path string) { a.path = path }
func (a *Filename) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Type: KindFilename.String(), Value: a.path, Filter: a.filter})
}
func (a *Filename) UnmarshalJSON(data []byte) error {
	v, _, err := decodeValue[string](data, KindFilename)
	if err != nil {
		return err
	}
	a.path = v
	return nil
}

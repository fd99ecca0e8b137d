// Package indicator provides technical indicator calculations over close-price
// series.
//
// Every function here is pure: it reads its input slice, allocates a fresh
// output aligned index-for-index with the input, and keeps any running state
// in local accumulators. Callers may invoke them concurrently.
package indicator

import (
	"encoding/json"
	"errors"
	"strconv"
)

// ErrInvalidPeriod is returned when a window period is below 1.
var ErrInvalidPeriod = errors.New("indicator: period must be >= 1")

// Value is a single indicator reading that may be undefined because the
// series has not accumulated enough history yet.
type Value struct {
	V  float64
	OK bool
}

// Undefined is the not-yet-available marker.
var Undefined = Value{}

// Some wraps a defined reading.
func Some(v float64) Value { return Value{V: v, OK: true} }

// MarshalJSON encodes undefined values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.OK {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.V, 'f', -1, 64), nil
}

// UnmarshalJSON accepts a number or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Undefined
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// String renders the value with 2 decimals, or "n/a".
func (v Value) String() string {
	if !v.OK {
		return "n/a"
	}
	return strconv.FormatFloat(v.V, 'f', 2, 64)
}

// Greater reports v > o; false if either side is undefined.
func (v Value) Greater(o Value) bool { return v.OK && o.OK && v.V > o.V }

// Less reports v < o; false if either side is undefined.
func (v Value) Less(o Value) bool { return v.OK && o.OK && v.V < o.V }

// GreaterEq reports v >= o; false if either side is undefined.
func (v Value) GreaterEq(o Value) bool { return v.OK && o.OK && v.V >= o.V }

// LessEq reports v <= o; false if either side is undefined.
func (v Value) LessEq(o Value) bool { return v.OK && o.OK && v.V <= o.V }

// Series is an indicator output aligned with its input sequence.
type Series []Value

// At returns the value at index i, or Undefined when i is out of range.
func (s Series) At(i int) Value {
	if i < 0 || i >= len(s) {
		return Undefined
	}
	return s[i]
}

// Last returns the most recent value.
func (s Series) Last() Value { return s.At(len(s) - 1) }

// Defined counts the defined entries.
func (s Series) Defined() int {
	n := 0
	for _, v := range s {
		if v.OK {
			n++
		}
	}
	return n
}

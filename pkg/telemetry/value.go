package telemetry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the numeric representation carried by a Value
type Kind uint8

const (
	// KindInvalid is the zero Kind and marks an unset Value
	KindInvalid Kind = iota
	// KindInt values are signed 64 bit integers
	KindInt
	// KindFloat values are 64 bit floating point numbers
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "invalid"
	}
}

// ParseKind maps a kind name from a configuration file to a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer", "int8", "int16", "int32", "int64", "uint8", "uint16", "uint32":
		return KindInt, nil
	case "float", "float32", "float64", "double", "real":
		return KindFloat, nil
	default:
		return KindInvalid, fmt.Errorf("unknown value kind %q", s)
	}
}

// Value is a tagged telemetry or threshold value.  The zero Value has KindInvalid.
type Value struct {
	kind Kind
	i    int64
	f    float64
}

// Int returns an integer Value
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating point Value
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Zero returns the zero value of kind k
func Zero(k Kind) Value {
	switch k {
	case KindInt:
		return Int(0)
	case KindFloat:
		return Float(0)
	default:
		return Value{}
	}
}

// Kind returns the representation of v
func (v Value) Kind() Kind { return v.kind }

// Valid reports whether v carries a number
func (v Value) Valid() bool { return v.kind != KindInvalid }

// Int returns v as an integer, truncating floating point values
func (v Value) Int() int64 {
	if v.kind == KindFloat {
		return int64(v.f)
	}
	return v.i
}

// Float returns v as a floating point number
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// As converts v to kind k
func (v Value) As(k Kind) Value {
	switch k {
	case KindInt:
		return Int(v.Int())
	case KindFloat:
		return Float(v.Float())
	default:
		return Value{}
	}
}

// Compare returns -1, 0 or 1 as v is less than, equal to, or greater than o.
// Integers are compared exactly; any other combination compares as float64.
func (v Value) Compare(o Value) int {
	if v.kind == KindInt && o.kind == KindInt {
		switch {
		case v.i < o.i:
			return -1
		case v.i > o.i:
			return 1
		default:
			return 0
		}
	}
	a, b := v.Float(), o.Float()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less reports whether v < o
func (v Value) Less(o Value) bool { return v.Compare(o) < 0 }

// Greater reports whether v > o
func (v Value) Greater(o Value) bool { return v.Compare(o) > 0 }

// Finite reports whether v is a number other than NaN or an infinity
func (v Value) Finite() bool {
	switch v.kind {
	case KindInt:
		return true
	case KindFloat:
		return !math.IsNaN(v.f) && !math.IsInf(v.f, 0)
	default:
		return false
	}
}

// String formats v so that ParseValue reads back the same number
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return "<invalid>"
	}
}

// ParseValue parses s as a number of kind k
func ParseValue(k Kind, s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch k {
	case KindInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// hex and other prefixed forms
			if i, err = strconv.ParseInt(s, 0, 64); err != nil {
				return Value{}, fmt.Errorf("parse %q as int: %w", s, err)
			}
		}
		return Int(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %q as float: %w", s, err)
		}
		return Float(f), nil
	default:
		return Value{}, fmt.Errorf("cannot parse %q: %s kind", s, k)
	}
}

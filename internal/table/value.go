package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a Value holds.
type Kind uint8

const (
	Null Kind = iota
	String
	Number
)

// Value is a single nullable cell. The zero Value is Null.
type Value struct {
	kind Kind
	s    string
	f    float64
}

// Str returns a string cell. Empty strings are kept as strings, not Null.
func Str(s string) Value { return Value{kind: String, s: s} }

// Num returns a numeric cell. NaN and infinities become Null.
func Num(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: Number, f: f}
}

// NullValue is the missing cell.
var NullValue = Value{}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == Null }

func (v Value) IsNumber() bool { return v.kind == Number }

// IsBlank reports whether the cell is Null or a whitespace-only string.
func (v Value) IsBlank() bool {
	switch v.kind {
	case Null:
		return true
	case String:
		return strings.TrimSpace(v.s) == ""
	}
	return false
}

// Float returns the numeric content. String cells are not parsed here; use ToNumeric.
func (v Value) Float() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	return v.f, true
}

// String renders the cell for export. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case String:
		return v.s
	case Number:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	}
	return ""
}

// Equal compares kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case String:
		return v.s == o.s
	case Number:
		return v.f == o.f
	}
	return true
}

// MarshalJSON encodes Null as null, numbers as JSON numbers and strings as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case String:
		return json.Marshal(v.s)
	case Number:
		return []byte(strconv.FormatFloat(v.f, 'g', -1, 64)), nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*v = NullValue
	case strings.HasPrefix(s, `"`):
		var u string
		if err := json.Unmarshal(b, &u); err != nil {
			return err
		}
		*v = Str(u)
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*v = Num(f)
	}
	return nil
}

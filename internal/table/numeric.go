package table

import (
	"strconv"
	"strings"
)

// NumberFormat controls how string cells are read as numbers.
type NumberFormat struct {
	// DecimalSeparator is '.' or ','. Zero means auto-detect per value.
	DecimalSeparator rune
	// ThousandsSeparator is optional; when zero and DecimalSeparator is set, none are stripped.
	ThousandsSeparator rune
}

// DefaultNumberFormat reads plain dot-decimal numbers, which is what AGS files carry.
func DefaultNumberFormat() NumberFormat {
	return NumberFormat{DecimalSeparator: '.'}
}

// ParseNumber reads s as a float. Blank, non-numeric, NaN and infinite inputs report false.
func ParseNumber(s string, nf NumberFormat) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := nf.DecimalSeparator
	thou := nf.ThousandsSeparator
	auto := dec == 0
	if auto {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	} else if auto {
		raw = strings.ReplaceAll(raw, " ", "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	v := Num(f)
	if v.IsNull() {
		return 0, false
	}
	return f, true
}

// ToNumeric converts the listed columns in place. Unparseable cells become Null.
// Missing columns are skipped.
func ToNumeric(t *Table, nf NumberFormat, cols ...string) {
	if t == nil {
		return
	}
	for _, c := range cols {
		if !t.HasColumn(c) {
			continue
		}
		for _, r := range t.Rows {
			r[c] = toNumber(r[c], nf)
		}
	}
}

func toNumber(v Value, nf NumberFormat) Value {
	switch v.Kind() {
	case Number:
		return v
	case String:
		if f, ok := ParseNumber(v.String(), nf); ok {
			return Num(f)
		}
	}
	return NullValue
}

// ParseNumberFormat maps a config string to a NumberFormat: "." (default), "," or "auto".
func ParseNumberFormat(s string) (NumberFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", ".", "dot":
		return DefaultNumberFormat(), true
	case ",", "comma":
		return NumberFormat{DecimalSeparator: ',', ThousandsSeparator: '.'}, true
	case "auto":
		return NumberFormat{}, true
	}
	return NumberFormat{}, false
}

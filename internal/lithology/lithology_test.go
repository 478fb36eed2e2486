package lithology

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/agsloom/internal/table"
)

func giuTable(rows ...[]string) *table.Table {
	t := table.New("GIU", " loca_id", "Depth_From", "DEPTH_TO", "lith")
	for _, r := range rows {
		t.Append(table.Row{
			" loca_id":   table.Str(r[0]),
			"Depth_From": table.Str(r[1]),
			"DEPTH_TO":   table.Str(r[2]),
			"lith":       table.Str(r[3]),
		})
	}
	return t
}

func TestPrepareGIU(t *testing.T) {
	ivs, err := PrepareGIU(giuTable(
		[]string{" bh1 ", "0", "3", "CLAY"},
		[]string{"BH1", "10", "3", "SAND"},
		[]string{"", "1", "2", "PEAT"},
		[]string{"BH2", "x", "2", "PEAT"},
		[]string{"BH3", "0", "1", " "},
	), table.DefaultNumberFormat())
	require.NoError(t, err)
	require.Len(t, ivs, 2)
	assert.Equal(t, Interval{Hole: "BH1", From: 0, To: 3, Label: "CLAY"}, ivs[0])
	assert.Equal(t, Interval{Hole: "BH1", From: 3, To: 10, Label: "SAND"}, ivs[1], "inverted depths are swapped")
}

func TestPrepareGIUAliasesAndDecimalComma(t *testing.T) {
	tb := table.New("GIU", "HOLE_ID", "START_DEPTH", "END_DEPTH", "LITH")
	tb.Append(table.Row{"HOLE_ID": table.Str("BH1"), "START_DEPTH": table.Str("1,5"), "END_DEPTH": table.Str("2,25"), "LITH": table.Str("SILT")})

	ivs, err := PrepareGIU(tb, table.NumberFormat{DecimalSeparator: ',', ThousandsSeparator: '.'})
	require.NoError(t, err)
	require.Len(t, ivs, 1)
	assert.Equal(t, 1.5, ivs[0].From)
	assert.Equal(t, 2.25, ivs[0].To)
}

func TestPrepareGIUMissingColumns(t *testing.T) {
	tb := table.New("GIU", "HOLE_ID", "DEPTH_FROM")
	_, err := PrepareGIU(tb, table.DefaultNumberFormat())

	var mce *MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []string{"DEPTH_TO", "LITH"}, mce.Missing)
	assert.Contains(t, err.Error(), "DEPTH_TO, LITH")
}

func TestLookupScenario(t *testing.T) {
	idx := NewIndex([]Interval{
		{Hole: "BH1", From: 3, To: 10, Label: "SAND"},
		{Hole: "BH1", From: 0, To: 3, Label: "CLAY"},
	}, Exact{})

	iv, ok := idx.Lookup("bh1", 5.0)
	require.True(t, ok)
	assert.Equal(t, "SAND", iv.Label)

	// 3.0 sits in both; CLAY has the narrower span.
	iv, ok = idx.Lookup("BH1", 3.0)
	require.True(t, ok)
	assert.Equal(t, "CLAY", iv.Label)

	_, ok = idx.Lookup("BH1", 11)
	assert.False(t, ok)
	_, ok = idx.Lookup("BH2", 1)
	assert.False(t, ok)
}

func TestLookupTieBreaksOnDeeperFrom(t *testing.T) {
	idx := NewIndex([]Interval{
		{Hole: "BH1", From: 0, To: 2, Label: "UPPER"},
		{Hole: "BH1", From: 2, To: 4, Label: "LOWER"},
	}, nil)
	iv, ok := idx.Lookup("BH1", 2)
	require.True(t, ok)
	assert.Equal(t, "LOWER", iv.Label)
}

func TestLookupSkipsUnlabelledIntervals(t *testing.T) {
	idx := NewIndex([]Interval{
		{Hole: "BH1", From: 0, To: 10, Label: "CLAY"},
		{Hole: "BH1", From: 4, To: 6, Label: ""},
	}, nil)
	iv, ok := idx.Lookup("BH1", 5)
	require.True(t, ok)
	assert.Equal(t, "CLAY", iv.Label)

	tb := table.New("TRIAXIAL", "HOLE_ID", "SPEC_DEPTH")
	tb.Append(table.Row{"HOLE_ID": table.Str("BH1"), "SPEC_DEPTH": table.Num(5)})
	assert.Equal(t, 1, Assign(tb, idx))
	assert.Equal(t, "CLAY", tb.Rows[0][ColLithology].String())
}

func TestLookupSuffixStrategy(t *testing.T) {
	ivs := []Interval{{Hole: "SITE-BH1", From: 0, To: 5, Label: "CLAY"}}

	_, ok := NewIndex(ivs, Exact{}).Lookup("BH1", 1)
	assert.False(t, ok)

	iv, ok := NewIndex(ivs, Suffix{}).Lookup("BH1", 1)
	require.True(t, ok)
	assert.Equal(t, "CLAY", iv.Label)
}

func TestLookupContainmentProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var ivs []Interval
	for i := 0; i < 200; i++ {
		a, b := rng.Float64()*50, rng.Float64()*50
		if a > b {
			a, b = b, a
		}
		ivs = append(ivs, Interval{Hole: []string{"BH1", "BH2"}[i%2], From: a, To: b, Label: "L"})
	}
	idx := NewIndex(ivs, Exact{})
	for i := 0; i < 500; i++ {
		hole := []string{"BH1", "BH2"}[i%2]
		d := rng.Float64() * 55
		got, ok := idx.Lookup(hole, d)
		if !ok {
			for _, iv := range ivs {
				assert.False(t, iv.Hole == hole && iv.Contains(d), "missed containing interval at %v", d)
			}
			continue
		}
		require.True(t, got.Contains(d))
		require.Equal(t, hole, got.Hole)
		for _, iv := range ivs {
			if iv.Hole == hole && iv.Contains(d) {
				assert.False(t, iv.Span() < got.Span(), "narrower interval exists at %v", d)
			}
		}
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, "exact", s.Name())

	s, err = ParseStrategy(" Suffix ")
	require.NoError(t, err)
	assert.Equal(t, "suffix", s.Name())

	_, err = ParseStrategy("fuzzy")
	assert.Error(t, err)
}

func TestAssign(t *testing.T) {
	idx := NewIndex([]Interval{
		{Hole: "BH1", From: 0, To: 3, Label: "CLAY"},
		{Hole: "BH1", From: 3, To: 10, Label: "SAND"},
	}, Exact{})

	tb := table.New("TRIAXIAL", "HOLE_ID", "SPEC_DEPTH")
	tb.Append(table.Row{"HOLE_ID": table.Str("BH1"), "SPEC_DEPTH": table.Num(5)})
	tb.Append(table.Row{"HOLE_ID": table.Str(" bh1"), "SPEC_DEPTH": table.Str("1.5")})
	tb.Append(table.Row{"HOLE_ID": table.Str("BH1")})
	tb.Append(table.Row{"SPEC_DEPTH": table.Num(1)})

	n := Assign(tb, idx)
	assert.Equal(t, 2, n)
	assert.Equal(t, "SAND", tb.Rows[0][ColLithology].String())
	assert.Equal(t, "CLAY", tb.Rows[1][ColLithology].String())
	assert.True(t, tb.Rows[2][ColLithology].IsNull())
	assert.True(t, tb.Rows[3][ColLithology].IsNull())

	assert.Zero(t, Assign(tb, nil))
	assert.True(t, tb.Rows[0][ColLithology].IsNull())
}

package profile

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/agsloom/internal/ags"
	"github.com/KaramelBytes/agsloom/internal/lithology"
	"github.com/KaramelBytes/agsloom/internal/table"
)

func registry(t *testing.T, lines ...string) ags.Registry {
	t.Helper()
	f := ags.Parse("p.ags", []byte(strings.Join(lines, "\n")), ags.Options{})
	return ags.Combine([]*ags.File{f})
}

func TestBuildProfile(t *testing.T) {
	reg := registry(t,
		`"GROUP","GEOL"`,
		`"HEADING","LOCA_ID","GEOL_TOP","GEOL_BASE","GEOL_DESC"`,
		`"DATA","BH1","0.0","2.0","Topsoil"`,
		`"DATA","BH1","2.0","6.0","Clay"`,
		`"GROUP","?ETH"`,
		`"HEADING","LOCA_ID","?ETH_TOP","?ETH_BASE","?ETH_GRAD"`,
		`"DATA","BH1","1.0","4.0","III/IV"`,
	)
	giu := []lithology.Interval{{Hole: "bh1", From: 0, To: 3, Label: "MADE GROUND"}}

	out, err := Build(reg, giu, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{ColHole, ColDepthFrom, ColDepthTo, ColThickness, "GEOL_DESC", "WETH_GRAD", ColLith, ColWeathered}, out.Columns)

	// Boundaries 0, 1, 2, 4, 6.
	require.Equal(t, 4, out.Len())
	want := []struct {
		from, to  float64
		geol      string
		grade     string
		lith      string
		weathered string
	}{
		{0, 1, "Topsoil", "", "MADE GROUND", ""},
		{1, 2, "Topsoil", "III/IV", "MADE GROUND", "III"},
		{2, 4, "Clay", "III/IV", "MADE GROUND", "III"},
		{4, 6, "Clay", "III/IV", "MADE GROUND", "III"},
	}
	for i, w := range want {
		r := out.Rows[i]
		from, _ := r[ColDepthFrom].Float()
		to, _ := r[ColDepthTo].Float()
		thick, _ := r[ColThickness].Float()
		assert.Equal(t, w.from, from, "row %d", i)
		assert.Equal(t, w.to, to, "row %d", i)
		assert.InDelta(t, w.to-w.from, thick, 1e-9)
		assert.Equal(t, w.geol, r["GEOL_DESC"].String(), "row %d", i)
		assert.Equal(t, w.grade, r["WETH_GRAD"].String(), "row %d", i)
		assert.Equal(t, w.lith, r[ColLith].String(), "row %d", i)
		assert.Equal(t, w.weathered, r[ColWeathered].String(), "row %d", i)
	}
}

func TestBuildProfilePointDepths(t *testing.T) {
	reg := ags.Registry{"CORE": table.New("CORE", "HOLE_ID", "SPEC_DEPTH")}
	reg["CORE"].Append(table.Row{"HOLE_ID": table.Str("BH1"), "SPEC_DEPTH": table.Str("1")})
	reg["CORE"].Append(table.Row{"HOLE_ID": table.Str("BH1"), "SPEC_DEPTH": table.Str("3")})

	out, err := Build(reg, nil, Options{Groups: []string{"core"}})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "2", out.Rows[0][ColThickness].String())
}

func TestBuildProfileNoDepths(t *testing.T) {
	reg := registry(t,
		`"GROUP","SAMP"`,
		`"HEADING","LOCA_ID","SAMP_REF"`,
		`"DATA","BH1","S1"`,
	)
	_, err := Build(reg, nil, Options{})
	assert.True(t, errors.Is(err, ErrNoDepthData))
}

func TestSimplifyWeathering(t *testing.T) {
	cases := map[string]string{
		"I":      "I",
		"I/II":   "I",
		" II ":   "II",
		"III/IV": "III",
		"IV/III": "IV",
		"IV/V":   "IV",
		"V/IV":   "V",
		"VI":     "VI",
		"VI/V":   "VI",
		"fresh":  "fresh",
	}
	for in, want := range cases {
		assert.Equal(t, want, SimplifyWeathering(in), in)
	}
}

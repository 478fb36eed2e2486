package ags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/agsloom/internal/table"
)

func TestRegistryGetDefaultsToEmpty(t *testing.T) {
	var reg Registry
	got := reg.Get("TRIX")
	require.NotNil(t, got)
	assert.True(t, got.Empty())
	assert.Equal(t, "TRIX", got.Name)
	assert.False(t, reg.Has("TRIX"))
}

func TestNormalize(t *testing.T) {
	samp := table.New("SAMP", " loca_id ", "Spec_Dpth")
	samp.Append(table.Row{" loca_id ": table.Str("BH1"), "Spec_Dpth": table.Str("5")})
	weth := table.New("?ETH", "LOCA_ID", "?ETH_TOP", "?ETH_GRAD")
	weth.Append(table.Row{"LOCA_ID": table.Str("BH1"), "?ETH_TOP": table.Str("1"), "?ETH_GRAD": table.Str("III")})
	both := table.New("TRIX", "HOLE_ID", "LOCA_ID")

	reg := Registry{"SAMP": samp, "?ETH": weth, "TRIX": both}
	Normalize(reg)

	assert.Equal(t, []string{"HOLE_ID", "SPEC_DEPTH"}, reg["SAMP"].Columns)
	assert.Equal(t, "5", reg["SAMP"].Rows[0]["SPEC_DEPTH"].String())

	_, stale := reg["?ETH"]
	assert.False(t, stale)
	require.Contains(t, reg, "WETH")
	assert.Equal(t, []string{"HOLE_ID", "WETH_TOP", "WETH_GRAD"}, reg["WETH"].Columns)
	assert.Equal(t, "WETH", reg["WETH"].Name)

	assert.Equal(t, []string{"HOLE_ID", "LOCA_ID"}, reg["TRIX"].Columns, "LOCA_ID kept when HOLE_ID exists")
}

func TestCombine(t *testing.T) {
	a := Parse("a.ags", []byte("\"GROUP\",\"SAMP\"\n\"HEADING\",\"HOLE_ID\",\"SAMP_TOP\"\n\"DATA\",\"BH1\",\"1.0\"\n"), Options{})
	b := Parse("b.ags", []byte("\"GROUP\",\"SAMP\"\n\"HEADING\",\"HOLE_ID\",\"SAMP_REF\"\n\"DATA\",\"BH2\",\"S9\"\n"+
		"\"GROUP\",\"CLSS\"\n\"HEADING\",\"HOLE_ID\",\"CLSS_LL\"\n\"DATA\",\"BH2\",\"40\"\n"), Options{})

	reg := Combine([]*File{a, nil, b})
	assert.Equal(t, []string{"CLSS", "SAMP"}, reg.Names())

	samp := reg.Get("SAMP")
	require.Equal(t, 2, samp.Len())
	assert.Equal(t, "a.ags", samp.Rows[0][SourceColumn].String())
	assert.Equal(t, "b.ags", samp.Rows[1][SourceColumn].String())
	assert.True(t, samp.HasColumn("SAMP_REF"))
	assert.True(t, samp.Rows[0]["SAMP_REF"].IsNull())

	clss := reg.Get("CLSS")
	require.Equal(t, 1, clss.Len())
	assert.Equal(t, "b.ags", clss.Rows[0][SourceColumn].String())
}

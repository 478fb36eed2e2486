package triaxial

import (
	"github.com/KaramelBytes/agsloom/internal/table"
)

// s_source values.
const (
	SourceEffective = "effective"
	SourceTotal     = "total"
)

// StressPoint is the stress-path state of one specimen at failure.
// Fields are nil when an operand was missing.
type StressPoint struct {
	T          *float64
	STotal     *float64
	SEffective *float64
	S          *float64
	Source     string
}

// Stress derives t and s from cell pressure, deviator stress and an optional
// pore pressure. A missing pore pressure leaves SEffective nil rather than
// assuming zero.
func Stress(cell, devf, pwpf *float64) StressPoint {
	var p StressPoint
	if devf == nil {
		return p
	}
	t := *devf / 2
	p.T = &t
	if cell == nil {
		return p
	}
	sigma3 := *cell
	sigma1 := sigma3 + *devf
	sTotal := (sigma1 + sigma3) / 2
	p.STotal = &sTotal
	p.S = &sTotal
	p.Source = SourceTotal
	if pwpf != nil {
		sEff := ((sigma1 - *pwpf) + (sigma3 - *pwpf)) / 2
		if !table.Num(sEff).IsNull() {
			p.SEffective = &sEff
			p.S = &sEff
			p.Source = SourceEffective
		}
	}
	return p
}

// ComputeStress adds t, s_total, s_effective, s and s_source to every row.
// CELL, DEVF and PWPF are coerced to numbers first; unreadable cells count as missing.
func ComputeStress(t *table.Table) {
	if t == nil {
		return
	}
	table.Coalesce(t, cellCandidates, ColCell)
	table.Coalesce(t, devfCandidates, ColDevf)
	table.Coalesce(t, pwpfCandidates, ColPwpf)
	table.ToNumeric(t, table.DefaultNumberFormat(), ColCell, ColDevf, ColPwpf)
	for _, c := range []string{ColT, ColSTotal, ColSEffective, ColS, ColSSource} {
		t.AddColumn(c)
	}
	for _, r := range t.Rows {
		p := Stress(floatPtr(r[ColCell]), floatPtr(r[ColDevf]), floatPtr(r[ColPwpf]))
		r[ColT] = numOrNull(p.T)
		r[ColSTotal] = numOrNull(p.STotal)
		r[ColSEffective] = numOrNull(p.SEffective)
		r[ColS] = numOrNull(p.S)
		if p.Source == "" {
			r[ColSSource] = table.NullValue
		} else {
			r[ColSSource] = table.Str(p.Source)
		}
	}
}

func floatPtr(v table.Value) *float64 {
	f, ok := v.Float()
	if !ok {
		return nil
	}
	return &f
}

func numOrNull(f *float64) table.Value {
	if f == nil {
		return table.NullValue
	}
	return table.Num(*f)
}

// Package triaxial assembles one row per triaxial specimen from parsed AGS
// groups and derives stress-path values from it.
package triaxial

import (
	"errors"
	"strconv"
	"strings"

	"github.com/KaramelBytes/agsloom/internal/ags"
	"github.com/KaramelBytes/agsloom/internal/table"
)

// TableName names the specimen table.
const TableName = "TRIAXIAL"

// ErrNoRegistry is returned when Build is called without a group registry.
var ErrNoRegistry = errors.New("triaxial: no group registry")

// Column names produced by Build and ComputeStress.
const (
	ColHole       = "HOLE_ID"
	ColDepth      = "SPEC_DEPTH"
	ColCell       = "CELL"
	ColDevf       = "DEVF"
	ColPwpf       = "PWPF"
	ColTestType   = "TEST_TYPE"
	ColSource     = ags.SourceColumn
	ColT          = "t"
	ColS          = "s"
	ColSTotal     = "s_total"
	ColSEffective = "s_effective"
	ColSSource    = "s_source"
)

// PreferredColumns is the output column order; absent columns are skipped.
var PreferredColumns = []string{
	"HOLE_ID", "SAMP_ID", "SAMP_REF", "SAMP_TOP",
	"SPEC_REF", "SPEC_DEPTH", "DEPTH_FROM", "DEPTH_TO",
	"SAMP_DESC", "SPEC_DESC", "GEOL_STAT",
	"TRIG_TYPE", "TREG_TYPE", "TEST_TYPE",
	"CELL", "DEVF", "PWPF", "SOURCE_FILE",
}

var numericColumns = []string{"SAMP_TOP", "SPEC_DEPTH", "DEPTH_FROM", "DEPTH_TO", "CELL", "DEVF", "PWPF"}

// Result column variants across AGS3 (TRIX) and AGS4 (TRET).
var (
	cellCandidates = []string{"CELL", "TRIX_CELL", "TRET_CELL"}
	devfCandidates = []string{"DEVF", "TRIX_DEVF", "TRET_DEVF"}
	pwpfCandidates = []string{"PWPF", "TRIX_PWPF", "TRET_PWPF"}
)

// Build joins sample identity, classification, test type and result groups
// into one specimen table. Missing groups are treated as empty; with no TRIX
// or TRET rows the result is an empty table.
func Build(reg ags.Registry) (*table.Table, error) {
	if reg == nil {
		return nil, ErrNoRegistry
	}
	samp := prepare(reg.Get("SAMP"))
	clss := prepare(reg.Get("CLSS"))
	trig := prepare(reg.Get("TRIG"))
	treg := prepare(reg.Get("TREG"))
	results := table.Stack("RESULTS", resultRows(reg.Get("TRIX")), resultRows(reg.Get("TRET")))
	if results.Empty() {
		return table.New(TableName), nil
	}

	keys := []string{ColHole}
	if !samp.Empty() && samp.HasColumn(ColDepth) {
		keys = append(keys, ColDepth)
	}
	merged := table.New(TableName, keys...)
	if !samp.Empty() {
		merged = samp.Clone()
		merged.Name = TableName
	}
	if !clss.Empty() {
		merged = table.OuterJoin(merged, clss, keys, "_CLSS")
	}
	if !trig.Empty() {
		merged = table.OuterJoin(merged, trig.Project(ColHole, ColDepth, "TRIG_TYPE"), keys, "_TRIG")
	}
	if !treg.Empty() {
		merged = table.OuterJoin(merged, treg.Project(ColHole, ColDepth, "TREG_TYPE"), keys, "_TREG")
	}
	merged = table.OuterJoin(merged, results, []string{ColHole, ColDepth}, "_RES")
	if merged.HasColumn(ColSource + "_RES") {
		// The result file is the provenance that matters for a specimen.
		table.FillNulls(merged, ColSource+"_RES", ColSource)
		merged.Set(ColSource, func(r table.Row) table.Value { return r[ColSource+"_RES"] })
	}
	merged.Set(ColTestType, func(r table.Row) table.Value {
		for _, c := range []string{"TRIG_TYPE", "TREG_TYPE"} {
			if v := r[c]; !v.IsBlank() {
				return v
			}
		}
		return table.NullValue
	})

	out := merged.Project(PreferredColumns...)
	table.DeduplicateCells(out)
	out = table.ExpandRows(out)
	out = table.DropSingletonRows(out)
	table.ToNumeric(out, table.DefaultNumberFormat(), numericColumns...)
	return out, nil
}

// prepare copies a group with HOLE_ID present and key cells made comparable.
func prepare(t *table.Table) *table.Table {
	out := t.Clone()
	out.Rename("SPEC_DPTH", ColDepth)
	out.AddColumn(ColHole)
	for _, r := range out.Rows {
		r[ColHole] = holeKey(r[ColHole])
		if v, ok := r[ColDepth]; ok {
			r[ColDepth] = depthKey(v)
		}
	}
	return out
}

// resultRows reduces a TRIX or TRET group to its join keys and canonical
// CELL, DEVF and PWPF columns.
func resultRows(t *table.Table) *table.Table {
	if t.Empty() {
		return table.New(t.Name)
	}
	out := prepare(t)
	table.Coalesce(out, cellCandidates, ColCell)
	table.Coalesce(out, devfCandidates, ColDevf)
	table.Coalesce(out, pwpfCandidates, ColPwpf)
	return out.Project(ColHole, ColDepth, ColCell, ColDevf, ColPwpf, ColSource)
}

func holeKey(v table.Value) table.Value {
	if v.IsNull() {
		return v
	}
	return table.Str(strings.TrimSpace(v.String()))
}

// depthKey renders numeric depths canonically so "5.0" joins "5.00".
// Values that are not a single number are left alone.
func depthKey(v table.Value) table.Value {
	switch v.Kind() {
	case table.Number:
		f, _ := v.Float()
		return table.Str(strconv.FormatFloat(f, 'f', -1, 64))
	case table.String:
		if f, ok := table.ParseNumber(v.String(), table.DefaultNumberFormat()); ok {
			return table.Str(strconv.FormatFloat(f, 'f', -1, 64))
		}
	}
	return v
}

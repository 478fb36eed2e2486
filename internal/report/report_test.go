package report

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/KaramelBytes/agsloom/internal/ags"
	"github.com/KaramelBytes/agsloom/internal/run"
	"github.com/KaramelBytes/agsloom/internal/table"
	"github.com/KaramelBytes/agsloom/internal/triaxial"
)

func specimens() *table.Table {
	tb := table.New("TRIAXIAL", "HOLE_ID", "TRIX_CELL", "TRIX_DEVF", "LITHOLOGY", "SAMP_DESC")
	cells := []string{"100", "110", "105", "100", "120", "95", "102", "98", "104", "1000"}
	liths := []string{"CLAY", "CLAY", "SAND", "CLAY", "SAND", "CLAY", "SAND", "CLAY", "SAND", "CLAY"}
	for i, c := range cells {
		x, _ := strconv.ParseFloat(c, 64)
		tb.Append(table.Row{
			"HOLE_ID":   table.Str(fmt.Sprintf("BH%d", i)),
			"TRIX_CELL": table.Str(c),
			"TRIX_DEVF": table.Num(2 * x),
			"LITHOLOGY": table.Str(liths[i]),
			"SAMP_DESC": table.Str(fmt.Sprintf("sample %d", i)),
		})
	}
	return tb
}

func TestSummarizeAndMarkdown(t *testing.T) {
	rep := Summarize(specimens(), DefaultOptions())

	if rep.Rows != 10 || rep.Processed != 10 {
		t.Fatalf("rows=%d processed=%d", rep.Rows, rep.Processed)
	}
	kinds := map[string]string{}
	var cellCol ColumnSummary
	for _, c := range rep.Cols {
		kinds[c.Name] = c.Kind
		if c.Name == "TRIX_CELL" {
			cellCol = c
		}
	}
	if kinds["TRIX_CELL"] != "numeric" || kinds["TRIX_DEVF"] != "numeric" {
		t.Fatalf("expected numeric kinds, got %v", kinds)
	}
	if kinds["LITHOLOGY"] != "categorical" {
		t.Fatalf("LITHOLOGY kind = %s", kinds["LITHOLOGY"])
	}
	if kinds["SAMP_DESC"] != "text" {
		t.Fatalf("SAMP_DESC kind = %s", kinds["SAMP_DESC"])
	}
	if cellCol.Min != 95 || cellCol.Max != 1000 {
		t.Fatalf("cell min/max = %v/%v", cellCol.Min, cellCol.Max)
	}
	if cellCol.OutliersCount != 1 {
		t.Fatalf("expected one outlier, got %d", cellCol.OutliersCount)
	}

	if len(rep.Groups) != 2 || rep.Groups[0].Key != "LITHOLOGY=CLAY" || rep.Groups[0].Size != 6 {
		t.Fatalf("unexpected groups: %+v", rep.Groups)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"# Specimen summary (TRIAXIAL)",
		"## Reconciliation",
		"- Specimens: 10\n",
		"- Lithology: 10 of 10 specimens labelled (100.0%)",
		"## Measurements",
		"| TRIX_CELL | 10 | 0 | 95 | 1000 | 193.4 |",
		"| 1 (z>3.5) |",
		"## By LITHOLOGY",
		"| Group | n | TRIX_CELL mean | TRIX_DEVF mean |",
		"| LITHOLOGY=CLAY | 6 | 250.5 | 501 |",
		"## Descriptive columns",
		"- LITHOLOGY: CLAY 6, SAND 4",
		"- SAMP_DESC: free text, e.g. sample 0; sample 1; sample 2",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	for _, unwanted := range []string{"## Inputs", "## Notes", "Duplicate tests"} {
		if strings.Contains(md, unwanted) {
			t.Fatalf("unexpected %q without a run:\n%s", unwanted, md)
		}
	}
}

func TestSummarizeMaxRows(t *testing.T) {
	opt := DefaultOptions()
	opt.MaxRows = 9
	rep := Summarize(specimens(), opt)
	if rep.Processed != 9 {
		t.Fatalf("processed = %d", rep.Processed)
	}
	md := rep.Markdown()
	if !strings.Contains(md, "- Specimens: 10 (summary covers the first 9)") || !strings.Contains(md, "## Notes") {
		t.Fatalf("expected truncation notes:\n%s", md)
	}
}

func TestMarkdownStrength(t *testing.T) {
	rep := Summarize(table.New("TRIAXIAL"), Options{})
	rep.Strength = []triaxial.Strength{
		{Phi: 30, Cohesion: 11.55, N: 4, Source: triaxial.SourceEffective, Valid: true},
		{Label: "SAND", N: 1},
	}
	md := rep.Markdown()
	if !strings.Contains(md, "| all | 30.00 | 11.55 | 4 | effective |") {
		t.Fatalf("missing overall strength:\n%s", md)
	}
	if !strings.Contains(md, "| SAND | - | - | 1 | insufficient data |") {
		t.Fatalf("missing invalid strength line:\n%s", md)
	}
	if !strings.Contains(md, "- Specimens: 0\n") {
		t.Fatalf("empty table should report zero specimens:\n%s", md)
	}
	if strings.Contains(md, "## Measurements") {
		t.Fatalf("empty table has no measurements:\n%s", md)
	}
}

func runManifest() *run.Manifest {
	m := run.NewManifest("")
	m.ID = "r1"
	m.GIU = "giu.csv"
	m.MatchStrategy = "suffix"
	a := &run.FileEntry{Name: "a.ags", Dialect: "AGS4", Groups: map[string]int{"TRET": 2, "GEOL": 1}, Unparsed: 7}
	for i := 0; i < 7; i++ {
		a.Diagnostics = append(a.Diagnostics, ags.Diagnostic{File: "a.ags", Line: 10 + i, Reason: "unterminated quote"})
	}
	m.Files = []*run.FileEntry{
		a,
		{Name: "b.ags", Dialect: "AGS3", Groups: map[string]int{"TRIX": 3}},
	}
	m.Counts = run.Counts{Specimens: 4, Matched: 3, Duplicates: 1, GIUIntervals: 2}
	return m
}

func TestMarkdownRunSections(t *testing.T) {
	rep := Summarize(specimens(), DefaultOptions())
	rep.Run = runManifest()

	md := rep.Markdown()
	for _, want := range []string{
		"Run `r1`, hole matching `suffix`, GIU giu.csv",
		"## Inputs",
		"| a.ags | AGS4 | GEOL (1), TRET (2) | 7 |",
		"| b.ags | AGS3 | TRIX (3) | 0 |",
		"- a.ags:10: unterminated quote",
		"- a.ags:14: unterminated quote",
		"- and 2 more",
		"- Duplicate tests removed: 1",
		"- Lithology: 3 of 4 specimens labelled from 2 GIU intervals (75.0%)",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "a.ags:15:") {
		t.Fatalf("diagnostics listing should be capped:\n%s", md)
	}
}

func TestMarkdownLithologyCoverage(t *testing.T) {
	cases := []struct {
		name string
		edit func(m *run.Manifest)
		want string
	}{
		{"no giu", func(m *run.Manifest) { m.Counts.GIUIntervals = 0; m.Counts.Matched = 0 }, "- Lithology: no GIU intervals supplied"},
		{"rejected giu", func(m *run.Manifest) { m.LithologyErr = "missing column LITH" }, "- Lithology: not assigned (missing column LITH)"},
		{"none matched", func(m *run.Manifest) { m.Counts.Matched = 0 }, "- Lithology: 0 of 4 specimens labelled from 2 GIU intervals (0.0%)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := runManifest()
			tc.edit(m)
			rep := Summarize(table.New("TRIAXIAL"), DefaultOptions())
			rep.Run = m
			if md := rep.Markdown(); !strings.Contains(md, tc.want) {
				t.Fatalf("markdown missing %q:\n%s", tc.want, md)
			}
		})
	}
}

func TestSummarizeNil(t *testing.T) {
	rep := Summarize(nil, DefaultOptions())
	if rep.Rows != 0 || len(rep.Cols) != 0 {
		t.Fatalf("nil table should give empty report: %+v", rep)
	}
}

func TestMedianMAD(t *testing.T) {
	m, mad := medianMAD([]float64{1, 2, 3, 4, 100})
	if m != 3 || mad != 1 {
		t.Fatalf("median=%v mad=%v", m, mad)
	}
}

package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/agsloom/internal/lithology"
	"github.com/KaramelBytes/agsloom/internal/triaxial"
)

// maxDiagnostics caps the unparsed-line listing under Inputs.
const maxDiagnostics = 5

// preferredMetrics are shown first in the per-group table when present.
var preferredMetrics = []string{triaxial.ColS, triaxial.ColT, triaxial.ColCell, triaxial.ColDevf}

// Markdown renders the report as a run sheet: where the specimens came from,
// what reconciliation did to them, then their measurements and strength.
func (r *Report) Markdown() string {
	var b strings.Builder
	r.writeTitle(&b)
	r.writeInputs(&b)
	r.writeReconciliation(&b)
	r.writeMeasurements(&b)
	r.writeGroups(&b)
	r.writeStrength(&b)
	r.writeDescriptive(&b)
	if len(r.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func (r *Report) writeTitle(b *strings.Builder) {
	title := "Specimen summary"
	if r.Name != "" {
		title += " (" + r.Name + ")"
	}
	fmt.Fprintf(b, "# %s\n", title)
	if r.Run == nil {
		return
	}
	fmt.Fprintf(b, "\nRun `%s`, hole matching `%s`", r.Run.ID, r.Run.MatchStrategy)
	if r.Run.GIU != "" {
		fmt.Fprintf(b, ", GIU %s", r.Run.GIU)
	}
	b.WriteString("\n")
}

func (r *Report) writeInputs(b *strings.Builder) {
	if r.Run == nil || len(r.Run.Files) == 0 {
		return
	}
	b.WriteString("\n## Inputs\n\n")
	b.WriteString("| File | Dialect | Groups | Unparsed lines |\n|---|---|---|---:|\n")
	var diags []string
	for _, f := range r.Run.Files {
		fmt.Fprintf(b, "| %s | %s | %s | %d |\n", cell(f.Name), f.Dialect, cell(f.GroupList()), f.Unparsed)
		for _, d := range f.Diagnostics {
			diags = append(diags, d.String())
		}
	}
	if len(diags) == 0 {
		return
	}
	b.WriteString("\n")
	for i, d := range diags {
		if i == maxDiagnostics {
			fmt.Fprintf(b, "- and %d more\n", len(diags)-maxDiagnostics)
			break
		}
		fmt.Fprintf(b, "- %s\n", d)
	}
}

func (r *Report) writeReconciliation(b *strings.Builder) {
	b.WriteString("\n## Reconciliation\n\n")
	fmt.Fprintf(b, "- Specimens: %d", r.Rows)
	if r.Processed < r.Rows {
		fmt.Fprintf(b, " (summary covers the first %d)", r.Processed)
	}
	b.WriteString("\n")

	if r.Run == nil {
		// A stand-alone table only tells us how many rows carry a label.
		if c, ok := r.column(lithology.ColLithology); ok {
			fmt.Fprintf(b, "- Lithology: %d of %d specimens labelled (%s)\n", c.NonNull, r.Processed, pct(c.NonNull, r.Processed))
		}
		return
	}
	fmt.Fprintf(b, "- Duplicate tests removed: %d\n", r.Run.Counts.Duplicates)
	switch {
	case r.Run.LithologyErr != "":
		fmt.Fprintf(b, "- Lithology: not assigned (%s)\n", r.Run.LithologyErr)
	case r.Run.Counts.GIUIntervals == 0:
		b.WriteString("- Lithology: no GIU intervals supplied\n")
	default:
		c := r.Run.Counts
		fmt.Fprintf(b, "- Lithology: %d of %d specimens labelled from %d GIU intervals (%s)\n",
			c.Matched, c.Specimens, c.GIUIntervals, pct(c.Matched, c.Specimens))
	}
}

func (r *Report) writeMeasurements(b *strings.Builder) {
	var num []ColumnSummary
	for _, c := range r.Cols {
		if c.Kind == "numeric" {
			num = append(num, c)
		}
	}
	if len(num) == 0 {
		return
	}
	b.WriteString("\n## Measurements\n\n")
	b.WriteString("| Column | n | missing | min | max | mean | std | robust outliers |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, c := range num {
		out := "-"
		if c.OutlierThreshold > 0 {
			out = fmt.Sprintf("%d (z>%.1f)", c.OutliersCount, c.OutlierThreshold)
		}
		fmt.Fprintf(b, "| %s | %d | %d | %.4g | %.4g | %.4g | %.4g | %s |\n",
			cell(c.Name), c.NonNull, c.Missing, c.Min, c.Max, c.Mean, c.Std, out)
	}
}

func (r *Report) writeGroups(b *strings.Builder) {
	if len(r.Groups) == 0 {
		return
	}
	metrics := groupMetrics(r.Groups)
	fmt.Fprintf(b, "\n## By %s\n\n", strings.Join(r.GroupBy, ", "))
	b.WriteString("| Group | n |")
	for _, m := range metrics {
		fmt.Fprintf(b, " %s mean |", m)
	}
	b.WriteString("\n|---|---:|" + strings.Repeat("---:|", len(metrics)) + "\n")
	for _, g := range r.Groups {
		fmt.Fprintf(b, "| %s | %d |", cell(g.Key), g.Size)
		for _, m := range metrics {
			if s, ok := g.Metrics[m]; ok {
				fmt.Fprintf(b, " %.4g |", s.Mean)
			} else {
				b.WriteString(" - |")
			}
		}
		b.WriteString("\n")
	}
}

// groupMetrics picks the stress and load columns when the groups carry them,
// otherwise the first few numeric columns by name.
func groupMetrics(groups []GroupResult) []string {
	seen := map[string]bool{}
	for _, g := range groups {
		for k := range g.Metrics {
			seen[k] = true
		}
	}
	var out []string
	for _, m := range preferredMetrics {
		if seen[m] {
			out = append(out, m)
		}
	}
	if len(out) > 0 {
		return out
	}
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	if len(out) > 4 {
		out = out[:4]
	}
	return out
}

func (r *Report) writeStrength(b *strings.Builder) {
	if len(r.Strength) == 0 {
		return
	}
	b.WriteString("\n## Strength\n\n")
	b.WriteString("| Group | phi (deg) | c | n | s basis |\n|---|---:|---:|---:|---|\n")
	for _, s := range r.Strength {
		label := s.Label
		if label == "" {
			label = "all"
		}
		if !s.Valid {
			fmt.Fprintf(b, "| %s | - | - | %d | insufficient data |\n", cell(label), s.N)
			continue
		}
		basis := s.Source
		if basis == "" {
			basis = "-"
		}
		fmt.Fprintf(b, "| %s | %.2f | %.2f | %d | %s |\n", cell(label), s.Phi, s.Cohesion, s.N, basis)
	}
}

func (r *Report) writeDescriptive(b *strings.Builder) {
	var lines, empty []string
	for _, c := range r.Cols {
		switch c.Kind {
		case "categorical":
			vals := make([]string, len(c.TopValues))
			for i, kv := range c.TopValues {
				vals[i] = fmt.Sprintf("%s %d", cell(kv.Value), kv.Count)
			}
			line := fmt.Sprintf("- %s: %s", c.Name, strings.Join(vals, ", "))
			if c.Unique > len(c.TopValues) {
				line += fmt.Sprintf(" (%d distinct)", c.Unique)
			}
			lines = append(lines, line)
		case "text":
			ex := make([]string, len(c.ExampleTexts))
			for i, e := range c.ExampleTexts {
				ex[i] = cell(e)
			}
			lines = append(lines, fmt.Sprintf("- %s: free text, e.g. %s", c.Name, strings.Join(ex, "; ")))
		case "empty":
			empty = append(empty, c.Name)
		}
	}
	if len(empty) > 0 {
		lines = append(lines, "- empty: "+strings.Join(empty, ", "))
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString("\n## Descriptive columns\n\n")
	b.WriteString(strings.Join(lines, "\n") + "\n")
}

func (r *Report) column(name string) (ColumnSummary, bool) {
	for _, c := range r.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

func pct(n, of int) string {
	if of == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(of))
}

// cell flattens a value for a Markdown table cell.
func cell(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/"))
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}

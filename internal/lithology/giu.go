// Package lithology maps GIU lithology intervals onto specimen depths.
package lithology

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/agsloom/internal/table"
)

// GIU column names after normalisation.
const (
	ColHole      = "HOLE_ID"
	ColDepthFrom = "DEPTH_FROM"
	ColDepthTo   = "DEPTH_TO"
	ColLith      = "LITH"
)

// RequiredColumns must be present in a GIU table.
var RequiredColumns = []string{ColHole, ColDepthFrom, ColDepthTo, ColLith}

// Interval is one lithology layer of a borehole, with From <= To.
type Interval struct {
	Hole  string  `json:"hole_id"`
	From  float64 `json:"depth_from"`
	To    float64 `json:"depth_to"`
	Label string  `json:"lith"`
}

// Span is the interval thickness.
func (iv Interval) Span() float64 { return iv.To - iv.From }

// Contains reports whether depth lies in [From, To].
func (iv Interval) Contains(depth float64) bool { return iv.From <= depth && depth <= iv.To }

// MissingColumnsError reports GIU columns that could not be found.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("GIU table is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// NormalizeHole is the form borehole ids are compared in.
func NormalizeHole(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeGIU returns a copy with upper-cased, trimmed column names and the
// accepted aliases (LOCA_ID, START_DEPTH, END_DEPTH) renamed.
func NormalizeGIU(t *table.Table) *table.Table {
	out := t.Clone()
	for _, c := range append([]string(nil), out.Columns...) {
		out.Rename(c, strings.ToUpper(strings.TrimSpace(c)))
	}
	out.Rename("LOCA_ID", ColHole)
	out.Rename("START_DEPTH", ColDepthFrom)
	out.Rename("END_DEPTH", ColDepthTo)
	return out
}

// PrepareGIU validates a GIU table and reads its intervals. Rows without a
// hole id, a label or either depth are dropped; inverted depths are swapped.
func PrepareGIU(t *table.Table, nf table.NumberFormat) ([]Interval, error) {
	if t == nil {
		return nil, &MissingColumnsError{Missing: append([]string(nil), RequiredColumns...)}
	}
	giu := NormalizeGIU(t)
	var missing []string
	for _, c := range RequiredColumns {
		if !giu.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	table.ToNumeric(giu, nf, ColDepthFrom, ColDepthTo)
	out := make([]Interval, 0, giu.Len())
	for _, r := range giu.Rows {
		hole := NormalizeHole(r[ColHole].String())
		label := strings.TrimSpace(r[ColLith].String())
		from, okF := r[ColDepthFrom].Float()
		to, okT := r[ColDepthTo].Float()
		if hole == "" || label == "" || !okF || !okT {
			continue
		}
		if from > to {
			from, to = to, from
		}
		out = append(out, Interval{
			Hole:  hole,
			From:  from,
			To:    to,
			Label: label,
		})
	}
	return out, nil
}

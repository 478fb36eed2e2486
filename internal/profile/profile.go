// Package profile builds a continuous depth profile per borehole from AGS
// interval groups and an optional GIU lithology table.
package profile

import (
	"errors"
	"sort"
	"strings"

	"github.com/KaramelBytes/agsloom/internal/ags"
	"github.com/KaramelBytes/agsloom/internal/lithology"
	"github.com/KaramelBytes/agsloom/internal/table"
)

// Output columns.
const (
	ColHole      = "HOLE_ID"
	ColDepthFrom = "DEPTH_FROM"
	ColDepthTo   = "DEPTH_TO"
	ColThickness = "THICKNESS_M"
	ColLith      = lithology.ColLith
	ColWeathered = "WETH"
)

// ErrNoDepthData is returned when none of the selected groups carries depths.
var ErrNoDepthData = errors.New("profile: no depth information found in selected groups")

// DefaultGroups are profiled when Options.Groups is empty.
var DefaultGroups = []string{"CORE", "DETL", "FRAC", "GEOL", "WETH"}

// ValueColumns is the attribute carried onto the profile from each group.
var ValueColumns = map[string]string{
	"CORE": "CORE_RQD",
	"DETL": "DETL_DESC",
	"FRAC": "FRAC_FI",
	"GEOL": "GEOL_DESC",
	"WETH": "WETH_GRAD",
}

// Options selects groups and how GIU holes are matched.
type Options struct {
	Groups   []string
	Strategy lithology.Strategy
}

type depthRecord struct {
	hole     string
	from, to *float64
	value    table.Value
}

type interval struct {
	hole     string
	from, to float64
	values   map[string]table.Value
}

// Build splits every borehole at all depth boundaries found in the selected
// groups, then carries each group's value column (and GIU LITH) onto the
// intervals that start inside a source range, forward-filling down the hole.
func Build(reg ags.Registry, giu []lithology.Interval, opts Options) (*table.Table, error) {
	groups := opts.Groups
	if len(groups) == 0 {
		groups = DefaultGroups
	}
	strategy := opts.Strategy
	if strategy == nil {
		strategy = lithology.Exact{}
	}

	records := map[string][]depthRecord{}
	var used []string
	for _, g := range groups {
		g = strings.ToUpper(strings.TrimSpace(g))
		recs := depthRecords(g, reg.Get(g))
		if len(recs) == 0 {
			continue
		}
		records[g] = recs
		used = append(used, g)
	}
	if len(used) == 0 {
		return nil, ErrNoDepthData
	}

	ivs := continuousIntervals(records)
	var valueCols []string
	for _, g := range used {
		col, ok := ValueColumns[g]
		if !ok || !reg.Get(g).HasColumn(col) {
			continue
		}
		valueCols = append(valueCols, col)
		for _, rec := range records[g] {
			if rec.from == nil || rec.to == nil || rec.value.IsBlank() {
				continue
			}
			assignRange(ivs, func(h string) bool { return h == rec.hole }, *rec.from, *rec.to, col, rec.value)
		}
	}
	if len(giu) > 0 {
		valueCols = append(valueCols, ColLith)
		for _, g := range giu {
			hole := lithology.NormalizeHole(g.Hole)
			match := func(h string) bool { return strategy.Match(hole, h) }
			assignRange(ivs, match, g.From, g.To, ColLith, table.Str(g.Label))
		}
	}
	forwardFill(ivs, valueCols)

	out := table.New("PROFILE", ColHole, ColDepthFrom, ColDepthTo, ColThickness)
	for _, c := range valueCols {
		out.AddColumn(c)
	}
	for _, iv := range ivs {
		r := table.Row{
			ColHole:      table.Str(iv.hole),
			ColDepthFrom: table.Num(iv.from),
			ColDepthTo:   table.Num(iv.to),
			ColThickness: table.Num(iv.to - iv.from),
		}
		for _, c := range valueCols {
			if v, ok := iv.values[c]; ok {
				r[c] = v
			}
		}
		out.Rows = append(out.Rows, r)
	}
	if out.HasColumn("WETH_GRAD") {
		out.Set(ColWeathered, func(r table.Row) table.Value {
			if r["WETH_GRAD"].IsNull() {
				return table.NullValue
			}
			return table.Str(SimplifyWeathering(r["WETH_GRAD"].String()))
		})
	}
	return out, nil
}

// depthRecords unifies a group's depth columns into from/to pairs. A group
// with only a point depth contributes zero-length ranges.
func depthRecords(group string, src *table.Table) []depthRecord {
	if src.Empty() {
		return nil
	}
	t := src.Clone()
	fromCol := firstPresent(t, ColDepthFrom, group+"_TOP", group+"_FROM", "SAMP_TOP", "SAMPLE_TOP", "START_DEPTH")
	toCol := firstPresent(t, ColDepthTo, group+"_BASE", group+"_BOT", group+"_TO", "SAMP_BASE", "SAMPLE_BASE", "END_DEPTH")
	if fromCol == "" {
		point := firstPresent(t, "SPEC_DEPTH", "SAMPLE_DEPTH", "TEST_DEPTH")
		if point == "" {
			return nil
		}
		fromCol, toCol = point, point
	}
	cols := []string{fromCol}
	if toCol != "" {
		cols = append(cols, toCol)
	}
	table.ToNumeric(t, table.DefaultNumberFormat(), cols...)

	valueCol := ValueColumns[group]
	var out []depthRecord
	for _, r := range t.Rows {
		hole := lithology.NormalizeHole(r[ColHole].String())
		if hole == "" {
			continue
		}
		rec := depthRecord{hole: hole, from: floatPtr(r[fromCol]), value: r[valueCol]}
		if toCol != "" {
			rec.to = floatPtr(r[toCol])
		}
		if rec.from == nil && rec.to == nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// continuousIntervals returns consecutive [from, to) intervals between every
// distinct boundary of each hole, sorted by hole then depth.
func continuousIntervals(records map[string][]depthRecord) []*interval {
	points := map[string]map[float64]struct{}{}
	for _, recs := range records {
		for _, rec := range recs {
			set, ok := points[rec.hole]
			if !ok {
				set = map[float64]struct{}{}
				points[rec.hole] = set
			}
			for _, p := range []*float64{rec.from, rec.to} {
				if p != nil {
					set[*p] = struct{}{}
				}
			}
		}
	}
	holes := make([]string, 0, len(points))
	for h := range points {
		holes = append(holes, h)
	}
	sort.Strings(holes)

	var out []*interval
	for _, h := range holes {
		depths := make([]float64, 0, len(points[h]))
		for d := range points[h] {
			depths = append(depths, d)
		}
		sort.Float64s(depths)
		for i := 1; i < len(depths); i++ {
			out = append(out, &interval{hole: h, from: depths[i-1], to: depths[i], values: map[string]table.Value{}})
		}
	}
	return out
}

// assignRange sets col on intervals of matching holes whose start lies in [from, to).
func assignRange(ivs []*interval, hole func(string) bool, from, to float64, col string, v table.Value) {
	for _, iv := range ivs {
		if hole(iv.hole) && iv.from >= from && iv.from < to {
			iv.values[col] = v
		}
	}
}

func forwardFill(ivs []*interval, cols []string) {
	last := map[string]table.Value{}
	hole := ""
	for _, iv := range ivs {
		if iv.hole != hole {
			hole = iv.hole
			last = map[string]table.Value{}
		}
		for _, c := range cols {
			if v, ok := iv.values[c]; ok && !v.IsNull() {
				last[c] = v
			} else if prev, ok := last[c]; ok {
				iv.values[c] = prev
			}
		}
	}
}

func firstPresent(t *table.Table, candidates ...string) string {
	for _, c := range candidates {
		if t.HasColumn(c) {
			return c
		}
	}
	return ""
}

func floatPtr(v table.Value) *float64 {
	f, ok := v.Float()
	if !ok {
		return nil
	}
	return &f
}

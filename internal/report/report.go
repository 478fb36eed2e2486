// Package report summarises a specimen table, and the run that produced it,
// as Markdown.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/agsloom/internal/lithology"
	"github.com/KaramelBytes/agsloom/internal/run"
	"github.com/KaramelBytes/agsloom/internal/table"
	"github.com/KaramelBytes/agsloom/internal/triaxial"
)

// Options controls summary behaviour.
type Options struct {
	// MaxRows limits rows processed; 0 means unlimited.
	MaxRows int
	// GroupBy computes per-group numeric summaries for the given column names.
	GroupBy []string
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// NumberFormat reads numeric strings; the zero value auto-detects separators.
	NumberFormat table.NumberFormat
}

// DefaultOptions returns the settings used for the processed specimen table.
func DefaultOptions() Options {
	return Options{
		GroupBy:      []string{lithology.ColLithology},
		Outliers:     true,
		NumberFormat: table.DefaultNumberFormat(),
	}
}

// Report is a markdown-friendly summary of a specimen table.
type Report struct {
	Name      string
	Rows      int
	Processed int
	Cols      []ColumnSummary
	Warnings  []string
	GroupBy   []string
	Groups    []GroupResult
	Strength  []triaxial.Strength
	// Run adds inputs, reconciliation counts and lithology coverage when set.
	Run *run.Manifest
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|categorical|text|empty
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// colAcc accumulates one column in a single pass.
type colAcc struct {
	name   string
	nonNil int
	miss   int

	// numeric stats via Welford
	n      int
	mean   float64
	m2     float64
	min    float64
	max    float64
	nums   []float64
	txtCnt int
	cats   map[string]int
	exText []string
}

func (c *colAcc) addNumber(x float64) {
	c.n++
	if x < c.min {
		c.min = x
	}
	if x > c.max {
		c.max = x
	}
	delta := x - c.mean
	c.mean += delta / float64(c.n)
	c.m2 += delta * (x - c.mean)
	c.nums = append(c.nums, x)
}

type gAcc struct {
	size int
	sum  map[int]float64
	cnt  map[int]int
	min  map[int]float64
	max  map[int]float64
}

// Summarize analyses t and returns a Report.
func Summarize(t *table.Table, opt Options) *Report {
	rep := &Report{}
	if t == nil {
		return rep
	}
	rep.Name = t.Name
	rep.Rows = t.Len()
	rep.GroupBy = opt.GroupBy
	ncol := len(t.Columns)
	cols := make([]*colAcc, ncol)
	for i, name := range t.Columns {
		cols[i] = &colAcc{name: name, min: math.Inf(1), max: math.Inf(-1), cats: map[string]int{}}
	}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	groups := map[string]*gAcc{}

	for _, row := range t.Rows {
		if rep.Processed >= maxRows {
			break
		}
		rep.Processed++
		gkey := groupKey(row, opt.GroupBy)
		var ga *gAcc
		if gkey != "" {
			ga = groups[gkey]
			if ga == nil {
				ga = &gAcc{sum: map[int]float64{}, cnt: map[int]int{}, min: map[int]float64{}, max: map[int]float64{}}
				groups[gkey] = ga
			}
			ga.size++
		}

		for j, name := range t.Columns {
			v := row[name]
			c := cols[j]
			if v.IsBlank() {
				c.miss++
				continue
			}
			c.nonNil++
			x, ok := v.Float()
			if !ok {
				x, ok = table.ParseNumber(v.String(), opt.NumberFormat)
			}
			if ok {
				c.addNumber(x)
				if ga != nil {
					ga.sum[j] += x
					ga.cnt[j]++
					if m, seen := ga.min[j]; !seen || x < m {
						ga.min[j] = x
					}
					if m, seen := ga.max[j]; !seen || x > m {
						ga.max[j] = x
					}
				}
				continue
			}
			s := strings.TrimSpace(v.String())
			c.txtCnt++
			if len(c.cats) <= 10000 && len(s) <= 64 {
				c.cats[s]++
			}
			if len(c.exText) < 3 {
				c.exText = append(c.exText, s)
			}
		}
	}

	var numCols []int
	for idx, c := range cols {
		s := summarizeColumn(c, opt)
		if s.Kind == "numeric" {
			numCols = append(numCols, idx)
		}
		rep.Cols = append(rep.Cols, s)
	}
	if rep.Processed < rep.Rows {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", rep.Processed, rep.Rows))
	}
	rep.Groups = groupResults(groups, cols, numCols)
	return rep
}

func groupKey(row table.Row, by []string) string {
	var parts []string
	for _, name := range by {
		v := row[name]
		if v.IsBlank() {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", name, cell(v.String())))
	}
	return strings.Join(parts, ", ")
}

func summarizeColumn(c *colAcc, opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.name, NonNull: c.nonNil, Missing: c.miss}
	switch {
	case c.n > 0 && c.n >= c.txtCnt:
		s.Kind = "numeric"
		s.Min, s.Max, s.Mean = c.min, c.max, c.mean
		if c.n > 1 {
			s.Std = math.Sqrt(c.m2 / float64(c.n-1))
		}
		if opt.Outliers && len(c.nums) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(c.nums, thr)
			s.OutlierThreshold = thr
		}
	case len(c.cats) > 0 && len(c.cats) < c.txtCnt:
		s.Kind = "categorical"
		tops := make([]CategoryCount, 0, len(c.cats))
		for k, v := range c.cats {
			tops = append(tops, CategoryCount{Value: k, Count: v})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		if len(tops) > 8 {
			tops = tops[:8]
		}
		s.TopValues = tops
		s.Unique = len(c.cats)
	case c.txtCnt > 0:
		s.Kind = "text"
		s.ExampleTexts = c.exText
	default:
		s.Kind = "empty"
	}
	return s
}

// robustOutliers counts values whose modified z-score exceeds thr.
func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

func groupResults(groups map[string]*gAcc, cols []*colAcc, numCols []int) []GroupResult {
	if len(groups) == 0 {
		return nil
	}
	out := make([]GroupResult, 0, len(groups))
	for k, ga := range groups {
		gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
		for _, idx := range numCols {
			if ga.cnt[idx] == 0 {
				continue
			}
			gr.Metrics[cols[idx].name] = NumSummary{
				Count: ga.cnt[idx],
				Min:   ga.min[idx],
				Max:   ga.max[idx],
				Mean:  ga.sum[idx] / float64(ga.cnt[idx]),
			}
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

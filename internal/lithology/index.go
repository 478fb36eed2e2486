package lithology

import (
	"sort"

	"github.com/KaramelBytes/agsloom/internal/table"
)

// ColLithology is the specimen column Assign fills.
const ColLithology = "LITHOLOGY"

// Index groups intervals by borehole, each list sorted by From.
type Index struct {
	strategy Strategy
	byHole   map[string][]Interval
	holes    []string
}

// NewIndex builds a lookup index. A nil strategy means Exact.
func NewIndex(intervals []Interval, s Strategy) *Index {
	if s == nil {
		s = Exact{}
	}
	idx := &Index{strategy: s, byHole: map[string][]Interval{}}
	for _, iv := range intervals {
		h := NormalizeHole(iv.Hole)
		if _, ok := idx.byHole[h]; !ok {
			idx.holes = append(idx.holes, h)
		}
		idx.byHole[h] = append(idx.byHole[h], iv)
	}
	for _, h := range idx.holes {
		ivs := idx.byHole[h]
		sort.SliceStable(ivs, func(i, j int) bool { return ivs[i].From < ivs[j].From })
	}
	sort.Strings(idx.holes)
	return idx
}

// Strategy returns the matching strategy in use.
func (idx *Index) Strategy() Strategy { return idx.strategy }

// Holes returns the indexed borehole ids in sorted order.
func (idx *Index) Holes() []string { return idx.holes }

// Lookup returns the narrowest labelled interval containing depth among the
// boreholes the strategy matches to hole. Equal spans go to the deeper From.
func (idx *Index) Lookup(hole string, depth float64) (Interval, bool) {
	hole = NormalizeHole(hole)
	if hole == "" {
		return Interval{}, false
	}
	var best Interval
	found := false
	consider := func(ivs []Interval) {
		// Intervals with From <= depth form a prefix of the sorted list.
		n := sort.Search(len(ivs), func(i int) bool { return ivs[i].From > depth })
		for _, iv := range ivs[:n] {
			if iv.To < depth || iv.Label == "" {
				continue
			}
			if !found || iv.Span() < best.Span() || (iv.Span() == best.Span() && iv.From > best.From) {
				best, found = iv, true
			}
		}
	}
	if _, exact := idx.strategy.(Exact); exact {
		consider(idx.byHole[hole])
		return best, found
	}
	for _, h := range idx.holes {
		if idx.strategy.Match(h, hole) {
			consider(idx.byHole[h])
		}
	}
	return best, found
}

// Assign sets LITHOLOGY on every row from HOLE_ID and SPEC_DEPTH and returns
// how many rows received a label. Rows without a hole, a depth or a
// containing interval get Null.
func Assign(t *table.Table, idx *Index) int {
	if t == nil {
		return 0
	}
	matched := 0
	t.Set(ColLithology, func(r table.Row) table.Value {
		if idx == nil {
			return table.NullValue
		}
		depth, ok := depthOf(r["SPEC_DEPTH"])
		if !ok || r[ColHole].IsBlank() {
			return table.NullValue
		}
		iv, ok := idx.Lookup(r[ColHole].String(), depth)
		if !ok {
			return table.NullValue
		}
		matched++
		return table.Str(iv.Label)
	})
	return matched
}

func depthOf(v table.Value) (float64, bool) {
	if f, ok := v.Float(); ok {
		return f, true
	}
	if v.Kind() == table.String {
		return table.ParseNumber(v.String(), table.DefaultNumberFormat())
	}
	return 0, false
}

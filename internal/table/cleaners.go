package table

import "strings"

// MultiSep joins the values of a cell that absorbed continuation lines.
const MultiSep = " | "

// NonBlankCount counts cells of r that are neither Null nor whitespace-only.
func NonBlankCount(r Row) int {
	n := 0
	for _, v := range r {
		if !v.IsBlank() {
			n++
		}
	}
	return n
}

// DropSingletonRows returns a copy without rows holding at most one non-blank cell.
func DropSingletonRows(t *Table) *Table {
	if t == nil {
		return New("")
	}
	return t.Filter(func(r Row) bool { return NonBlankCount(r) > 1 })
}

// SplitMulti splits a " | "-joined cell into segments. Null yields a single Null segment.
func SplitMulti(v Value) []Value {
	if v.Kind() != String || !strings.Contains(v.String(), MultiSep) {
		return []Value{v}
	}
	parts := strings.Split(v.String(), MultiSep)
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = Str(p)
	}
	return out
}

// DeduplicateCell removes repeated " | " segments keeping first-occurrence order.
// Segments are trimmed and empty ones dropped. Non-string and empty cells pass through.
func DeduplicateCell(v Value) Value {
	if v.Kind() != String || v.String() == "" {
		return v
	}
	parts := strings.Split(v.String(), MultiSep)
	if len(parts) == 1 {
		return v
	}
	seen := make(map[string]struct{}, len(parts))
	uniq := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}
	return Str(strings.Join(uniq, MultiSep))
}

// DeduplicateCells applies DeduplicateCell to every cell in place.
func DeduplicateCells(t *Table) {
	if t == nil {
		return
	}
	for _, r := range t.Rows {
		for k, v := range r {
			r[k] = DeduplicateCell(v)
		}
	}
}

// ExpandRows explodes rows whose cells hold " | "-joined values into one row per
// position. Cells with fewer segments are padded with "" at the trailing positions.
// A row whose multi-valued cells all repeat one value the same number of times
// collapses to a single row instead.
func ExpandRows(t *Table) *Table {
	if t == nil {
		return New("")
	}
	out := &Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, expandRow(r, t.Columns)...)
	}
	return out
}

func expandRow(r Row, cols []string) []Row {
	split := make(map[string][]Value, len(cols))
	maxLen := 1
	multi := 0
	for _, c := range cols {
		segs := SplitMulti(r[c])
		split[c] = segs
		if len(segs) > 1 {
			multi++
		}
		if len(segs) > maxLen {
			maxLen = len(segs)
		}
	}
	if multi == 0 {
		return []Row{r.Clone()}
	}
	if uniformRepeats(split) {
		nr := r.Clone()
		for c, segs := range split {
			if len(segs) > 1 {
				nr[c] = segs[0]
			}
		}
		return []Row{nr}
	}
	rows := make([]Row, maxLen)
	for i := range rows {
		nr := make(Row, len(cols))
		for _, c := range cols {
			if segs := split[c]; i < len(segs) {
				nr[c] = segs[i]
			} else {
				nr[c] = Str("")
			}
		}
		rows[i] = nr
	}
	return rows
}

// uniformRepeats reports whether every multi-valued cell is one value repeated,
// with the same repeat count across cells.
func uniformRepeats(split map[string][]Value) bool {
	count := 0
	for _, segs := range split {
		if len(segs) < 2 {
			continue
		}
		if count == 0 {
			count = len(segs)
		} else if len(segs) != count {
			return false
		}
		for _, s := range segs[1:] {
			if !s.Equal(segs[0]) {
				return false
			}
		}
	}
	return count > 0
}

// Coalesce sets target to a copy of the first candidate column that exists.
// Values are not merged across candidates. With no candidate present, target is
// declared Null-filled unless it already exists.
func Coalesce(t *Table, candidates []string, target string) {
	if t == nil {
		return
	}
	for _, c := range candidates {
		if !t.HasColumn(c) {
			continue
		}
		if c == target {
			return
		}
		t.Set(target, func(r Row) Value { return r[c] })
		return
	}
	t.AddColumn(target)
}

// FillNulls sets target from the first non-null candidate, row by row, where target is Null.
func FillNulls(t *Table, target string, candidates ...string) {
	if t == nil {
		return
	}
	t.Set(target, func(r Row) Value {
		if v := r[target]; !v.IsNull() {
			return v
		}
		for _, c := range candidates {
			if v := r[c]; !v.IsNull() {
				return v
			}
		}
		return NullValue
	})
}

package table

import "strings"

// OuterJoin performs a full outer join of left and right on keys.
//
// Rows come out in left order (each left row followed by its right matches),
// then right rows that matched nothing, in right order. Null keys match Null
// keys. Right columns that collide with left non-key columns are renamed with
// suffix. Keys missing from either side are ignored; with no usable key, or
// when a key cell still holds a " | " list, the join degrades to Stack.
func OuterJoin(left, right *Table, keys []string, suffix string) *Table {
	if left == nil {
		left = New("")
	}
	if right.Empty() {
		return left.Clone()
	}
	if left.Empty() && len(left.Columns) == 0 {
		return right.Clone()
	}
	var on []string
	for _, k := range keys {
		if left.HasColumn(k) && right.HasColumn(k) {
			on = append(on, k)
		}
	}
	if len(on) == 0 || !scalarKeys(left, on) || !scalarKeys(right, on) {
		return Stack(left.Name, left, right)
	}

	isKey := make(map[string]bool, len(on))
	for _, k := range on {
		isKey[k] = true
	}
	rename := map[string]string{}
	out := New(left.Name, left.Columns...)
	for _, c := range right.Columns {
		if isKey[c] {
			continue
		}
		name := c
		if left.HasColumn(c) {
			name = c + suffix
		}
		rename[c] = name
		out.AddColumn(name)
	}

	index := make(map[string][]int, right.Len())
	for i, r := range right.Rows {
		k := joinKey(r, on)
		index[k] = append(index[k], i)
	}
	matched := make([]bool, right.Len())
	for _, l := range left.Rows {
		hits := index[joinKey(l, on)]
		if len(hits) == 0 {
			out.Rows = append(out.Rows, l.Clone())
			continue
		}
		for _, i := range hits {
			matched[i] = true
			out.Rows = append(out.Rows, mergeRow(l, right.Rows[i], rename))
		}
	}
	for i, r := range right.Rows {
		if matched[i] {
			continue
		}
		nr := make(Row, len(r))
		for _, k := range on {
			nr[k] = r[k]
		}
		for c, name := range rename {
			if v, ok := r[c]; ok {
				nr[name] = v
			}
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

func mergeRow(l, r Row, rename map[string]string) Row {
	out := l.Clone()
	for c, name := range rename {
		if v, ok := r[c]; ok {
			out[name] = v
		}
	}
	return out
}

func joinKey(r Row, on []string) string {
	var b strings.Builder
	for _, k := range on {
		v := r[k]
		if v.IsNull() {
			b.WriteString("\x00")
		} else {
			b.WriteString(v.String())
		}
		b.WriteString("\x1f")
	}
	return b.String()
}

func scalarKeys(t *Table, on []string) bool {
	for _, r := range t.Rows {
		for _, k := range on {
			if v := r[k]; v.Kind() == String && strings.Contains(v.String(), MultiSep) {
				return false
			}
		}
	}
	return true
}

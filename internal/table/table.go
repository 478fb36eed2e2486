package table

import "sort"

// Row maps column name to cell. A missing key reads as Null.
type Row map[string]Value

// Get returns the cell for col, or Null.
func (r Row) Get(col string) Value { return r[col] }

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered set of rows over a declared, ordered column list.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// New returns an empty table with the given columns.
func New(name string, cols ...string) *Table {
	t := &Table{Name: name}
	for _, c := range cols {
		t.AddColumn(c)
	}
	return t
}

// Len returns the number of rows; nil tables have none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// HasColumn reports whether col is declared.
func (t *Table) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// AddColumn declares col if missing. Existing rows read it as Null.
func (t *Table) AddColumn(col string) {
	if !t.HasColumn(col) {
		t.Columns = append(t.Columns, col)
	}
}

// Append adds a row, declaring any columns it introduces.
func (t *Table) Append(r Row) {
	for _, c := range sortedKeys(r, t.Columns) {
		t.AddColumn(c)
	}
	t.Rows = append(t.Rows, r)
}

// Clone deep-copies columns and rows.
func (t *Table) Clone() *Table {
	if t == nil {
		return New("")
	}
	out := &Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Column returns the cells of col in row order.
func (t *Table) Column(col string) []Value {
	out := make([]Value, t.Len())
	for i, r := range t.Rows {
		out[i] = r[col]
	}
	return out
}

// Set declares col and assigns fn(row) to every row.
func (t *Table) Set(col string, fn func(Row) Value) {
	t.AddColumn(col)
	for _, r := range t.Rows {
		r[col] = fn(r)
	}
}

// Fill sets col to v on every row.
func (t *Table) Fill(col string, v Value) {
	t.Set(col, func(Row) Value { return v })
}

// Rename renames a column in place. It is a no-op when from is missing or to exists.
func (t *Table) Rename(from, to string) bool {
	if from == to || !t.HasColumn(from) || t.HasColumn(to) {
		return false
	}
	for i, c := range t.Columns {
		if c == from {
			t.Columns[i] = to
		}
	}
	for _, r := range t.Rows {
		if v, ok := r[from]; ok {
			r[to] = v
			delete(r, from)
		}
	}
	return true
}

// Project returns a copy holding only the listed columns that exist, in list order.
func (t *Table) Project(cols ...string) *Table {
	out := New(t.Name)
	for _, c := range cols {
		if t.HasColumn(c) {
			out.AddColumn(c)
		}
	}
	out.Rows = make([]Row, 0, t.Len())
	for _, r := range t.Rows {
		nr := make(Row, len(out.Columns))
		for _, c := range out.Columns {
			if v, ok := r[c]; ok {
				nr[c] = v
			}
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// Filter returns a copy holding the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r.Clone())
		}
	}
	return out
}

// Stack unions rows of all tables. Columns are the union in first-seen order.
func Stack(name string, tables ...*Table) *Table {
	out := New(name)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			out.AddColumn(c)
		}
		for _, r := range t.Rows {
			out.Rows = append(out.Rows, r.Clone())
		}
	}
	return out
}

// sortedKeys returns the keys of r not in known, in a stable order.
func sortedKeys(r Row, known []string) []string {
	seen := make(map[string]struct{}, len(known))
	for _, c := range known {
		seen[c] = struct{}{}
	}
	var extra []string
	for k := range r {
		if _, ok := seen[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}

package ags

import (
	"sort"

	"github.com/KaramelBytes/agsloom/internal/table"
)

// Registry maps group name to its table.
type Registry map[string]*table.Table

// Get returns the named group, or an empty table when it is absent.
func (r Registry) Get(name string) *table.Table {
	if t, ok := r[name]; ok && t != nil {
		return t
	}
	return table.New(name)
}

// Has reports whether the group is present with at least one row.
func (r Registry) Has(name string) bool {
	return !r[name].Empty()
}

// Names returns group names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Combine stacks same-named groups across files, in file order. Every row is
// tagged with its file name and singleton rows are dropped after stacking.
func Combine(files []*File) Registry {
	parts := map[string][]*table.Table{}
	var order []string
	for _, f := range files {
		if f == nil {
			continue
		}
		for _, name := range f.Groups.Names() {
			t := f.Groups[name]
			if t.Empty() {
				continue
			}
			tagged := t.Clone()
			tagged.Fill(SourceColumn, table.Str(f.Name))
			if _, ok := parts[name]; !ok {
				order = append(order, name)
			}
			parts[name] = append(parts[name], tagged)
		}
	}
	out := make(Registry, len(order))
	for _, name := range order {
		out[name] = table.DropSingletonRows(table.Stack(name, parts[name]...))
	}
	return out
}

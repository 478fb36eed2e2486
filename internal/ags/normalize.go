package ags

import (
	"strings"

	"github.com/KaramelBytes/agsloom/internal/table"
)

// userGroupAliases maps AGS4 user-defined group names to their standard spelling.
var userGroupAliases = map[string]string{
	"?ETH":  "WETH",
	"?LEGD": "LEGD",
	"?HORN": "HORN",
}

// Normalize rewrites group and column spellings in place so that groups from
// AGS3 and AGS4 files line up: column names are upper-cased and trimmed,
// SPEC_DPTH becomes SPEC_DEPTH, LOCA_ID becomes HOLE_ID when no HOLE_ID exists,
// and user-defined "?" groups take their standard names.
func Normalize(reg Registry) {
	for _, name := range reg.Names() {
		t := reg[name]
		normalizeColumns(t)
		alias, ok := userGroupAliases[name]
		if !ok {
			continue
		}
		delete(reg, name)
		t.Name = alias
		if prev, ok := reg[alias]; ok {
			t = table.Stack(alias, prev, t)
		}
		reg[alias] = t
	}
}

func normalizeColumns(t *table.Table) {
	if t == nil {
		return
	}
	for _, c := range append([]string(nil), t.Columns...) {
		t.Rename(c, canonicalColumn(c))
	}
	t.Rename("SPEC_DPTH", "SPEC_DEPTH")
	if !t.HasColumn("HOLE_ID") {
		t.Rename("LOCA_ID", "HOLE_ID")
	}
}

func canonicalColumn(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	for from, to := range userGroupAliases {
		if c == from || strings.HasPrefix(c, from+"_") {
			return to + strings.TrimPrefix(c, from)
		}
	}
	return c
}

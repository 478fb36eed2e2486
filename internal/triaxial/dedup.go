package triaxial

import (
	"strconv"
	"strings"

	"github.com/KaramelBytes/agsloom/internal/table"
)

// DefaultDecimals is the rounding applied to numeric key cells before comparison.
const DefaultDecimals = 2

// DedupKeyColumns is the natural key of a triaxial test.
var DedupKeyColumns = []string{ColHole, ColDepth, ColCell, ColDevf, ColPwpf, ColTestType, ColSource}

// minKeyColumns is how many key columns must exist before deduplication is attempted.
const minKeyColumns = 3

// RemoveDuplicates drops rows whose key cells match an earlier row, keeping
// the first. Numeric cells are rounded to decimals places before comparison.
// It returns the filtered copy and the number of rows removed.
func RemoveDuplicates(t *table.Table, decimals int) (*table.Table, int) {
	if t == nil {
		return table.New(TableName), 0
	}
	if decimals < 0 {
		decimals = DefaultDecimals
	}
	var keys []string
	for _, c := range DedupKeyColumns {
		if t.HasColumn(c) {
			keys = append(keys, c)
		}
	}
	if len(keys) < minKeyColumns {
		return t.Clone(), 0
	}
	seen := make(map[string]struct{}, t.Len())
	out := t.Filter(func(r table.Row) bool {
		k := dedupKey(r, keys, decimals)
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
	return out, t.Len() - out.Len()
}

func dedupKey(r table.Row, keys []string, decimals int) string {
	parts := make([]string, len(keys))
	for i, c := range keys {
		v := r[c]
		switch v.Kind() {
		case table.Number:
			f, _ := v.Float()
			parts[i] = strconv.FormatFloat(f, 'f', decimals, 64)
		case table.String:
			parts[i] = v.String()
		}
	}
	return strings.Join(parts, "\x1f")
}

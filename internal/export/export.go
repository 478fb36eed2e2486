// Package export writes tables to CSV and JSON files.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/agsloom/internal/ags"
	"github.com/KaramelBytes/agsloom/internal/table"
	"github.com/KaramelBytes/agsloom/internal/utils"
)

// WriteCSV writes t with a header row. Null cells are written empty.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if t == nil {
		cw.Flush()
		return cw.Error()
	}
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, c := range t.Columns {
			rec[i] = r[c].String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes t as an array of objects keyed by column, in column order.
func WriteJSON(w io.Writer, t *table.Table) error {
	var b bytes.Buffer
	b.WriteString("[")
	if t != nil {
		for i, r := range t.Rows {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("\n  {")
			for j, c := range t.Columns {
				if j > 0 {
					b.WriteString(", ")
				}
				k, _ := json.Marshal(c)
				v, err := json.Marshal(r[c])
				if err != nil {
					return fmt.Errorf("encode %s: %w", c, err)
				}
				b.Write(k)
				b.WriteString(": ")
				b.Write(v)
			}
			b.WriteString("}")
		}
		if t.Len() > 0 {
			b.WriteString("\n")
		}
	}
	b.WriteString("]\n")
	_, err := w.Write(b.Bytes())
	return err
}

// WriteCSVFile writes t to path atomically.
func WriteCSVFile(path string, t *table.Table) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// WriteGroups writes one CSV per group as dir/<NAME>.csv and returns the
// paths written, in group name order.
func WriteGroups(dir string, reg ags.Registry) ([]string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	var paths []string
	for _, name := range reg.Names() {
		p := filepath.Join(dir, safeFileName(name)+".csv")
		if err := WriteCSVFile(p, reg[name]); err != nil {
			return paths, fmt.Errorf("write group %s: %w", name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// safeFileName keeps group names usable as file names; user groups may start with '?'.
func safeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

// Package tabular reads delimited text and spreadsheet files into tables.
package tabular

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/agsloom/internal/table"
)

// Reader reads one file format into a table.
type Reader interface {
	CanRead(filename string) bool
	Read(content []byte, opts Options) (*table.Table, error)
}

// Options tunes readers. The zero value reads the first sheet of a workbook
// and sniffs the delimiter of text files.
type Options struct {
	// Sheet selects a workbook sheet by name; empty means the first sheet.
	Sheet string
	// Delimiter for delimited text. If 0, it is sniffed from the header line.
	Delimiter rune
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported table format")

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(delimitedReader{})
	Register(xlsxReader{})
}

// ReadFile picks a reader by file name and reads path into a table named after it.
func ReadFile(path string, opts Options) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Read(filepath.Base(path), data, opts)
}

// Read picks a reader by name and reads content.
func Read(name string, content []byte, opts Options) (*table.Table, error) {
	for _, r := range registry {
		if r.CanRead(name) {
			t, err := r.Read(content, opts)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			t.Name = strings.TrimSuffix(name, filepath.Ext(name))
			return t, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrUnsupported)
}

// fromRecords turns a header row plus data rows into a table. Blank header
// cells get positional names and fully blank data rows are skipped.
func fromRecords(records [][]string) *table.Table {
	t := table.New("")
	start := -1
	for i, rec := range records {
		if !blankRecord(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return t
	}
	header := make([]string, len(records[start]))
	for i, h := range records[start] {
		h = strings.TrimSpace(h)
		if h == "" || t.HasColumn(h) {
			h = fmt.Sprintf("COLUMN_%d", i+1)
		}
		header[i] = h
		t.AddColumn(h)
	}
	for _, rec := range records[start+1:] {
		if blankRecord(rec) {
			continue
		}
		r := make(table.Row, len(header))
		for i, h := range header {
			if i < len(rec) {
				r[h] = table.Str(strings.TrimSpace(rec[i]))
			}
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

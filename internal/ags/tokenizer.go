package ags

import (
	"encoding/csv"
	"strings"
)

// Tokenize splits one physical AGS line into fields.
// Quoted fields may hold commas and doubled quotes. Empty fields are kept.
// It returns nil when the line is blank or not valid CSV.
func Tokenize(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	rec, err := r.Read()
	if err != nil {
		return nil
	}
	// A valid line is exactly one record.
	if _, err := r.Read(); err == nil {
		return nil
	}
	return rec
}

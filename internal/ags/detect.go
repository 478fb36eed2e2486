package ags

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DefaultDetectLines is how many leading lines are scanned for dialect markers.
const DefaultDetectLines = 50

// Flags describes what a file looks like before parsing.
type Flags struct {
	IsAGS3  bool `json:"is_ags3"`
	IsAGS4  bool `json:"is_ags4"`
	HasLOCA bool `json:"has_loca"`
	HasHOLE bool `json:"has_hole"`
}

// Dialect renders the flags as "AGS3", "AGS4", "AGS3+AGS4" or "unknown".
func (f Flags) Dialect() string {
	switch {
	case f.IsAGS3 && f.IsAGS4:
		return "AGS3+AGS4"
	case f.IsAGS4:
		return "AGS4"
	case f.IsAGS3:
		return "AGS3"
	}
	return "unknown"
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode turns raw file bytes into text without ever failing.
// Valid UTF-8 is kept as is; anything else is read as ISO-8859-1, which maps
// every byte to a rune.
func Decode(b []byte) string {
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return string(b)
	}
	out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), b)
	if err != nil {
		// ISO-8859-1 has no invalid sequences; keep the bytes as a last resort.
		return string(b)
	}
	return string(out)
}

// Lines splits decoded text on \n, dropping a trailing \r from each line.
func Lines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// Detect scans the first prefix lines for dialect markers and the whole file
// for borehole identity groups. prefix <= 0 uses DefaultDetectLines.
func Detect(b []byte, prefix int) Flags {
	return detectLines(Lines(Decode(b)), prefix)
}

func detectLines(lines []string, prefix int) Flags {
	if prefix <= 0 {
		prefix = DefaultDetectLines
	}
	var f Flags
	for i, l := range lines {
		tok := Tokenize(l)
		if len(tok) == 0 {
			continue
		}
		key := keyword(tok[0])
		if i < prefix {
			if key == "GROUP" {
				f.IsAGS4 = true
			} else if strings.HasPrefix(key, "**") {
				f.IsAGS3 = true
			}
		}
		switch groupName(tok) {
		case "LOCA":
			f.HasLOCA = true
		case "HOLE":
			f.HasHOLE = true
		}
	}
	return f
}

// groupName returns the group a group-start line opens, or "".
func groupName(tok []string) string {
	key := keyword(tok[0])
	switch {
	case key == "GROUP" && len(tok) > 1:
		return keyword(tok[1])
	case strings.HasPrefix(key, "**"):
		return strings.TrimPrefix(key, "**")
	}
	return ""
}

func keyword(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

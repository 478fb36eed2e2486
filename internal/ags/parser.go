package ags

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/agsloom/internal/table"
)

// SourceColumn tags every parsed row with the file it came from.
const SourceColumn = "SOURCE_FILE"

// Diagnostic records a line the parser could not use.
type Diagnostic struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Reason)
}

// File is the result of parsing one AGS file.
type File struct {
	Name        string       `json:"name"`
	Flags       Flags        `json:"flags"`
	Groups      Registry     `json:"-"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	Unparsed    int          `json:"unparsed"`
}

// Options tunes parsing. The zero value is usable.
type Options struct {
	DetectLines int
	Logger      *zap.Logger
}

type dialect int

const (
	dialectNone dialect = iota
	dialectAGS3
	dialectAGS4
)

// ParseFile reads path and parses it under its base name.
func ParseFile(path string, opts Options) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ags file: %w", err)
	}
	return Parse(filepath.Base(path), b, opts), nil
}

// Parse runs the group state machine over b. Malformed lines are skipped and
// reported in Diagnostics; parsing never fails on bad data.
func Parse(name string, b []byte, opts Options) *File {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	lines := Lines(Decode(b))
	p := newParser(name, log.With(zap.String("file", name)))
	for i, l := range lines {
		p.feed(i+1, l)
	}

	reg := p.registry()
	Normalize(reg)
	for g, t := range reg {
		t = table.DropSingletonRows(t)
		t.Fill(SourceColumn, table.Str(name))
		reg[g] = t
	}

	f := &File{
		Name:        name,
		Flags:       detectLines(lines, opts.DetectLines),
		Groups:      reg,
		Diagnostics: p.diags,
		Unparsed:    p.unparsed,
	}
	log.Info("parsed ags file",
		zap.String("file", name),
		zap.String("dialect", f.Flags.Dialect()),
		zap.Int("groups", len(reg)),
		zap.Int("unparsed", f.Unparsed))
	return f
}

// parser holds the state of one file's parse. It is never shared.
type parser struct {
	file string
	log  *zap.Logger

	tables map[string]*table.Table
	order  []string

	group      string
	dialect    dialect
	headings   []string
	collecting bool
	last       table.Row

	line     int
	diags    []Diagnostic
	unparsed int
}

func newParser(file string, log *zap.Logger) *parser {
	return &parser{file: file, log: log, tables: map[string]*table.Table{}}
}

func (p *parser) feed(n int, line string) {
	p.line = n
	if strings.TrimSpace(line) == "" {
		return
	}
	tok := Tokenize(line)
	if len(tok) == 0 {
		p.unparsed++
		p.diagnose("line could not be tokenized")
		return
	}
	// A stray empty field can push <CONT> into the second position.
	if len(tok) > 1 && strings.TrimSpace(tok[0]) == "" && keyword(tok[1]) == "<CONT>" {
		tok = tok[1:]
	}

	key := keyword(tok[0])
	if p.dialect == dialectAGS3 {
		p.feedAGS3(key, tok)
		return
	}
	switch {
	case key == "GROUP":
		if len(tok) > 1 {
			p.startGroup(tok[1], dialectAGS4)
		}
	case key == "HEADING":
		p.declareHeadings(tok[1:])
	case key == "DATA":
		p.appendData(tok[1:])
	case key == "<CONT>":
		p.continueRow(tok)
	case isMetadata(key):
	case strings.HasPrefix(key, "**"):
		p.startGroup(strings.TrimPrefix(strings.TrimSpace(tok[0]), "**"), dialectAGS3)
	case strings.HasPrefix(key, "*"):
		p.declareHeadings(ags3Headings(tok))
	}
}

// feedAGS3 handles a line inside an AGS3 group. Only the AGS3 markers are
// keywords there; anything else is a data row, even when its first value
// reads like an AGS4 keyword.
func (p *parser) feedAGS3(key string, tok []string) {
	switch {
	case strings.HasPrefix(key, "**"):
		p.startGroup(strings.TrimPrefix(strings.TrimSpace(tok[0]), "**"), dialectAGS3)
	case key == "<CONT>":
		p.continueRow(tok)
	case key == "<UNITS>":
	case strings.HasPrefix(key, "*"):
		p.declareHeadings(ags3Headings(tok))
	default:
		p.appendData(tok)
	}
}

func ags3Headings(tok []string) []string {
	hs := make([]string, len(tok))
	for i, h := range tok {
		hs[i] = strings.TrimLeft(strings.TrimSpace(h), "*")
	}
	return hs
}

func isMetadata(key string) bool {
	switch key {
	case "UNIT", "<UNIT>", "<UNITS>", "TYPE", "<TYPE>":
		return true
	}
	return false
}

func (p *parser) startGroup(name string, d dialect) {
	name = keyword(name)
	if name == "" {
		return
	}
	p.group = name
	p.dialect = d
	p.headings = nil
	p.collecting = false
	p.last = nil
	if _, ok := p.tables[name]; !ok {
		p.tables[name] = table.New(name)
		p.order = append(p.order, name)
	}
}

func (p *parser) declareHeadings(hs []string) {
	// A heading line that wraps onto the next one ends with an empty field.
	for len(hs) > 0 && strings.TrimSpace(hs[len(hs)-1]) == "" {
		hs = hs[:len(hs)-1]
	}
	if p.group == "" || len(hs) == 0 {
		return
	}
	clean := make([]string, len(hs))
	for i, h := range hs {
		clean[i] = strings.TrimSpace(h)
	}
	if p.collecting {
		p.log.Warn("heading redeclared after data, replacing heading list",
			zap.String("group", p.group), zap.Int("line", p.line))
		p.diagnose("heading redeclared after data in group " + p.group)
		p.headings = nil
		p.collecting = false
	}
	p.headings = append(p.headings, clean...)
	t := p.tables[p.group]
	for _, h := range clean {
		if h != "" {
			t.AddColumn(h)
		}
	}
}

func (p *parser) appendData(values []string) {
	if p.group == "" || len(p.headings) == 0 {
		p.log.Debug("data line without headings", zap.Int("line", p.line))
		return
	}
	r := make(table.Row, len(p.headings))
	for i, h := range p.headings {
		if h == "" || i >= len(values) {
			continue
		}
		r[h] = table.Str(strings.TrimSpace(values[i]))
	}
	p.tables[p.group].Append(r)
	p.last = r
	p.collecting = true
}

// continueRow merges a <CONT> line into the last row of the current group.
// AGS4 maps token i to heading i-1; AGS3 maps token i to heading i, since the
// first heading is the key field which continuation lines never repeat.
func (p *parser) continueRow(tok []string) {
	if p.group == "" || len(p.headings) == 0 || p.last == nil {
		p.log.Debug("continuation without a row to extend", zap.Int("line", p.line))
		return
	}
	shift := 0
	if p.dialect == dialectAGS4 {
		shift = -1
	}
	for i := 1; i < len(tok); i++ {
		h := i + shift
		if h < 0 || h >= len(p.headings) || p.headings[h] == "" {
			continue
		}
		appendSegment(p.last, p.headings[h], tok[i])
	}
}

// appendSegment joins v onto r[col] with the multi-value separator unless it
// is empty or already one of the existing segments.
func appendSegment(r table.Row, col, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	cur := r[col]
	if cur.IsBlank() {
		r[col] = table.Str(v)
		return
	}
	for _, seg := range strings.Split(cur.String(), table.MultiSep) {
		if strings.TrimSpace(seg) == v {
			return
		}
	}
	r[col] = table.Str(cur.String() + table.MultiSep + v)
}

func (p *parser) diagnose(reason string) {
	p.diags = append(p.diags, Diagnostic{File: p.file, Line: p.line, Reason: reason})
}

// registry returns the non-empty groups parsed so far.
func (p *parser) registry() Registry {
	reg := make(Registry, len(p.tables))
	for _, name := range p.order {
		if t := p.tables[name]; !t.Empty() {
			reg[name] = t
		}
	}
	return reg
}

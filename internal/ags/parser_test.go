package ags

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KaramelBytes/agsloom/internal/table"
)

func parseString(t *testing.T, s string) *File {
	t.Helper()
	return Parse("test.ags", []byte(s), Options{Logger: zap.NewNop()})
}

func cells(r table.Row, cols ...string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = r[c].String()
	}
	return out
}

func TestTokenizeRoundTrip(t *testing.T) {
	fields := [][]string{
		{"GROUP", "TRIX"},
		{"DATA", "BH1", "5.0", "", "a, b", `she said "hi"`},
		{"", "", ""},
		{"<CONT>", "", "with gravel"},
		{"x"},
	}
	for _, want := range fields {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		require.NoError(t, w.Write(want))
		w.Flush()
		line := strings.TrimRight(buf.String(), "\n")
		// csv.Writer leaves a single empty field as an empty line.
		if line == "" {
			continue
		}
		got := Tokenize(line)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("Tokenize(%q) mismatch (-want +got):\n%s", line, diff)
		}
	}
}

func TestTokenizeRejectsBadLines(t *testing.T) {
	assert.Nil(t, Tokenize(""))
	assert.Nil(t, Tokenize("   "))
	assert.Nil(t, Tokenize(`"DATA","unterminated`))
	assert.Nil(t, Tokenize(`DATA,ab"c`))
	assert.Equal(t, []string{"DATA", "x"}, Tokenize("\"DATA\",\"x\"\r"))
}

func TestParseAGS4Scenario(t *testing.T) {
	f := parseString(t, "\"GROUP\",\"TRIX\"\n"+
		"\"HEADING\",\"HOLE_ID\",\"SPEC_DEPTH\",\"CELL\",\"DEVF\"\n"+
		"\"UNIT\",\"\",\"m\",\"kPa\",\"kPa\"\n"+
		"\"TYPE\",\"ID\",\"2DP\",\"0DP\",\"0DP\"\n"+
		"\"DATA\",\"BH1\",\"5.0\",\"100\",\"50\"\n")

	assert.True(t, f.Flags.IsAGS4)
	assert.False(t, f.Flags.IsAGS3)
	trix := f.Groups.Get("TRIX")
	require.Equal(t, 1, trix.Len())
	assert.Equal(t, []string{"BH1", "5.0", "100", "50", "test.ags"},
		cells(trix.Rows[0], "HOLE_ID", "SPEC_DEPTH", "CELL", "DEVF", SourceColumn))
	assert.Zero(t, f.Unparsed)
}

func TestParseAGS3Continuation(t *testing.T) {
	src := strings.Join([]string{
		`"**DETL"`,
		`"*HOLE_ID","*DETL_TOP","*DETL_DESC"`,
		`"<UNITS>","m",""`,
		`"BH1","1.20","Sandy clay"`,
		`"<CONT>","","with gravel"`,
		`"<CONT>","","with gravel"`,
	}, "\r\n")
	f := parseString(t, src)

	assert.True(t, f.Flags.IsAGS3)
	assert.False(t, f.Flags.IsAGS4)
	detl := f.Groups.Get("DETL")
	require.Equal(t, 1, detl.Len())
	assert.Equal(t, "Sandy clay | with gravel", detl.Rows[0]["DETL_DESC"].String())
	assert.Equal(t, "1.20", detl.Rows[0]["DETL_TOP"].String())
}

func TestParseAGS4ContinuationShift(t *testing.T) {
	src := strings.Join([]string{
		`"GROUP","GEOL"`,
		`"HEADING","LOCA_ID","GEOL_TOP","GEOL_DESC"`,
		`"DATA","BH1","0.0","Firm clay"`,
		`"<CONT>","","","becoming stiff"`,
		`"","<CONT>","","","with flints"`,
	}, "\n")
	f := parseString(t, src)

	geol := f.Groups.Get("GEOL")
	require.Equal(t, 1, geol.Len())
	assert.Equal(t, "Firm clay | becoming stiff | with flints", geol.Rows[0]["GEOL_DESC"].String())
	assert.Equal(t, "BH1", geol.Rows[0]["HOLE_ID"].String(), "LOCA_ID is renamed")
}

func TestParseSplitHeadingsAndRedeclare(t *testing.T) {
	src := strings.Join([]string{
		`"GROUP","SAMP"`,
		`"HEADING","LOCA_ID","SAMP_TOP"`,
		`"HEADING","SAMP_REF"`,
		`"DATA","BH1","1.0","S1"`,
		`"HEADING","LOCA_ID","SAMP_DESC"`,
		`"DATA","BH2","clay"`,
	}, "\n")
	f := parseString(t, src)

	samp := f.Groups.Get("SAMP")
	require.Equal(t, 2, samp.Len())
	assert.Equal(t, []string{"BH1", "1.0", "S1"}, cells(samp.Rows[0], "HOLE_ID", "SAMP_TOP", "SAMP_REF"))
	assert.Equal(t, []string{"BH2", "clay"}, cells(samp.Rows[1], "HOLE_ID", "SAMP_DESC"))
	require.Len(t, f.Diagnostics, 1)
	assert.Equal(t, 5, f.Diagnostics[0].Line)
}

func TestParseWrappedHeadingLines(t *testing.T) {
	ags3 := strings.Join([]string{
		`"**SAMP"`,
		`"*HOLE_ID","*SAMP_TOP","*SAMP_REF",`,
		`"*SAMP_TYPE"`,
		`"BH1","1.0","S1","U"`,
	}, "\r\n")
	f := parseString(t, ags3)
	samp := f.Groups.Get("SAMP")
	require.Equal(t, 1, samp.Len())
	assert.Equal(t, []string{"BH1", "1.0", "S1", "U"}, cells(samp.Rows[0], "HOLE_ID", "SAMP_TOP", "SAMP_REF", "SAMP_TYPE"))
	assert.Equal(t, []string{"HOLE_ID", "SAMP_TOP", "SAMP_REF", "SAMP_TYPE", SourceColumn}, samp.Columns)

	ags4 := strings.Join([]string{
		`"GROUP","SAMP"`,
		`"HEADING","LOCA_ID","SAMP_TOP",`,
		`"HEADING","SAMP_TYPE"`,
		`"DATA","BH1","1.0","U"`,
	}, "\n")
	f = parseString(t, ags4)
	samp = f.Groups.Get("SAMP")
	require.Equal(t, 1, samp.Len())
	assert.Equal(t, []string{"BH1", "1.0", "U"}, cells(samp.Rows[0], "HOLE_ID", "SAMP_TOP", "SAMP_TYPE"))
}

func TestParseAGS3DataLooksLikeKeyword(t *testing.T) {
	src := strings.Join([]string{
		`"**GEOL"`,
		`"*GEOL_DESC","*GEOL_TOP","*GEOL_LEG"`,
		`"<UNITS>","","m",""`,
		`"TYPE","1.0","clay"`,
		`"GROUP","2.0","sand"`,
		`"DATA","3.0","silt"`,
		`"HEADING","4.0","peat"`,
		`"UNIT","5.0","chalk"`,
	}, "\r\n")
	f := parseString(t, src)

	geol := f.Groups.Get("GEOL")
	require.Equal(t, 5, geol.Len())
	var firsts []string
	for _, r := range geol.Rows {
		firsts = append(firsts, r["GEOL_DESC"].String())
	}
	assert.Equal(t, []string{"TYPE", "GROUP", "DATA", "HEADING", "UNIT"}, firsts)
	assert.Equal(t, []string{"1.0", "clay"}, cells(geol.Rows[0], "GEOL_TOP", "GEOL_LEG"))
	assert.Equal(t, []string{"GEOL"}, f.Groups.Names())
}

func TestParseStructuralGaps(t *testing.T) {
	src := strings.Join([]string{
		`"<CONT>","orphan"`,
		`"DATA","no","group"`,
		`"GROUP",""`,
		`"GROUP","SAMP"`,
		`"DATA","no","headings"`,
		`"<CONT>","still","nothing"`,
		`"HEADING","HOLE_ID","SAMP_TOP"`,
		``,
		`"DATA","BH1","bad"quote"`,
		`"DATA","BH1","2.0"`,
	}, "\n")
	f := parseString(t, src)

	samp := f.Groups.Get("SAMP")
	require.Equal(t, 1, samp.Len())
	assert.Equal(t, "2.0", samp.Rows[0]["SAMP_TOP"].String())
	assert.Equal(t, 1, f.Unparsed)
	require.Len(t, f.Diagnostics, 1)
	assert.Equal(t, 9, f.Diagnostics[0].Line)
}

func TestParseDropsSingletonRows(t *testing.T) {
	src := strings.Join([]string{
		`"GROUP","SAMP"`,
		`"HEADING","HOLE_ID","SAMP_TOP","SAMP_DESC"`,
		`"DATA","BH1","",""`,
		`"DATA","BH1","1.0","clay"`,
	}, "\n")
	f := parseString(t, src)
	assert.Equal(t, 1, f.Groups.Get("SAMP").Len())
}

func TestContinuationIdempotence(t *testing.T) {
	p := newParser("x", zap.NewNop())
	p.startGroup("DETL", dialectAGS3)
	p.declareHeadings([]string{"HOLE_ID", "DETL_TOP", "DETL_DESC"})
	p.appendData([]string{"BH1", "1.0", "Sandy clay"})

	line := []string{"<CONT>", "", "with gravel"}
	p.continueRow(line)
	once := p.last["DETL_DESC"].String()
	p.continueRow(line)
	assert.Equal(t, once, p.last["DETL_DESC"].String())
	assert.Equal(t, "Sandy clay | with gravel", once)
}

func TestRepeatedGroupAppends(t *testing.T) {
	src := strings.Join([]string{
		`"GROUP","SAMP"`,
		`"HEADING","HOLE_ID","SAMP_TOP"`,
		`"DATA","BH1","1.0"`,
		`"GROUP","CLSS"`,
		`"HEADING","HOLE_ID","CLSS_LL"`,
		`"DATA","BH1","40"`,
		`"GROUP","SAMP"`,
		`"HEADING","HOLE_ID","SAMP_TOP"`,
		`"DATA","BH2","2.0"`,
	}, "\n")
	f := parseString(t, src)
	assert.Equal(t, 2, f.Groups.Get("SAMP").Len())
	assert.Equal(t, []string{"CLSS", "SAMP"}, f.Groups.Names())
}

func TestDetectDialectExclusivity(t *testing.T) {
	ags4 := "\"GROUP\",\"LOCA\"\n\"HEADING\",\"LOCA_ID\"\n\"DATA\",\"BH1\"\n"
	ags3 := "\"**HOLE\"\n\"*HOLE_ID\"\n\"BH1\"\n"

	f4 := Detect([]byte(ags4), 0)
	assert.Equal(t, Flags{IsAGS4: true, HasLOCA: true}, f4)
	assert.Equal(t, "AGS4", f4.Dialect())

	f3 := Detect([]byte(ags3), 0)
	assert.Equal(t, Flags{IsAGS3: true, HasHOLE: true}, f3)
	assert.Equal(t, "AGS3", f3.Dialect())
}

func TestDetectPrefixOnly(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 5; i++ {
		b.WriteString("\"note\"\n")
	}
	b.WriteString("\"GROUP\",\"LOCA\"\n")
	f := Detect([]byte(b.String()), 3)
	assert.False(t, f.IsAGS4)
	assert.True(t, f.HasLOCA)
}

func TestDecodeLatin1(t *testing.T) {
	b := []byte("\"GROUP\",\"GEOL\"\n\"DATA\",\"20\xb0C\"\n")
	text := Decode(b)
	assert.Contains(t, text, "20°C")

	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`"GROUP","SAMP"`)...)
	assert.True(t, Detect(withBOM, 0).IsAGS4)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.ags")
	require.NoError(t, os.WriteFile(path, []byte("\"GROUP\",\"SAMP\"\n\"HEADING\",\"HOLE_ID\",\"SAMP_TOP\"\n\"DATA\",\"BH1\",\"1\"\n"), 0o644))

	f, err := ParseFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "site.ags", f.Name)
	assert.Equal(t, "site.ags", f.Groups.Get("SAMP").Rows[0][SourceColumn].String())

	_, err = ParseFile(filepath.Join(dir, "missing.ags"), Options{})
	assert.Error(t, err)
}

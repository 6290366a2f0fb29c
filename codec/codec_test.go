package codec

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterkit/core"
)

func sampleRecords(t *testing.T) []core.Record {
	t.Helper()
	var out []core.Record
	for _, r := range []struct {
		id    core.RecordID
		name  string
		score float64
	}{
		{101, "Ella Cynthia", 4.50},
		{102, "Ikenna Divine", 4.80},
		{103, "Chris Chibuike", 4.30},
		{7, "O'Neil \"Quote\"", 0},
		{7, "Duplicate Id", 4.533333333333333},
	} {
		rec, err := core.NewRecord(r.id, r.name, r.score)
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestRoundTripAllFormats(t *testing.T) {
	records := sampleRecords(t)
	for _, f := range Formats {
		t.Run(f.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, f.Encode(&buf, records))
			got, err := f.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, records, got)
		})
	}
}

func TestRoundTripEmpty(t *testing.T) {
	for _, f := range Formats {
		t.Run(f.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, f.Encode(&buf, nil))
			got, err := f.Decode(&buf)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestForPath(t *testing.T) {
	assert.Equal(t, JSON, ForPath("students.json"))
	assert.Equal(t, YAML, ForPath("a/b/students.YML"))
	assert.Equal(t, YAML, ForPath("students.yaml"))
	assert.Equal(t, XLSX, ForPath("students.xlsx"))
	assert.Equal(t, Text, ForPath("students.dat"))
	assert.Equal(t, Text, ForPath("students"))
}

func TestByName(t *testing.T) {
	f, err := ByName(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)
	_, err = ByName("protobuf")
	assert.Error(t, err)
}

func TestWriteAndReadFile(t *testing.T) {
	dir := t.TempDir()
	records := sampleRecords(t)
	for _, name := range []string{"students.dat", "students.json", "nested/students.yaml", "students.xlsx"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, records))
		got, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, records, got, name)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.dat"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestTextDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"no header":       "101\tElla\t4.5\n",
		"bad version":     "#rosterkit v9 fields=id,name,score\n",
		"bad fields":      "#rosterkit v1 fields=id,name\n",
		"field count":     "#rosterkit v1 fields=id,name,score\n101\tElla\n",
		"bad id":          "#rosterkit v1 fields=id,name,score\nabc\tElla\t4.5\n",
		"score too large": "#rosterkit v1 fields=id,name,score\n101\tElla\t7\n",
		"empty input":     "",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Text.Decode(strings.NewReader(input))
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "text", de.Format)
		})
	}
}

func TestTextDecodeRejectsQuotedLineBreak(t *testing.T) {
	input := "#rosterkit v1 fields=id,name,score\n1\t\"Ella\r\nCynthia\"\t4.5\n"
	_, err := Text.Decode(strings.NewReader(input))
	require.Error(t, err)
	assert.True(t, core.IsValidation(err), "got %v", err)
}

func TestTextDecodeReportsLine(t *testing.T) {
	input := "#rosterkit v1 fields=id,name,score\n1\tA\t1\n2\t \t1\n"
	_, err := Text.Decode(strings.NewReader(input))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 3, de.Line)
	assert.True(t, core.IsValidation(err))
}

func TestUnsupportedVersion(t *testing.T) {
	_, err := Text.Decode(strings.NewReader("#rosterkit v2 fields=id,name,score\n"))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	doc := `{"format":"rosterkit","version":3,"fields":["id","name","score"],"records":[]}`
	_, err = JSON.Decode(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestJSONSchemaRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"wrong tag":      `{"format":"other","version":1,"fields":["id","name","score"],"records":[]}`,
		"missing fields": `{"format":"rosterkit","version":1,"records":[]}`,
		"negative id":    `{"format":"rosterkit","version":1,"fields":["id","name","score"],"records":[{"id":-1,"name":"a","score":1}]}`,
		"score range":    `{"format":"rosterkit","version":1,"fields":["id","name","score"],"records":[{"id":1,"name":"a","score":9}]}`,
		"not json":       `{{`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := JSON.Decode(strings.NewReader(doc))
			var de *DecodeError
			require.ErrorAs(t, err, &de)
		})
	}
}

func TestYAMLRejectsBlankName(t *testing.T) {
	doc := "format: rosterkit\nversion: 1\nfields: [id, name, score]\nrecords:\n  - {id: 1, name: \"  \", score: 2}\n"
	_, err := YAML.Decode(strings.NewReader(doc))
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestXLSXRejectsForeignWorkbook(t *testing.T) {
	_, err := XLSX.Decode(strings.NewReader("not a zip"))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestVersionsRegistry(t *testing.T) {
	assert.Equal(t, CurrentVersion, Versions.Latest().Version)
	_, err := Versions.Lookup(CurrentVersion)
	require.NoError(t, err)
	assert.Panics(t, func() {
		newVersions(versionRecord{Version: 1}, versionRecord{Version: 1})
	})
	assert.Panics(t, func() { newVersions() })
}

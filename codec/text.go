package codec

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rosterkit/core"
)

// textFormat writes a header line followed by one tab-separated record per line:
//
//	#rosterkit v1 fields=id,name,score
//	101	Ella Cynthia	4.5
type textFormat struct{}

func (textFormat) Name() string { return "text" }

func (textFormat) Encode(w io.Writer, records []core.Record) error {
	latest := Versions.Latest()
	if _, err := fmt.Fprintf(w, "#%s v%d fields=%s\n", FormatTag, latest.Version, strings.Join(latest.Fields, ",")); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	for _, r := range records {
		row := []string{
			strconv.Itoa(int(r.ID())),
			r.Name(),
			strconv.FormatFloat(r.Score(), 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (f textFormat) Decode(r io.Reader) ([]core.Record, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && header != "") {
		return nil, &DecodeError{Format: f.Name(), Line: 1, Err: fmt.Errorf("missing header: %w", err)}
	}
	version, err := parseTextHeader(strings.TrimRight(header, "\r\n"))
	if err != nil {
		return nil, &DecodeError{Format: f.Name(), Line: 1, Err: err}
	}

	cr := csv.NewReader(br)
	cr.Comma = '\t'
	cr.FieldsPerRecord = len(version.Fields)
	cr.ReuseRecord = true

	records := []core.Record{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line + 1 // header
			}
			return nil, &DecodeError{Format: f.Name(), Line: line, Err: err}
		}
		line, _ := cr.FieldPos(0)
		line++
		rec, err := parseRow(row)
		if err != nil {
			return nil, &DecodeError{Format: f.Name(), Line: line, Err: err}
		}
		records = append(records, rec)
	}
}

func parseTextHeader(line string) (versionRecord, error) {
	parts := strings.Fields(line)
	if len(parts) != 3 || parts[0] != "#"+FormatTag {
		return versionRecord{}, fmt.Errorf("not a %s file", FormatTag)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(parts[1], "v"))
	if err != nil || !strings.HasPrefix(parts[1], "v") {
		return versionRecord{}, fmt.Errorf("malformed version %q", parts[1])
	}
	version, err := Versions.Lookup(n)
	if err != nil {
		return versionRecord{}, err
	}
	fields, ok := strings.CutPrefix(parts[2], "fields=")
	if !ok {
		return versionRecord{}, fmt.Errorf("malformed field list %q", parts[2])
	}
	if err := version.checkFields(strings.Split(fields, ",")); err != nil {
		return versionRecord{}, err
	}
	return version, nil
}

// parseRow converts an (id, name, score) string triple into a validated record.
func parseRow(row []string) (core.Record, error) {
	id, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return core.Record{}, fmt.Errorf("id %q: %w", row[0], err)
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return core.Record{}, fmt.Errorf("score %q: %w", row[2], err)
	}
	return core.NewRecord(core.RecordID(id), row[1], score)
}

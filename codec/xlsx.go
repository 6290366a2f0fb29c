package codec

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"rosterkit/core"
)

const (
	xlsxRosterSheet = "Roster"
	xlsxMetaSheet   = "Meta"
)

var xlsxHeader = []string{"ID", "Name", "Score"}

// xlsxFormat stores records on a "Roster" sheet and the format tag, version
// and field list on a "Meta" sheet so spreadsheets can be edited by hand and
// loaded back.
type xlsxFormat struct{}

func (xlsxFormat) Name() string { return "xlsx" }

func (xlsxFormat) Encode(w io.Writer, records []core.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxRosterSheet); err != nil {
		return err
	}
	header := make([]any, len(xlsxHeader))
	for i, h := range xlsxHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxRosterSheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{int(r.ID()), r.Name(), r.Score()}
		if err := f.SetSheetRow(xlsxRosterSheet, cell, &values); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(xlsxMetaSheet); err != nil {
		return err
	}
	latest := Versions.Latest()
	meta := [][]any{
		{"format", FormatTag},
		{"version", latest.Version},
		{"fields", strings.Join(latest.Fields, ",")},
	}
	for i, m := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(xlsxMetaSheet, cell, &m); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func (x xlsxFormat) Decode(r io.Reader) ([]core.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &DecodeError{Format: x.Name(), Err: err}
	}
	defer f.Close()

	if err := x.checkMeta(f); err != nil {
		return nil, &DecodeError{Format: x.Name(), Err: err}
	}
	rows, err := f.GetRows(xlsxRosterSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &DecodeError{Format: x.Name(), Err: err}
	}
	if len(rows) == 0 {
		return nil, &DecodeError{Format: x.Name(), Line: 1, Err: fmt.Errorf("missing header row")}
	}
	records := []core.Record{}
	for i, cells := range rows[1:] {
		line := i + 2
		if isBlankRow(cells) {
			continue
		}
		if len(cells) < len(xlsxHeader) {
			return nil, &DecodeError{Format: x.Name(), Line: line, Err: fmt.Errorf("expected %d cells, got %d", len(xlsxHeader), len(cells))}
		}
		rec, err := parseRow(cells[:len(xlsxHeader)])
		if err != nil {
			return nil, &DecodeError{Format: x.Name(), Line: line, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (xlsxFormat) checkMeta(f *excelize.File) error {
	tag, err := f.GetCellValue(xlsxMetaSheet, "B1")
	if err != nil {
		return fmt.Errorf("read meta sheet: %w", err)
	}
	if tag != FormatTag {
		return fmt.Errorf("not a %s workbook", FormatTag)
	}
	raw, err := f.GetCellValue(xlsxMetaSheet, "B2")
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("malformed version %q", raw)
	}
	version, err := Versions.Lookup(n)
	if err != nil {
		return err
	}
	fields, err := f.GetCellValue(xlsxMetaSheet, "B3")
	if err != nil {
		return err
	}
	return version.checkFields(strings.Split(fields, ","))
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Package codec encodes a roster's records into versioned file formats.
//
// Every format carries a format tag, a version number and the list of fields
// it stores, so a file written by an older release can be recognised and
// either decoded or rejected with ErrUnsupportedVersion.
package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rosterkit/core"
)

// FormatTag identifies rosterkit files regardless of encoding.
const FormatTag = "rosterkit"

// ErrUnsupportedVersion is returned when a file declares an unknown version.
var ErrUnsupportedVersion = errors.New("unsupported roster file version")

// Format encodes and decodes a whole ordered sequence of records.
type Format interface {
	Name() string
	Encode(w io.Writer, records []core.Record) error
	Decode(r io.Reader) ([]core.Record, error)
}

// DecodeError describes a file that could not be turned back into records.
// Line is 1-based and zero when the position is unknown.
type DecodeError struct {
	Format string
	Line   int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("decode %s line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var (
	Text Format = textFormat{}
	JSON Format = jsonFormat{}
	YAML Format = yamlFormat{}
	XLSX Format = xlsxFormat{}
)

// Formats lists every registered format.
var Formats = []Format{Text, JSON, YAML, XLSX}

// ByName returns the format registered under name.
func ByName(name string) (Format, error) {
	for _, f := range Formats {
		if f.Name() == strings.ToLower(strings.TrimSpace(name)) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown roster format %q", name)
}

// ForPath picks a format from the file extension. Unknown extensions use Text.
func ForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".yaml", ".yml":
		return YAML
	case ".xlsx":
		return XLSX
	default:
		return Text
	}
}

// WriteFile atomically replaces path with the encoded records: the data is
// written to a temporary file in the same directory, synced, then renamed.
func WriteFile(path string, records []core.Record) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = ForPath(path).Encode(bw, records); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes the records stored at path. A missing file yields an
// error satisfying errors.Is(err, fs.ErrNotExist).
func ReadFile(path string) ([]core.Record, error) {
	f, err := os.Open(path) // #nosec G304 - caller chooses the roster file
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ForPath(path).Decode(bufio.NewReader(f))
}

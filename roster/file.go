package roster

import (
	"errors"
	"io/fs"

	"rosterkit/codec"
)

// LoadStatus describes the outcome of LoadFromFile.
type LoadStatus int

const (
	// Failed accompanies a non-nil error; the roster was left unchanged.
	Failed LoadStatus = iota
	// Loaded means the roster was replaced by the file contents.
	Loaded
	// NotFound means the file did not exist and the roster was left unchanged.
	NotFound
)

func (s LoadStatus) String() string {
	switch s {
	case Failed:
		return "failed"
	case Loaded:
		return "loaded"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// SaveToFile writes every record to path in the format implied by its
// extension. The write is atomic: a failed save leaves any previous file intact.
func (r *Roster) SaveToFile(path string) error {
	return codec.WriteFile(path, r.All())
}

// LoadFromFile replaces the roster with the records stored at path. A missing
// file is reported as NotFound, not as an error. On any error the roster is
// left unchanged.
func (r *Roster) LoadFromFile(path string) (LoadStatus, error) {
	records, err := codec.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NotFound, nil
		}
		return Failed, err
	}
	r.Replace(records)
	return Loaded, nil
}

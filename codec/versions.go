package codec

import "fmt"

// CurrentVersion is the version written by every encoder.
const CurrentVersion = 1

// versionRecord describes one revision of the on-disk layout.
type versionRecord struct {
	Version int
	Fields  []string
}

// versions holds every known layout, oldest first; the last one is current.
type versions struct {
	list []versionRecord
	byID map[int]*versionRecord
}

// Versions is the canonical, read-only registry of file layouts.
var Versions = newVersions(
	versionRecord{Version: 1, Fields: []string{"id", "name", "score"}},
)

func newVersions(records ...versionRecord) versions {
	if len(records) == 0 {
		panic("codec: at least one version record is required")
	}
	v := versions{list: make([]versionRecord, len(records)), byID: make(map[int]*versionRecord, len(records))}
	for i, r := range records {
		if _, dup := v.byID[r.Version]; dup {
			panic(fmt.Sprintf("codec: duplicate version %d", r.Version))
		}
		v.list[i] = r
		v.byID[r.Version] = &v.list[i]
	}
	return v
}

// Latest returns the newest layout.
func (v versions) Latest() versionRecord { return v.list[len(v.list)-1] }

// Lookup returns the layout for version n.
func (v versions) Lookup(n int) (versionRecord, error) {
	r, ok := v.byID[n]
	if !ok {
		return versionRecord{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, n)
	}
	return *r, nil
}

// checkFields verifies that a file's declared fields match its version.
func (r versionRecord) checkFields(fields []string) error {
	if len(fields) != len(r.Fields) {
		return fmt.Errorf("version %d expects %d fields, file declares %d", r.Version, len(r.Fields), len(fields))
	}
	for i, f := range fields {
		if f != r.Fields[i] {
			return fmt.Errorf("version %d field %d is %q, file declares %q", r.Version, i+1, r.Fields[i], f)
		}
	}
	return nil
}

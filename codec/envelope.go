package codec

import (
	"fmt"

	"rosterkit/core"
)

// envelope is the document shared by the JSON and YAML formats.
type envelope struct {
	Format  string   `json:"format" yaml:"format"`
	Version int      `json:"version" yaml:"version"`
	Fields  []string `json:"fields" yaml:"fields"`
	Records []row    `json:"records" yaml:"records"`
}

type row struct {
	ID    int     `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Score float64 `json:"score" yaml:"score"`
}

func newEnvelope(records []core.Record) envelope {
	latest := Versions.Latest()
	env := envelope{
		Format:  FormatTag,
		Version: latest.Version,
		Fields:  append([]string(nil), latest.Fields...),
		Records: make([]row, 0, len(records)),
	}
	for _, r := range records {
		env.Records = append(env.Records, row{ID: int(r.ID()), Name: r.Name(), Score: r.Score()})
	}
	return env
}

// records checks the declared version and rebuilds validated records.
func (e envelope) records() ([]core.Record, error) {
	version, err := Versions.Lookup(e.Version)
	if err != nil {
		return nil, err
	}
	if err := version.checkFields(e.Fields); err != nil {
		return nil, err
	}
	out := make([]core.Record, 0, len(e.Records))
	for i, r := range e.Records {
		rec, err := core.NewRecord(core.RecordID(r.ID), r.Name, r.Score)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

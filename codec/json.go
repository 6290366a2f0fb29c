package codec

import (
	"encoding/json"
	"io"

	"github.com/xeipuuv/gojsonschema"

	"rosterkit/core"
)

type jsonFormat struct{}

func (jsonFormat) Name() string { return "json" }

func (jsonFormat) Encode(w io.Writer, records []core.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newEnvelope(records))
}

func (f jsonFormat) Decode(r io.Reader) ([]core.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Format: f.Name(), Err: err}
	}
	if err := validateDocument(gojsonschema.NewBytesLoader(data)); err != nil {
		return nil, &DecodeError{Format: f.Name(), Err: err}
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Format: f.Name(), Err: err}
	}
	records, err := env.records()
	if err != nil {
		return nil, &DecodeError{Format: f.Name(), Err: err}
	}
	return records, nil
}

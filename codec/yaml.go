package codec

import (
	"io"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"rosterkit/core"
)

type yamlFormat struct{}

func (yamlFormat) Name() string { return "yaml" }

func (yamlFormat) Encode(w io.Writer, records []core.Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newEnvelope(records)); err != nil {
		return err
	}
	return enc.Close()
}

func (f yamlFormat) Decode(r io.Reader) ([]core.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Format: f.Name(), Err: err}
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Format: f.Name(), Err: err}
	}
	if err := validateDocument(gojsonschema.NewGoLoader(doc)); err != nil {
		return nil, &DecodeError{Format: f.Name(), Err: err}
	}
	var env envelope
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Format: f.Name(), Err: err}
	}
	records, err := env.records()
	if err != nil {
		return nil, &DecodeError{Format: f.Name(), Err: err}
	}
	return records, nil
}

package codec

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema constrains the JSON and YAML documents before they are decoded.
const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["format", "version", "fields", "records"],
  "properties": {
    "format": {"enum": ["rosterkit"]},
    "version": {"type": "integer", "minimum": 1},
    "fields": {"type": "array", "items": {"type": "string"}},
    "records": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "score"],
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "name": {"type": "string", "minLength": 1},
          "score": {"type": "number", "minimum": 0, "maximum": 5}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	})
	return compiledSchema, schemaErr
}

// validateDocument checks a decoded document against the envelope schema.
func validateDocument(doc gojsonschema.JSONLoader) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compile envelope schema: %w", err)
	}
	result, err := schema.Validate(doc)
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

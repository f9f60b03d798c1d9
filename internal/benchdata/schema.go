package benchdata

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		schema, schemaErr = compiler.Compile(schemaJSON)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// Schema returns the JSON Schema the bare JSON form of a document conforms to.
func Schema() []byte {
	return append([]byte(nil), schemaJSON...)
}

// ValidateSchema checks raw data.js or JSON bytes against the document schema.
func ValidateSchema(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	body, err := payload(data)
	if err != nil {
		return err
	}
	result := s.ValidateJSON(body)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}

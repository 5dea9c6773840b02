package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidAudience is returned when an audience descriptor does not match
// the upload schema.
var ErrInvalidAudience = errors.New("invalid audience")

const audienceSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "age": {
      "anyOf": [
        {"type": "string", "maxLength": 32},
        {"type": "number", "minimum": 0, "maximum": 150}
      ]
    },
    "education": {"type": "string", "maxLength": 64},
    "interests": {"type": "string", "maxLength": 512},
    "language": {"type": "string", "maxLength": 16},
    "technicalLevel": {"type": "string", "maxLength": 32},
    "includeBackgroundMusic": {"type": "boolean"}
  },
  "additionalProperties": false
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("audience.json", bytes.NewReader([]byte(audienceSchema))); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("audience.json")
	})
	return compiledSchema, compileErr
}

// ValidateAudience checks a raw audience document against the upload schema.
func ValidateAudience(data []byte) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile audience schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAudience, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAudience, err)
	}
	return nil
}

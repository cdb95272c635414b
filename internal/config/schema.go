package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "https://github.com/adamancini/sideload/config.schema.json"

//go:embed schema/config.schema.json
var schemaJSON []byte

// Schema returns the embedded JSON Schema document.
func Schema() []byte {
	return schemaJSON
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add config schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// validateSchema checks the raw document against the embedded schema before
// it is decoded into Config.
func validateSchema(content []byte, format Format) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	doc, err := decodeGeneric(content, format)
	if err != nil {
		return err
	}

	// Round-trip through JSON so YAML and TOML values take the JSON types the
	// validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to normalize %s document: %w", format, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to normalize %s document: %w", format, err)
	}

	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

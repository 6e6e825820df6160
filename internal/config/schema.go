package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	schemareflector "github.com/swaggest/jsonschema-go"
)

const schemaURL = "ngpackage.schema.json"

// compiledSchema is built from the Go types on first use.
var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	bs, err := ReflectSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// ReflectSchema returns the JSON schema of configuration files.
func ReflectSchema() ([]byte, error) {
	var r schemareflector.Reflector
	s, err := r.Reflect(Root{})
	if err != nil {
		return nil, fmt.Errorf("failed to reflect configuration schema: %w", err)
	}
	return json.MarshalIndent(s, "", "  ")
}

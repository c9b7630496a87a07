// Package manifest validates the optional JSON program-metadata sidecar
// (name, author, expected-output note) against a fixed JSON Schema before
// a program is loaded. Validation is purely advisory: a valid manifest
// never changes execution semantics, and an absent manifest is not an
// error.
package manifest

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/manifest.schema.json
var schemaFS embed.FS

const schemaURL = "https://tubular.dev/schemas/manifest.schema.json"

var compiled *jsonschema.Schema

func init() {
	raw, err := schemaFS.ReadFile("schemas/manifest.schema.json")
	if err != nil {
		panic(fmt.Errorf("manifest: embedded schema missing: %w", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		panic(fmt.Errorf("manifest: schema malformed: %w", err))
	}
	compiled, err = c.Compile(schemaURL)
	if err != nil {
		panic(fmt.Errorf("manifest: schema compile: %w", err))
	}
}

// Manifest is a program's optional metadata sidecar.
type Manifest struct {
	Name         string `json:"name"`
	Author       string `json:"author,omitempty"`
	ExpectOutput string `json:"expect_output,omitempty"`
}

// Parse validates raw against the manifest schema and decodes it.
// A schema violation wraps (with %w) jsonschema's own error, which carries
// a detailed path-annotated message.
func Parse(raw []byte) (Manifest, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Manifest{}, fmt.Errorf("manifest: invalid JSON: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return Manifest{}, fmt.Errorf("manifest: schema violation: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest: decode: %w", err)
	}
	return m, nil
}

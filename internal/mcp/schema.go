package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/jivemcp/jive/internal/jiveerr"
)

// CompileSchema compiles a JSON Schema document for a tool's
// arguments, grounded on the compile/validate shape used throughout
// the example pack's goadesign-goa-ai/registry/service.go.
func CompileSchema(name string, schemaJSON json.RawMessage) (*jsonschema.Schema, error) {
	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return nil, fmt.Errorf("unmarshal schema for %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	resourceURL := "jive://tools/" + name + ".json"
	if err := c.AddResource(resourceURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("add schema resource for %s: %w", name, err)
	}
	schema, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", name, err)
	}
	return schema, nil
}

// ValidateArgs validates args against schema, translating the first
// validation failure into a jiveerr.CodeValidation error carrying the
// offending field (spec.md §4.10 step 2).
func ValidateArgs(schema *jsonschema.Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}
	if err := schema.Validate(args); err != nil {
		return jiveerr.Validation("arguments", args, "schema-conformant arguments", err.Error())
	}
	return nil
}

package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePersonSchema = `{
	"type": "object",
	"properties": {"name": {"type": "string"}},
	"required": ["name"]
}`

func TestCompileSchemaValid(t *testing.T) {
	schema, err := CompileSchema("jive_test_tool", json.RawMessage(samplePersonSchema))
	require.NoError(t, err)
	require.NotNil(t, schema)
}

func TestCompileSchemaInvalidJSON(t *testing.T) {
	_, err := CompileSchema("jive_test_tool", json.RawMessage("{not json"))
	require.Error(t, err)
}

func TestValidateArgsPassesValidArgs(t *testing.T) {
	schema, err := CompileSchema("jive_test_tool", json.RawMessage(samplePersonSchema))
	require.NoError(t, err)

	err = ValidateArgs(schema, map[string]any{"name": "alice"})
	require.NoError(t, err)
}

func TestValidateArgsRejectsMissingRequiredField(t *testing.T) {
	schema, err := CompileSchema("jive_test_tool", json.RawMessage(samplePersonSchema))
	require.NoError(t, err)

	err = ValidateArgs(schema, map[string]any{})
	require.Error(t, err)
}

func TestValidateArgsNilSchemaAlwaysPasses(t *testing.T) {
	require.NoError(t, ValidateArgs(nil, map[string]any{"anything": true}))
}

package mcp

import (
	"time"

	"github.com/jivemcp/jive/internal/jiveerr"
)

// Envelope is the standard response shape every tool call returns
// (spec.md §4.10 step 4 / §7): success/data on the happy path, error
// on failure, with an optional deprecation note for legacy aliases.
type Envelope struct {
	Success     bool           `json:"success"`
	Data        any            `json:"data,omitempty"`
	Error       *ErrorEnvelope `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Deprecation string         `json:"deprecation,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// ErrorEnvelope is the structured error payload (spec.md §7).
type ErrorEnvelope struct {
	Code           string   `json:"code"`
	Message        string   `json:"message"`
	Field          string   `json:"field,omitempty"`
	ProvidedValue  any      `json:"provided_value,omitempty"`
	ExpectedFormat string   `json:"expected_format,omitempty"`
	Identifier     string   `json:"identifier,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
}

// successEnvelope builds a successful response envelope.
func successEnvelope(data any, deprecation string) *Envelope {
	return &Envelope{
		Success:     true,
		Data:        data,
		Deprecation: deprecation,
		Timestamp:   time.Now().UTC(),
	}
}

// errorEnvelope converts an error into a response envelope, using
// jiveerr's structured fields when available and falling back to an
// internal-error shape otherwise.
func errorEnvelope(err error) *Envelope {
	jerr, ok := jiveerr.As(err)
	if !ok {
		jerr = jiveerr.New(jiveerr.CodeInternal, err.Error())
	}
	return &Envelope{
		Success: false,
		Error: &ErrorEnvelope{
			Code:           string(jerr.Code),
			Message:        jerr.Message,
			Field:          jerr.Field,
			ProvidedValue:  jerr.ProvidedValue,
			ExpectedFormat: jerr.ExpectedFormat,
			Identifier:     jerr.Identifier,
			Suggestions:    jerr.Suggestions,
		},
		Timestamp: time.Now().UTC(),
	}
}

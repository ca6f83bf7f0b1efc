// Package shaper implements the response shaper (spec.md §4.11 /
// C11): a structured truncation pipeline enforcing a byte budget on
// the outbound envelope. Pure in-memory transform over the
// already-serialized JSON tree; no suitable library in the retrieved
// example pack addresses this (DESIGN.md), so it is built directly on
// encoding/json.
package shaper

import (
	"encoding/json"
	"fmt"
)

const (
	// DefaultMaxSize is the byte budget M (spec.md §4.11).
	DefaultMaxSize = 50000
	// DefaultThreshold is the size below which no shaping occurs.
	DefaultThreshold = 45000

	maxDescriptionChars = 1000
	maxArrayItems       = 10
)

var descriptionLikeFields = map[string]bool{
	"description": true, "notes": true, "details": true,
}

var denylist = map[string]bool{
	"metadata": true, "debug_info": true, "raw_data": true,
	"logs": true, "history": true, "extended_info": true,
}

var allowlist = map[string]bool{
	"id": true, "title": true, "status": true, "type": true,
	"success": true, "error": true, "message": true,
}

// Options configures Shape.
type Options struct {
	MaxSize   int
	Threshold int
}

func (o Options) withDefaults() Options {
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	return o
}

// Shape serializes v and, if it exceeds the threshold, applies
// progressively more aggressive truncation until it fits within
// MaxSize: description-like field truncation, then array capping,
// then denylisted-field dropping. Returns the (possibly trimmed) JSON
// bytes.
func Shape(v any, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(raw) <= opts.Threshold {
		return raw, nil
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return raw, nil
	}

	truncated := truncateStrings(generic)
	raw, err = json.Marshal(truncated)
	if err != nil {
		return nil, err
	}
	if len(raw) <= opts.MaxSize {
		return raw, nil
	}

	capped := capArrays(truncated)
	raw, err = json.Marshal(capped)
	if err != nil {
		return nil, err
	}
	if len(raw) <= opts.MaxSize {
		return raw, nil
	}

	pruned := dropDenylisted(capped)
	raw, err = json.Marshal(pruned)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// truncateStrings recursively truncates description-like string
// fields to maxDescriptionChars, appending a length marker (spec.md
// §4.11 step 2).
func truncateStrings(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if descriptionLikeFields[k] {
				if s, ok := val.(string); ok && len(s) > maxDescriptionChars {
					out[k] = fmt.Sprintf("%s... [TRUNCATED - Original length: %d chars]", s[:maxDescriptionChars], len(s))
					continue
				}
			}
			out[k] = truncateStrings(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = truncateStrings(item)
		}
		return out
	default:
		return v
	}
}

// capArrays recursively truncates arrays longer than maxArrayItems to
// the first maxArrayItems plus a sentinel object (spec.md §4.11 step 3).
func capArrays(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = capArrays(val)
		}
		return out
	case []any:
		capped := make([]any, 0, len(t))
		for _, item := range t {
			capped = append(capped, capArrays(item))
		}
		if len(capped) > maxArrayItems {
			extra := len(capped) - maxArrayItems
			capped = capped[:maxArrayItems]
			capped = append(capped, map[string]any{"_truncated": fmt.Sprintf("... and %d more items", extra)})
		}
		return capped
	default:
		return v
	}
}

// dropDenylisted removes non-essential fields at every object level,
// except those in allowlist, which are always preserved (spec.md
// §4.11 step 4).
func dropDenylisted(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if denylist[k] && !allowlist[k] {
				continue
			}
			out[k] = dropDenylisted(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = dropDenylisted(item)
		}
		return out
	default:
		return v
	}
}

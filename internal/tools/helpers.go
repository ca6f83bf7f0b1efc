package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/workitem"
)

// argString reads a required string argument.
func argString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", jiveerr.Validation(key, nil, "string", fmt.Sprintf("%q is required", key))
	}
	s, ok := v.(string)
	if !ok {
		return "", jiveerr.Validation(key, v, "string", fmt.Sprintf("%q must be a string", key))
	}
	return s, nil
}

// optString reads an optional string argument, returning "" if absent.
func optString(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// optStringPtr reads an optional string argument as a pointer, nil if absent.
func optStringPtr(args map[string]any, key string) *string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return &s
		}
	}
	return nil
}

// optBool reads an optional bool argument, defaulting to def.
func optBool(args map[string]any, key string, def bool) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// optFloatPtr reads an optional numeric argument as a float64 pointer.
// JSON numbers decode to float64 through the dispatcher's argument
// unmarshaling, so no separate int branch is needed.
func optFloatPtr(args map[string]any, key string) *float64 {
	if v, ok := args[key]; ok {
		if f, ok := v.(float64); ok {
			return &f
		}
	}
	return nil
}

func optInt(args map[string]any, key string, def int) int {
	if v, ok := args[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return def
}

// optStringSlice reads an optional array-of-string argument.
func optStringSlice(args map[string]any, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// optUUIDSlice reads an optional array-of-uuid-string argument.
func optUUIDSlice(args map[string]any, key string) ([]uuid.UUID, error) {
	raw := optStringSlice(args, key)
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, jiveerr.Validation(key, s, "uuid", "not a valid uuid")
		}
		out = append(out, id)
	}
	return out, nil
}

// resolveID reads a required identifier argument and runs it through
// the C2 resolver chain (uuid, exact title, keyword match), returning
// a NOT_FOUND error carrying up to three suggestions on a miss
// (spec.md §4.2).
func (c *Components) resolveID(ctx context.Context, args map[string]any, key string) (uuid.UUID, error) {
	raw, err := argString(args, key)
	if err != nil {
		return uuid.Nil, err
	}
	result, err := c.Resolver.Resolve(ctx, raw)
	if err != nil {
		return uuid.Nil, err
	}
	if result.ID == nil {
		return uuid.Nil, jiveerr.NotFound(raw, result.Candidates)
	}
	return *result.ID, nil
}

func parseType(s string) (workitem.Type, error) {
	t := workitem.Type(s)
	if !t.Valid() {
		return "", jiveerr.Validation("type", s, "initiative|epic|feature|story|task", "unknown work item type")
	}
	return t, nil
}

func parseStatus(s string) (workitem.Status, error) {
	st := workitem.Normalize(workitem.Status(s))
	if !st.Valid() {
		return "", jiveerr.Validation("status", s, "not_started|in_progress|blocked|completed|cancelled", "unknown status")
	}
	return st, nil
}

func parsePriority(s string) (workitem.Priority, error) {
	switch workitem.Priority(s) {
	case workitem.PriorityLow, workitem.PriorityMedium, workitem.PriorityHigh, workitem.PriorityCritical:
		return workitem.Priority(s), nil
	default:
		return "", jiveerr.Validation("priority", s, "low|medium|high|critical", "unknown priority")
	}
}

func workItemSummary(w *workitem.WorkItem) map[string]any {
	m := map[string]any{
		"id":                  w.ID.String(),
		"type":                string(w.Type),
		"title":               w.Title,
		"description":         w.Description,
		"status":              string(w.Status),
		"priority":            string(w.Priority),
		"progress_percentage": w.ProgressPercentage,
		"created_at":          w.CreatedAt,
		"updated_at":          w.UpdatedAt,
	}
	if w.ParentID != nil {
		m["parent_id"] = w.ParentID.String()
	}
	if len(w.Dependencies) > 0 {
		deps := make([]string, len(w.Dependencies))
		for i, d := range w.Dependencies {
			deps[i] = d.String()
		}
		m["dependencies"] = deps
	}
	if len(w.AcceptanceCriteria) > 0 {
		m["acceptance_criteria"] = w.AcceptanceCriteria
	}
	if len(w.Tags) > 0 {
		m["tags"] = w.Tags
	}
	if len(w.ContextTags) > 0 {
		m["context_tags"] = w.ContextTags
	}
	if w.Complexity != "" {
		m["complexity"] = string(w.Complexity)
	}
	if w.EffortEstimate != nil {
		m["effort_estimate"] = *w.EffortEstimate
	}
	if w.ActualHours != nil {
		m["actual_hours"] = *w.ActualHours
	}
	if w.Assignee != nil {
		m["assignee"] = *w.Assignee
	}
	if w.Reporter != nil {
		m["reporter"] = *w.Reporter
	}
	if len(w.Metadata) > 0 {
		m["metadata"] = w.Metadata
	}
	return m
}

func workItemSummaries(items []*workitem.WorkItem) []map[string]any {
	out := make([]map[string]any, len(items))
	for i, w := range items {
		out[i] = workItemSummary(w)
	}
	return out
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

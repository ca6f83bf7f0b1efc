package tools

import (
	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/mcp"
	"github.com/jivemcp/jive/internal/workitem"
)

// TrackProgress implements jive_track_progress: apply a progress/status
// update and optionally propagate, force a bottom-up subtree
// recalculation, or report the current computed value (spec.md §4.4, §6).
func (c *Components) TrackProgress(ctx *mcp.CallContext, args map[string]any) (any, error) {
	action, err := argString(args, "action")
	if err != nil {
		return nil, err
	}

	switch action {
	case "track":
		id, err := c.resolveID(ctx, args, "id")
		if err != nil {
			return nil, err
		}
		var status *workitem.Status
		if v := optString(args, "status"); v != "" {
			st, err := parseStatus(v)
			if err != nil {
				return nil, err
			}
			status = &st
		}
		progressValue := optFloatPtr(args, "progress_percentage")
		propagate := optBool(args, "propagate", true)

		result, err := c.Progress.Update(ctx, id, progressValue, status, propagate)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, jiveerr.NotFound(id.String(), nil)
		}
		return map[string]any{
			"work_item_id":   result.WorkItemID.String(),
			"affected_items": idStrings(result.AffectedItems),
		}, nil

	case "recalculate":
		if _, hasID := args["id"]; hasID {
			id, err := c.resolveID(ctx, args, "id")
			if err != nil {
				return nil, err
			}
			updated, err := c.Progress.RecalculateSubtree(ctx, id)
			if err != nil {
				return nil, err
			}
			return map[string]any{"updated_items": idStrings(updated)}, nil
		}
		updated, err := c.Progress.RecalculateAll(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"updated_items": idStrings(updated)}, nil

	case "get_report":
		id, err := c.resolveID(ctx, args, "id")
		if err != nil {
			return nil, err
		}
		value, err := c.Progress.Calculate(ctx, id)
		if err != nil {
			return nil, err
		}
		item, err := c.Storage.WorkItems.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, jiveerr.NotFound(id.String(), nil)
		}
		children, err := c.Hierarchy.Children(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"work_item_id":      id.String(),
			"computed_progress": value,
			"stored_progress":   item.ProgressPercentage,
			"status":            string(item.Status),
			"child_count":       len(children),
		}, nil

	default:
		return nil, jiveerr.Validation("action", action, "track|recalculate|get_report", "unknown action")
	}
}

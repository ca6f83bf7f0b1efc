package tools

import (
	"context"

	"github.com/jivemcp/jive/internal/hierarchy"
	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/mcp"
	"github.com/jivemcp/jive/internal/store"
	"github.com/jivemcp/jive/internal/workitem"
)

// ManageWorkItem implements jive_manage_work_item: create, update, or
// delete, dispatched on the action key (spec.md §6).
func (c *Components) ManageWorkItem(ctx *mcp.CallContext, args map[string]any) (any, error) {
	action, err := argString(args, "action")
	if err != nil {
		return nil, err
	}
	switch action {
	case "create":
		return c.createWorkItem(ctx, args)
	case "update":
		return c.updateWorkItem(ctx, args)
	case "delete":
		return c.deleteWorkItem(ctx, args)
	default:
		return nil, jiveerr.Validation("action", action, "create|update|delete", "unknown action")
	}
}

func (c *Components) createWorkItem(ctx context.Context, args map[string]any) (any, error) {
	title, err := argString(args, "title")
	if err != nil {
		return nil, err
	}
	typeStr, err := argString(args, "type")
	if err != nil {
		return nil, err
	}
	t, err := parseType(typeStr)
	if err != nil {
		return nil, err
	}

	w := workitem.New(t, title, optString(args, "description"))

	if parentRaw := optString(args, "parent_id"); parentRaw != "" {
		parentID, err := c.resolveID(ctx, args, "parent_id")
		if err != nil {
			return nil, err
		}
		parent, err := c.Storage.WorkItems.Get(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, jiveerr.NotFound(parentRaw, nil)
		}
		if err := hierarchy.ValidateParent(t, parent.Type); err != nil {
			return nil, err
		}
		w.ParentID = &parentID
	}
	var statusPtr *workitem.Status
	if statusStr := optString(args, "status"); statusStr != "" {
		st, err := parseStatus(statusStr)
		if err != nil {
			return nil, err
		}
		statusPtr = &st
	}
	progressPtr := optFloatPtr(args, "progress_percentage")
	if priorityStr := optString(args, "priority"); priorityStr != "" {
		p, err := parsePriority(priorityStr)
		if err != nil {
			return nil, err
		}
		w.Priority = p
	}
	if deps, err := optUUIDSlice(args, "dependencies"); err != nil {
		return nil, err
	} else {
		w.Dependencies = deps
	}
	w.AcceptanceCriteria = optStringSlice(args, "acceptance_criteria")
	w.Tags = optStringSlice(args, "tags")
	w.ContextTags = optStringSlice(args, "context_tags")
	w.Complexity = workitem.Complexity(optString(args, "complexity"))
	w.EffortEstimate = optFloatPtr(args, "effort_estimate")
	w.ActualHours = optFloatPtr(args, "actual_hours")
	w.Assignee = optStringPtr(args, "assignee")
	w.Reporter = optStringPtr(args, "reporter")

	if err := c.Storage.WorkItems.Create(ctx, w); err != nil {
		return nil, err
	}

	// Route status/progress through the progress calculator so the two
	// derive each other (spec.md §3, §9) instead of being written
	// independently, mirroring jive_track_progress's TrackProgress path.
	if statusPtr != nil || progressPtr != nil {
		if _, err := c.Progress.Update(ctx, w.ID, progressPtr, statusPtr, true); err != nil {
			return nil, err
		}
		created, err := c.Storage.WorkItems.Get(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		return workItemSummary(created), nil
	}
	return workItemSummary(w), nil
}

func (c *Components) updateWorkItem(ctx context.Context, args map[string]any) (any, error) {
	id, err := c.resolveID(ctx, args, "id")
	if err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if v := optString(args, "title"); v != "" {
		patch["title"] = v
	}
	if v, ok := args["description"]; ok {
		patch["description"] = v
	}
	var statusPtr *workitem.Status
	if v := optString(args, "status"); v != "" {
		st, err := parseStatus(v)
		if err != nil {
			return nil, err
		}
		statusPtr = &st
	}
	progressPtr := optFloatPtr(args, "progress_percentage")
	if v := optString(args, "priority"); v != "" {
		p, err := parsePriority(v)
		if err != nil {
			return nil, err
		}
		patch["priority"] = string(p)
	}
	if _, ok := args["parent_id"]; ok {
		parentID, err := c.resolveID(ctx, args, "parent_id")
		if err != nil {
			return nil, err
		}
		current, err := c.Storage.WorkItems.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, jiveerr.NotFound(id.String(), nil)
		}
		parent, err := c.Storage.WorkItems.Get(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, jiveerr.NotFound(parentID.String(), nil)
		}
		if err := hierarchy.ValidateParent(current.Type, parent.Type); err != nil {
			return nil, err
		}
		patch["parent_id"] = parentID
	}
	if _, ok := args["dependencies"]; ok {
		parsed, err := optUUIDSlice(args, "dependencies")
		if err != nil {
			return nil, err
		}
		patch["dependencies"] = parsed
	}
	if v := optStringSlice(args, "acceptance_criteria"); v != nil {
		patch["acceptance_criteria"] = v
	}
	if v := optStringSlice(args, "tags"); v != nil {
		patch["tags"] = v
	}
	if v := optStringSlice(args, "context_tags"); v != nil {
		patch["context_tags"] = v
	}
	if v := optString(args, "complexity"); v != "" {
		patch["complexity"] = v
	}
	if v := optFloatPtr(args, "effort_estimate"); v != nil {
		patch["effort_estimate"] = *v
	}
	if v := optFloatPtr(args, "actual_hours"); v != nil {
		patch["actual_hours"] = *v
	}
	if v := optStringPtr(args, "assignee"); v != nil {
		patch["assignee"] = *v
	}
	if v := optStringPtr(args, "reporter"); v != nil {
		patch["reporter"] = *v
	}

	updated, err := c.Storage.WorkItems.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	// Route status/progress through the progress calculator so the two
	// derive each other (spec.md §3, §9) instead of being written
	// independently, mirroring jive_track_progress's TrackProgress path.
	if statusPtr != nil || progressPtr != nil {
		if _, err := c.Progress.Update(ctx, id, progressPtr, statusPtr, true); err != nil {
			return nil, err
		}
		updated, err = c.Storage.WorkItems.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if updated == nil {
			return nil, jiveerr.NotFound(id.String(), nil)
		}
	}
	return workItemSummary(updated), nil
}

func (c *Components) deleteWorkItem(ctx context.Context, args map[string]any) (any, error) {
	id, err := c.resolveID(ctx, args, "id")
	if err != nil {
		return nil, err
	}
	cascade := optBool(args, "cascade", false)
	if err := c.Storage.WorkItems.Delete(ctx, id, cascade); err != nil {
		return nil, err
	}
	return map[string]any{"id": id.String(), "deleted": true, "cascade": cascade}, nil
}

// GetWorkItem implements jive_get_work_item: a single item by
// identifier, or a filtered/paginated list (spec.md §6).
func (c *Components) GetWorkItem(ctx *mcp.CallContext, args map[string]any) (any, error) {
	if _, hasID := args["id"]; hasID {
		id, err := c.resolveID(ctx, args, "id")
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
		return workItemSummary(item), nil
	}

	filter := store.Filter{}
	if v := optString(args, "type"); v != "" {
		filter["type"] = v
	}
	if v := optString(args, "status"); v != "" {
		filter["status"] = v
	}
	if v := optString(args, "priority"); v != "" {
		filter["priority"] = v
	}
	if v := optString(args, "assignee"); v != "" {
		filter["assignee"] = v
	}
	if v := optString(args, "parent_id"); v != "" {
		filter["parent_id"] = v
	}

	items, err := c.Storage.WorkItems.List(ctx, store.ListOptions{
		Filter:    filter,
		Limit:     optInt(args, "limit", 100),
		Offset:    optInt(args, "offset", 0),
		SortBy:    optString(args, "sort_by"),
		SortOrder: store.SortOrder(optString(args, "sort_order")),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"items": workItemSummaries(items), "count": len(items)}, nil
}

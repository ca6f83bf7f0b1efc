package tools

import (
	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/mcp"
	"github.com/jivemcp/jive/internal/workitem"
)

// GetHierarchy implements jive_get_hierarchy: children, ancestors,
// descendants, roots, full_hierarchy, or dependency traversal
// (spec.md §4.3, §4.5, §6).
func (c *Components) GetHierarchy(ctx *mcp.CallContext, args map[string]any) (any, error) {
	action, err := argString(args, "action")
	if err != nil {
		return nil, err
	}

	switch action {
	case "children":
		id, err := c.resolveID(ctx, args, "id")
		if err != nil {
			return nil, err
		}
		items, err := c.Hierarchy.Children(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{"children": workItemSummaries(items)}, nil

	case "ancestors":
		id, err := c.resolveID(ctx, args, "id")
		if err != nil {
			return nil, err
		}
		items, err := c.Hierarchy.Ancestors(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{"ancestors": workItemSummaries(items)}, nil

	case "descendants":
		id, err := c.resolveID(ctx, args, "id")
		if err != nil {
			return nil, err
		}
		items, err := c.Hierarchy.Descendants(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{"descendants": workItemSummaries(items)}, nil

	case "roots":
		var filterType *workitem.Type
		if v := optString(args, "type"); v != "" {
			t, err := parseType(v)
			if err != nil {
				return nil, err
			}
			filterType = &t
		}
		items, err := c.Hierarchy.Roots(ctx, filterType)
		if err != nil {
			return nil, err
		}
		return map[string]any{"roots": workItemSummaries(items)}, nil

	case "full_hierarchy":
		id, err := c.resolveID(ctx, args, "id")
		if err != nil {
			return nil, err
		}
		ancestors, err := c.Hierarchy.Ancestors(ctx, id)
		if err != nil {
			return nil, err
		}
		descendants, err := c.Hierarchy.Descendants(ctx, id)
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
		return map[string]any{
			"item":        workItemSummary(item),
			"ancestors":   workItemSummaries(ancestors),
			"descendants": workItemSummaries(descendants),
		}, nil

	case "dependencies":
		id, err := c.resolveID(ctx, args, "id")
		if err != nil {
			return nil, err
		}
		transitive := optBool(args, "transitive", false)
		onlyBlocking := optBool(args, "only_blocking", false)
		records, err := c.Dependency.GetDependencies(ctx, id, transitive, onlyBlocking)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, len(records))
		for i, r := range records {
			out[i] = map[string]any{
				"id":       r.ID.String(),
				"item":     workItemSummary(r.Item),
				"blocking": r.Blocking,
			}
		}
		return map[string]any{"dependencies": out}, nil

	default:
		return nil, jiveerr.Validation("action", action, "children|ancestors|descendants|roots|full_hierarchy|dependencies", "unknown action")
	}
}

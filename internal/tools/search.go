package tools

import (
	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/mcp"
	"github.com/jivemcp/jive/internal/store"
)

// SearchContent implements jive_search_content: vector, keyword, or
// hybrid search over work items (spec.md §4.1, §6).
func (c *Components) SearchContent(ctx *mcp.CallContext, args map[string]any) (any, error) {
	query, err := argString(args, "query")
	if err != nil {
		return nil, err
	}

	mode := store.ModeHybrid
	switch optString(args, "type") {
	case "semantic":
		mode = store.ModeVector
	case "keyword":
		mode = store.ModeKeyword
	case "hybrid", "":
		mode = store.ModeHybrid
	default:
		return nil, jiveerr.Validation("type", args["type"], "semantic|keyword|hybrid", "unknown search type")
	}

	limit := optInt(args, "limit", 20)

	if err := c.Storage.AcquireSearchSlot(ctx); err != nil {
		return nil, err
	}
	defer c.Storage.ReleaseSearchSlot()

	results, err := c.Storage.WorkItems.Search(ctx, query, store.Filter{}, mode, limit)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, len(results))
	for i, r := range results {
		entry := workItemSummary(r.Item)
		entry["score"] = r.Score
		out[i] = entry
	}
	return map[string]any{"results": out, "count": len(out)}, nil
}

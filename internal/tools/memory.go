package tools

import (
	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/mcp"
	"github.com/jivemcp/jive/internal/memory"
	"github.com/jivemcp/jive/internal/retrieval"
	"github.com/jivemcp/jive/internal/store"
)

func architectureSummary(item *store.ArchitectureItem) map[string]any {
	return map[string]any{
		"unique_slug":     item.UniqueSlug,
		"title":           item.Title,
		"ai_requirements": item.AIRequirements,
		"ai_when_to_use":  item.AIWhenToUse,
		"keywords":        item.Keywords,
		"children_slugs":  item.ChildrenSlugs,
		"related_slugs":   item.RelatedSlugs,
		"linked_epic_ids": item.LinkedEpicIDs,
		"tags":            item.Tags,
		"created_on":      item.CreatedOn,
		"last_updated_on": item.LastUpdatedOn,
	}
}

func troubleshootSummary(item *store.TroubleshootItem) map[string]any {
	return map[string]any{
		"unique_slug":     item.UniqueSlug,
		"title":           item.Title,
		"ai_use_case":     item.AIUseCase,
		"ai_solutions":    item.AISolutions,
		"keywords":        item.Keywords,
		"tags":            item.Tags,
		"usage_count":     item.UsageCount,
		"success_count":   item.SuccessCount,
		"success_rate":    item.SuccessRate(),
		"created_on":      item.CreatedOn,
		"last_updated_on": item.LastUpdatedOn,
	}
}

// Memory implements jive_memory: architecture and troubleshoot CRUD,
// vector retrieval, smart-context assembly, and problem→solution
// matching (spec.md §4.7, §4.8, §6).
func (c *Components) Memory(ctx *mcp.CallContext, args map[string]any) (any, error) {
	namespace, err := argString(args, "namespace")
	if err != nil {
		return nil, err
	}
	action, err := argString(args, "action")
	if err != nil {
		return nil, err
	}

	switch namespace {
	case "architecture":
		return c.architectureAction(ctx, action, args)
	case "troubleshoot":
		return c.troubleshootAction(ctx, action, args)
	default:
		return nil, jiveerr.Validation("namespace", namespace, "architecture|troubleshoot", "unknown namespace")
	}
}

func (c *Components) architectureAction(ctx *mcp.CallContext, action string, args map[string]any) (any, error) {
	switch action {
	case "create":
		item := &store.ArchitectureItem{
			UniqueSlug:     optString(args, "slug"),
			Title:          optString(args, "title"),
			AIRequirements: optString(args, "requirements"),
			AIWhenToUse:    optStringSlice(args, "when_to_use"),
			Keywords:       optStringSlice(args, "keywords"),
			ChildrenSlugs:  optStringSlice(args, "children_slugs"),
			RelatedSlugs:   optStringSlice(args, "related_slugs"),
			LinkedEpicIDs:  optStringSlice(args, "linked_epic_ids"),
			Tags:           optStringSlice(args, "tags"),
		}
		if err := c.Architecture.Create(ctx, item); err != nil {
			return nil, err
		}
		return architectureSummary(item), nil

	case "get":
		slug, err := argString(args, "slug")
		if err != nil {
			return nil, err
		}
		item, err := c.Architecture.Get(ctx, slug)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, jiveerr.NotFound(slug, nil)
		}
		return architectureSummary(item), nil

	case "update":
		slug, err := argString(args, "slug")
		if err != nil {
			return nil, err
		}
		patch := memory.ArchitecturePatch{
			Title:         optStringPtr(args, "title"),
			Requirements:  optStringPtr(args, "requirements"),
			WhenToUse:     optStringSlice(args, "when_to_use"),
			Keywords:      optStringSlice(args, "keywords"),
			ChildrenSlugs: optStringSlice(args, "children_slugs"),
			RelatedSlugs:  optStringSlice(args, "related_slugs"),
			LinkedEpicIDs: optStringSlice(args, "linked_epic_ids"),
			Tags:          optStringSlice(args, "tags"),
		}
		item, err := c.Architecture.Update(ctx, slug, patch)
		if err != nil {
			return nil, err
		}
		return architectureSummary(item), nil

	case "delete":
		slug, err := argString(args, "slug")
		if err != nil {
			return nil, err
		}
		if err := c.Architecture.Delete(ctx, slug); err != nil {
			return nil, err
		}
		return map[string]any{"slug": slug, "deleted": true}, nil

	case "list":
		items, err := c.Architecture.List(ctx, optInt(args, "limit", 100), optInt(args, "offset", 0))
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, len(items))
		for i, item := range items {
			out[i] = architectureSummary(item)
		}
		return map[string]any{"items": out, "count": len(out)}, nil

	case "search":
		query, err := argString(args, "query")
		if err != nil {
			return nil, err
		}
		if err := c.Storage.AcquireSearchSlot(ctx); err != nil {
			return nil, err
		}
		defer c.Storage.ReleaseSearchSlot()
		results, err := c.Architecture.Search(ctx, query, optInt(args, "limit", 10))
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, len(results))
		for i, r := range results {
			entry := architectureSummary(r.Item)
			entry["score"] = r.Score
			out[i] = entry
		}
		return map[string]any{"results": out}, nil

	case "build_context":
		slug, err := argString(args, "slug")
		if err != nil {
			return nil, err
		}
		built, err := retrieval.BuildContext(ctx, c.Architecture, slug, retrieval.ContextBudget{
			TokenBudget: optInt(args, "token_budget", 4000),
		})
		if err != nil {
			return nil, err
		}
		if built == nil {
			return nil, jiveerr.NotFound(slug, nil)
		}
		return map[string]any{
			"primary":            built.Primary,
			"children":           built.Children,
			"related":            built.Related,
			"tokens_used":        built.TokensUsed,
			"token_budget":       built.TokenBudget,
			"truncation_applied": built.TruncationApplied,
			"markdown":           retrieval.RenderMarkdown(built),
		}, nil

	default:
		return nil, jiveerr.Validation("action", action, "create|get|update|delete|list|search|build_context", "unknown architecture action")
	}
}

func (c *Components) troubleshootAction(ctx *mcp.CallContext, action string, args map[string]any) (any, error) {
	switch action {
	case "create":
		item := &store.TroubleshootItem{
			UniqueSlug:  optString(args, "slug"),
			Title:       optString(args, "title"),
			AIUseCase:   optStringSlice(args, "use_case"),
			AISolutions: optString(args, "solutions"),
			Keywords:    optStringSlice(args, "keywords"),
			Tags:        optStringSlice(args, "tags"),
		}
		if err := c.Troubleshoot.Create(ctx, item); err != nil {
			return nil, err
		}
		return troubleshootSummary(item), nil

	case "get":
		slug, err := argString(args, "slug")
		if err != nil {
			return nil, err
		}
		item, err := c.Troubleshoot.Get(ctx, slug)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, jiveerr.NotFound(slug, nil)
		}
		return troubleshootSummary(item), nil

	case "update":
		slug, err := argString(args, "slug")
		if err != nil {
			return nil, err
		}
		patch := memory.TroubleshootPatch{
			Title:     optStringPtr(args, "title"),
			Solutions: optStringPtr(args, "solutions"),
			UseCase:   optStringSlice(args, "use_case"),
			Keywords:  optStringSlice(args, "keywords"),
			Tags:      optStringSlice(args, "tags"),
		}
		item, err := c.Troubleshoot.Update(ctx, slug, patch)
		if err != nil {
			return nil, err
		}
		return troubleshootSummary(item), nil

	case "delete":
		slug, err := argString(args, "slug")
		if err != nil {
			return nil, err
		}
		if err := c.Troubleshoot.Delete(ctx, slug); err != nil {
			return nil, err
		}
		return map[string]any{"slug": slug, "deleted": true}, nil

	case "list":
		items, err := c.Troubleshoot.List(ctx, optInt(args, "limit", 100), optInt(args, "offset", 0))
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, len(items))
		for i, item := range items {
			out[i] = troubleshootSummary(item)
		}
		return map[string]any{"items": out, "count": len(out)}, nil

	case "search":
		query, err := argString(args, "query")
		if err != nil {
			return nil, err
		}
		if err := c.Storage.AcquireSearchSlot(ctx); err != nil {
			return nil, err
		}
		defer c.Storage.ReleaseSearchSlot()
		results, err := c.Troubleshoot.Search(ctx, query, optInt(args, "limit", 10))
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, len(results))
		for i, r := range results {
			entry := troubleshootSummary(r.Item)
			entry["score"] = r.Score
			out[i] = entry
		}
		return map[string]any{"results": out}, nil

	case "match":
		problem, err := argString(args, "problem")
		if err != nil {
			return nil, err
		}
		if err := c.Storage.AcquireSearchSlot(ctx); err != nil {
			return nil, err
		}
		defer c.Storage.ReleaseSearchSlot()
		matcher := c.Matcher
		if v := optFloatPtr(args, "min_overlap"); v != nil {
			matcher = retrieval.NewMatcher(retrieval.WithMinOverlap(int(*v)))
		}
		matches, err := matcher.MatchProblem(ctx, c.Troubleshoot, problem, retrieval.MatchingContext{
			MaxResults:         optInt(args, "limit", 5),
			MinRelevanceScore:  optFloat(args, "min_relevance", 0.0),
			BoostBySuccessRate: optBool(args, "boost_by_success_rate", true),
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"matches": matches}, nil

	case "get_solution":
		slug, err := argString(args, "slug")
		if err != nil {
			return nil, err
		}
		item, err := retrieval.GetDetailedSolution(ctx, c.Troubleshoot, slug, optBool(args, "mark_as_used", false), optBool(args, "success", false))
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, jiveerr.NotFound(slug, nil)
		}
		return troubleshootSummary(item), nil

	default:
		return nil, jiveerr.Validation("action", action, "create|get|update|delete|list|search|match|get_solution", "unknown troubleshoot action")
	}
}

func optFloat(args map[string]any, key string, def float64) float64 {
	if v := optFloatPtr(args, key); v != nil {
		return *v
	}
	return def
}

package mcp

// AliasMapping rewrites a legacy tool name's call into the
// consolidated tool + argument shape it expects (spec.md §6 mapping
// table). Rewrite receives the caller's raw arguments and returns the
// consolidated tool's argument map.
type AliasMapping struct {
	ConsolidatedName string
	Rewrite          func(args map[string]any) map[string]any
}

// withAction returns a Rewrite that injects a fixed "action" key,
// covering the common case (jive_create_work_item → manage_work_item
// with action=create, etc).
func withAction(action string) func(map[string]any) map[string]any {
	return func(args map[string]any) map[string]any {
		out := make(map[string]any, len(args)+1)
		for k, v := range args {
			out[k] = v
		}
		out["action"] = action
		return out
	}
}

// withActionAndKey returns a Rewrite that injects a fixed "action" key
// and renames one argument key (e.g. legacy "task_id" → "id").
func withActionAndKey(action, fromKey, toKey string) func(map[string]any) map[string]any {
	return func(args map[string]any) map[string]any {
		out := make(map[string]any, len(args)+1)
		for k, v := range args {
			if k == fromKey {
				out[toKey] = v
				continue
			}
			out[k] = v
		}
		if action != "" {
			out["action"] = action
		}
		return out
	}
}

// RegisterLegacyAliases wires the subset of legacy tool names spec.md
// §6 enumerates onto their consolidated counterparts.
func RegisterLegacyAliases(r *Registry) {
	r.RegisterAlias("jive_create_work_item", AliasMapping{
		ConsolidatedName: "jive_manage_work_item",
		Rewrite:          withAction("create"),
	})
	r.RegisterAlias("jive_update_work_item", AliasMapping{
		ConsolidatedName: "jive_manage_work_item",
		Rewrite:          withAction("update"),
	})
	r.RegisterAlias("jive_delete_task", AliasMapping{
		ConsolidatedName: "jive_manage_work_item",
		Rewrite:          withActionAndKey("delete", "task_id", "id"),
	})
	r.RegisterAlias("jive_search_work_items", AliasMapping{
		ConsolidatedName: "jive_search_content",
		Rewrite:          func(args map[string]any) map[string]any { return args },
	})
	r.RegisterAlias("jive_get_task", AliasMapping{
		ConsolidatedName: "jive_get_work_item",
		Rewrite:          withActionAndKey("", "task_id", "id"),
	})
	r.RegisterAlias("jive_get_work_item_children", AliasMapping{
		ConsolidatedName: "jive_get_hierarchy",
		Rewrite:          withAction("children"),
	})
	r.RegisterAlias("jive_get_work_item_dependencies", AliasMapping{
		ConsolidatedName: "jive_get_hierarchy",
		Rewrite:          withAction("dependencies"),
	})
}

package mcp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func noopHandler(ctx *CallContext, args map[string]any) (any, error) {
	return map[string]any{"ok": true}, nil
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(ToolDefinition{Name: "jive_ping", Handler: noopHandler})

	def, ok := r.Get("jive_ping")
	require.True(t, ok)
	require.Equal(t, "jive_ping", def.Name)
}

func TestRegisterDuplicateNamePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(ToolDefinition{Name: "jive_ping", Handler: noopHandler})
	require.Panics(t, func() {
		r.Register(ToolDefinition{Name: "jive_ping", Handler: noopHandler})
	})
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(ToolDefinition{Name: "a", Handler: noopHandler})
	r.Register(ToolDefinition{Name: "b", Handler: noopHandler})
	r.Register(ToolDefinition{Name: "c", Handler: noopHandler})

	names := make([]string, 0, 3)
	for _, def := range r.List() {
		names = append(names, def.Name)
	}
	require.Equal(t, []string{"a", "b", "c"}, names)
}

func TestGetAliasMissingReturnsFalse(t *testing.T) {
	r := NewRegistry()
	_, ok := r.GetAlias("no_such_alias")
	require.False(t, ok)
}

func TestRegisterLegacyAliasesRewritesActionAndKey(t *testing.T) {
	r := NewRegistry()
	RegisterLegacyAliases(r)

	mapping, ok := r.GetAlias("jive_delete_task")
	require.True(t, ok)
	require.Equal(t, "jive_manage_work_item", mapping.ConsolidatedName)

	rewritten := mapping.Rewrite(map[string]any{"task_id": "abc-123"})
	require.Equal(t, "delete", rewritten["action"])
	require.Equal(t, "abc-123", rewritten["id"])
	_, hasTaskID := rewritten["task_id"]
	require.False(t, hasTaskID)
}

func TestRegisterLegacyAliasesCreateInjectsAction(t *testing.T) {
	r := NewRegistry()
	RegisterLegacyAliases(r)

	mapping, ok := r.GetAlias("jive_create_work_item")
	require.True(t, ok)
	rewritten := mapping.Rewrite(map[string]any{"title": "New item"})
	require.Equal(t, "create", rewritten["action"])
	require.Equal(t, "New item", rewritten["title"])
}

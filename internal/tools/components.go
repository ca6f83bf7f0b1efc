// Package tools implements the eight consolidated MCP tools (spec.md
// §6) as mcp.Handler functions over the C1-C9 component graph, plus
// registration of every legacy alias.
package tools

import (
	"github.com/jivemcp/jive/internal/dependency"
	"github.com/jivemcp/jive/internal/execution"
	"github.com/jivemcp/jive/internal/hierarchy"
	"github.com/jivemcp/jive/internal/mcp"
	"github.com/jivemcp/jive/internal/memory"
	"github.com/jivemcp/jive/internal/progress"
	"github.com/jivemcp/jive/internal/resolver"
	"github.com/jivemcp/jive/internal/retrieval"
	"github.com/jivemcp/jive/internal/store"
)

// Components bundles every C1-C9 engine the tool handlers need. One
// instance is built at startup and closed over by every handler.
type Components struct {
	Storage      *store.Facade
	Resolver     *resolver.Resolver
	Hierarchy    *hierarchy.Engine
	Progress     *progress.Calculator
	Dependency   *dependency.Engine
	Execution    *execution.Tracker
	Architecture *memory.Architecture
	Troubleshoot *memory.Troubleshoot
	Matcher      *retrieval.Matcher
	ExportDir    string
}

// NewComponents wires the full component graph over a storage facade.
func NewComponents(storage *store.Facade, exportDir string) *Components {
	h := hierarchy.New(storage.WorkItems)
	deps := dependency.New(storage.WorkItems)
	return &Components{
		Storage:      storage,
		Resolver:     resolver.New(storage.WorkItems),
		Hierarchy:    h,
		Progress:     progress.New(storage.WorkItems, h),
		Dependency:   deps,
		Execution:    execution.New(storage.Execution, deps),
		Architecture: memory.NewArchitecture(storage.Architecture),
		Troubleshoot: memory.NewTroubleshoot(storage.Troubleshoot),
		Matcher:      retrieval.NewMatcher(),
		ExportDir:    exportDir,
	}
}

// Register installs every consolidated tool and every legacy alias
// onto registry.
func Register(registry *mcp.Registry, c *Components) {
	registry.Register(mcp.ToolDefinition{
		Name:        "jive_manage_work_item",
		Description: "Create, update, or delete a work item",
		InputSchema: manageWorkItemSchema,
		Handler:     c.ManageWorkItem,
	})
	registry.Register(mcp.ToolDefinition{
		Name:        "jive_get_work_item",
		Description: "Fetch a single work item by id, or a filtered list",
		InputSchema: getWorkItemSchema,
		Handler:     c.GetWorkItem,
	})
	registry.Register(mcp.ToolDefinition{
		Name:        "jive_search_content",
		Description: "Search work items by semantic, keyword, or hybrid query; memory items are not searched",
		InputSchema: searchContentSchema,
		Handler:     c.SearchContent,
	})
	registry.Register(mcp.ToolDefinition{
		Name:        "jive_get_hierarchy",
		Description: "Traverse children, ancestors, roots, or dependency relationships",
		InputSchema: getHierarchySchema,
		Handler:     c.GetHierarchy,
	})
	registry.Register(mcp.ToolDefinition{
		Name:        "jive_execute_work_item",
		Description: "Start, check status of, or cancel a work item execution",
		InputSchema: executeWorkItemSchema,
		Handler:     c.ExecuteWorkItem,
	})
	registry.Register(mcp.ToolDefinition{
		Name:        "jive_track_progress",
		Description: "Track, recalculate, or report on work item progress",
		InputSchema: trackProgressSchema,
		Handler:     c.TrackProgress,
	})
	registry.Register(mcp.ToolDefinition{
		Name:        "jive_sync_data",
		Description: "Export or import memory items as markdown, or report sync status",
		InputSchema: syncDataSchema,
		Handler:     c.SyncData,
	})
	registry.Register(mcp.ToolDefinition{
		Name:        "jive_memory",
		Description: "Architecture and troubleshoot memory CRUD, retrieval, and matching",
		InputSchema: memoryToolSchema,
		Handler:     c.Memory,
	})

	mcp.RegisterLegacyAliases(registry)
}

// Package mcp implements the tool registry and dispatcher (spec.md
// §4.10 / C10): tool registration with JSON Schema validation, legacy
// name rewriting, dispatch, response enveloping, and response
// shaping. Grounded on emergent-company-specmcp/internal/mcp/registry.go's
// map+mutex registry shape, generalized from that repo's three
// interface kinds (Tool/Prompt/Resource) down to this system's single
// Tool kind.
package mcp

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Handler executes a tool call. args has already been validated
// against the tool's schema. Handlers receive the dispatch Context
// (deadline, cancellation, storage facade) via ctx.
type Handler func(ctx *CallContext, args map[string]any) (any, error)

// ToolDefinition is one registered consolidated tool.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// Registry holds every registered tool plus the legacy-name alias table.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]ToolDefinition
	toolOrder []string
	aliases   map[string]AliasMapping
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]ToolDefinition),
		aliases: make(map[string]AliasMapping),
	}
}

// Register adds a tool. Panics if the name is already registered as a
// tool (alias names are not checked), matching the teacher registry's fail-fast startup
// contract.
func (r *Registry) Register(def ToolDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		panic(fmt.Sprintf("tool %q already registered", def.Name))
	}
	r.tools[def.Name] = def
	r.toolOrder = append(r.toolOrder, def.Name)
}

// RegisterAlias adds a legacy-name mapping (spec.md §6).
func (r *Registry) RegisterAlias(legacyName string, mapping AliasMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[legacyName] = mapping
}

// Get returns a tool definition by its canonical name.
func (r *Registry) Get(name string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// GetAlias returns the legacy-to-consolidated mapping for name, if any.
func (r *Registry) GetAlias(name string) (AliasMapping, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mapping, ok := r.aliases[name]
	return mapping, ok
}

// List returns every registered tool definition in registration order.
func (r *Registry) List() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDefinition, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		out = append(out, r.tools[name])
	}
	return out
}

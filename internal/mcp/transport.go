// Transport is the single file that knows about the external MCP
// wire protocol; every other file in this package works against
// plain Go types so the registry/dispatcher stay transport-agnostic.
// Grounded on marcus-qen-legator/internal/controlplane/mcpserver's
// mcp.NewServer / mcp.AddTool / StdioTransport usage of
// github.com/modelcontextprotocol/go-sdk/mcp.
package mcp

import (
	"context"
	"encoding/json"
	"sort"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server bridges a Dispatcher onto the MCP stdio transport.
type Server struct {
	sdk        *sdkmcp.Server
	dispatcher *Dispatcher
}

// NewServer registers every tool in registry (plus its legacy
// aliases) onto a fresh SDK server instance, routing every call
// through dispatcher.
func NewServer(name, version string, registry *Registry, dispatcher *Dispatcher) *Server {
	srv := sdkmcp.NewServer(&sdkmcp.Implementation{Name: name, Version: version}, nil)
	s := &Server{sdk: srv, dispatcher: dispatcher}

	for _, def := range registry.List() {
		sdkmcp.AddTool(srv, &sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
		}, s.makeHandler(def.Name))
	}

	registry.mu.RLock()
	aliasNames := make([]string, 0, len(registry.aliases))
	for name := range registry.aliases {
		aliasNames = append(aliasNames, name)
	}
	registry.mu.RUnlock()
	sort.Strings(aliasNames)
	for _, name := range aliasNames {
		mapping, _ := registry.GetAlias(name)
		sdkmcp.AddTool(srv, &sdkmcp.Tool{
			Name:        name,
			Description: "Deprecated alias of " + mapping.ConsolidatedName,
		}, s.makeHandler(name))
	}

	return s
}

// makeHandler adapts one tool name into the generic
// (ctx, *CallToolRequest, map[string]any) → (*CallToolResult, any, error)
// shape mcp.AddTool expects, delegating the actual work to the
// Dispatcher.
func (s *Server) makeHandler(toolName string) func(context.Context, *sdkmcp.CallToolRequest, map[string]any) (*sdkmcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, args map[string]any) (*sdkmcp.CallToolResult, any, error) {
		envelopeBytes := s.dispatcher.Dispatch(ctx, toolName, args)

		var decoded any
		_ = json.Unmarshal(envelopeBytes, &decoded)

		result := &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{
				&sdkmcp.TextContent{Text: string(envelopeBytes)},
			},
		}
		return result, decoded, nil
	}
}

// Run serves over stdio until ctx is cancelled (spec.md §6: "MCP over
// stdio (primary)").
func (s *Server) Run(ctx context.Context) error {
	return s.sdk.Run(ctx, &sdkmcp.StdioTransport{})
}

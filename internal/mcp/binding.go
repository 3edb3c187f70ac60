package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer builds an mcp-go server advertising the catalogue and routing
// every tool through Dispatch
func (s *Server) MCPServer() *server.MCPServer {
	ms := server.NewMCPServer(
		s.name,
		s.version,
		server.WithToolCapabilities(true),
	)
	for _, t := range s.Tools() {
		ms.AddTool(toMCPTool(t), s.handlerFor(t.Name))
	}
	return ms
}

// Run serves the catalogue over stdio until stdin closes
func (s *Server) Run() error {
	return server.ServeStdio(s.MCPServer())
}

func (s *Server) handlerFor(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		return toolResult(s.Dispatch(ctx, name, args)), nil
	}
}

// toolResult renders a reply as indented JSON text; errors are flagged isError
func toolResult(r Reply) *mcpgo.CallToolResult {
	if r.Error != nil {
		data, err := json.MarshalIndent(r.Error, "", "  ")
		if err != nil {
			return mcpgo.NewToolResultError(r.Error.Message)
		}
		return mcpgo.NewToolResultError(string(data))
	}

	data, err := json.MarshalIndent(r.Result, "", "  ")
	if err != nil {
		return mcpgo.NewToolResultError(fmt.Sprintf(`{"code": 500, "error": "operation_failed", "message": %q}`,
			"failed to encode result: "+err.Error()))
	}
	return mcpgo.NewToolResultText(string(data))
}

func toMCPTool(t Tool) mcpgo.Tool {
	opts := []mcpgo.ToolOption{mcpgo.WithDescription(t.Def.Description)}

	required := make(map[string]bool, len(t.Def.Required))
	for _, r := range t.Def.Required {
		required[r] = true
	}

	for _, name := range sortedKeys(t.Def.Properties) {
		p := t.Def.Properties[name]
		propOpts := []mcpgo.PropertyOption{mcpgo.Description(p.Description)}
		if required[name] {
			propOpts = append(propOpts, mcpgo.Required())
		}

		switch p.Type {
		case "integer", "number":
			opts = append(opts, mcpgo.WithNumber(name, propOpts...))
		case "boolean":
			opts = append(opts, mcpgo.WithBoolean(name, propOpts...))
		case "array":
			items := p.Items
			if items == "" {
				items = "string"
			}
			propOpts = append(propOpts, mcpgo.Items(map[string]any{"type": items}))
			opts = append(opts, mcpgo.WithArray(name, propOpts...))
		default:
			if len(p.Enum) > 0 {
				propOpts = append(propOpts, mcpgo.Enum(p.Enum...))
			}
			opts = append(opts, mcpgo.WithString(name, propOpts...))
		}
	}
	return mcpgo.NewTool(t.Name, opts...)
}

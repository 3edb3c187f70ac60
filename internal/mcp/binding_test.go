package mcp

import (
	"encoding/json"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/vthunder/chronos/internal/apperr"
)

func resultText(t *testing.T, r *mcpgo.CallToolResult) string {
	t.Helper()
	if len(r.Content) != 1 {
		t.Fatalf("expected one content block, got %d", len(r.Content))
	}
	switch c := r.Content[0].(type) {
	case mcpgo.TextContent:
		return c.Text
	case *mcpgo.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", r.Content[0])
	return ""
}

func TestToolResult_Success(t *testing.T) {
	r := toolResult(Reply{Result: map[string]any{"timezone": "UTC"}})
	if r.IsError {
		t.Fatal("success flagged as error")
	}
	text := resultText(t, r)
	if text != "{\n  \"timezone\": \"UTC\"\n}" {
		t.Errorf("text: %q", text)
	}
}

func TestToolResult_Error(t *testing.T) {
	r := toolResult(errorReply(apperr.New(apperr.KindNotFound, "Activity log with ID x not found")))
	if !r.IsError {
		t.Fatal("error not flagged")
	}
	var payload ReplyError
	if err := json.Unmarshal([]byte(resultText(t, r)), &payload); err != nil {
		t.Fatalf("error payload is not JSON: %v", err)
	}
	if payload.Code != 404 || payload.Kind != apperr.KindNotFound || payload.Message == "" {
		t.Errorf("payload: %+v", payload)
	}
}

func TestToMCPTool(t *testing.T) {
	tool := toMCPTool(Tool{Name: "start", Def: ToolDef{
		Description: "Start something",
		Properties: map[string]PropDef{
			"kind":  {Type: "string", Enum: []string{"a", "b"}, Description: "kind"},
			"tags":  {Type: "array", Items: "string"},
			"limit": {Type: "integer"},
		},
		Required: []string{"kind"},
	}})

	if tool.Name != "start" || tool.Description != "Start something" {
		t.Errorf("tool: %s %q", tool.Name, tool.Description)
	}
	for _, key := range []string{"kind", "tags", "limit"} {
		if _, ok := tool.InputSchema.Properties[key]; !ok {
			t.Errorf("schema missing %s", key)
		}
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "kind" {
		t.Errorf("required: %v", tool.InputSchema.Required)
	}
	kind, _ := tool.InputSchema.Properties["kind"].(map[string]any)
	if kind["enum"] == nil {
		t.Error("enum not carried into the schema")
	}
	tags, _ := tool.InputSchema.Properties["tags"].(map[string]any)
	if tags["type"] != "array" || tags["items"] == nil {
		t.Errorf("array schema: %v", tags)
	}
}

func TestMCPServer_RegistersCatalogue(t *testing.T) {
	s := NewServer("chronos-test", "0.0.1")
	echoTool(s)
	if ms := s.MCPServer(); ms == nil {
		t.Fatal("nil mcp server")
	}
}

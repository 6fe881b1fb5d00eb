package mcp

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const replicateProvider = "replicate"

// textResult wraps a formatted text block as a successful tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult wraps a failure message as an IsError tool result so the
// calling agent sees the message instead of a protocol error.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// estimateTextTokens approximates the token count of a text payload.
func estimateTextTokens(text string) float64 {
	return float64(len(text)) / 4
}

// indentJSON renders a value as two-space indented JSON for tool output.
func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// strOr dereferences an optional string, falling back when absent.
func strOr(s *string, fallback string) string {
	if s != nil && *s != "" {
		return *s
	}
	return fallback
}

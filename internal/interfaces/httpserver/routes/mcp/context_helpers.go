package mcp

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// callPassthrough is the correlation block agents may embed in any tool's
// arguments alongside the tool-specific fields.
type callPassthrough struct {
	ToolCallID     string `json:"tool_call_id"`
	RequestID      string `json:"request_id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// extractAllContext pulls the correlation fields out of a tool call's raw
// arguments. Malformed payloads yield empty values.
func extractAllContext(req *mcp.CallToolRequest) map[string]string {
	var passthrough callPassthrough
	if req != nil && req.Params != nil && len(req.Params.Arguments) > 0 {
		_ = json.Unmarshal(req.Params.Arguments, &passthrough)
	}
	return map[string]string{
		"tool_call_id":    passthrough.ToolCallID,
		"request_id":      passthrough.RequestID,
		"conversation_id": passthrough.ConversationID,
		"user_id":         passthrough.UserID,
	}
}

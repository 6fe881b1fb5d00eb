package mcp

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// toolTrackingKey is the request context key for tool call tracking data.
type toolTrackingKey struct{}

// ToolTracking carries the correlation identifiers an agent gateway sends
// alongside a tool call so log lines can be tied back to the conversation.
type ToolTracking struct {
	ConversationID string
	ToolCallID     string
}

// Enabled reports whether both correlation headers were present.
func (t ToolTracking) Enabled() bool {
	return t.ConversationID != "" && t.ToolCallID != ""
}

// ExtractToolTracking reads the gateway correlation headers and injects
// them into the request context for tool handlers.
// Headers:
//   - X-Conversation-ID: conversation the tool call belongs to
//   - X-Tool-Call-ID: identifier of the originating tool call
func ExtractToolTracking() gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		tracking := ToolTracking{
			ConversationID: reqCtx.GetHeader("X-Conversation-ID"),
			ToolCallID:     reqCtx.GetHeader("X-Tool-Call-ID"),
		}

		if tracking.Enabled() {
			log.Debug().
				Str("conversation_id", tracking.ConversationID).
				Str("tool_call_id", tracking.ToolCallID).
				Msg("tool call tracking enabled for request")
		}

		ctx := context.WithValue(reqCtx.Request.Context(), toolTrackingKey{}, tracking)
		reqCtx.Request = reqCtx.Request.WithContext(ctx)

		reqCtx.Next()
	}
}

// GetToolTracking retrieves tracking identifiers from a request context.
// The second return is false when no tracking headers were present.
func GetToolTracking(ctx context.Context) (ToolTracking, bool) {
	if tracking, ok := ctx.Value(toolTrackingKey{}).(ToolTracking); ok {
		return tracking, tracking.Enabled()
	}
	return ToolTracking{}, false
}

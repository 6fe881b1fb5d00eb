package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func trackingFromRequest(t *testing.T, setHeaders func(*http.Request)) (ToolTracking, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var got ToolTracking
	var enabled bool
	router := gin.New()
	router.POST("/mcp", ExtractToolTracking(), func(reqCtx *gin.Context) {
		got, enabled = GetToolTracking(reqCtx.Request.Context())
		reqCtx.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	setHeaders(req)
	router.ServeHTTP(httptest.NewRecorder(), req)
	return got, enabled
}

func TestExtractToolTrackingInjectsHeaders(t *testing.T) {
	got, enabled := trackingFromRequest(t, func(req *http.Request) {
		req.Header.Set("X-Conversation-ID", "conv_123")
		req.Header.Set("X-Tool-Call-ID", "call_456")
	})

	if !enabled {
		t.Fatal("tracking enabled = false, want true with both headers set")
	}
	if got.ConversationID != "conv_123" {
		t.Errorf("ConversationID = %q, want conv_123", got.ConversationID)
	}
	if got.ToolCallID != "call_456" {
		t.Errorf("ToolCallID = %q, want call_456", got.ToolCallID)
	}
}

func TestExtractToolTrackingRequiresBothHeaders(t *testing.T) {
	_, enabled := trackingFromRequest(t, func(req *http.Request) {
		req.Header.Set("X-Conversation-ID", "conv_123")
	})

	if enabled {
		t.Error("tracking enabled = true with only one header, want false")
	}
}

func TestGetToolTrackingAbsent(t *testing.T) {
	if _, ok := GetToolTracking(context.Background()); ok {
		t.Error("GetToolTracking() ok = true on a bare context, want false")
	}
}

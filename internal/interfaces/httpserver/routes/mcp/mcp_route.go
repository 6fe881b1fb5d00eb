package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"swiftask/services/replicate-tools/internal/infrastructure/toolset"
	"swiftask/services/replicate-tools/internal/interfaces/httpserver/responses"
	"swiftask/services/replicate-tools/utils/platformerrors"
)

var allowedMCPMethods = map[string]bool{
	// Initialization / handshake
	"initialize":                true,
	"notifications/initialized": true,
	"ping":                      true,

	// Tools
	"tools/list": true,
	"tools/call": true,
}

type MCPRoute struct {
	modelsMCP      *ModelsMCP
	predictionsMCP *PredictionsMCP
	codeGenMCP     *CodeGenMCP
	registry       *toolset.Registry
	mcpServer      *mcp.Server
	httpHandler    http.Handler
}

func NewMCPRoute(
	modelsMCP *ModelsMCP,
	predictionsMCP *PredictionsMCP,
	codeGenMCP *CodeGenMCP,
	registry *toolset.Registry,
) *MCPRoute {
	impl := &mcp.Implementation{
		Name:    "swiftask-platform",
		Version: "1.0.0",
	}
	server := mcp.NewServer(impl, nil)

	modelsMCP.RegisterTools(server)
	predictionsMCP.RegisterTools(server)
	codeGenMCP.RegisterTools(server)

	log.Info().
		Str("toolset", registry.Name()).
		Str("prefix", registry.Prefix()).
		Msg("MCP server initialized")

	return &MCPRoute{
		modelsMCP:      modelsMCP,
		predictionsMCP: predictionsMCP,
		codeGenMCP:     codeGenMCP,
		registry:       registry,
		mcpServer:      server,
		httpHandler: mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
			return server
		}, &mcp.StreamableHTTPOptions{Stateless: true}),
	}
}

func (route *MCPRoute) RegisterRouter(router *gin.RouterGroup) {
	router.POST("/mcp",
		MCPMethodGuard(allowedMCPMethods),
		InjectUserContext(),
		ExtractToolTracking(),
		route.serveMCP,
	)
}

// serveMCP streams Model Context Protocol responses using the underlying MCP server.
// @Summary MCP endpoint for tool execution
// @Description Handles Model Context Protocol (MCP) requests over HTTP. Supports MCP methods: initialize, ping, tools/list, tools/call.
// @Description
// @Description **Available Tools** (names carry the configured prefix, default `replicate`):
// @Description - Model catalog: `replicate_list_models`, `replicate_search_models`, `replicate_list_popular_models`, `replicate_get_model`, `replicate_create_model`, `replicate_update_model`, `replicate_delete_model`, `replicate_get_model_versions`, `replicate_get_version_details`.
// @Description - Predictions: `replicate_create_prediction`, `replicate_get_prediction`, `replicate_cancel_prediction`, `replicate_list_predictions`, `replicate_stream_prediction`, `replicate_get_prediction_logs`, `replicate_run_prediction`.
// @Description - Code generation: `replicate_generate_code`, `replicate_optimize_code`, `replicate_debug_code`, `replicate_explain_code`, `replicate_convert_code`.
// @Description
// @Description Which categories are registered depends on the selected toolset (basic, code_focus, advanced, or file-defined).
// @Description
// @Description **MCP Protocol:**
// @Description - Request format: JSON-RPC 2.0 with method and params
// @Description - Response format: Server-Sent Events (SSE) stream
// @Description - Stateless mode (no session management)
// @Tags MCP API
// @Accept json
// @Produce text/event-stream
// @Param request body object true "MCP JSON-RPC request payload (e.g., {\"jsonrpc\":\"2.0\",\"method\":\"tools/list\",\"id\":1})"
// @Success 200 {string} string "Streamed MCP response in SSE format"
// @Failure 400 {object} responses.ErrorResponse "Invalid MCP request payload or unsupported method"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/mcp [post]
func (route *MCPRoute) serveMCP(reqCtx *gin.Context) {
	// Intercept tools/list when the toolset file carries description
	// overrides, so agents see the operator-supplied text.
	if route.registry != nil && len(route.registry.DescriptionOverrides()) > 0 {
		bodyBytes, err := io.ReadAll(reqCtx.Request.Body)
		if err == nil && len(bodyBytes) > 0 {
			// Restore body for potential re-use
			reqCtx.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

			var payload struct {
				Method string      `json:"method"`
				ID     interface{} `json:"id"`
			}
			if json.Unmarshal(bodyBytes, &payload) == nil && payload.Method == "tools/list" {
				route.handleToolsListWithOverrides(reqCtx)
				return
			}
		}
	}

	// Force acceptable content types for go-sdk streamable handler even if client omits Accept.
	reqCtx.Request.Header.Set("Accept", "application/json, text/event-stream")
	route.httpHandler.ServeHTTP(reqCtx.Writer, reqCtx.Request)
}

// handleToolsListWithOverrides rewrites tool descriptions in the
// tools/list response from the toolset registry overrides.
func (route *MCPRoute) handleToolsListWithOverrides(reqCtx *gin.Context) {
	ctx := reqCtx.Request.Context()
	overrides := route.registry.DescriptionOverrides()

	// Capture the SDK handler's response so it can be rewritten.
	captureWriter := &responseCapture{header: make(http.Header)}
	captureReq := reqCtx.Request.Clone(ctx)

	bodyBytes, _ := io.ReadAll(reqCtx.Request.Body)
	captureReq.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	reqCtx.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	captureReq.Header.Set("Accept", "application/json, text/event-stream")
	route.httpHandler.ServeHTTP(captureWriter, captureReq)

	responseBody := captureWriter.body.Bytes()

	// The response might be in SSE format (event: message\ndata: {...}\n\n)
	// or plain JSON. Try to extract JSON from SSE format first.
	jsonData := extractJSONFromSSE(responseBody)
	if jsonData == nil {
		jsonData = responseBody
	}

	var rpcResponse struct {
		Jsonrpc string      `json:"jsonrpc"`
		ID      interface{} `json:"id"`
		Result  struct {
			Tools []struct {
				Name        string                 `json:"name"`
				Description string                 `json:"description"`
				InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
			} `json:"tools"`
			NextCursor string `json:"nextCursor,omitempty"`
		} `json:"result"`
		Error interface{} `json:"error,omitempty"`
	}

	if err := json.Unmarshal(jsonData, &rpcResponse); err != nil {
		// If parsing fails, just forward the original response
		log.Warn().Err(err).Msg("Failed to parse tools/list response for description override")
		for k, v := range captureWriter.header {
			reqCtx.Writer.Header()[k] = v
		}
		reqCtx.Writer.WriteHeader(captureWriter.statusCode)
		reqCtx.Writer.Write(responseBody)
		return
	}

	for i := range rpcResponse.Result.Tools {
		toolName := rpcResponse.Result.Tools[i].Name
		if desc, ok := overrides[toolName]; ok && desc != "" {
			log.Debug().
				Str("tool_name", toolName).
				Msg("Overriding tool description from toolset config")
			rpcResponse.Result.Tools[i].Description = desc
		}
	}

	modifiedBody, err := json.Marshal(rpcResponse)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal modified tools/list response")
		for k, v := range captureWriter.header {
			reqCtx.Writer.Header()[k] = v
		}
		reqCtx.Writer.WriteHeader(captureWriter.statusCode)
		reqCtx.Writer.Write(responseBody)
		return
	}

	reqCtx.Writer.Header().Set("Content-Type", "application/json")
	reqCtx.Writer.WriteHeader(http.StatusOK)
	reqCtx.Writer.Write(modifiedBody)
}

// responseCapture captures HTTP response for modification
type responseCapture struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
}

func (r *responseCapture) Header() http.Header {
	return r.header
}

func (r *responseCapture) Write(b []byte) (int, error) {
	return r.body.Write(b)
}

func (r *responseCapture) WriteHeader(statusCode int) {
	r.statusCode = statusCode
}

// extractJSONFromSSE extracts JSON data from SSE (Server-Sent Events) format.
// SSE format is: "event: message\ndata: {...}\n\n"
// Returns nil if the input is not in SSE format.
func extractJSONFromSSE(data []byte) []byte {
	str := string(data)

	// Check if this looks like SSE format
	if !strings.HasPrefix(str, "event:") && !strings.HasPrefix(str, "data:") {
		return nil
	}

	// Split by newlines and find the data line
	lines := strings.Split(str, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data:") {
			jsonStr := strings.TrimPrefix(line, "data:")
			jsonStr = strings.TrimSpace(jsonStr)
			if jsonStr != "" {
				return []byte(jsonStr)
			}
		}
	}

	return nil
}

// InjectUserContext extracts user_id from JWT token and injects it into request context
func InjectUserContext() gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		// Try to get auth token from gin context (set by auth middleware)
		if tokenVal, exists := reqCtx.Get("auth_token"); exists {
			if token, ok := tokenVal.(*jwt.Token); ok && token.Valid {
				if claims, ok := token.Claims.(jwt.MapClaims); ok {
					// Try to extract user_id from various claim fields
					var userID string
					if sub, ok := claims["sub"].(string); ok && sub != "" {
						userID = sub
					} else if uid, ok := claims["user_id"].(string); ok && uid != "" {
						userID = uid
					} else if uid, ok := claims["uid"].(string); ok && uid != "" {
						userID = uid
					}

					if userID != "" {
						// Inject user_id into request context
						ctx := context.WithValue(reqCtx.Request.Context(), "user_id", userID)
						reqCtx.Request = reqCtx.Request.WithContext(ctx)
					}
				}
			}
		}
		reqCtx.Next()
	}
}

func MCPMethodGuard(allowedMethods map[string]bool) gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		bodyBytes, err := io.ReadAll(reqCtx.Request.Body)
		if err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeInternal, "failed to read MCP request body", "8a4c2f1e-9b6d-4e3a-8c7f-2d5b9e1a4c6f")
			return
		}
		_ = reqCtx.Request.Body.Close()

		if len(bodyBytes) == 0 {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "empty MCP request body", "3f7e5d2b-1a8c-4b9e-a6d4-7c2f8e5b3a1d")
			return
		}

		reqCtx.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var payload struct {
			Method string `json:"method"`
		}

		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid MCP request payload", "b2d8f4a6-3e1c-4f7b-9a5e-6c8d2b4f7e1a")
			return
		}

		if payload.Method == "" {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "missing method field in MCP request", "5c9e3a7f-2b4d-4c8a-b1f6-8e3d5a7c9b2e")
			return
		}

		if !allowedMethods[payload.Method] {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "unsupported MCP method: "+payload.Method, "7e1b5d9c-4a6f-4d2b-8c3e-1f9a5b7d3e6c")
			return
		}

		reqCtx.Next()
	}
}

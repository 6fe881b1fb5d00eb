package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	domainpredictions "swiftask/services/replicate-tools/internal/domain/predictions"
	domainreplicate "swiftask/services/replicate-tools/internal/domain/replicate"
	"swiftask/services/replicate-tools/internal/infrastructure/metrics"
	"swiftask/services/replicate-tools/internal/infrastructure/toolset"
)

// CreatePredictionArgs defines the arguments for the create_prediction tool
type CreatePredictionArgs struct {
	Version             string         `json:"version"`
	Input               map[string]any `json:"input"`
	Webhook             *string        `json:"webhook,omitempty"`
	WebhookEventsFilter []string       `json:"webhook_events_filter,omitempty"`
	// Context passthrough (ignored by handler but allowed for validation)
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// PredictionIDArgs defines the arguments for tools addressing one prediction
type PredictionIDArgs struct {
	PredictionID string `json:"prediction_id"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// ListPredictionsArgs defines the arguments for the list_predictions tool
type ListPredictionsArgs struct {
	Limit  *int    `json:"limit,omitempty"`
	Cursor *string `json:"cursor,omitempty"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// StreamPredictionArgs defines the arguments for the stream_prediction tool
type StreamPredictionArgs struct {
	PredictionID string `json:"prediction_id"`
	Timeout      *int   `json:"timeout,omitempty"`
	PollInterval *int   `json:"poll_interval,omitempty"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// RunPredictionArgs defines the arguments for the run_prediction tool
type RunPredictionArgs struct {
	Version string         `json:"version"`
	Input   map[string]any `json:"input"`
	Timeout *int           `json:"timeout,omitempty"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

type predictionPayload struct {
	Prediction *domainreplicate.Prediction `json:"prediction"`
}

type predictionListPayload struct {
	Count       int                           `json:"count"`
	Predictions []domainreplicate.Prediction  `json:"predictions"`
	NextCursor  string                        `json:"next_cursor,omitempty"`
}

type predictionLogsPayload struct {
	PredictionID string                 `json:"prediction_id"`
	Status       domainreplicate.Status `json:"status"`
	Logs         string                 `json:"logs,omitempty"`
}

type predictionWatchPayload struct {
	PredictionID string                           `json:"prediction_id"`
	Events       []domainpredictions.WatchEvent   `json:"events"`
	Final        *domainreplicate.Prediction      `json:"final,omitempty"`
	TimedOut     bool                             `json:"timed_out,omitempty"`
}

// PredictionsMCP registers the prediction lifecycle tools on the MCP server.
type PredictionsMCP struct {
	service  *domainpredictions.PredictionService
	registry *toolset.Registry
}

// NewPredictionsMCP creates a new prediction MCP handler.
func NewPredictionsMCP(service *domainpredictions.PredictionService, registry *toolset.Registry) *PredictionsMCP {
	return &PredictionsMCP{
		service:  service,
		registry: registry,
	}
}

// RegisterTools registers the prediction tools with the MCP server.
func (p *PredictionsMCP) RegisterTools(server *mcp.Server) {
	if p == nil {
		return
	}
	if !p.registry.HasCategory(toolset.CategoryPredictions) {
		log.Info().Str("toolset", p.registry.Name()).Msg("predictions category not in toolset; skipping prediction tool registration")
		return
	}

	p.registerCreatePrediction(server)
	p.registerGetPrediction(server)
	p.registerCancelPrediction(server)
	p.registerListPredictions(server)
	p.registerStreamPrediction(server)
	p.registerPredictionLogs(server)
	p.registerRunPrediction(server)

	log.Info().Str("prefix", p.registry.Prefix()).Msg("Registered prediction MCP tools")
}

func (p *PredictionsMCP) registerCreatePrediction(server *mcp.Server) {
	const base = "create_prediction"
	if !p.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := p.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"version": map[string]any{
				"type":        "string",
				"description": "Model version id, or owner/name for official models",
			},
			"input": map[string]any{
				"type":        "object",
				"description": "Model input parameters",
			},
			"webhook": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Webhook URL for status notifications",
			},
			"webhook_events_filter": map[string]any{
				"type":        []string{"array", "null"},
				"description": "Webhook events to deliver (start, output, logs, completed)",
				"items":       map[string]any{"type": "string"},
			},
		},
		"required": []string{"version", "input"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: p.registry.Description(base, "Create a new prediction run on Replicate without waiting for completion."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input CreatePredictionArgs) (*mcp.CallToolResult, predictionPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requirePredictionVersion(toolName, input.Version, input.Input); err != nil {
			return nil, predictionPayload{}, err
		}

		prediction, err := p.service.Create(ctx, domainpredictions.CreateRequest{
			Version:             input.Version,
			Input:               input.Input,
			Webhook:             input.Webhook,
			WebhookEventsFilter: input.WebhookEventsFilter,
		})
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to create Replicate prediction: %v", err)), predictionPayload{}, nil
		}

		var b strings.Builder
		b.WriteString("Prediction created successfully!\n")
		fmt.Fprintf(&b, "ID: %s\n", prediction.ID)
		fmt.Fprintf(&b, "Status: %s\n", prediction.Status)
		fmt.Fprintf(&b, "Model: %s\n", prediction.Model)
		fmt.Fprintf(&b, "Version: %s\n", prediction.Version)
		fmt.Fprintf(&b, "Created: %s\n", prediction.CreatedAt)
		if len(prediction.URLs) > 0 {
			fmt.Fprintf(&b, "URLs: %v\n", prediction.URLs)
		}
		writeOutcome(&b, prediction)

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), predictionPayload{Prediction: prediction}, nil
	})
}

func (p *PredictionsMCP) registerGetPrediction(server *mcp.Server) {
	const base = "get_prediction"
	if !p.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := p.registry.ToolName(base)

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: p.registry.Description(base, "Get the current status and details of a Replicate prediction."),
		InputSchema: predictionIDSchema(),
	}, func(ctx context.Context, req *mcp.CallToolRequest, input PredictionIDArgs) (*mcp.CallToolResult, predictionPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requirePredictionID(toolName, input.PredictionID); err != nil {
			return nil, predictionPayload{}, err
		}

		prediction, err := p.service.Get(ctx, input.PredictionID)
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to get Replicate prediction: %v", err)), predictionPayload{}, nil
		}

		text := formatPredictionDetail(prediction)
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), predictionPayload{Prediction: prediction}, nil
	})
}

func (p *PredictionsMCP) registerCancelPrediction(server *mcp.Server) {
	const base = "cancel_prediction"
	if !p.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := p.registry.ToolName(base)

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: p.registry.Description(base, "Cancel a running Replicate prediction."),
		InputSchema: predictionIDSchema(),
	}, func(ctx context.Context, req *mcp.CallToolRequest, input PredictionIDArgs) (*mcp.CallToolResult, predictionPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requirePredictionID(toolName, input.PredictionID); err != nil {
			return nil, predictionPayload{}, err
		}

		prediction, err := p.service.Cancel(ctx, input.PredictionID)
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to cancel Replicate prediction: %v", err)), predictionPayload{}, nil
		}

		cancelledAt := "Now"
		if prediction.CompletedAt != nil && *prediction.CompletedAt != "" {
			cancelledAt = *prediction.CompletedAt
		}

		var b strings.Builder
		b.WriteString("Prediction cancelled successfully!\n")
		fmt.Fprintf(&b, "ID: %s\n", prediction.ID)
		fmt.Fprintf(&b, "Status: %s\n", prediction.Status)
		fmt.Fprintf(&b, "Cancelled at: %s\n", cancelledAt)

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), predictionPayload{Prediction: prediction}, nil
	})
}

func (p *PredictionsMCP) registerListPredictions(server *mcp.Server) {
	const base = "list_predictions"
	if !p.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := p.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"limit": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "Number of predictions per page (1-100)",
				"default":     20,
			},
			"cursor": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Pagination cursor from a previous page",
			},
		},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: p.registry.Description(base, "List recent predictions for the authenticated account."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ListPredictionsArgs) (*mcp.CallToolResult, predictionListPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		page, err := p.service.List(ctx, domainpredictions.ListRequest{
			Limit:  input.Limit,
			Cursor: input.Cursor,
		})
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to list Replicate predictions: %v", err)), predictionListPayload{Predictions: []domainreplicate.Prediction{}}, nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d predictions:\n\n", len(page.Results))
		for _, prediction := range page.Results {
			fmt.Fprintf(&b, "• ID: %s\n", prediction.ID)
			fmt.Fprintf(&b, "  Status: %s\n", prediction.Status)
			fmt.Fprintf(&b, "  Model: %s\n", prediction.Model)
			fmt.Fprintf(&b, "  Created: %s\n", prediction.CreatedAt)
			completed := "Not completed"
			if prediction.CompletedAt != nil && *prediction.CompletedAt != "" {
				completed = *prediction.CompletedAt
			}
			fmt.Fprintf(&b, "  Completed: %s\n", completed)
			if prediction.Status == domainreplicate.StatusFailed {
				msg := prediction.ErrorMessage()
				if msg == "" {
					msg = "Unknown error"
				}
				fmt.Fprintf(&b, "  Error: %s\n", msg)
			}
			b.WriteString("\n")
		}

		payload := predictionListPayload{
			Count:       len(page.Results),
			Predictions: page.Results,
		}
		if page.Next != nil {
			fmt.Fprintf(&b, "Next page cursor: %s\n", *page.Next)
			payload.NextCursor = *page.Next
		}

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), payload, nil
	})
}

func (p *PredictionsMCP) registerStreamPrediction(server *mcp.Server) {
	const base = "stream_prediction"
	if !p.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := p.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prediction_id": map[string]any{
				"type":        "string",
				"description": "Prediction identifier",
			},
			"timeout": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "Seconds to follow the prediction before giving up",
				"default":     300,
			},
			"poll_interval": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "Seconds between status polls",
				"default":     5,
			},
		},
		"required": []string{"prediction_id"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: p.registry.Description(base, "Follow a prediction's status until it finishes, returning the observed transcript."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input StreamPredictionArgs) (*mcp.CallToolResult, predictionWatchPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requirePredictionID(toolName, input.PredictionID); err != nil {
			return nil, predictionWatchPayload{}, err
		}

		watch, err := p.service.Watch(ctx, domainpredictions.WatchRequest{
			PredictionID: input.PredictionID,
			Timeout:      input.Timeout,
			PollInterval: input.PollInterval,
		})
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to stream Replicate prediction: %v", err)), predictionWatchPayload{}, nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Streaming prediction %s...\n\n", input.PredictionID)
		for _, event := range watch.Events {
			timestamp := event.Timestamp
			if timestamp == "" {
				timestamp = "unknown time"
			}
			fmt.Fprintf(&b, "Status: %s at %s\n", event.Status, timestamp)
		}

		payload := predictionWatchPayload{
			PredictionID: input.PredictionID,
			Events:       watch.Events,
			Final:        watch.Final,
			TimedOut:     watch.TimedOut,
		}
		if payload.Events == nil {
			payload.Events = []domainpredictions.WatchEvent{}
		}

		switch {
		case watch.PollError != nil:
			fmt.Fprintf(&b, "\nFailed to stream Replicate prediction: %v\n", watch.PollError)
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(b.String()), payload, nil
		case watch.TimedOut:
			fmt.Fprintf(&b, "Timeout reached after %.0f seconds\n", watch.Timeout.Seconds())
		case watch.Final != nil:
			fmt.Fprintf(&b, "\nFinal Status: %s\n", watch.Final.Status)
			writeOutcome(&b, watch.Final)
			if watch.Final.Logs != "" {
				fmt.Fprintf(&b, "Logs: %s\n", watch.Final.Logs)
			}
			if len(watch.Final.Metrics) > 0 {
				fmt.Fprintf(&b, "Metrics: %s\n", indentJSON(watch.Final.Metrics))
			}
		}

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), payload, nil
	})
}

func (p *PredictionsMCP) registerPredictionLogs(server *mcp.Server) {
	const base = "get_prediction_logs"
	if !p.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := p.registry.ToolName(base)

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: p.registry.Description(base, "Fetch the execution logs of a Replicate prediction."),
		InputSchema: predictionIDSchema(),
	}, func(ctx context.Context, req *mcp.CallToolRequest, input PredictionIDArgs) (*mcp.CallToolResult, predictionLogsPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requirePredictionID(toolName, input.PredictionID); err != nil {
			return nil, predictionLogsPayload{}, err
		}

		logs, err := p.service.Logs(ctx, input.PredictionID)
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to get Replicate prediction logs: %v", err)), predictionLogsPayload{}, nil
		}

		var b strings.Builder
		if logs.Logs == "" {
			fmt.Fprintf(&b, "No logs available for prediction %s (status: %s)\n", logs.PredictionID, logs.Status)
		} else {
			fmt.Fprintf(&b, "Logs for prediction %s (status: %s):\n\n%s\n", logs.PredictionID, logs.Status, logs.Logs)
		}

		payload := predictionLogsPayload{
			PredictionID: logs.PredictionID,
			Status:       logs.Status,
			Logs:         logs.Logs,
		}

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), payload, nil
	})
}

func (p *PredictionsMCP) registerRunPrediction(server *mcp.Server) {
	const base = "run_prediction"
	if !p.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := p.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"version": map[string]any{
				"type":        "string",
				"description": "Model version id, or owner/name for official models",
			},
			"input": map[string]any{
				"type":        "object",
				"description": "Model input parameters",
			},
			"timeout": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "Seconds to wait for completion",
				"default":     300,
			},
		},
		"required": []string{"version", "input"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: p.registry.Description(base, "Create a prediction and wait until it reaches a terminal status."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input RunPredictionArgs) (*mcp.CallToolResult, predictionPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requirePredictionVersion(toolName, input.Version, input.Input); err != nil {
			return nil, predictionPayload{}, err
		}

		prediction, err := p.service.Run(ctx, domainpredictions.RunRequest{
			Version: input.Version,
			Input:   input.Input,
			Timeout: input.Timeout,
		})
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to run Replicate prediction: %v", err)), predictionPayload{}, nil
		}

		text := formatPredictionDetail(prediction)
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), predictionPayload{Prediction: prediction}, nil
	})
}

// predictionIDSchema is the shared input schema for tools addressing one
// prediction.
func predictionIDSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prediction_id": map[string]any{
				"type":        "string",
				"description": "Prediction identifier",
			},
		},
		"required": []string{"prediction_id"},
	}
}

func requirePredictionID(toolName, predictionID string) error {
	if strings.TrimSpace(predictionID) == "" {
		log.Error().Str("tool", toolName).Msg("missing required parameter 'prediction_id'")
		return fmt.Errorf("prediction_id is required")
	}
	return nil
}

func requirePredictionVersion(toolName, version string, input map[string]any) error {
	if strings.TrimSpace(version) == "" {
		log.Error().Str("tool", toolName).Msg("missing required parameter 'version'")
		return fmt.Errorf("version is required")
	}
	if len(input) == 0 {
		log.Error().Str("tool", toolName).Msg("missing required parameter 'input'")
		return fmt.Errorf("input is required")
	}
	return nil
}

func formatPredictionDetail(prediction *domainreplicate.Prediction) string {
	var b strings.Builder
	b.WriteString("Prediction Details:\n")
	fmt.Fprintf(&b, "ID: %s\n", prediction.ID)
	fmt.Fprintf(&b, "Status: %s\n", prediction.Status)
	fmt.Fprintf(&b, "Model: %s\n", prediction.Model)
	fmt.Fprintf(&b, "Version: %s\n", prediction.Version)
	fmt.Fprintf(&b, "Created: %s\n", prediction.CreatedAt)
	fmt.Fprintf(&b, "Started: %s\n", strOr(prediction.StartedAt, "Not started"))
	fmt.Fprintf(&b, "Completed: %s\n", strOr(prediction.CompletedAt, "Not completed"))
	if len(prediction.Input) > 0 {
		fmt.Fprintf(&b, "Input: %s\n", indentJSON(prediction.Input))
	}
	writeOutcome(&b, prediction)
	if prediction.Logs != "" {
		fmt.Fprintf(&b, "Logs: %s\n", prediction.Logs)
	}
	if len(prediction.Metrics) > 0 {
		fmt.Fprintf(&b, "Metrics: %s\n", indentJSON(prediction.Metrics))
	}
	return b.String()
}

// writeOutcome appends the Output or Error line for terminal predictions.
func writeOutcome(b *strings.Builder, prediction *domainreplicate.Prediction) {
	switch prediction.Status {
	case domainreplicate.StatusSucceeded:
		if prediction.Output != nil {
			fmt.Fprintf(b, "Output: %s\n", indentJSON(prediction.Output))
		}
	case domainreplicate.StatusFailed:
		msg := prediction.ErrorMessage()
		if msg == "" {
			msg = "Unknown error"
		}
		fmt.Fprintf(b, "Error: %s\n", msg)
	}
}

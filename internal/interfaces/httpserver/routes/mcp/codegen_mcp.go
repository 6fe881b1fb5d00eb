package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	domaincodegen "swiftask/services/replicate-tools/internal/domain/codegen"
	domainreplicate "swiftask/services/replicate-tools/internal/domain/replicate"
	"swiftask/services/replicate-tools/internal/infrastructure/metrics"
	"swiftask/services/replicate-tools/internal/infrastructure/toolset"
)

// GenerateCodeArgs defines the arguments for the generate_code tool
type GenerateCodeArgs struct {
	Prompt      string   `json:"prompt"`
	Language    *string  `json:"language,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	// Context passthrough (ignored by handler but allowed for validation)
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// OptimizeCodeArgs defines the arguments for the optimize_code tool
type OptimizeCodeArgs struct {
	Code              string  `json:"code"`
	Language          *string `json:"language,omitempty"`
	OptimizationFocus *string `json:"optimization_focus,omitempty"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// DebugCodeArgs defines the arguments for the debug_code tool
type DebugCodeArgs struct {
	Code         string  `json:"code"`
	ErrorMessage *string `json:"error_message,omitempty"`
	Language     *string `json:"language,omitempty"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// ExplainCodeArgs defines the arguments for the explain_code tool
type ExplainCodeArgs struct {
	Code        string  `json:"code"`
	Language    *string `json:"language,omitempty"`
	DetailLevel *string `json:"detail_level,omitempty"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// ConvertCodeArgs defines the arguments for the convert_code tool
type ConvertCodeArgs struct {
	Code             string `json:"code"`
	SourceLanguage   string `json:"source_language"`
	TargetLanguage   string `json:"target_language"`
	PreserveComments *bool  `json:"preserve_comments,omitempty"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

type codeToolPayload struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// CodeGenMCP registers the code generation tools on the MCP server.
type CodeGenMCP struct {
	service         *domaincodegen.CodeGenService
	registry        *toolset.Registry
	defaultLanguage string
}

// NewCodeGenMCP creates a new code generation MCP handler.
func NewCodeGenMCP(service *domaincodegen.CodeGenService, registry *toolset.Registry, defaultLanguage string) *CodeGenMCP {
	if defaultLanguage == "" {
		defaultLanguage = "python"
	}
	return &CodeGenMCP{
		service:         service,
		registry:        registry,
		defaultLanguage: defaultLanguage,
	}
}

// RegisterTools registers the code generation tools with the MCP server.
func (c *CodeGenMCP) RegisterTools(server *mcp.Server) {
	if c == nil {
		return
	}
	if !c.registry.HasCategory(toolset.CategoryCodeGeneration) {
		log.Info().Str("toolset", c.registry.Name()).Msg("code_generation category not in toolset; skipping code tool registration")
		return
	}

	c.registerGenerateCode(server)
	c.registerOptimizeCode(server)
	c.registerDebugCode(server)
	c.registerExplainCode(server)
	c.registerConvertCode(server)

	log.Info().Str("prefix", c.registry.Prefix()).Msg("Registered code generation MCP tools")
}

func (c *CodeGenMCP) registerGenerateCode(server *mcp.Server) {
	const base = "generate_code"
	if !c.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := c.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "Description of the code to generate",
			},
			"language": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Programming language (default: python)",
				"default":     c.defaultLanguage,
			},
			"max_tokens": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "Maximum tokens in response",
				"default":     2000,
			},
			"temperature": map[string]any{
				"type":        []string{"number", "null"},
				"description": "Temperature for generation (0.0-1.0)",
				"default":     0.7,
			},
		},
		"required": []string{"prompt"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: c.registry.Description(base, "Generate code using AI models on Replicate."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input GenerateCodeArgs) (*mcp.CallToolResult, codeToolPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if strings.TrimSpace(input.Prompt) == "" {
			log.Error().Str("tool", toolName).Msg("missing required parameter 'prompt'")
			return nil, codeToolPayload{}, fmt.Errorf("prompt is required")
		}

		language := strOr(input.Language, c.defaultLanguage)

		result, err := c.service.Generate(ctx, domaincodegen.GenerateRequest{
			Prompt:      input.Prompt,
			Language:    input.Language,
			MaxTokens:   input.MaxTokens,
			Temperature: input.Temperature,
		})
		if err != nil {
			return c.failure(toolName, startTime, err, "Code generation", "Failed to generate code"), codeToolPayload{}, nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Generated %s code:\n\n", language)
		fmt.Fprintf(&b, "```%s\n%s\n```\n\n", language, result.Text)
		fmt.Fprintf(&b, "Model used: %s\n", result.Model)
		b.WriteString("Generation completed successfully!")

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), codeToolPayload{Text: result.Text, Model: result.Model}, nil
	})
}

func (c *CodeGenMCP) registerOptimizeCode(server *mcp.Server) {
	const base = "optimize_code"
	if !c.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := c.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{
				"type":        "string",
				"description": "Code to optimize",
			},
			"language": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Programming language",
				"default":     c.defaultLanguage,
			},
			"optimization_focus": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Focus: performance, readability, memory, or security",
				"default":     "performance",
			},
		},
		"required": []string{"code"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: c.registry.Description(base, "Optimize code for performance, readability, or other aspects using AI."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input OptimizeCodeArgs) (*mcp.CallToolResult, codeToolPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requireCode(toolName, input.Code); err != nil {
			return nil, codeToolPayload{}, err
		}

		focus := strOr(input.OptimizationFocus, "performance")

		result, err := c.service.Optimize(ctx, domaincodegen.OptimizeRequest{
			Code:     input.Code,
			Language: input.Language,
			Focus:    input.OptimizationFocus,
		})
		if err != nil {
			return c.failure(toolName, startTime, err, "Code optimization", "Failed to optimize code"), codeToolPayload{}, nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Code Optimization Results (%s):\n\n", focus)
		fmt.Fprintf(&b, "%s\n\n", result.Text)
		fmt.Fprintf(&b, "Model used: %s\n", result.Model)
		b.WriteString("Optimization completed successfully!")

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), codeToolPayload{Text: result.Text, Model: result.Model}, nil
	})
}

func (c *CodeGenMCP) registerDebugCode(server *mcp.Server) {
	const base = "debug_code"
	if !c.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := c.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{
				"type":        "string",
				"description": "Code to debug",
			},
			"error_message": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Error message or description of the issue",
			},
			"language": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Programming language",
				"default":     c.defaultLanguage,
			},
		},
		"required": []string{"code"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: c.registry.Description(base, "Debug code and find solutions to errors using AI."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input DebugCodeArgs) (*mcp.CallToolResult, codeToolPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requireCode(toolName, input.Code); err != nil {
			return nil, codeToolPayload{}, err
		}

		result, err := c.service.Debug(ctx, domaincodegen.DebugRequest{
			Code:         input.Code,
			Language:     input.Language,
			ErrorMessage: input.ErrorMessage,
		})
		if err != nil {
			return c.failure(toolName, startTime, err, "Code debugging", "Failed to debug code"), codeToolPayload{}, nil
		}

		var b strings.Builder
		b.WriteString("Code Debug Analysis:\n\n")
		fmt.Fprintf(&b, "%s\n\n", result.Text)
		fmt.Fprintf(&b, "Model used: %s\n", result.Model)
		b.WriteString("Debug analysis completed successfully!")

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), codeToolPayload{Text: result.Text, Model: result.Model}, nil
	})
}

func (c *CodeGenMCP) registerExplainCode(server *mcp.Server) {
	const base = "explain_code"
	if !c.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := c.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{
				"type":        "string",
				"description": "Code to explain",
			},
			"language": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Programming language",
				"default":     c.defaultLanguage,
			},
			"detail_level": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Detail level: basic, medium, or detailed",
				"default":     "medium",
			},
		},
		"required": []string{"code"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: c.registry.Description(base, "Get detailed explanations of code functionality using AI."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ExplainCodeArgs) (*mcp.CallToolResult, codeToolPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requireCode(toolName, input.Code); err != nil {
			return nil, codeToolPayload{}, err
		}

		detailLevel := strOr(input.DetailLevel, "medium")

		result, err := c.service.Explain(ctx, domaincodegen.ExplainRequest{
			Code:        input.Code,
			Language:    input.Language,
			DetailLevel: input.DetailLevel,
		})
		if err != nil {
			return c.failure(toolName, startTime, err, "Code explanation", "Failed to explain code"), codeToolPayload{}, nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Code Explanation (%s level):\n\n", detailLevel)
		fmt.Fprintf(&b, "%s\n\n", result.Text)
		fmt.Fprintf(&b, "Model used: %s\n", result.Model)
		b.WriteString("Explanation completed successfully!")

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), codeToolPayload{Text: result.Text, Model: result.Model}, nil
	})
}

func (c *CodeGenMCP) registerConvertCode(server *mcp.Server) {
	const base = "convert_code"
	if !c.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := c.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{
				"type":        "string",
				"description": "Code to convert",
			},
			"source_language": map[string]any{
				"type":        "string",
				"description": "Source programming language",
			},
			"target_language": map[string]any{
				"type":        "string",
				"description": "Target programming language",
			},
			"preserve_comments": map[string]any{
				"type":        []string{"boolean", "null"},
				"description": "Whether to preserve comments",
				"default":     true,
			},
		},
		"required": []string{"code", "source_language", "target_language"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: c.registry.Description(base, "Convert code from one programming language to another using AI."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ConvertCodeArgs) (*mcp.CallToolResult, codeToolPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requireCode(toolName, input.Code); err != nil {
			return nil, codeToolPayload{}, err
		}
		if strings.TrimSpace(input.SourceLanguage) == "" {
			log.Error().Str("tool", toolName).Msg("missing required parameter 'source_language'")
			return nil, codeToolPayload{}, fmt.Errorf("source_language is required")
		}
		if strings.TrimSpace(input.TargetLanguage) == "" {
			log.Error().Str("tool", toolName).Msg("missing required parameter 'target_language'")
			return nil, codeToolPayload{}, fmt.Errorf("target_language is required")
		}

		result, err := c.service.Convert(ctx, domaincodegen.ConvertRequest{
			Code:             input.Code,
			SourceLanguage:   input.SourceLanguage,
			TargetLanguage:   input.TargetLanguage,
			PreserveComments: input.PreserveComments,
		})
		if err != nil {
			return c.failure(toolName, startTime, err, "Code conversion", "Failed to convert code"), codeToolPayload{}, nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Code Conversion (%s → %s):\n\n", input.SourceLanguage, input.TargetLanguage)
		fmt.Fprintf(&b, "%s\n\n", result.Text)
		fmt.Fprintf(&b, "Model used: %s\n", result.Model)
		b.WriteString("Conversion completed successfully!")

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), codeToolPayload{Text: result.Text, Model: result.Model}, nil
	})
}

func requireCode(toolName, code string) error {
	if strings.TrimSpace(code) == "" {
		log.Error().Str("tool", toolName).Msg("missing required parameter 'code'")
		return fmt.Errorf("code is required")
	}
	return nil
}

// failure maps a code generation error onto its user-facing message. Model
// failures and wait timeouts get the operation-specific phrasing; anything
// else falls back to the generic wrapper.
func (c *CodeGenMCP) failure(toolName string, startTime time.Time, err error, operation, genericPrefix string) *mcp.CallToolResult {
	metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())

	var modelErr *domaincodegen.ModelError
	if errors.As(err, &modelErr) {
		return errorResult(fmt.Sprintf("%s failed: %s", operation, modelErr.Error()))
	}

	var timeoutErr *domainreplicate.TimeoutError
	if errors.As(err, &timeoutErr) {
		return errorResult(fmt.Sprintf("%s timed out after %.0f minutes", operation, timeoutErr.Timeout.Minutes()))
	}

	return errorResult(fmt.Sprintf("%s: %v", genericPrefix, err))
}

package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	domainmodels "swiftask/services/replicate-tools/internal/domain/models"
	domainreplicate "swiftask/services/replicate-tools/internal/domain/replicate"
	"swiftask/services/replicate-tools/internal/infrastructure/metrics"
	"swiftask/services/replicate-tools/internal/infrastructure/toolset"
)

// ListModelsArgs defines the arguments for the list_models tool
type ListModelsArgs struct {
	Limit  *int    `json:"limit,omitempty"`
	Cursor *string `json:"cursor,omitempty"`
	// Context passthrough (ignored by handler but allowed for validation)
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// SearchModelsArgs defines the arguments for the search_models tool
type SearchModelsArgs struct {
	Query string `json:"query"`
	Limit *int   `json:"limit,omitempty"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// ListPopularArgs defines the arguments for the list_popular_models tool
type ListPopularArgs struct {
	Limit *int `json:"limit,omitempty"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// GetModelArgs defines the arguments for the get_model tool
type GetModelArgs struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// CreateModelArgs defines the arguments for the create_model tool
type CreateModelArgs struct {
	Owner         string  `json:"owner"`
	Name          string  `json:"name"`
	Visibility    *string `json:"visibility,omitempty"`
	Hardware      *string `json:"hardware,omitempty"`
	Description   *string `json:"description,omitempty"`
	GithubURL     *string `json:"github_url,omitempty"`
	PaperURL      *string `json:"paper_url,omitempty"`
	LicenseURL    *string `json:"license_url,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// UpdateModelArgs defines the arguments for the update_model tool
type UpdateModelArgs struct {
	Owner         string  `json:"owner"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	Visibility    *string `json:"visibility,omitempty"`
	Hardware      *string `json:"hardware,omitempty"`
	GithubURL     *string `json:"github_url,omitempty"`
	PaperURL      *string `json:"paper_url,omitempty"`
	LicenseURL    *string `json:"license_url,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// DeleteModelArgs defines the arguments for the delete_model tool
type DeleteModelArgs struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// ModelVersionsArgs defines the arguments for the get_model_versions tool
type ModelVersionsArgs struct {
	Owner  string  `json:"owner"`
	Name   string  `json:"name"`
	Cursor *string `json:"cursor,omitempty"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// VersionDetailsArgs defines the arguments for the get_version_details tool
type VersionDetailsArgs struct {
	Owner     string `json:"owner"`
	Name      string `json:"name"`
	VersionID string `json:"version_id"`
	// Context passthrough
	ToolCallID     string `json:"tool_call_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

type modelSummary struct {
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
	URL         string `json:"url,omitempty"`
	RunCount    int64  `json:"run_count,omitempty"`
}

type modelListPayload struct {
	Count      int            `json:"count"`
	Models     []modelSummary `json:"models"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type modelDetailPayload struct {
	Model *domainreplicate.Model `json:"model"`
}

type modelDeletePayload struct {
	Owner   string `json:"owner"`
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}

type versionListPayload struct {
	Owner      string                         `json:"owner"`
	Name       string                         `json:"name"`
	Count      int                            `json:"count"`
	Versions   []domainreplicate.ModelVersion `json:"versions"`
	NextCursor string                         `json:"next_cursor,omitempty"`
}

type versionDetailPayload struct {
	Version *domainreplicate.ModelVersion `json:"version"`
}

// ModelsMCP registers the model catalog tools on the MCP server.
type ModelsMCP struct {
	service  *domainmodels.ModelService
	registry *toolset.Registry
}

// NewModelsMCP creates a new model catalog MCP handler.
func NewModelsMCP(service *domainmodels.ModelService, registry *toolset.Registry) *ModelsMCP {
	return &ModelsMCP{
		service:  service,
		registry: registry,
	}
}

// RegisterTools registers the model catalog tools with the MCP server.
func (m *ModelsMCP) RegisterTools(server *mcp.Server) {
	if m == nil {
		return
	}
	if !m.registry.HasCategory(toolset.CategoryModels) {
		log.Info().Str("toolset", m.registry.Name()).Msg("models category not in toolset; skipping model tool registration")
		return
	}

	m.registerListModels(server)
	m.registerSearchModels(server)
	m.registerListPopular(server)
	m.registerGetModel(server)
	m.registerCreateModel(server)
	m.registerUpdateModel(server)
	m.registerDeleteModel(server)
	m.registerModelVersions(server)
	m.registerVersionDetails(server)

	log.Info().Str("prefix", m.registry.Prefix()).Msg("Registered model catalog MCP tools")
}

func (m *ModelsMCP) registerListModels(server *mcp.Server) {
	const base = "list_models"
	if !m.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := m.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"limit": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "Number of models per page (1-100)",
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
		Description: m.registry.Description(base, "List publicly available models on Replicate with pagination."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ListModelsArgs) (*mcp.CallToolResult, modelListPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		page, err := m.service.List(ctx, domainmodels.ListRequest{
			Limit:  input.Limit,
			Cursor: input.Cursor,
		})
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to list Replicate models: %v", err)), modelListPayload{Models: []modelSummary{}}, nil
		}

		text, payload := formatModelList(fmt.Sprintf("Found %d models:\n\n", len(page.Results)), page)
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), payload, nil
	})
}

func (m *ModelsMCP) registerSearchModels(server *mcp.Server) {
	const base = "search_models"
	if !m.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := m.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Free-text search query",
			},
			"limit": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "Number of models per page (1-100)",
				"default":     20,
			},
		},
		"required": []string{"query"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: m.registry.Description(base, "Search Replicate models by free-text query."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SearchModelsArgs) (*mcp.CallToolResult, modelListPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if strings.TrimSpace(input.Query) == "" {
			log.Error().Str("tool", toolName).Msg("missing required parameter 'query'")
			return nil, modelListPayload{}, fmt.Errorf("query is required")
		}

		page, err := m.service.Search(ctx, domainmodels.SearchRequest{
			Query: input.Query,
			Limit: input.Limit,
		})
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to search Replicate models: %v", err)), modelListPayload{Models: []modelSummary{}}, nil
		}

		header := fmt.Sprintf("Found %d models matching %q:\n\n", len(page.Results), input.Query)
		text, payload := formatModelList(header, page)
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), payload, nil
	})
}

func (m *ModelsMCP) registerListPopular(server *mcp.Server) {
	const base = "list_popular_models"
	if !m.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := m.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"limit": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "Number of models to rank (1-100)",
				"default":     20,
			},
		},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: m.registry.Description(base, "List popular Replicate models ranked by run count."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ListPopularArgs) (*mcp.CallToolResult, modelListPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		ranked, err := m.service.ListPopular(ctx, domainmodels.ListPopularRequest{Limit: input.Limit})
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to list popular Replicate models: %v", err)), modelListPayload{Models: []modelSummary{}}, nil
		}

		text, payload := formatPopularModels(ranked)
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), payload, nil
	})
}

func (m *ModelsMCP) registerGetModel(server *mcp.Server) {
	const base = "get_model"
	if !m.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := m.registry.ToolName(base)

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: m.registry.Description(base, "Get detailed information about a specific Replicate model."),
		InputSchema: ownerNameSchema(),
	}, func(ctx context.Context, req *mcp.CallToolRequest, input GetModelArgs) (*mcp.CallToolResult, modelDetailPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requireOwnerName(toolName, input.Owner, input.Name); err != nil {
			return nil, modelDetailPayload{}, err
		}

		model, err := m.service.Get(ctx, input.Owner, input.Name)
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to get Replicate model: %v", err)), modelDetailPayload{}, nil
		}

		text := formatModelDetail(model)
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), modelDetailPayload{Model: model}, nil
	})
}

func (m *ModelsMCP) registerCreateModel(server *mcp.Server) {
	const base = "create_model"
	if !m.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := m.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"owner": map[string]any{
				"type":        "string",
				"description": "Account that will own the model",
			},
			"name": map[string]any{
				"type":        "string",
				"description": "Model name",
			},
			"visibility": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Model visibility: public or private",
				"default":     "private",
			},
			"hardware": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Hardware SKU to run the model on",
				"default":     "cpu",
			},
			"description": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Model description",
			},
			"github_url": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Source repository URL",
			},
			"paper_url": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Paper URL",
			},
			"license_url": map[string]any{
				"type":        []string{"string", "null"},
				"description": "License URL",
			},
			"cover_image_url": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Cover image URL",
			},
		},
		"required": []string{"owner", "name"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: m.registry.Description(base, "Create a new model on Replicate."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input CreateModelArgs) (*mcp.CallToolResult, modelDetailPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requireOwnerName(toolName, input.Owner, input.Name); err != nil {
			return nil, modelDetailPayload{}, err
		}

		createReq := domainreplicate.CreateModelRequest{
			Owner:         input.Owner,
			Name:          input.Name,
			Visibility:    strOr(input.Visibility, "private"),
			Hardware:      strOr(input.Hardware, "cpu"),
			Description:   input.Description,
			GithubURL:     input.GithubURL,
			PaperURL:      input.PaperURL,
			LicenseURL:    input.LicenseURL,
			CoverImageURL: input.CoverImageURL,
		}

		model, err := m.service.Create(ctx, createReq)
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to create Replicate model: %v", err)), modelDetailPayload{}, nil
		}

		var b strings.Builder
		b.WriteString("Model created successfully!\n")
		fmt.Fprintf(&b, "Name: %s/%s\n", model.Owner, model.Name)
		fmt.Fprintf(&b, "URL: %s\n", model.URL)
		fmt.Fprintf(&b, "Visibility: %s\n", strOr(model.Visibility, "unknown"))

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), modelDetailPayload{Model: model}, nil
	})
}

func (m *ModelsMCP) registerUpdateModel(server *mcp.Server) {
	const base = "update_model"
	if !m.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := m.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"owner": map[string]any{
				"type":        "string",
				"description": "Model owner",
			},
			"name": map[string]any{
				"type":        "string",
				"description": "Model name",
			},
			"description": map[string]any{
				"type":        []string{"string", "null"},
				"description": "New model description",
			},
			"visibility": map[string]any{
				"type":        []string{"string", "null"},
				"description": "New visibility: public or private",
			},
			"hardware": map[string]any{
				"type":        []string{"string", "null"},
				"description": "New hardware SKU",
			},
			"github_url": map[string]any{
				"type":        []string{"string", "null"},
				"description": "New source repository URL",
			},
			"paper_url": map[string]any{
				"type":        []string{"string", "null"},
				"description": "New paper URL",
			},
			"license_url": map[string]any{
				"type":        []string{"string", "null"},
				"description": "New license URL",
			},
			"cover_image_url": map[string]any{
				"type":        []string{"string", "null"},
				"description": "New cover image URL",
			},
		},
		"required": []string{"owner", "name"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: m.registry.Description(base, "Update metadata of an existing Replicate model."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input UpdateModelArgs) (*mcp.CallToolResult, modelDetailPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requireOwnerName(toolName, input.Owner, input.Name); err != nil {
			return nil, modelDetailPayload{}, err
		}

		updateReq := domainreplicate.UpdateModelRequest{
			Description:   input.Description,
			Visibility:    input.Visibility,
			Hardware:      input.Hardware,
			GithubURL:     input.GithubURL,
			PaperURL:      input.PaperURL,
			LicenseURL:    input.LicenseURL,
			CoverImageURL: input.CoverImageURL,
		}

		model, err := m.service.Update(ctx, input.Owner, input.Name, updateReq)
		if err != nil {
			if errors.Is(err, domainmodels.ErrNoUpdates) {
				metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
				return errorResult("No updates provided. Please specify at least one field to update."), modelDetailPayload{}, nil
			}
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to update Replicate model: %v", err)), modelDetailPayload{}, nil
		}

		var b strings.Builder
		b.WriteString("Model updated successfully!\n")
		fmt.Fprintf(&b, "Name: %s/%s\n", model.Owner, model.Name)
		fmt.Fprintf(&b, "URL: %s\n", model.URL)
		fmt.Fprintf(&b, "Visibility: %s\n", strOr(model.Visibility, "unknown"))

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), modelDetailPayload{Model: model}, nil
	})
}

func (m *ModelsMCP) registerDeleteModel(server *mcp.Server) {
	const base = "delete_model"
	if !m.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := m.registry.ToolName(base)

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: m.registry.Description(base, "Delete a model from Replicate. This action cannot be undone."),
		InputSchema: ownerNameSchema(),
	}, func(ctx context.Context, req *mcp.CallToolRequest, input DeleteModelArgs) (*mcp.CallToolResult, modelDeletePayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requireOwnerName(toolName, input.Owner, input.Name); err != nil {
			return nil, modelDeletePayload{}, err
		}

		if err := m.service.Delete(ctx, input.Owner, input.Name); err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to delete Replicate model: %v", err)), modelDeletePayload{Owner: input.Owner, Name: input.Name}, nil
		}

		text := fmt.Sprintf("Model %s/%s deleted successfully!", input.Owner, input.Name)
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), modelDeletePayload{Owner: input.Owner, Name: input.Name, Deleted: true}, nil
	})
}

func (m *ModelsMCP) registerModelVersions(server *mcp.Server) {
	const base = "get_model_versions"
	if !m.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := m.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"owner": map[string]any{
				"type":        "string",
				"description": "Model owner",
			},
			"name": map[string]any{
				"type":        "string",
				"description": "Model name",
			},
			"cursor": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Pagination cursor from a previous page",
			},
		},
		"required": []string{"owner", "name"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: m.registry.Description(base, "List the published versions of a Replicate model."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ModelVersionsArgs) (*mcp.CallToolResult, versionListPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requireOwnerName(toolName, input.Owner, input.Name); err != nil {
			return nil, versionListPayload{}, err
		}

		page, err := m.service.ListVersions(ctx, domainmodels.ListVersionsRequest{
			Owner:  input.Owner,
			Name:   input.Name,
			Cursor: input.Cursor,
		})
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to list Replicate model versions: %v", err)), versionListPayload{Versions: []domainreplicate.ModelVersion{}}, nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d versions for %s/%s:\n\n", len(page.Results), input.Owner, input.Name)
		for _, version := range page.Results {
			fmt.Fprintf(&b, "• %s\n", version.ID)
			fmt.Fprintf(&b, "  Created: %s\n", version.CreatedAt)
			fmt.Fprintf(&b, "  COG Version: %s\n", version.CogVersion)
			b.WriteString("\n")
		}
		payload := versionListPayload{
			Owner:    input.Owner,
			Name:     input.Name,
			Count:    len(page.Results),
			Versions: page.Results,
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

func (m *ModelsMCP) registerVersionDetails(server *mcp.Server) {
	const base = "get_version_details"
	if !m.registry.Enabled(base) {
		log.Warn().Str("tool", base).Msg("tool disabled via toolset config")
		return
	}
	toolName := m.registry.ToolName(base)

	inputSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"owner": map[string]any{
				"type":        "string",
				"description": "Model owner",
			},
			"name": map[string]any{
				"type":        "string",
				"description": "Model name",
			},
			"version_id": map[string]any{
				"type":        "string",
				"description": "Version identifier",
			},
		},
		"required": []string{"owner", "name", "version_id"},
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: m.registry.Description(base, "Get details of a specific model version, including its schema availability."),
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VersionDetailsArgs) (*mcp.CallToolResult, versionDetailPayload, error) {
		startTime := time.Now()
		logToolCall(ctx, toolName, req)

		if err := requireOwnerName(toolName, input.Owner, input.Name); err != nil {
			return nil, versionDetailPayload{}, err
		}
		if strings.TrimSpace(input.VersionID) == "" {
			log.Error().Str("tool", toolName).Msg("missing required parameter 'version_id'")
			return nil, versionDetailPayload{}, fmt.Errorf("version_id is required")
		}

		version, err := m.service.GetVersion(ctx, input.Owner, input.Name, input.VersionID)
		if err != nil {
			metrics.RecordToolCall(toolName, replicateProvider, "error", time.Since(startTime).Seconds())
			return errorResult(fmt.Sprintf("Failed to get Replicate model version: %v", err)), versionDetailPayload{}, nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Version: %s\n", version.ID)
		fmt.Fprintf(&b, "Model: %s/%s\n", input.Owner, input.Name)
		fmt.Fprintf(&b, "Created: %s\n", version.CreatedAt)
		fmt.Fprintf(&b, "COG Version: %s\n", version.CogVersion)
		writeSchemaAvailability(&b, version.OpenAPISchema)

		text := b.String()
		recordToolSuccess(toolName, startTime, text)
		return textResult(text), versionDetailPayload{Version: version}, nil
	})
}

// ownerNameSchema is the shared input schema for tools addressing one model.
func ownerNameSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"owner": map[string]any{
				"type":        "string",
				"description": "Model owner",
			},
			"name": map[string]any{
				"type":        "string",
				"description": "Model name",
			},
		},
		"required": []string{"owner", "name"},
	}
}

func requireOwnerName(toolName, owner, name string) error {
	if strings.TrimSpace(owner) == "" {
		log.Error().Str("tool", toolName).Msg("missing required parameter 'owner'")
		return fmt.Errorf("owner is required")
	}
	if strings.TrimSpace(name) == "" {
		log.Error().Str("tool", toolName).Msg("missing required parameter 'name'")
		return fmt.Errorf("name is required")
	}
	return nil
}

func formatModelList(header string, page *domainreplicate.Page[domainreplicate.Model]) (string, modelListPayload) {
	var b strings.Builder
	b.WriteString(header)

	summaries := make([]modelSummary, 0, len(page.Results))
	for _, model := range page.Results {
		fmt.Fprintf(&b, "• %s/%s\n", model.Owner, model.Name)
		fmt.Fprintf(&b, "  Description: %s\n", strOr(model.Description, "No description"))
		fmt.Fprintf(&b, "  Visibility: %s\n", strOr(model.Visibility, "unknown"))
		url := model.URL
		if url == "" {
			url = "N/A"
		}
		fmt.Fprintf(&b, "  URL: %s\n", url)
		b.WriteString("\n")

		summaries = append(summaries, modelSummary{
			Owner:       model.Owner,
			Name:        model.Name,
			Description: strOr(model.Description, ""),
			Visibility:  strOr(model.Visibility, ""),
			URL:         model.URL,
			RunCount:    model.RunCount,
		})
	}

	payload := modelListPayload{
		Count:  len(page.Results),
		Models: summaries,
	}
	if page.Next != nil {
		fmt.Fprintf(&b, "Next page cursor: %s\n", *page.Next)
		payload.NextCursor = *page.Next
	}
	return b.String(), payload
}

// formatPopularModels renders a run-count ranking. The input is already
// sorted most-run first.
func formatPopularModels(ranked []domainreplicate.Model) (string, modelListPayload) {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d models by run count:\n\n", len(ranked))

	summaries := make([]modelSummary, 0, len(ranked))
	for i, model := range ranked {
		fmt.Fprintf(&b, "%d. %s/%s (%d runs)\n", i+1, model.Owner, model.Name, model.RunCount)
		fmt.Fprintf(&b, "   Description: %s\n\n", strOr(model.Description, "No description"))

		summaries = append(summaries, modelSummary{
			Owner:       model.Owner,
			Name:        model.Name,
			Description: strOr(model.Description, ""),
			Visibility:  strOr(model.Visibility, ""),
			URL:         model.URL,
			RunCount:    model.RunCount,
		})
	}

	return b.String(), modelListPayload{
		Count:  len(ranked),
		Models: summaries,
	}
}

func formatModelDetail(model *domainreplicate.Model) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model: %s/%s\n", model.Owner, model.Name)
	fmt.Fprintf(&b, "Description: %s\n", strOr(model.Description, "No description"))
	fmt.Fprintf(&b, "Visibility: %s\n", strOr(model.Visibility, "unknown"))
	fmt.Fprintf(&b, "GitHub URL: %s\n", strOr(model.GithubURL, "N/A"))
	fmt.Fprintf(&b, "Paper URL: %s\n", strOr(model.PaperURL, "N/A"))
	fmt.Fprintf(&b, "License URL: %s\n", strOr(model.LicenseURL, "N/A"))
	fmt.Fprintf(&b, "Cover Image: %s\n", strOr(model.CoverImageURL, "N/A"))
	if model.DefaultExample != nil {
		b.WriteString("Default Example: Available\n")
	} else {
		b.WriteString("Default Example: N/A\n")
	}

	if model.LatestVersion != nil {
		b.WriteString("\nLatest Version:\n")
		fmt.Fprintf(&b, "  ID: %s\n", model.LatestVersion.ID)
		fmt.Fprintf(&b, "  Created: %s\n", model.LatestVersion.CreatedAt)
		fmt.Fprintf(&b, "  COG Version: %s\n", model.LatestVersion.CogVersion)
		if hasSchemaComponents(model.LatestVersion.OpenAPISchema) {
			b.WriteString("  Input Schema: Available\n")
			b.WriteString("  Output Schema: Available\n")
		}
	}
	return b.String()
}

func hasSchemaComponents(schema map[string]any) bool {
	if schema == nil {
		return false
	}
	_, ok := schema["components"]
	return ok
}

func writeSchemaAvailability(b *strings.Builder, schema map[string]any) {
	if hasSchemaComponents(schema) {
		b.WriteString("Input Schema: Available\n")
		b.WriteString("Output Schema: Available\n")
	} else {
		b.WriteString("Input Schema: Not available\n")
		b.WriteString("Output Schema: Not available\n")
	}
}

// logToolCall logs an incoming tool call with its tracking context.
// Gateway correlation headers win over argument passthrough when present.
func logToolCall(ctx context.Context, toolName string, req *mcp.CallToolRequest) {
	callCtx := extractAllContext(req)
	if tracking, ok := GetToolTracking(ctx); ok {
		callCtx["conversation_id"] = tracking.ConversationID
		callCtx["tool_call_id"] = tracking.ToolCallID
	}
	log.Info().
		Str("tool", toolName).
		Str("tool_call_id", callCtx["tool_call_id"]).
		Str("request_id", callCtx["request_id"]).
		Str("conversation_id", callCtx["conversation_id"]).
		Str("user_id", callCtx["user_id"]).
		Msg("MCP tool call received")
}

// recordToolSuccess records duration and estimated token metrics for a
// completed tool call.
func recordToolSuccess(toolName string, startTime time.Time, text string) {
	metrics.RecordToolCall(toolName, replicateProvider, "success", time.Since(startTime).Seconds())
	if tokens := estimateTextTokens(text); tokens > 0 {
		metrics.RecordToolTokens(toolName, replicateProvider, tokens)
	}
}

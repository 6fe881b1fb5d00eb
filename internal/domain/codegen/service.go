package codegen

import (
	"context"
	"fmt"
	"time"

	domainreplicate "swiftask/services/replicate-tools/internal/domain/replicate"
)

// Sampling parameters per operation. Analysis-style operations run with
// a larger output budget and a lower temperature than open-ended
// generation.
const (
	analysisMaxTokens = 3000
	analysisTopP      = 0.9

	optimizeTemperature = 0.3
	debugTemperature    = 0.2
	explainTemperature  = 0.3
	convertTemperature  = 0.2

	generateRepetitionPenalty = 1.1

	defaultFocus       = "performance"
	defaultDetailLevel = "medium"
)

// Client defines the prediction operations required for code generation.
type Client interface {
	CreatePrediction(ctx context.Context, req domainreplicate.CreatePredictionRequest) (*domainreplicate.Prediction, error)
	WaitForPrediction(ctx context.Context, predictionID string, timeout, pollInterval time.Duration) (*domainreplicate.Prediction, error)
}

// ServiceConfig carries the model and sampling defaults for code generation.
type ServiceConfig struct {
	CodeModel       string
	DefaultLanguage string
	MaxTokens       int
	Temperature     float64
	TopP            float64
	WaitTimeout     time.Duration
	PollInterval    time.Duration
}

// CodeGenService orchestrates prompt-engineered code generation runs.
type CodeGenService struct {
	client Client
	cfg    ServiceConfig
}

// NewCodeGenService creates a new code generation service.
func NewCodeGenService(client Client, cfg ServiceConfig) *CodeGenService {
	// Apply defaults if not set
	if cfg.CodeModel == "" {
		cfg.CodeModel = "meta/codellama-34b-instruct"
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "python"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.TopP <= 0 {
		cfg.TopP = 0.9
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 300 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}

	return &CodeGenService{
		client: client,
		cfg:    cfg,
	}
}

// Generate produces new code from a natural-language description.
func (s *CodeGenService) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	language := s.language(req.Language)
	if err := ValidateLanguage(language); err != nil {
		return nil, err
	}

	maxTokens := s.cfg.MaxTokens
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		maxTokens = *req.MaxTokens
	}
	temperature := s.cfg.Temperature
	if req.Temperature != nil && *req.Temperature > 0 {
		temperature = *req.Temperature
	}

	return s.run(ctx, map[string]any{
		"prompt":             buildGeneratePrompt(req.Prompt, language),
		"max_tokens":         maxTokens,
		"temperature":        temperature,
		"top_p":              s.cfg.TopP,
		"repetition_penalty": generateRepetitionPenalty,
	})
}

// Optimize rewrites code for a given focus area.
func (s *CodeGenService) Optimize(ctx context.Context, req OptimizeRequest) (*Result, error) {
	language := s.language(req.Language)
	if err := ValidateLanguage(language); err != nil {
		return nil, err
	}

	focus := defaultFocus
	if req.Focus != nil && *req.Focus != "" {
		focus = *req.Focus
	}

	return s.run(ctx, map[string]any{
		"prompt":      buildOptimizePrompt(req.Code, language, focus),
		"max_tokens":  analysisMaxTokens,
		"temperature": optimizeTemperature,
		"top_p":       analysisTopP,
	})
}

// Debug analyzes code for bugs and suggests fixes.
func (s *CodeGenService) Debug(ctx context.Context, req DebugRequest) (*Result, error) {
	language := s.language(req.Language)
	if err := ValidateLanguage(language); err != nil {
		return nil, err
	}

	errorMessage := ""
	if req.ErrorMessage != nil {
		errorMessage = *req.ErrorMessage
	}

	return s.run(ctx, map[string]any{
		"prompt":      buildDebugPrompt(req.Code, language, errorMessage),
		"max_tokens":  analysisMaxTokens,
		"temperature": debugTemperature,
		"top_p":       analysisTopP,
	})
}

// Explain produces an educational walkthrough of the given code.
func (s *CodeGenService) Explain(ctx context.Context, req ExplainRequest) (*Result, error) {
	language := s.language(req.Language)
	if err := ValidateLanguage(language); err != nil {
		return nil, err
	}

	detailLevel := defaultDetailLevel
	if req.DetailLevel != nil && *req.DetailLevel != "" {
		detailLevel = *req.DetailLevel
	}

	return s.run(ctx, map[string]any{
		"prompt":      buildExplainPrompt(req.Code, language, detailLevel),
		"max_tokens":  analysisMaxTokens,
		"temperature": explainTemperature,
		"top_p":       analysisTopP,
	})
}

// Convert translates code from one language to another.
func (s *CodeGenService) Convert(ctx context.Context, req ConvertRequest) (*Result, error) {
	if err := ValidateLanguage(req.SourceLanguage); err != nil {
		return nil, err
	}
	if err := ValidateLanguage(req.TargetLanguage); err != nil {
		return nil, err
	}

	preserveComments := true
	if req.PreserveComments != nil {
		preserveComments = *req.PreserveComments
	}

	return s.run(ctx, map[string]any{
		"prompt":      buildConvertPrompt(req.Code, req.SourceLanguage, req.TargetLanguage, preserveComments),
		"max_tokens":  analysisMaxTokens,
		"temperature": convertTemperature,
		"top_p":       analysisTopP,
	})
}

func (s *CodeGenService) language(override *string) string {
	if override != nil && *override != "" {
		return *override
	}
	return s.cfg.DefaultLanguage
}

// run starts a prediction against the configured code model and waits
// for it to finish.
func (s *CodeGenService) run(ctx context.Context, input map[string]any) (*Result, error) {
	prediction, err := s.client.CreatePrediction(ctx, domainreplicate.CreatePredictionRequest{
		Version: s.cfg.CodeModel,
		Input:   input,
	})
	if err != nil {
		return nil, err
	}

	final, err := s.client.WaitForPrediction(ctx, prediction.ID, s.cfg.WaitTimeout, s.cfg.PollInterval)
	if err != nil {
		return nil, err
	}

	switch final.Status {
	case domainreplicate.StatusSucceeded:
		return &Result{
			Text:  domainreplicate.FlattenOutput(final.Output),
			Model: s.cfg.CodeModel,
		}, nil
	case domainreplicate.StatusFailed:
		return nil, &ModelError{Message: final.ErrorMessage()}
	default:
		return nil, fmt.Errorf("prediction %s was canceled", final.ID)
	}
}

// Package codegen provides prompt-engineered code generation on top of
// Replicate-hosted language models.
package codegen

import (
	"fmt"
	"strings"
)

// SupportedLanguages lists the programming languages accepted by the
// code tools.
var SupportedLanguages = []string{
	"python", "javascript", "typescript", "java", "c++", "c", "go",
	"rust", "php", "ruby", "swift", "kotlin", "scala", "r", "sql",
}

// OptimizationGoals lists the documented focus areas for code optimization.
var OptimizationGoals = []string{
	"performance", "readability", "maintainability", "security", "memory_usage",
}

// ValidateLanguage checks a language against the supported list. The
// comparison is case-insensitive.
func ValidateLanguage(language string) error {
	normalized := strings.ToLower(strings.TrimSpace(language))
	for _, supported := range SupportedLanguages {
		if normalized == supported {
			return nil
		}
	}
	return fmt.Errorf("unsupported language %q (supported: %s)", language, strings.Join(SupportedLanguages, ", "))
}

// GenerateRequest asks for new code from a natural-language description.
type GenerateRequest struct {
	Prompt      string   `json:"prompt"`
	Language    *string  `json:"language,omitempty"`    // Target language (default from config)
	MaxTokens   *int     `json:"max_tokens,omitempty"`  // Output budget (default from config)
	Temperature *float64 `json:"temperature,omitempty"` // Sampling temperature (default from config)
}

// OptimizeRequest asks for an optimized rewrite of existing code.
type OptimizeRequest struct {
	Code     string  `json:"code"`
	Language *string `json:"language,omitempty"`
	Focus    *string `json:"focus,omitempty"` // Optimization goal (default: "performance")
}

// DebugRequest asks for a bug analysis of existing code.
type DebugRequest struct {
	Code         string  `json:"code"`
	Language     *string `json:"language,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"` // Observed error, if any
}

// ExplainRequest asks for an explanation of existing code.
type ExplainRequest struct {
	Code        string  `json:"code"`
	Language    *string `json:"language,omitempty"`
	DetailLevel *string `json:"detail_level,omitempty"` // "basic", "medium", or "detailed"
}

// ConvertRequest asks for a translation of code between languages.
type ConvertRequest struct {
	Code             string  `json:"code"`
	SourceLanguage   string  `json:"source_language"`
	TargetLanguage   string  `json:"target_language"`
	PreserveComments *bool   `json:"preserve_comments,omitempty"` // Default: true
}

// Result is the outcome of a completed code generation run.
type Result struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// ModelError reports a prediction that finished in a failed state.
type ModelError struct {
	Message string
}

func (e *ModelError) Error() string {
	if e.Message == "" {
		return "Unknown error"
	}
	return e.Message
}

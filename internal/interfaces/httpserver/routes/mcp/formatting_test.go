package mcp

import (
	"errors"
	"strings"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	domaincodegen "swiftask/services/replicate-tools/internal/domain/codegen"
	domainreplicate "swiftask/services/replicate-tools/internal/domain/replicate"
)

func resultText(t *testing.T, result *sdk.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("got %d content blocks, want 1", len(result.Content))
	}
	text, ok := result.Content[0].(*sdk.TextContent)
	if !ok {
		t.Fatalf("content is %T, want *TextContent", result.Content[0])
	}
	return text.Text
}

func TestTextResult(t *testing.T) {
	result := textResult("hello")
	if result.IsError {
		t.Error("IsError = true, want false")
	}
	if resultText(t, result) != "hello" {
		t.Errorf("text = %q", resultText(t, result))
	}
}

func TestErrorResult(t *testing.T) {
	result := errorResult("boom")
	if !result.IsError {
		t.Error("IsError = false, want true")
	}
	if resultText(t, result) != "boom" {
		t.Errorf("text = %q", resultText(t, result))
	}
}

func TestEstimateTextTokens(t *testing.T) {
	if got := estimateTextTokens(""); got != 0 {
		t.Errorf("estimateTextTokens(empty) = %v, want 0", got)
	}
	if got := estimateTextTokens("12345678"); got != 2 {
		t.Errorf("estimateTextTokens(8 chars) = %v, want 2", got)
	}
}

func TestStrOr(t *testing.T) {
	value := "set"
	empty := ""
	if got := strOr(&value, "fallback"); got != "set" {
		t.Errorf("strOr(set) = %q", got)
	}
	if got := strOr(nil, "fallback"); got != "fallback" {
		t.Errorf("strOr(nil) = %q", got)
	}
	if got := strOr(&empty, "fallback"); got != "fallback" {
		t.Errorf("strOr(empty) = %q", got)
	}
}

func TestIndentJSON(t *testing.T) {
	got := indentJSON(map[string]any{"key": "value"})
	want := "{\n  \"key\": \"value\"\n}"
	if got != want {
		t.Errorf("indentJSON() = %q, want %q", got, want)
	}
}

func TestRequireOwnerName(t *testing.T) {
	if err := requireOwnerName("tool", "meta", "llama"); err != nil {
		t.Errorf("error = %v, want nil", err)
	}
	if err := requireOwnerName("tool", " ", "llama"); err == nil || err.Error() != "owner is required" {
		t.Errorf("error = %v, want owner is required", err)
	}
	if err := requireOwnerName("tool", "meta", ""); err == nil || err.Error() != "name is required" {
		t.Errorf("error = %v, want name is required", err)
	}
}

func TestRequirePredictionID(t *testing.T) {
	if err := requirePredictionID("tool", "pred-1"); err != nil {
		t.Errorf("error = %v, want nil", err)
	}
	if err := requirePredictionID("tool", ""); err == nil || err.Error() != "prediction_id is required" {
		t.Errorf("error = %v, want prediction_id is required", err)
	}
}

func TestRequirePredictionVersion(t *testing.T) {
	input := map[string]any{"prompt": "hi"}
	if err := requirePredictionVersion("tool", "v1", input); err != nil {
		t.Errorf("error = %v, want nil", err)
	}
	if err := requirePredictionVersion("tool", "", input); err == nil || err.Error() != "version is required" {
		t.Errorf("error = %v, want version is required", err)
	}
	if err := requirePredictionVersion("tool", "v1", nil); err == nil || err.Error() != "input is required" {
		t.Errorf("error = %v, want input is required", err)
	}
}

func TestRequireCode(t *testing.T) {
	if err := requireCode("tool", "x = 1"); err != nil {
		t.Errorf("error = %v, want nil", err)
	}
	if err := requireCode("tool", "  "); err == nil || err.Error() != "code is required" {
		t.Errorf("error = %v, want code is required", err)
	}
}

func TestFormatModelList(t *testing.T) {
	desc := "Image generation"
	visibility := "public"
	next := "cursor-xyz"
	page := &domainreplicate.Page[domainreplicate.Model]{
		Next: &next,
		Results: []domainreplicate.Model{
			{
				Owner:       "stability-ai",
				Name:        "sdxl",
				Description: &desc,
				Visibility:  &visibility,
				URL:         "https://replicate.com/stability-ai/sdxl",
				RunCount:    12345,
			},
			{Owner: "meta", Name: "llama"},
		},
	}

	text, payload := formatModelList("Found 2 models:\n\n", page)

	if !strings.HasPrefix(text, "Found 2 models:\n\n") {
		t.Errorf("text missing header: %q", text)
	}
	if !strings.Contains(text, "• stability-ai/sdxl\n") {
		t.Errorf("text missing bullet line: %q", text)
	}
	if !strings.Contains(text, "  Description: Image generation\n") {
		t.Errorf("text missing description: %q", text)
	}
	if !strings.Contains(text, "  Description: No description\n") {
		t.Errorf("text missing description fallback: %q", text)
	}
	if !strings.Contains(text, "  Visibility: unknown\n") {
		t.Errorf("text missing visibility fallback: %q", text)
	}
	if !strings.Contains(text, "  URL: N/A\n") {
		t.Errorf("text missing URL fallback: %q", text)
	}
	if !strings.Contains(text, "Next page cursor: cursor-xyz\n") {
		t.Errorf("text missing cursor: %q", text)
	}

	if payload.Count != 2 {
		t.Errorf("Count = %d, want 2", payload.Count)
	}
	if payload.NextCursor != "cursor-xyz" {
		t.Errorf("NextCursor = %q", payload.NextCursor)
	}
	if payload.Models[0].RunCount != 12345 {
		t.Errorf("RunCount = %d", payload.Models[0].RunCount)
	}
}

func TestFormatModelListWithoutNextPage(t *testing.T) {
	page := &domainreplicate.Page[domainreplicate.Model]{
		Results: []domainreplicate.Model{{Owner: "meta", Name: "llama"}},
	}
	text, payload := formatModelList("Found 1 models:\n\n", page)
	if strings.Contains(text, "Next page cursor") {
		t.Errorf("text has cursor line without a next page: %q", text)
	}
	if payload.NextCursor != "" {
		t.Errorf("NextCursor = %q, want empty", payload.NextCursor)
	}
}

func TestFormatPopularModels(t *testing.T) {
	desc := "Image generation"
	ranked := []domainreplicate.Model{
		{Owner: "stability-ai", Name: "sdxl", Description: &desc, RunCount: 900},
		{Owner: "meta", Name: "llama", RunCount: 10},
	}

	text, payload := formatPopularModels(ranked)

	if !strings.HasPrefix(text, "Top 2 models by run count:\n\n") {
		t.Errorf("text missing header: %q", text)
	}
	if !strings.Contains(text, "1. stability-ai/sdxl (900 runs)\n") {
		t.Errorf("text missing first ranking line: %q", text)
	}
	if !strings.Contains(text, "2. meta/llama (10 runs)\n") {
		t.Errorf("text missing second ranking line: %q", text)
	}
	if !strings.Contains(text, "   Description: No description\n") {
		t.Errorf("text missing description fallback: %q", text)
	}

	if payload.Count != 2 {
		t.Errorf("Count = %d, want 2", payload.Count)
	}
	if payload.Models[0].RunCount != 900 {
		t.Errorf("RunCount = %d, want 900", payload.Models[0].RunCount)
	}
}

func TestFormatModelDetail(t *testing.T) {
	desc := "A large language model"
	model := &domainreplicate.Model{
		Owner:       "meta",
		Name:        "llama",
		Description: &desc,
		LatestVersion: &domainreplicate.ModelVersion{
			ID:         "v123",
			CreatedAt:  "2026-01-01T00:00:00Z",
			CogVersion: "0.9.1",
			OpenAPISchema: map[string]any{
				"components": map[string]any{},
			},
		},
	}

	text := formatModelDetail(model)
	if !strings.HasPrefix(text, "Model: meta/llama\n") {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(text, "Description: A large language model\n") {
		t.Errorf("text missing description: %q", text)
	}
	if !strings.Contains(text, "\nLatest Version:\n  ID: v123\n") {
		t.Errorf("text missing latest version block: %q", text)
	}
	if !strings.Contains(text, "  Input Schema: Available\n") {
		t.Errorf("text missing schema availability: %q", text)
	}
}

func TestFormatModelDetailWithoutVersion(t *testing.T) {
	text := formatModelDetail(&domainreplicate.Model{Owner: "meta", Name: "llama"})
	if strings.Contains(text, "Latest Version") {
		t.Errorf("text has version block without a version: %q", text)
	}
	if !strings.Contains(text, "Default Example: N/A\n") {
		t.Errorf("text missing default example fallback: %q", text)
	}
}

func TestFormatPredictionDetail(t *testing.T) {
	started := "2026-01-01T00:00:05Z"
	completed := "2026-01-01T00:01:00Z"
	prediction := &domainreplicate.Prediction{
		ID:          "pred-1",
		Model:       "meta/llama",
		Version:     "v1",
		Status:      domainreplicate.StatusSucceeded,
		CreatedAt:   "2026-01-01T00:00:00Z",
		StartedAt:   &started,
		CompletedAt: &completed,
		Input:       map[string]any{"prompt": "hi"},
		Output:      "hello back",
		Logs:        "loading weights",
	}

	text := formatPredictionDetail(prediction)
	if !strings.HasPrefix(text, "Prediction Details:\nID: pred-1\n") {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(text, "Status: succeeded\n") {
		t.Errorf("text missing status: %q", text)
	}
	if !strings.Contains(text, "Started: 2026-01-01T00:00:05Z\n") {
		t.Errorf("text missing started: %q", text)
	}
	if !strings.Contains(text, "Output: \"hello back\"\n") {
		t.Errorf("text missing output: %q", text)
	}
	if !strings.Contains(text, "Logs: loading weights\n") {
		t.Errorf("text missing logs: %q", text)
	}
}

func TestFormatPredictionDetailPending(t *testing.T) {
	prediction := &domainreplicate.Prediction{
		ID:     "pred-1",
		Status: domainreplicate.StatusStarting,
	}

	text := formatPredictionDetail(prediction)
	if !strings.Contains(text, "Started: Not started\n") {
		t.Errorf("text missing started fallback: %q", text)
	}
	if !strings.Contains(text, "Completed: Not completed\n") {
		t.Errorf("text missing completed fallback: %q", text)
	}
	if strings.Contains(text, "Output:") {
		t.Errorf("pending prediction must not show output: %q", text)
	}
}

func TestFormatPredictionDetailFailed(t *testing.T) {
	prediction := &domainreplicate.Prediction{
		ID:     "pred-1",
		Status: domainreplicate.StatusFailed,
		Error:  "CUDA out of memory",
	}
	text := formatPredictionDetail(prediction)
	if !strings.Contains(text, "Error: CUDA out of memory\n") {
		t.Errorf("text missing error: %q", text)
	}

	noMessage := &domainreplicate.Prediction{ID: "pred-2", Status: domainreplicate.StatusFailed}
	text = formatPredictionDetail(noMessage)
	if !strings.Contains(text, "Error: Unknown error\n") {
		t.Errorf("text missing error fallback: %q", text)
	}
}

func TestCodeGenFailureMapping(t *testing.T) {
	handler := &CodeGenMCP{}
	startTime := time.Now()

	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{
			name:     "model failure",
			err:      &domaincodegen.ModelError{Message: "CUDA out of memory"},
			wantText: "Code generation failed: CUDA out of memory",
		},
		{
			name:     "wait timeout",
			err:      &domainreplicate.TimeoutError{PredictionID: "pred-1", Timeout: 5 * time.Minute},
			wantText: "Code generation timed out after 5 minutes",
		},
		{
			name:     "generic error",
			err:      errors.New("connection refused"),
			wantText: "Failed to generate code: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := handler.failure("replicate_generate_code", startTime, tt.err, "Code generation", "Failed to generate code")
			if !result.IsError {
				t.Error("IsError = false, want true")
			}
			if got := resultText(t, result); got != tt.wantText {
				t.Errorf("text = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestExtractJSONFromSSE(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "event and data lines",
			data: "event: message\ndata: {\"jsonrpc\":\"2.0\"}\n\n",
			want: `{"jsonrpc":"2.0"}`,
		},
		{
			name: "data line only",
			data: "data: {\"result\":{}}\n\n",
			want: `{"result":{}}`,
		},
		{name: "plain json is not sse", data: `{"jsonrpc":"2.0"}`, want: ""},
		{name: "sse without data", data: "event: message\n\n", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(extractJSONFromSSE([]byte(tt.data)))
			if got != tt.want {
				t.Errorf("extractJSONFromSSE() = %q, want %q", got, tt.want)
			}
		})
	}
}

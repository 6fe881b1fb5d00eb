package replicate_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domainreplicate "swiftask/services/replicate-tools/internal/domain/replicate"
	"swiftask/services/replicate-tools/internal/infrastructure/replicate"
)

func newTestClient(t *testing.T, handler http.Handler) *replicate.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return replicate.NewClient(replicate.ClientConfig{
		APIToken:          "test-token",
		BaseURL:           server.URL,
		RetryMaxAttempts:  1,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     5 * time.Millisecond,
		PollInterval:      time.Millisecond,
		MaxWait:           time.Second,
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestListModelsSendsTokenAuth(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, domainreplicate.Page[domainreplicate.Model]{Results: []domainreplicate.Model{}})
	}))

	if _, err := client.ListModels(context.Background(), 10, ""); err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if gotAuth != "Token test-token" {
		t.Errorf("Authorization = %q, want Token test-token", gotAuth)
	}
}

func TestListModelsClampsLimit(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit string
	}{
		{name: "above maximum", limit: 500, wantLimit: "100"},
		{name: "zero", limit: 0, wantLimit: "1"},
		{name: "negative", limit: -5, wantLimit: "1"},
		{name: "in range", limit: 42, wantLimit: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit string
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotLimit = r.URL.Query().Get("limit")
				writeJSON(t, w, domainreplicate.Page[domainreplicate.Model]{Results: []domainreplicate.Model{}})
			}))

			if _, err := client.ListModels(context.Background(), tt.limit, ""); err != nil {
				t.Fatalf("ListModels() error = %v", err)
			}
			if gotLimit != tt.wantLimit {
				t.Errorf("limit = %q, want %q", gotLimit, tt.wantLimit)
			}
		})
	}
}

func TestListModelsPassesCursor(t *testing.T) {
	var gotCursor string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCursor = r.URL.Query().Get("cursor")
		writeJSON(t, w, domainreplicate.Page[domainreplicate.Model]{Results: []domainreplicate.Model{}})
	}))

	if _, err := client.ListModels(context.Background(), 10, "next-page"); err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if gotCursor != "next-page" {
		t.Errorf("cursor = %q, want next-page", gotCursor)
	}
}

func TestSearchModelsSendsQuery(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		writeJSON(t, w, domainreplicate.Page[domainreplicate.Model]{Results: []domainreplicate.Model{
			{Owner: "stability-ai", Name: "sdxl"},
		}})
	}))

	page, err := client.SearchModels(context.Background(), "image upscaling", 10)
	if err != nil {
		t.Fatalf("SearchModels() error = %v", err)
	}
	if gotQuery != "image upscaling" {
		t.Errorf("query = %q, want image upscaling", gotQuery)
	}
	if len(page.Results) != 1 {
		t.Errorf("got %d results, want 1", len(page.Results))
	}
}

func TestGetModelRequestsOwnerNamePath(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(t, w, domainreplicate.Model{Owner: "meta", Name: "llama-2-70b"})
	}))

	model, err := client.GetModel(context.Background(), "meta", "llama-2-70b")
	if err != nil {
		t.Fatalf("GetModel() error = %v", err)
	}
	if gotPath != "/models/meta/llama-2-70b" {
		t.Errorf("path = %q, want /models/meta/llama-2-70b", gotPath)
	}
	if model.FullName() != "meta/llama-2-70b" {
		t.Errorf("FullName() = %q", model.FullName())
	}
}

func TestGetModelNotFoundReturnsAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Not found"}`, http.StatusNotFound)
	}))

	_, err := client.GetModel(context.Background(), "nobody", "missing")
	var apiErr *domainreplicate.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "Replicate API error (status 404)") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestServerErrorIsRetriedThenReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := replicate.NewClient(replicate.ClientConfig{
		APIToken:          "test-token",
		BaseURL:           server.URL,
		RetryMaxAttempts:  2,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     5 * time.Millisecond,
	})

	_, err := client.GetModel(context.Background(), "meta", "llama")
	if err == nil {
		t.Fatal("GetModel() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "operation failed after 2 attempts") {
		t.Errorf("error = %v, want retry exhaustion", err)
	}
	var apiErr *domainreplicate.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("error = %v, want wrapped *APIError", err)
	}
}

func TestUpdateModelSendsOnlySetFields(t *testing.T) {
	var gotMethod string
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(t, w, domainreplicate.Model{Owner: "meta", Name: "llama"})
	}))

	desc := "updated description"
	_, err := client.UpdateModel(context.Background(), "meta", "llama", domainreplicate.UpdateModelRequest{
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("UpdateModel() error = %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Errorf("method = %q, want PATCH", gotMethod)
	}
	if gotBody["description"] != "updated description" {
		t.Errorf("description = %v", gotBody["description"])
	}
	if _, present := gotBody["visibility"]; present {
		t.Error("unset visibility was sent in the PATCH body")
	}
}

func TestCreateModelPostsBody(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(t, w, domainreplicate.Model{Owner: "me", Name: "my-model"})
	}))

	_, err := client.CreateModel(context.Background(), domainreplicate.CreateModelRequest{
		Owner:      "me",
		Name:       "my-model",
		Visibility: "private",
		Hardware:   "gpu-t4",
	})
	if err != nil {
		t.Fatalf("CreateModel() error = %v", err)
	}
	if gotBody["name"] != "my-model" || gotBody["visibility"] != "private" || gotBody["hardware"] != "gpu-t4" {
		t.Errorf("body = %v", gotBody)
	}
	if _, present := gotBody["owner"]; present {
		t.Error("owner must not be serialized; the API derives it from the token")
	}
}

func TestDeleteModel(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := client.DeleteModel(context.Background(), "me", "my-model"); err != nil {
		t.Fatalf("DeleteModel() error = %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q, want DELETE", gotMethod)
	}
	if gotPath != "/models/me/my-model" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestListModelVersionsPath(t *testing.T) {
	var gotPath, gotCursor string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCursor = r.URL.Query().Get("cursor")
		writeJSON(t, w, domainreplicate.Page[domainreplicate.ModelVersion]{Results: []domainreplicate.ModelVersion{
			{ID: "v1"},
		}})
	}))

	page, err := client.ListModelVersions(context.Background(), "meta", "llama", "page-2")
	if err != nil {
		t.Fatalf("ListModelVersions() error = %v", err)
	}
	if gotPath != "/models/meta/llama/versions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotCursor != "page-2" {
		t.Errorf("cursor = %q, want page-2", gotCursor)
	}
	if len(page.Results) != 1 || page.Results[0].ID != "v1" {
		t.Errorf("results = %v", page.Results)
	}
}

func TestGetModelVersionPath(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(t, w, domainreplicate.ModelVersion{ID: "abc123"})
	}))

	version, err := client.GetModelVersion(context.Background(), "meta", "llama", "abc123")
	if err != nil {
		t.Fatalf("GetModelVersion() error = %v", err)
	}
	if gotPath != "/models/meta/llama/versions/abc123" {
		t.Errorf("path = %q", gotPath)
	}
	if version.ID != "abc123" {
		t.Errorf("ID = %q", version.ID)
	}
}

func TestCreatePrediction(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(t, w, domainreplicate.Prediction{ID: "pred-1", Status: domainreplicate.StatusStarting})
	}))

	prediction, err := client.CreatePrediction(context.Background(), domainreplicate.CreatePredictionRequest{
		Version: "v1",
		Input:   map[string]any{"prompt": "hello"},
	})
	if err != nil {
		t.Fatalf("CreatePrediction() error = %v", err)
	}
	if gotPath != "/predictions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["version"] != "v1" {
		t.Errorf("version = %v", gotBody["version"])
	}
	if prediction.ID != "pred-1" {
		t.Errorf("ID = %q", prediction.ID)
	}
}

func TestCreatePredictionRejectsMissingID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, domainreplicate.Prediction{Status: domainreplicate.StatusStarting})
	}))

	_, err := client.CreatePrediction(context.Background(), domainreplicate.CreatePredictionRequest{
		Version: "v1",
		Input:   map[string]any{},
	})
	if err == nil {
		t.Fatal("CreatePrediction() error = nil, want validation error for empty id")
	}
}

func TestCancelPredictionPath(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		writeJSON(t, w, domainreplicate.Prediction{ID: "pred-1", Status: domainreplicate.StatusCanceled})
	}))

	prediction, err := client.CancelPrediction(context.Background(), "pred-1")
	if err != nil {
		t.Fatalf("CancelPrediction() error = %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotPath != "/predictions/pred-1/cancel" {
		t.Errorf("path = %q", gotPath)
	}
	if prediction.Status != domainreplicate.StatusCanceled {
		t.Errorf("Status = %q", prediction.Status)
	}
}

func TestListPredictionsPassesLimitUncapped(t *testing.T) {
	var gotLimit string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		writeJSON(t, w, domainreplicate.Page[domainreplicate.Prediction]{Results: []domainreplicate.Prediction{}})
	}))

	if _, err := client.ListPredictions(context.Background(), 500, ""); err != nil {
		t.Fatalf("ListPredictions() error = %v", err)
	}
	if gotLimit != "500" {
		t.Errorf("limit = %q, want 500 passed through", gotLimit)
	}
}

func TestWaitForPredictionPollsUntilTerminal(t *testing.T) {
	statuses := []domainreplicate.Status{
		domainreplicate.StatusStarting,
		domainreplicate.StatusProcessing,
		domainreplicate.StatusSucceeded,
	}
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := statuses[len(statuses)-1]
		if calls < len(statuses) {
			status = statuses[calls]
		}
		calls++
		writeJSON(t, w, domainreplicate.Prediction{ID: "pred-1", Status: status, Output: "done"})
	}))

	final, err := client.WaitForPrediction(context.Background(), "pred-1", time.Second, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForPrediction() error = %v", err)
	}
	if final.Status != domainreplicate.StatusSucceeded {
		t.Errorf("Status = %q, want succeeded", final.Status)
	}
	if calls != 3 {
		t.Errorf("polled %d times, want 3", calls)
	}
}

func TestWaitForPredictionTimesOut(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, domainreplicate.Prediction{ID: "pred-1", Status: domainreplicate.StatusProcessing})
	}))

	_, err := client.WaitForPrediction(context.Background(), "pred-1", 20*time.Millisecond, time.Millisecond)
	var timeoutErr *domainreplicate.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error = %v, want *TimeoutError", err)
	}
	if timeoutErr.PredictionID != "pred-1" {
		t.Errorf("PredictionID = %q", timeoutErr.PredictionID)
	}
}

func TestGetAccount(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/account" {
			t.Errorf("path = %q, want /account", r.URL.Path)
		}
		writeJSON(t, w, domainreplicate.Account{Type: "organization", Username: "acme"})
	}))

	account, err := client.GetAccount(context.Background())
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if account.Username != "acme" {
		t.Errorf("Username = %q", account.Username)
	}
}

func TestValidateTokenRequiresToken(t *testing.T) {
	client := replicate.NewClient(replicate.ClientConfig{APIToken: "  "})
	if err := client.ValidateToken(context.Background()); err == nil {
		t.Error("ValidateToken() error = nil, want missing token error")
	}
}

func TestValidateTokenProbesAPI(t *testing.T) {
	var gotLimit string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		writeJSON(t, w, domainreplicate.Page[domainreplicate.Model]{Results: []domainreplicate.Model{}})
	}))

	if err := client.ValidateToken(context.Background()); err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if gotLimit != "1" {
		t.Errorf("limit = %q, want 1", gotLimit)
	}
}

func TestTestConnectionReportsRateLimits(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "99")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		writeJSON(t, w, domainreplicate.Page[domainreplicate.Model]{Results: []domainreplicate.Model{
			{Owner: "meta", Name: "llama"},
		}})
	}))

	status := client.TestConnection(context.Background())
	if !status.Success {
		t.Fatalf("Success = false, message = %q", status.Message)
	}
	if status.ModelsAvailable != 1 {
		t.Errorf("ModelsAvailable = %d, want 1", status.ModelsAvailable)
	}
	if status.RateLimitRemaining != "99" {
		t.Errorf("RateLimitRemaining = %q", status.RateLimitRemaining)
	}
}

func TestTestConnectionReportsErrorStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))

	status := client.TestConnection(context.Background())
	if status.Success {
		t.Fatal("Success = true, want false")
	}
	if !strings.Contains(status.Message, "401") {
		t.Errorf("Message = %q, want status code included", status.Message)
	}
}

func TestClientCircuitBreakerRecoversAfterOutage(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domainreplicate.Page[domainreplicate.Model]{Results: []domainreplicate.Model{}})
	}))
	t.Cleanup(server.Close)

	client := replicate.NewClient(replicate.ClientConfig{
		APIToken:           "test-token",
		BaseURL:            server.URL,
		RetryMaxAttempts:   1,
		RetryInitialDelay:  time.Millisecond,
		RetryMaxDelay:      5 * time.Millisecond,
		CBEnabled:          true,
		CBFailureThreshold: 1,
		CBSuccessThreshold: 1,
		CBTimeout:          20 * time.Millisecond,
	})

	if _, err := client.ListModels(context.Background(), 10, ""); err == nil {
		t.Fatal("ListModels() error = nil, want upstream failure")
	}

	// The breaker is open now; calls are rejected without reaching upstream.
	_, err := client.ListModels(context.Background(), 10, "")
	if err == nil {
		t.Fatal("ListModels() error = nil, want circuit breaker rejection")
	}
	if !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Fatalf("error = %v, want open circuit reported", err)
	}
	if calls != 1 {
		t.Fatalf("upstream calls = %d while open, want 1", calls)
	}

	// After the open window the next call probes half-open and the healthy
	// upstream closes the breaker again.
	time.Sleep(30 * time.Millisecond)

	if _, err := client.ListModels(context.Background(), 10, ""); err != nil {
		t.Fatalf("ListModels() error = %v after recovery window, want nil", err)
	}
	if _, err := client.ListModels(context.Background(), 10, ""); err != nil {
		t.Errorf("ListModels() error = %v with breaker closed, want nil", err)
	}
}

// Package replicate defines the wire types shared by the domain services
// that talk to the Replicate HTTP API.
package replicate

import (
	"fmt"
	"strings"
)

// Status represents the lifecycle state of a prediction.
type Status string

const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// Terminal reports whether the prediction has finished running.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// Model represents a model hosted on Replicate.
type Model struct {
	URL            string         `json:"url,omitempty"`
	Owner          string         `json:"owner"`
	Name           string         `json:"name"`
	Description    *string        `json:"description,omitempty"`
	Visibility     *string        `json:"visibility,omitempty"`
	GithubURL      *string        `json:"github_url,omitempty"`
	PaperURL       *string        `json:"paper_url,omitempty"`
	LicenseURL     *string        `json:"license_url,omitempty"`
	RunCount       int64          `json:"run_count,omitempty"`
	CoverImageURL  *string        `json:"cover_image_url,omitempty"`
	DefaultExample map[string]any `json:"default_example,omitempty"`
	LatestVersion  *ModelVersion  `json:"latest_version,omitempty"`
}

// FullName returns the owner/name identifier used in API paths.
func (m *Model) FullName() string {
	return fmt.Sprintf("%s/%s", m.Owner, m.Name)
}

// ModelVersion represents a single published version of a model.
type ModelVersion struct {
	ID            string         `json:"id"`
	CreatedAt     string         `json:"created_at,omitempty"`
	CogVersion    string         `json:"cog_version,omitempty"`
	OpenAPISchema map[string]any `json:"openapi_schema,omitempty"`
}

// Prediction represents a prediction run, in any lifecycle state.
type Prediction struct {
	ID          string            `json:"id"`
	Model       string            `json:"model,omitempty"`
	Version     string            `json:"version,omitempty"`
	Status      Status            `json:"status"`
	Input       map[string]any    `json:"input,omitempty"`
	Output      any               `json:"output,omitempty"`
	Error       any               `json:"error,omitempty"`
	Logs        string            `json:"logs,omitempty"`
	Metrics     map[string]any    `json:"metrics,omitempty"`
	URLs        map[string]string `json:"urls,omitempty"`
	CreatedAt   string            `json:"created_at,omitempty"`
	StartedAt   *string           `json:"started_at,omitempty"`
	CompletedAt *string           `json:"completed_at,omitempty"`
}

// ErrorMessage renders the prediction error field as a string, or ""
// when the upstream returned no error.
func (p *Prediction) ErrorMessage() string {
	if p == nil || p.Error == nil {
		return ""
	}
	if s, ok := p.Error.(string); ok {
		return s
	}
	return fmt.Sprint(p.Error)
}

// Account represents the authenticated Replicate account.
type Account struct {
	Type      string  `json:"type,omitempty"`
	Username  string  `json:"username,omitempty"`
	Name      string  `json:"name,omitempty"`
	GithubURL *string `json:"github_url,omitempty"`
}

// Page is a cursor-paginated API response.
type Page[T any] struct {
	Previous *string `json:"previous,omitempty"`
	Next     *string `json:"next,omitempty"`
	Results  []T     `json:"results"`
}

// CreateModelRequest is the body for creating a new model. The owner is
// carried for message formatting only; the API derives it from the token.
type CreateModelRequest struct {
	Owner         string  `json:"-"`
	Name          string  `json:"name"`
	Visibility    string  `json:"visibility"`
	Hardware      string  `json:"hardware"`
	Description   *string `json:"description,omitempty"`
	GithubURL     *string `json:"github_url,omitempty"`
	PaperURL      *string `json:"paper_url,omitempty"`
	LicenseURL    *string `json:"license_url,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
}

// UpdateModelRequest is the PATCH body for updating model metadata.
// Only non-nil fields are sent.
type UpdateModelRequest struct {
	Description   *string `json:"description,omitempty"`
	Visibility    *string `json:"visibility,omitempty"`
	Hardware      *string `json:"hardware,omitempty"`
	GithubURL     *string `json:"github_url,omitempty"`
	PaperURL      *string `json:"paper_url,omitempty"`
	LicenseURL    *string `json:"license_url,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
}

// IsEmpty reports whether the update carries no fields at all.
func (r UpdateModelRequest) IsEmpty() bool {
	return r.Description == nil &&
		r.Visibility == nil &&
		r.Hardware == nil &&
		r.GithubURL == nil &&
		r.PaperURL == nil &&
		r.LicenseURL == nil &&
		r.CoverImageURL == nil
}

// CreatePredictionRequest is the body for starting a prediction against
// a specific model version.
type CreatePredictionRequest struct {
	Version             string         `json:"version"`
	Input               map[string]any `json:"input"`
	Webhook             *string        `json:"webhook,omitempty"`
	WebhookEventsFilter []string       `json:"webhook_events_filter,omitempty"`
}

// ConnectionStatus summarizes a connectivity probe against the API.
type ConnectionStatus struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	ModelsAvailable    int    `json:"models_available,omitempty"`
	RateLimitRemaining string `json:"rate_limit_remaining,omitempty"`
	RateLimitReset     string `json:"rate_limit_reset,omitempty"`
}

// FlattenOutput joins a prediction output into a single string. Language
// models on Replicate stream output as a list of chunks that concatenate
// into the full text; scalar outputs are rendered as-is.
func FlattenOutput(output any) string {
	switch v := output.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		var b strings.Builder
		for _, chunk := range v {
			if s, ok := chunk.(string); ok {
				b.WriteString(s)
			} else {
				fmt.Fprint(&b, chunk)
			}
		}
		return b.String()
	default:
		return fmt.Sprint(v)
	}
}

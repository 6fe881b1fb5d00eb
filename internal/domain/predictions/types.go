// Package predictions provides the domain service for Replicate prediction runs.
package predictions

import (
	"time"

	domainreplicate "swiftask/services/replicate-tools/internal/domain/replicate"
)

// CreateRequest describes a prediction to start.
type CreateRequest struct {
	Version             string         `json:"version"`
	Input               map[string]any `json:"input"`
	Webhook             *string        `json:"webhook,omitempty"`
	WebhookEventsFilter []string       `json:"webhook_events_filter,omitempty"`
}

// ListRequest represents a request to list recent predictions.
type ListRequest struct {
	Limit  *int    `json:"limit,omitempty"`  // Page size (default: 20)
	Cursor *string `json:"cursor,omitempty"`
}

// RunRequest starts a prediction and waits for it to finish.
type RunRequest struct {
	Version string         `json:"version"`
	Input   map[string]any `json:"input"`
	Timeout *int           `json:"timeout,omitempty"` // Seconds to wait (default from config)
}

// WatchRequest follows a running prediction until it finishes or the
// wait window elapses.
type WatchRequest struct {
	PredictionID string `json:"prediction_id"`
	Timeout      *int   `json:"timeout,omitempty"`       // Seconds (default from config)
	PollInterval *int   `json:"poll_interval,omitempty"` // Seconds between polls (default from config)
}

// WatchEvent is one observed status sample during a watch.
type WatchEvent struct {
	Status    domainreplicate.Status `json:"status"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// WatchResult is the transcript of a watch: every observed status, plus
// how the watch ended. Exactly one of Final, PollError, or TimedOut
// describes the ending.
type WatchResult struct {
	Events    []WatchEvent                 `json:"events"`
	Final     *domainreplicate.Prediction  `json:"final,omitempty"`
	PollError error                        `json:"-"`
	TimedOut  bool                         `json:"timed_out,omitempty"`
	Timeout   time.Duration                `json:"-"`
}

// LogsResult carries the execution logs of a prediction.
type LogsResult struct {
	PredictionID string                 `json:"prediction_id"`
	Status       domainreplicate.Status `json:"status"`
	Logs         string                 `json:"logs,omitempty"`
}

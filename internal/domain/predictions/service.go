package predictions

import (
	"context"
	"time"

	domainreplicate "swiftask/services/replicate-tools/internal/domain/replicate"
)

// Client defines the prediction operations required by the domain layer.
type Client interface {
	CreatePrediction(ctx context.Context, req domainreplicate.CreatePredictionRequest) (*domainreplicate.Prediction, error)
	GetPrediction(ctx context.Context, predictionID string) (*domainreplicate.Prediction, error)
	CancelPrediction(ctx context.Context, predictionID string) (*domainreplicate.Prediction, error)
	ListPredictions(ctx context.Context, limit int, cursor string) (*domainreplicate.Page[domainreplicate.Prediction], error)
	WaitForPrediction(ctx context.Context, predictionID string, timeout, pollInterval time.Duration) (*domainreplicate.Prediction, error)
}

const defaultLimit = 20

// ServiceConfig tunes the polling behavior of watch and run operations.
type ServiceConfig struct {
	DefaultTimeout time.Duration
	PollInterval   time.Duration
}

// PredictionService orchestrates prediction lifecycle operations.
type PredictionService struct {
	client         Client
	defaultTimeout time.Duration
	pollInterval   time.Duration
}

// NewPredictionService creates a new prediction service.
func NewPredictionService(client Client, cfg ServiceConfig) *PredictionService {
	// Apply defaults if not set
	timeout := cfg.DefaultTimeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &PredictionService{
		client:         client,
		defaultTimeout: timeout,
		pollInterval:   interval,
	}
}

// Create starts a new prediction without waiting for it. Webhook fields
// are passed through to the API untouched.
func (s *PredictionService) Create(ctx context.Context, req CreateRequest) (*domainreplicate.Prediction, error) {
	return s.client.CreatePrediction(ctx, domainreplicate.CreatePredictionRequest{
		Version:             req.Version,
		Input:               req.Input,
		Webhook:             req.Webhook,
		WebhookEventsFilter: req.WebhookEventsFilter,
	})
}

// Get fetches the current state of a prediction.
func (s *PredictionService) Get(ctx context.Context, predictionID string) (*domainreplicate.Prediction, error) {
	return s.client.GetPrediction(ctx, predictionID)
}

// Cancel requests cancellation of a running prediction.
func (s *PredictionService) Cancel(ctx context.Context, predictionID string) (*domainreplicate.Prediction, error) {
	return s.client.CancelPrediction(ctx, predictionID)
}

// List returns a page of recent predictions for the account.
func (s *PredictionService) List(ctx context.Context, req ListRequest) (*domainreplicate.Page[domainreplicate.Prediction], error) {
	limit := defaultLimit
	if req.Limit != nil && *req.Limit > 0 {
		limit = *req.Limit
	}
	cursor := ""
	if req.Cursor != nil {
		cursor = *req.Cursor
	}
	return s.client.ListPredictions(ctx, limit, cursor)
}

// Logs fetches the execution logs of a prediction.
func (s *PredictionService) Logs(ctx context.Context, predictionID string) (*LogsResult, error) {
	prediction, err := s.client.GetPrediction(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	return &LogsResult{
		PredictionID: prediction.ID,
		Status:       prediction.Status,
		Logs:         prediction.Logs,
	}, nil
}

// Run starts a prediction and blocks until it reaches a terminal status
// or the wait window elapses.
func (s *PredictionService) Run(ctx context.Context, req RunRequest) (*domainreplicate.Prediction, error) {
	prediction, err := s.client.CreatePrediction(ctx, domainreplicate.CreatePredictionRequest{
		Version: req.Version,
		Input:   req.Input,
	})
	if err != nil {
		return nil, err
	}

	timeout := s.defaultTimeout
	if req.Timeout != nil && *req.Timeout > 0 {
		timeout = time.Duration(*req.Timeout) * time.Second
	}
	return s.client.WaitForPrediction(ctx, prediction.ID, timeout, s.pollInterval)
}

// Watch polls a prediction and records every observed status until it
// finishes or the wait window elapses. Poll failures end the watch but
// are reported inside the transcript rather than as a hard error, so
// callers still see the statuses observed up to that point.
func (s *PredictionService) Watch(ctx context.Context, req WatchRequest) (*WatchResult, error) {
	timeout := s.defaultTimeout
	if req.Timeout != nil && *req.Timeout > 0 {
		timeout = time.Duration(*req.Timeout) * time.Second
	}
	interval := s.pollInterval
	if req.PollInterval != nil && *req.PollInterval > 0 {
		interval = time.Duration(*req.PollInterval) * time.Second
	}

	result := &WatchResult{Timeout: timeout}
	deadline := time.Now().Add(timeout)

	for {
		if time.Now().After(deadline) {
			result.TimedOut = true
			return result, nil
		}

		prediction, err := s.client.GetPrediction(ctx, req.PredictionID)
		if err != nil {
			result.PollError = err
			return result, nil
		}

		result.Events = append(result.Events, WatchEvent{
			Status:    prediction.Status,
			Timestamp: prediction.CreatedAt,
		})

		if prediction.Status.Terminal() {
			result.Final = prediction
			return result, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

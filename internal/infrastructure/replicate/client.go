package replicate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domaincodegen "swiftask/services/replicate-tools/internal/domain/codegen"
	domainmodels "swiftask/services/replicate-tools/internal/domain/models"
	domainpredictions "swiftask/services/replicate-tools/internal/domain/predictions"
	domainreplicate "swiftask/services/replicate-tools/internal/domain/replicate"
	"swiftask/services/replicate-tools/internal/infrastructure/metrics"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://api.replicate.com/v1"

// ClientConfig captures the knobs exposed to operators for the Replicate client.
type ClientConfig struct {
	APIToken string
	BaseURL  string

	// Circuit Breaker Settings
	CBEnabled          bool
	CBFailureThreshold int
	CBSuccessThreshold int
	CBTimeout          time.Duration
	CBMaxHalfOpen      int

	// HTTP Client Settings
	HTTPTimeout     time.Duration
	MaxConnsPerHost int
	MaxIdleConns    int
	IdleConnTimeout time.Duration

	// Retry Settings
	RetryMaxAttempts   int
	RetryInitialDelay  time.Duration
	RetryMaxDelay      time.Duration
	RetryBackoffFactor float64

	// Polling defaults for WaitForPrediction
	PollInterval time.Duration
	MaxWait      time.Duration
}

// Client talks to the Replicate HTTP API. It backs the model catalog,
// prediction, and code generation domain services.
type Client struct {
	cfg         ClientConfig
	http        *resty.Client
	retryConfig RetryConfig
	cb          *CircuitBreaker
}

var (
	_ domainmodels.Client      = (*Client)(nil)
	_ domainpredictions.Client = (*Client)(nil)
	_ domaincodegen.Client     = (*Client)(nil)
)

// NewClient wires the HTTP client used for all Replicate API calls.
func NewClient(cfg ClientConfig) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	// Set default HTTP timeout if not configured
	httpTimeout := 30 * time.Second
	if cfg.HTTPTimeout > 0 {
		httpTimeout = cfg.HTTPTimeout
	}

	// Configure HTTP transport with connection pooling
	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 100 // match Go default
	}
	maxConnsPerHost := cfg.MaxConnsPerHost
	if maxConnsPerHost == 0 {
		maxConnsPerHost = 50
	}
	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second // match Go default
	}
	transport := &http.Transport{
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     maxConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		DisableKeepAlives:   false,
		ForceAttemptHTTP2:   true,
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", "SwiftaskAgent/1.0").
		SetHeader("Authorization", "Token "+cfg.APIToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(httpTimeout).
		SetRetryCount(0).
		SetTransport(transport)

	// Build retry config from ClientConfig
	retryConfig := DefaultRetryConfig()
	if cfg.RetryMaxAttempts > 0 {
		retryConfig.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryInitialDelay > 0 {
		retryConfig.InitialDelay = cfg.RetryInitialDelay
	}
	if cfg.RetryMaxDelay > 0 {
		retryConfig.MaxDelay = cfg.RetryMaxDelay
	}
	if cfg.RetryBackoffFactor > 0 {
		retryConfig.BackoffFactor = cfg.RetryBackoffFactor
	}

	// Build circuit breaker config from ClientConfig
	cbConfig := DefaultCircuitBreakerConfig()
	cbConfig.Enabled = cfg.CBEnabled
	if cfg.CBFailureThreshold > 0 {
		cbConfig.FailureThreshold = cfg.CBFailureThreshold
	}
	if cfg.CBSuccessThreshold > 0 {
		cbConfig.SuccessThreshold = cfg.CBSuccessThreshold
	}
	if cfg.CBTimeout > 0 {
		cbConfig.Timeout = cfg.CBTimeout
	}
	if cfg.CBMaxHalfOpen > 0 {
		cbConfig.MaxHalfOpenCalls = cfg.CBMaxHalfOpen
	}

	return &Client{
		cfg:         cfg,
		http:        httpClient,
		retryConfig: retryConfig,
		cb:          NewCircuitBreaker(cbConfig),
	}
}

// ListModels returns a page of models from the catalog. The page size is
// clamped to the API maximum of 100.
func (c *Client) ListModels(ctx context.Context, limit int, cursor string) (*domainreplicate.Page[domainreplicate.Model], error) {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return nil, fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("list_models", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	params := map[string]string{
		"limit": strconv.Itoa(clampLimit(limit)),
	}
	if cursor != "" {
		params["cursor"] = cursor
	}

	result, opErr := WithRetry(ctx, c.retryConfig, "list_models", func() (*domainreplicate.Page[domainreplicate.Model], error) {
		var res domainreplicate.Page[domainreplicate.Model]
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&res).
			Get("/models")

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", "/models").Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return &res, nil
	})

	if opErr == nil {
		if validationErr := ValidatePage(result); validationErr != nil {
			log.Warn().Err(validationErr).Msg("list_models returned invalid response")
			opErr = validationErr
		}
	}

	c.cb.recordResult("list_models", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "list_models").Msg("replicate request failed after retries")
		return nil, opErr
	}

	return result, nil
}

// SearchModels returns models matching a free-text query.
func (c *Client) SearchModels(ctx context.Context, query string, limit int) (*domainreplicate.Page[domainreplicate.Model], error) {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return nil, fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("search_models", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	params := map[string]string{
		"query": query,
		"limit": strconv.Itoa(clampLimit(limit)),
	}

	result, opErr := WithRetry(ctx, c.retryConfig, "search_models", func() (*domainreplicate.Page[domainreplicate.Model], error) {
		var res domainreplicate.Page[domainreplicate.Model]
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&res).
			Get("/models")

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", "/models").Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return &res, nil
	})

	if opErr == nil {
		if validationErr := ValidatePage(result); validationErr != nil {
			log.Warn().Err(validationErr).Msg("search_models returned invalid response")
			opErr = validationErr
		}
	}

	c.cb.recordResult("search_models", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "search_models").Msg("replicate request failed after retries")
		return nil, opErr
	}

	return result, nil
}

// GetModel fetches a single model by owner and name.
func (c *Client) GetModel(ctx context.Context, owner, name string) (*domainreplicate.Model, error) {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return nil, fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("get_model", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	endpoint := modelPath(owner, name)

	result, opErr := WithRetry(ctx, c.retryConfig, "get_model", func() (*domainreplicate.Model, error) {
		var res domainreplicate.Model
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&res).
			Get(endpoint)

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", endpoint).Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return &res, nil
	})

	if opErr == nil {
		if validationErr := ValidateModel(result); validationErr != nil {
			log.Warn().Err(validationErr).Msg("get_model returned invalid response")
			opErr = validationErr
		}
	}

	c.cb.recordResult("get_model", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "get_model").Msg("replicate request failed after retries")
		return nil, opErr
	}

	return result, nil
}

// CreateModel registers a new model under the authenticated account.
func (c *Client) CreateModel(ctx context.Context, req domainreplicate.CreateModelRequest) (*domainreplicate.Model, error) {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return nil, fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("create_model", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	result, opErr := WithRetry(ctx, c.retryConfig, "create_model", func() (*domainreplicate.Model, error) {
		var res domainreplicate.Model
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&res).
			Post("/models")

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", "/models").Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return &res, nil
	})

	if opErr == nil {
		if validationErr := ValidateModel(result); validationErr != nil {
			log.Warn().Err(validationErr).Msg("create_model returned invalid response")
			opErr = validationErr
		}
	}

	c.cb.recordResult("create_model", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "create_model").Msg("replicate request failed after retries")
		return nil, opErr
	}

	return result, nil
}

// UpdateModel patches model metadata. Only the fields set on the request
// are sent upstream.
func (c *Client) UpdateModel(ctx context.Context, owner, name string, req domainreplicate.UpdateModelRequest) (*domainreplicate.Model, error) {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return nil, fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("update_model", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	endpoint := modelPath(owner, name)

	result, opErr := WithRetry(ctx, c.retryConfig, "update_model", func() (*domainreplicate.Model, error) {
		var res domainreplicate.Model
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&res).
			Patch(endpoint)

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", endpoint).Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return &res, nil
	})

	if opErr == nil {
		if validationErr := ValidateModel(result); validationErr != nil {
			log.Warn().Err(validationErr).Msg("update_model returned invalid response")
			opErr = validationErr
		}
	}

	c.cb.recordResult("update_model", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "update_model").Msg("replicate request failed after retries")
		return nil, opErr
	}

	return result, nil
}

// DeleteModel removes a model permanently.
func (c *Client) DeleteModel(ctx context.Context, owner, name string) error {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("delete_model", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	endpoint := modelPath(owner, name)

	_, opErr := WithRetry(ctx, c.retryConfig, "delete_model", func() (*resty.Response, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			Delete(endpoint)

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", endpoint).Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return resp, nil
	})

	c.cb.recordResult("delete_model", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "delete_model").Msg("replicate request failed after retries")
		return opErr
	}

	return nil
}

// ListModelVersions returns the published versions of a model.
func (c *Client) ListModelVersions(ctx context.Context, owner, name, cursor string) (*domainreplicate.Page[domainreplicate.ModelVersion], error) {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return nil, fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("list_model_versions", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	endpoint := modelPath(owner, name) + "/versions"

	result, opErr := WithRetry(ctx, c.retryConfig, "list_model_versions", func() (*domainreplicate.Page[domainreplicate.ModelVersion], error) {
		var res domainreplicate.Page[domainreplicate.ModelVersion]
		request := c.http.R().
			SetContext(ctx).
			SetResult(&res)
		if cursor != "" {
			request.SetQueryParam("cursor", cursor)
		}
		resp, err := request.Get(endpoint)

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", endpoint).Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return &res, nil
	})

	if opErr == nil {
		if validationErr := ValidatePage(result); validationErr != nil {
			log.Warn().Err(validationErr).Msg("list_model_versions returned invalid response")
			opErr = validationErr
		}
	}

	c.cb.recordResult("list_model_versions", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "list_model_versions").Msg("replicate request failed after retries")
		return nil, opErr
	}

	return result, nil
}

// GetModelVersion fetches a single model version by id.
func (c *Client) GetModelVersion(ctx context.Context, owner, name, versionID string) (*domainreplicate.ModelVersion, error) {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return nil, fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("get_model_version", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	endpoint := fmt.Sprintf("%s/versions/%s", modelPath(owner, name), url.PathEscape(versionID))

	result, opErr := WithRetry(ctx, c.retryConfig, "get_model_version", func() (*domainreplicate.ModelVersion, error) {
		var res domainreplicate.ModelVersion
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&res).
			Get(endpoint)

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", endpoint).Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return &res, nil
	})

	if opErr == nil {
		if validationErr := ValidateVersion(result); validationErr != nil {
			log.Warn().Err(validationErr).Msg("get_model_version returned invalid response")
			opErr = validationErr
		}
	}

	c.cb.recordResult("get_model_version", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "get_model_version").Msg("replicate request failed after retries")
		return nil, opErr
	}

	return result, nil
}

// CreatePrediction starts a prediction against a model version.
func (c *Client) CreatePrediction(ctx context.Context, req domainreplicate.CreatePredictionRequest) (*domainreplicate.Prediction, error) {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return nil, fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("create_prediction", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	result, opErr := WithRetry(ctx, c.retryConfig, "create_prediction", func() (*domainreplicate.Prediction, error) {
		var res domainreplicate.Prediction
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&res).
			Post("/predictions")

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", "/predictions").Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return &res, nil
	})

	if opErr == nil {
		if validationErr := ValidatePrediction(result); validationErr != nil {
			log.Warn().Err(validationErr).Msg("create_prediction returned invalid response")
			opErr = validationErr
		}
	}

	c.cb.recordResult("create_prediction", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "create_prediction").Msg("replicate request failed after retries")
		return nil, opErr
	}

	return result, nil
}

// GetPrediction fetches the current state of a prediction.
func (c *Client) GetPrediction(ctx context.Context, predictionID string) (*domainreplicate.Prediction, error) {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return nil, fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("get_prediction", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	endpoint := "/predictions/" + url.PathEscape(predictionID)

	result, opErr := WithRetry(ctx, c.retryConfig, "get_prediction", func() (*domainreplicate.Prediction, error) {
		var res domainreplicate.Prediction
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&res).
			Get(endpoint)

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", endpoint).Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return &res, nil
	})

	if opErr == nil {
		if validationErr := ValidatePrediction(result); validationErr != nil {
			log.Warn().Err(validationErr).Msg("get_prediction returned invalid response")
			opErr = validationErr
		}
	}

	c.cb.recordResult("get_prediction", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "get_prediction").Msg("replicate request failed after retries")
		return nil, opErr
	}

	return result, nil
}

// CancelPrediction requests cancellation of a running prediction.
func (c *Client) CancelPrediction(ctx context.Context, predictionID string) (*domainreplicate.Prediction, error) {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return nil, fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("cancel_prediction", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	endpoint := fmt.Sprintf("/predictions/%s/cancel", url.PathEscape(predictionID))

	result, opErr := WithRetry(ctx, c.retryConfig, "cancel_prediction", func() (*domainreplicate.Prediction, error) {
		var res domainreplicate.Prediction
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&res).
			Post(endpoint)

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", endpoint).Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return &res, nil
	})

	if opErr == nil {
		if validationErr := ValidatePrediction(result); validationErr != nil {
			log.Warn().Err(validationErr).Msg("cancel_prediction returned invalid response")
			opErr = validationErr
		}
	}

	c.cb.recordResult("cancel_prediction", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "cancel_prediction").Msg("replicate request failed after retries")
		return nil, opErr
	}

	return result, nil
}

// ListPredictions returns a page of recent predictions for the account.
// Unlike the model list, the page size is passed through uncapped; the
// API applies its own ceiling.
func (c *Client) ListPredictions(ctx context.Context, limit int, cursor string) (*domainreplicate.Page[domainreplicate.Prediction], error) {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return nil, fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("list_predictions", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	params := map[string]string{
		"limit": strconv.Itoa(limit),
	}
	if cursor != "" {
		params["cursor"] = cursor
	}

	result, opErr := WithRetry(ctx, c.retryConfig, "list_predictions", func() (*domainreplicate.Page[domainreplicate.Prediction], error) {
		var res domainreplicate.Page[domainreplicate.Prediction]
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&res).
			Get("/predictions")

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", "/predictions").Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return &res, nil
	})

	if opErr == nil {
		if validationErr := ValidatePage(result); validationErr != nil {
			log.Warn().Err(validationErr).Msg("list_predictions returned invalid response")
			opErr = validationErr
		}
	}

	c.cb.recordResult("list_predictions", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "list_predictions").Msg("replicate request failed after retries")
		return nil, opErr
	}

	return result, nil
}

// WaitForPrediction polls a prediction until it reaches a terminal
// status or the wait window elapses.
func (c *Client) WaitForPrediction(ctx context.Context, predictionID string, timeout, pollInterval time.Duration) (*domainreplicate.Prediction, error) {
	if timeout <= 0 {
		timeout = c.cfg.MaxWait
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	if pollInterval <= 0 {
		pollInterval = c.cfg.PollInterval
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	deadline := time.Now().Add(timeout)

	for {
		if time.Now().After(deadline) {
			log.Warn().
				Str("prediction_id", predictionID).
				Dur("timeout", timeout).
				Msg("prediction wait window elapsed")
			return nil, &domainreplicate.TimeoutError{PredictionID: predictionID, Timeout: timeout}
		}

		prediction, err := c.GetPrediction(ctx, predictionID)
		if err != nil {
			return nil, err
		}

		if prediction.Status.Terminal() {
			return prediction, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// GetAccount fetches the account the configured token belongs to.
func (c *Client) GetAccount(ctx context.Context) (*domainreplicate.Account, error) {
	if !c.cb.Allow() {
		log.Error().Str("service", "replicate").Msg("replicate circuit breaker is open, skipping")
		return nil, fmt.Errorf("replicate circuit breaker is open")
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("get_account", "replicate", status)
		metrics.RecordExternalProviderLatency("replicate", time.Since(startTime).Seconds())
	}()

	result, opErr := WithRetry(ctx, c.retryConfig, "get_account", func() (*domainreplicate.Account, error) {
		var res domainreplicate.Account
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&res).
			Get("/account")

		if err != nil {
			log.Error().Err(err).Str("service", "replicate").Str("endpoint", "/account").Msg("failed to query Replicate API")
			return nil, fmt.Errorf("failed to query Replicate API: %w", err)
		}

		if resp.IsError() {
			log.Error().Int("status", resp.StatusCode()).Str("service", "replicate").Str("response", resp.String()).Msg("Replicate API error")
			return nil, &domainreplicate.APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}

		return &res, nil
	})

	c.cb.recordResult("get_account", opErr)

	if opErr != nil {
		status = "error"
		log.Error().Err(opErr).Str("service", "replicate").Str("operation", "get_account").Msg("replicate request failed after retries")
		return nil, opErr
	}

	return result, nil
}

// ValidateToken verifies the configured token by listing a single model.
func (c *Client) ValidateToken(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIToken) == "" {
		return fmt.Errorf("replicate API token is not configured")
	}

	_, err := c.ListModels(ctx, 1, "")
	return err
}

// TestConnection probes the API and reports reachability along with the
// rate limit headers Replicate returns. The outcome is carried in the
// returned status rather than an error, so health endpoints can relay
// it directly.
func (c *Client) TestConnection(ctx context.Context) *domainreplicate.ConnectionStatus {
	var res domainreplicate.Page[domainreplicate.Model]
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", "1").
		SetResult(&res).
		Get("/models")

	if err != nil {
		var netErr net.Error
		if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			return &domainreplicate.ConnectionStatus{
				Success: false,
				Message: "Connection timeout - Replicate API is not responding",
			}
		}
		return &domainreplicate.ConnectionStatus{
			Success: false,
			Message: "Connection error - Unable to reach Replicate API",
		}
	}

	if resp.IsError() {
		return &domainreplicate.ConnectionStatus{
			Success: false,
			Message: fmt.Sprintf("Replicate API returned status %d", resp.StatusCode()),
		}
	}

	return &domainreplicate.ConnectionStatus{
		Success:            true,
		Message:            "Successfully connected to Replicate API",
		ModelsAvailable:    len(res.Results),
		RateLimitRemaining: resp.Header().Get("X-RateLimit-Remaining"),
		RateLimitReset:     resp.Header().Get("X-RateLimit-Reset"),
	}
}

// GetCircuitBreakerMetrics exposes the circuit breaker state for health
// reporting.
func (c *Client) GetCircuitBreakerMetrics() map[string]any {
	return c.cb.GetMetrics()
}

func modelPath(owner, name string) string {
	return fmt.Sprintf("/models/%s/%s", url.PathEscape(owner), url.PathEscape(name))
}

// clampLimit bounds a page size to the API's accepted range.
func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > 100 {
		return 100
	}
	return limit
}

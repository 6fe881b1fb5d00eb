package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"swiftask/services/replicate-tools/internal/domain/codegen"
)

// Config holds all configuration for the Replicate Tools service
type Config struct {
	// HTTP Server - using REPLICATE_TOOLS_ prefix to avoid collisions
	HTTPPort  string `env:"REPLICATE_TOOLS_HTTP_PORT" envDefault:"8092"`
	LogLevel  string `env:"REPLICATE_TOOLS_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"REPLICATE_TOOLS_LOG_FORMAT" envDefault:"json"` // json or console

	// Replicate API
	ReplicateAPIToken string `env:"REPLICATE_API_TOKEN"`
	ReplicateBaseURL  string `env:"REPLICATE_BASE_URL" envDefault:"https://api.replicate.com/v1"`

	// HTTP Client Performance
	ReplicateHTTPTimeout     int `env:"REPLICATE_TIMEOUT" envDefault:"30"` // Seconds per request
	ReplicateMaxConnsPerHost int `env:"REPLICATE_MAX_CONNS_PER_HOST" envDefault:"50"`
	ReplicateMaxIdleConns    int `env:"REPLICATE_MAX_IDLE_CONNS" envDefault:"100"`
	ReplicateIdleConnTimeout int `env:"REPLICATE_IDLE_CONN_TIMEOUT" envDefault:"90"`

	// Retry Configuration
	ReplicateRetryMaxAttempts   int     `env:"REPLICATE_MAX_RETRIES" envDefault:"3"`
	ReplicateRetryInitialDelay  int     `env:"REPLICATE_RETRY_DELAY" envDefault:"1000"`      // Milliseconds
	ReplicateRetryMaxDelay      int     `env:"REPLICATE_MAX_RETRY_DELAY" envDefault:"60000"` // Milliseconds
	ReplicateRetryBackoffFactor float64 `env:"REPLICATE_BACKOFF_FACTOR" envDefault:"2.0"`

	// Circuit Breaker Configuration
	ReplicateCBEnabled          bool `env:"REPLICATE_CB_ENABLED" envDefault:"true"`
	ReplicateCBFailureThreshold int  `env:"REPLICATE_CB_FAILURE_THRESHOLD" envDefault:"15"`
	ReplicateCBSuccessThreshold int  `env:"REPLICATE_CB_SUCCESS_THRESHOLD" envDefault:"5"`
	ReplicateCBTimeout          int  `env:"REPLICATE_CB_TIMEOUT" envDefault:"45"`
	ReplicateCBMaxHalfOpen      int  `env:"REPLICATE_CB_MAX_HALF_OPEN" envDefault:"10"`

	// Prediction Polling
	PollInterval int `env:"REPLICATE_POLL_INTERVAL" envDefault:"5"` // Seconds between polls
	MaxWaitTime  int `env:"REPLICATE_MAX_WAIT" envDefault:"300"`    // Wall-clock budget in seconds

	// Code Generation Defaults
	CodeModel       string  `env:"REPLICATE_DEFAULT_MODEL" envDefault:"meta/codellama-34b-instruct"`
	DefaultLanguage string  `env:"REPLICATE_DEFAULT_LANGUAGE" envDefault:"python"`
	MaxTokens       int     `env:"REPLICATE_MAX_TOKENS" envDefault:"2000"`
	Temperature     float64 `env:"REPLICATE_TEMPERATURE" envDefault:"0.7"`
	TopP            float64 `env:"REPLICATE_TOP_P" envDefault:"0.9"`

	// Model Cache
	CacheEnabled bool `env:"REPLICATE_CACHE_ENABLED" envDefault:"true"`
	CacheTTL     int  `env:"REPLICATE_CACHE_TTL" envDefault:"3600"` // Seconds
	CacheSize    int  `env:"REPLICATE_CACHE_SIZE" envDefault:"256"`

	// Toolset Selection
	ToolPrefix    string `env:"REPLICATE_TOOL_PREFIX" envDefault:"replicate"`
	Toolset       string `env:"REPLICATE_TOOLSET" envDefault:"advanced"`
	ToolsetConfig string `env:"REPLICATE_TOOLSET_CONFIG"` // Optional YAML file with toolset overrides

	// Authentication
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer  string `env:"AUTH_ISSUER"`
	Account     string `env:"ACCOUNT"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(os.Getenv("REPLICATE_TOOLS_LOG_LEVEL")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_LEVEL")); global != "" {
			cfg.LogLevel = global
		}
	}
	if strings.TrimSpace(os.Getenv("REPLICATE_TOOLS_LOG_FORMAT")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_FORMAT")); global != "" {
			cfg.LogFormat = global
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parsed configuration for values that would break
// the client or the code generation defaults at runtime.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.ReplicateAPIToken) == "" {
		return fmt.Errorf("REPLICATE_API_TOKEN is required")
	}
	if cfg.ReplicateHTTPTimeout <= 0 {
		return fmt.Errorf("REPLICATE_TIMEOUT must be positive, got %d", cfg.ReplicateHTTPTimeout)
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("REPLICATE_POLL_INTERVAL must be positive, got %d", cfg.PollInterval)
	}
	if cfg.MaxWaitTime <= 0 {
		return fmt.Errorf("REPLICATE_MAX_WAIT must be positive, got %d", cfg.MaxWaitTime)
	}
	if cfg.Temperature <= 0 || cfg.Temperature > 2 {
		return fmt.Errorf("REPLICATE_TEMPERATURE must be in (0, 2], got %g", cfg.Temperature)
	}
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		return fmt.Errorf("REPLICATE_TOP_P must be in (0, 1], got %g", cfg.TopP)
	}
	if err := codegen.ValidateLanguage(cfg.DefaultLanguage); err != nil {
		return fmt.Errorf("REPLICATE_DEFAULT_LANGUAGE: %w", err)
	}

	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.Account) == "" {
			return fmt.Errorf("ACCOUNT is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return nil
}

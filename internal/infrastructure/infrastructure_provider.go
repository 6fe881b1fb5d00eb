package infrastructure

import (
	"context"
	"time"

	"github.com/google/wire"
	"github.com/rs/zerolog/log"

	domaincodegen "swiftask/services/replicate-tools/internal/domain/codegen"
	domainmodels "swiftask/services/replicate-tools/internal/domain/models"
	domainpredictions "swiftask/services/replicate-tools/internal/domain/predictions"
	"swiftask/services/replicate-tools/internal/infrastructure/auth"
	"swiftask/services/replicate-tools/internal/infrastructure/config"
	"swiftask/services/replicate-tools/internal/infrastructure/modelcache"
	replicateclient "swiftask/services/replicate-tools/internal/infrastructure/replicate"
	"swiftask/services/replicate-tools/internal/infrastructure/toolset"
)

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,

	// Replicate API client, bound to the domain interfaces it implements
	ProvideReplicateClient,
	wire.Bind(new(domainmodels.Client), new(*replicateclient.Client)),
	wire.Bind(new(domainpredictions.Client), new(*replicateclient.Client)),
	wire.Bind(new(domaincodegen.Client), new(*replicateclient.Client)),

	// Model metadata cache
	ProvideModelCache,

	// Toolset registry
	ProvideToolsetRegistry,

	// Domain service configs derived from env config
	ProvidePredictionServiceConfig,
	ProvideCodeGenServiceConfig,

	// Auth validator
	ProvideAuthValidator,
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideReplicateClient provides the Replicate API client
func ProvideReplicateClient(cfg *config.Config) *replicateclient.Client {
	return replicateclient.NewClient(replicateclient.ClientConfig{
		APIToken: cfg.ReplicateAPIToken,
		BaseURL:  cfg.ReplicateBaseURL,

		CBEnabled:          cfg.ReplicateCBEnabled,
		CBFailureThreshold: cfg.ReplicateCBFailureThreshold,
		CBSuccessThreshold: cfg.ReplicateCBSuccessThreshold,
		CBTimeout:          time.Duration(cfg.ReplicateCBTimeout) * time.Second,
		CBMaxHalfOpen:      cfg.ReplicateCBMaxHalfOpen,

		HTTPTimeout:     time.Duration(cfg.ReplicateHTTPTimeout) * time.Second,
		MaxConnsPerHost: cfg.ReplicateMaxConnsPerHost,
		MaxIdleConns:    cfg.ReplicateMaxIdleConns,
		IdleConnTimeout: time.Duration(cfg.ReplicateIdleConnTimeout) * time.Second,

		RetryMaxAttempts:   cfg.ReplicateRetryMaxAttempts,
		RetryInitialDelay:  time.Duration(cfg.ReplicateRetryInitialDelay) * time.Millisecond,
		RetryMaxDelay:      time.Duration(cfg.ReplicateRetryMaxDelay) * time.Millisecond,
		RetryBackoffFactor: cfg.ReplicateRetryBackoffFactor,

		PollInterval: time.Duration(cfg.PollInterval) * time.Second,
		MaxWait:      time.Duration(cfg.MaxWaitTime) * time.Second,
	})
}

// ProvideModelCache provides the model metadata cache, or nil when
// caching is disabled.
func ProvideModelCache(cfg *config.Config) domainmodels.Cache {
	if !cfg.CacheEnabled {
		log.Info().Msg("model cache disabled via config")
		return nil
	}
	return modelcache.NewCache(modelcache.Config{
		Size: cfg.CacheSize,
		TTL:  time.Duration(cfg.CacheTTL) * time.Second,
	})
}

// ProvideToolsetRegistry resolves the configured toolset, loading the
// optional YAML overlay when one is configured.
func ProvideToolsetRegistry(cfg *config.Config) (*toolset.Registry, error) {
	var file *toolset.FileConfig
	if cfg.ToolsetConfig != "" {
		loaded, err := toolset.LoadFile(cfg.ToolsetConfig)
		if err != nil {
			return nil, err
		}
		file = loaded
		log.Info().Str("path", cfg.ToolsetConfig).Msg("loaded toolset config file")
	}
	return toolset.NewRegistry(cfg.Toolset, cfg.ToolPrefix, file)
}

// ProvidePredictionServiceConfig derives the prediction polling config
func ProvidePredictionServiceConfig(cfg *config.Config) domainpredictions.ServiceConfig {
	return domainpredictions.ServiceConfig{
		DefaultTimeout: time.Duration(cfg.MaxWaitTime) * time.Second,
		PollInterval:   time.Duration(cfg.PollInterval) * time.Second,
	}
}

// ProvideCodeGenServiceConfig derives the code generation defaults
func ProvideCodeGenServiceConfig(cfg *config.Config) domaincodegen.ServiceConfig {
	return domaincodegen.ServiceConfig{
		CodeModel:       cfg.CodeModel,
		DefaultLanguage: cfg.DefaultLanguage,
		MaxTokens:       cfg.MaxTokens,
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
		WaitTimeout:     time.Duration(cfg.MaxWaitTime) * time.Second,
		PollInterval:    time.Duration(cfg.PollInterval) * time.Second,
	}
}

// ProvideAuthValidator provides the auth validator
func ProvideAuthValidator(ctx context.Context, cfg *config.Config) (*auth.Validator, error) {
	// Get global logger from zerolog
	logger := log.Logger
	return auth.NewValidator(ctx, cfg, logger)
}

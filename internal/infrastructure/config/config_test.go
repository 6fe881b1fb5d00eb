package config_test

import (
	"strings"
	"testing"

	"swiftask/services/replicate-tools/internal/infrastructure/config"
)

func validConfig() *config.Config {
	return &config.Config{
		ReplicateAPIToken:    "r8_test",
		ReplicateHTTPTimeout: 30,
		PollInterval:         5,
		MaxWaitTime:          300,
		Temperature:          0.7,
		TopP:                 0.9,
		DefaultLanguage:      "python",
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("REPLICATE_API_TOKEN", "r8_test")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.HTTPPort != "8092" {
		t.Errorf("HTTPPort = %q, want 8092", cfg.HTTPPort)
	}
	if cfg.ReplicateBaseURL != "https://api.replicate.com/v1" {
		t.Errorf("ReplicateBaseURL = %q", cfg.ReplicateBaseURL)
	}
	if cfg.CodeModel != "meta/codellama-34b-instruct" {
		t.Errorf("CodeModel = %q", cfg.CodeModel)
	}
	if cfg.DefaultLanguage != "python" {
		t.Errorf("DefaultLanguage = %q", cfg.DefaultLanguage)
	}
	if cfg.Toolset != "advanced" {
		t.Errorf("Toolset = %q, want advanced", cfg.Toolset)
	}
	if cfg.ToolPrefix != "replicate" {
		t.Errorf("ToolPrefix = %q, want replicate", cfg.ToolPrefix)
	}
	if !cfg.CacheEnabled {
		t.Error("CacheEnabled = false, want true by default")
	}
	if cfg.MaxWaitTime != 300 {
		t.Errorf("MaxWaitTime = %d, want 300", cfg.MaxWaitTime)
	}
	if cfg.AuthEnabled {
		t.Error("AuthEnabled = true, want false by default")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("REPLICATE_API_TOKEN", "r8_test")
	t.Setenv("REPLICATE_TOOLS_HTTP_PORT", "9000")
	t.Setenv("REPLICATE_TOOLSET", "basic")
	t.Setenv("REPLICATE_TOOL_PREFIX", "rep")
	t.Setenv("REPLICATE_MAX_WAIT", "120")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.HTTPPort != "9000" {
		t.Errorf("HTTPPort = %q, want 9000", cfg.HTTPPort)
	}
	if cfg.Toolset != "basic" {
		t.Errorf("Toolset = %q, want basic", cfg.Toolset)
	}
	if cfg.ToolPrefix != "rep" {
		t.Errorf("ToolPrefix = %q, want rep", cfg.ToolPrefix)
	}
	if cfg.MaxWaitTime != 120 {
		t.Errorf("MaxWaitTime = %d, want 120", cfg.MaxWaitTime)
	}
}

func TestLoadConfigRequiresToken(t *testing.T) {
	t.Setenv("REPLICATE_API_TOKEN", "")

	_, err := config.LoadConfig()
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want missing token error")
	}
	if !strings.Contains(err.Error(), "REPLICATE_API_TOKEN") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadConfigGlobalLogFallback(t *testing.T) {
	t.Setenv("REPLICATE_API_TOKEN", "r8_test")
	t.Setenv("REPLICATE_TOOLS_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want global fallback debug", cfg.LogLevel)
	}
}

func TestLoadConfigServiceLogLevelWins(t *testing.T) {
	t.Setenv("REPLICATE_API_TOKEN", "r8_test")
	t.Setenv("REPLICATE_TOOLS_LOG_LEVEL", "warn")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want service-scoped warn", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *config.Config) {}, wantErr: ""},
		{
			name:    "missing token",
			mutate:  func(c *config.Config) { c.ReplicateAPIToken = "  " },
			wantErr: "REPLICATE_API_TOKEN",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *config.Config) { c.ReplicateHTTPTimeout = 0 },
			wantErr: "REPLICATE_TIMEOUT",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *config.Config) { c.PollInterval = 0 },
			wantErr: "REPLICATE_POLL_INTERVAL",
		},
		{
			name:    "zero max wait",
			mutate:  func(c *config.Config) { c.MaxWaitTime = 0 },
			wantErr: "REPLICATE_MAX_WAIT",
		},
		{
			name:    "temperature too high",
			mutate:  func(c *config.Config) { c.Temperature = 2.5 },
			wantErr: "REPLICATE_TEMPERATURE",
		},
		{
			name:    "top_p above one",
			mutate:  func(c *config.Config) { c.TopP = 1.5 },
			wantErr: "REPLICATE_TOP_P",
		},
		{
			name:    "unsupported default language",
			mutate:  func(c *config.Config) { c.DefaultLanguage = "cobol" },
			wantErr: "REPLICATE_DEFAULT_LANGUAGE",
		},
		{
			name:    "auth enabled without issuer",
			mutate:  func(c *config.Config) { c.AuthEnabled = true },
			wantErr: "AUTH_ISSUER",
		},
		{
			name: "auth enabled without jwks url",
			mutate: func(c *config.Config) {
				c.AuthEnabled = true
				c.AuthIssuer = "https://issuer.example.com"
				c.Account = "platform"
			},
			wantErr: "AUTH_JWKS_URL",
		},
		{
			name: "auth fully configured",
			mutate: func(c *config.Config) {
				c.AuthEnabled = true
				c.AuthIssuer = "https://issuer.example.com"
				c.Account = "platform"
				c.AuthJWKSURL = "https://issuer.example.com/jwks"
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q mentioned", err, tt.wantErr)
			}
		})
	}
}

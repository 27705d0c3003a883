package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validTestConfig() *Config {
	return &Config{
		AI: AIConfig{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash",
			Timeout:     60 * time.Second,
			APIKey:      "test-key",
			MaxRetries:  3,
			Temperature: 0.7,
		},
		Document: DocumentConfig{
			MaxFileSize:  10 * 1024 * 1024,
			AllowedTypes: []string{"pdf", "docx", "txt"},
		},
		Scrape: ScrapeConfig{
			Timeout:    10 * time.Second,
			Retries:    3,
			RetryDelay: 2 * time.Second,
		},
		Content: ContentConfig{
			LetterMinWords:     200,
			LetterMaxWords:     300,
			EmailMinWords:      100,
			EmailMaxWords:      150,
			WordCountTolerance: 0.5,
			ValidationRetries:  1,
			DefaultTone:        "professional",
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: "8080",
			TLS:  TLSConfig{Mode: "disabled"},
		},
		App: AppConfig{
			LogLevel:         "info",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name: "missing API key",
			mutate: func(c *Config) {
				c.AI.APIKey = ""
			},
			errorMsg: "API key is required",
		},
		{
			name: "operation key satisfies requirement",
			mutate: func(c *Config) {
				c.AI.APIKey = ""
				c.AI.Generate.APIKey = "op-key"
			},
		},
		{
			name: "non-positive timeout",
			mutate: func(c *Config) {
				c.AI.Timeout = 0
			},
			errorMsg: "timeout must be positive",
		},
		{
			name: "missing server port",
			mutate: func(c *Config) {
				c.Server.Port = ""
			},
			errorMsg: "server port is required",
		},
		{
			name: "non-positive file size limit",
			mutate: func(c *Config) {
				c.Document.MaxFileSize = 0
			},
			errorMsg: "max file size must be positive",
		},
		{
			name: "non-positive scrape retries",
			mutate: func(c *Config) {
				c.Scrape.Retries = 0
			},
			errorMsg: "scrape retries must be positive",
		},
		{
			name: "inverted letter bounds",
			mutate: func(c *Config) {
				c.Content.LetterMinWords = 300
				c.Content.LetterMaxWords = 200
			},
			errorMsg: "invalid letter word bounds",
		},
		{
			name: "inverted email bounds",
			mutate: func(c *Config) {
				c.Content.EmailMinWords = 150
				c.Content.EmailMaxWords = 100
			},
			errorMsg: "invalid email word bounds",
		},
		{
			name: "negative tolerance",
			mutate: func(c *Config) {
				c.Content.WordCountTolerance = -0.1
			},
			errorMsg: "tolerance must not be negative",
		},
		{
			name: "unsupported default format",
			mutate: func(c *Config) {
				c.App.DefaultFormat = "xml"
			},
			errorMsg: "invalid default format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errorMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetGenerateConfigFallbacks(t *testing.T) {
	cfg := validTestConfig()

	opCfg := cfg.GetGenerateConfig()

	assert.Equal(t, "gemini", opCfg.Provider)
	assert.Equal(t, "gemini-2.0-flash", opCfg.Model)
	assert.Equal(t, "test-key", opCfg.APIKey)
	assert.Equal(t, 60*time.Second, *opCfg.Timeout)
	assert.Equal(t, 3, *opCfg.MaxRetries)
	assert.InDelta(t, 0.7, *opCfg.Temperature, 0.001)
}

func TestGetGenerateConfigOverrides(t *testing.T) {
	cfg := validTestConfig()
	timeout := 90 * time.Second
	retries := 5
	temp := float32(0.2)
	cfg.AI.Generate = OperationAIConfig{
		Model:       "gemini-2.5-pro",
		APIKey:      "op-key",
		Timeout:     &timeout,
		MaxRetries:  &retries,
		Temperature: &temp,
	}

	opCfg := cfg.GetGenerateConfig()

	assert.Equal(t, "gemini", opCfg.Provider) // falls back to global
	assert.Equal(t, "gemini-2.5-pro", opCfg.Model)
	assert.Equal(t, "op-key", opCfg.APIKey)
	assert.Equal(t, 90*time.Second, *opCfg.Timeout)
	assert.Equal(t, 5, *opCfg.MaxRetries)
	assert.InDelta(t, 0.2, *opCfg.Temperature, 0.001)
}

func TestApplyServerAPIKeyFallbacks(t *testing.T) {
	t.Setenv("COVERDRAFT_SERVER_APIKEYS", "key-a, key-b ,key-c")

	cfg := validTestConfig()
	cfg.applyFallbacks()

	assert.Equal(t, []string{"key-a", "key-b", "key-c"}, cfg.Server.APIKeys)
}

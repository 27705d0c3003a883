package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of all application settings. Values are resolved
// in precedence order: Vault secrets, then the config file, then
// COVERDRAFT_* environment variables, then built-in defaults.
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Document      DocumentConfig      `mapstructure:"document"`
	Scrape        ScrapeConfig        `mapstructure:"scrape"`
	Content       ContentConfig       `mapstructure:"content"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds the global AI settings plus per-operation overrides.
// The top-level fields act as fallbacks for any operation that does not
// set its own.
type AIConfig struct {
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	MaxRetries       int           `mapstructure:"maxRetries"`
	Temperature      float32       `mapstructure:"temperature"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig  `mapstructure:"customPrompts"`

	Generate OperationAIConfig `mapstructure:"generate"`
}

// OperationAIConfig is the per-operation view of AIConfig. Pointer
// fields distinguish "not set" from zero so fallbacks can fill them.
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	Temperature      *float32             `mapstructure:"temperature"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig         `mapstructure:"customPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // allowed while half-open
	Interval         time.Duration `mapstructure:"interval"`         // count reset interval
	Timeout          time.Duration `mapstructure:"timeout"`          // open to half-open
	MinRequests      uint32        `mapstructure:"minRequests"`      // floor before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // failure ratio, 0.0-1.0
}

// PromptConfig carries prompt overrides, either inline or as file paths.
type PromptConfig struct {
	SystemPrompts SystemPrompts `mapstructure:"systemPrompts"`
	UserPrompts   UserPrompts   `mapstructure:"userPrompts"`
}

type SystemPrompts struct {
	Generate     string `mapstructure:"generate"`
	GenerateFile string `mapstructure:"generateFile"`
}

type UserPrompts struct {
	Generate     string `mapstructure:"generate"`
	GenerateFile string `mapstructure:"generateFile"`
}

// DocumentConfig bounds resume uploads.
type DocumentConfig struct {
	MaxFileSize  int64    `mapstructure:"maxFileSize"`  // bytes
	AllowedTypes []string `mapstructure:"allowedTypes"` // file extensions
}

// ScrapeConfig controls job listing fetches.
type ScrapeConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`    // attempts before manual fallback
	RetryDelay time.Duration `mapstructure:"retryDelay"` // fixed delay between attempts
	UserAgent  string        `mapstructure:"userAgent"`
}

// ContentConfig sets the word bounds and validation policy for
// generated drafts.
type ContentConfig struct {
	LetterMinWords     int     `mapstructure:"letterMinWords"`
	LetterMaxWords     int     `mapstructure:"letterMaxWords"`
	EmailMinWords      int     `mapstructure:"emailMinWords"`
	EmailMaxWords      int     `mapstructure:"emailMaxWords"`
	WordCountTolerance float64 `mapstructure:"wordCountTolerance"` // fraction of bound width allowed past each edge
	ValidationRetries  int     `mapstructure:"validationRetries"`
	DefaultTone        string  `mapstructure:"defaultTone"`
}

// ServerConfig holds HTTP listener, auth, TLS, and rate limit settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS TLSConfig `mapstructure:"tls"`

	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
}

// LoadConfig resolves the full configuration, loads external prompt
// files, and validates the result.
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("COVERDRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/coverdraft/")
	v.AddConfigPath("$HOME/.coverdraft")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}
	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.AI.APIKey == "" && c.AI.Generate.APIKey == "" {
		return fmt.Errorf("AI API key is required (set COVERDRAFT_AI_APIKEY environment variable)")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Document.MaxFileSize <= 0 {
		return fmt.Errorf("document max file size must be positive")
	}
	if c.Scrape.Retries <= 0 {
		return fmt.Errorf("scrape retries must be positive")
	}
	if err := c.Content.validate(); err != nil {
		return err
	}

	supported := false
	for _, format := range c.App.SupportedFormats {
		if format == c.App.DefaultFormat {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}
	return nil
}

func (c *ContentConfig) validate() error {
	if c.LetterMinWords <= 0 || c.LetterMaxWords < c.LetterMinWords {
		return fmt.Errorf("invalid letter word bounds: %d-%d", c.LetterMinWords, c.LetterMaxWords)
	}
	if c.EmailMinWords <= 0 || c.EmailMaxWords < c.EmailMinWords {
		return fmt.Errorf("invalid email word bounds: %d-%d", c.EmailMinWords, c.EmailMaxWords)
	}
	if c.WordCountTolerance < 0 {
		return fmt.Errorf("word count tolerance must not be negative")
	}
	if c.ValidationRetries < 0 {
		return fmt.Errorf("validation retries must not be negative")
	}
	return nil
}

package server

import (
	"time"

	"coverdraft/internal/config"
	coverdraftErrors "coverdraft/internal/errors"
	"coverdraft/internal/jobpost"
	"coverdraft/internal/types"
)

// GenerateRequest is the JSON body for /generate. The candidate and job
// usually come from earlier /parse and /scrape calls.
type GenerateRequest struct {
	Candidate   types.CandidateProfile `json:"candidate"`
	Job         types.JobPosting       `json:"job"`
	Tone        string                 `json:"tone,omitempty"`
	CustomStyle string                 `json:"customStyle,omitempty"`
}

// ScrapeRequest is the JSON body for /scrape. Either a listing URL or
// manually entered fields must be given.
type ScrapeRequest struct {
	URL    string                `json:"url,omitempty"`
	Manual *jobpost.ManualFields `json:"manual,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server carries the resolved runtime state of the HTTP server.
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config

	TLSConfig          config.TLSConfig
	CertificateManager *CertificateManager

	// API keys as a set for O(1) lookup
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Logger *coverdraftErrors.Logger
}

// ServerConfig bundles the constructor arguments for NewServer.
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer builds a Server. The rate limiter is only constructed when
// rate limiting is enabled; a nil limiter disables the middleware.
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *coverdraftErrors.Logger) *Server {
	apiKeySet := make(map[string]bool, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeySet[key] = true
		}
	}

	var limiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		limiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeySet,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    limiter,
		Logger:         logger,
	}
}

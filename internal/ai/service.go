package ai

import (
	"context"
	"fmt"

	"coverdraft/internal/config"
	"coverdraft/internal/errors"
	"coverdraft/internal/types"
)

// Service handles AI draft generation including response validation
type Service struct {
	Provider AIProvider // Exported for access from server package
	config   *config.OperationAIConfig
	content  config.ContentConfig
	logger   *errors.Logger
}

// NewService creates a new AI service instance for draft generation
func NewService(cfg *config.OperationAIConfig, content config.ContentConfig, logger *errors.Logger) (*Service, error) {
	var provider AIProvider
	var err error

	// Debug logging for service initialization
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts,
		"validation_retries", content.ValidationRetries)

	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, "generate", logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	return &Service{
		Provider: provider,
		config:   cfg,
		content:  content,
		logger:   logger,
	}, nil
}

// GenerateDraft produces a validated cover letter and outreach email.
// A draft that fails validation is regenerated up to the configured number
// of validation retries before the failure is surfaced to the caller.
func (s *Service) GenerateDraft(ctx context.Context, req types.GenerationRequest) (types.GeneratedDraft, *TokenUsage, error) {
	var lastErr error
	var totalUsage TokenUsage

	attempts := s.content.ValidationRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		draft, usage, err := s.Provider.GenerateDraft(ctx, req)
		if err != nil {
			return types.GeneratedDraft{}, nil, err
		}
		if usage != nil {
			totalUsage.InputTokens += usage.InputTokens
			totalUsage.OutputTokens += usage.OutputTokens
			totalUsage.TotalTokens += usage.TotalTokens
		}

		// Word counts are recomputed locally - the model's own count is advisory
		draft.Letter.WordCount = countWords(draft.Letter.Text())
		draft.Email.WordCount = countWords(draft.Email.Body())

		if draft.Email.ToEmail == "" {
			draft.Email.ToEmail = req.Job.ContactEmail
		}

		if err := validateDraft(draft, req, s.content.WordCountTolerance); err != nil {
			lastErr = err
			s.logger.Warn("Generated draft failed validation",
				"attempt", attempt,
				"max_attempts", attempts,
				"letter_words", draft.Letter.WordCount,
				"email_words", draft.Email.WordCount,
				"error", err.Error())
			continue
		}

		return draft, &totalUsage, nil
	}

	return types.GeneratedDraft{}, &totalUsage, errors.NewValidationError(errors.ErrCodeGenerationInvalid,
		fmt.Sprintf("Generated content failed validation after %d attempts", attempts), lastErr)
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) any {
	return s.Provider.GetModelInfo(ctx)
}

package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"coverdraft/internal/config"
	appErrors "coverdraft/internal/errors"
	"coverdraft/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const (
	maxRetryBackoff   = 30 * time.Second
	modelCheckTimeout = 10 * time.Second
)

// GeminiProvider generates drafts through the Google Gemini API.
type GeminiProvider struct {
	client         *genai.Client
	httpClient     *http.Client
	config         *config.OperationAIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *appErrors.Logger
}

var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider builds a provider for one operation type. Each
// operation gets its own circuit breakers so a failing model check
// cannot trip generation.
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *appErrors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		httpClient:     &http.Client{Timeout: *cfg.Timeout},
		config:         cfg,
		circuitBreaker: NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:   NewModelCircuitBreaker(operationType, cfg, logger),
		logger:         logger,
	}, nil
}

// ModelInfo describes the configured model's availability.
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo probes the configured model for health checks.
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", info.DisplayName,
		"version", info.Version)
	return info
}

// GenerateDraft asks the model for a structured cover letter and
// outreach email in a single request.
func (g *GeminiProvider) GenerateDraft(ctx context.Context, req types.GenerationRequest) (types.GeneratedDraft, *TokenUsage, error) {
	tracer := otel.Tracer("coverdraft.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.generate_draft")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
		attribute.String("input.company", req.Job.Company),
		attribute.String("input.tone", string(req.Tone)),
		attribute.Int("input.skill_count", len(req.Candidate.Skills)),
	)

	genConfig := g.draftResponseConfig()
	systemPrompt, userPrompt := g.draftPrompts(req)
	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.generateWithRetry(ctx, "generate_draft", func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.GeneratedDraft{}, nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to generate content for generate_draft", err)
	}

	var draft types.GeneratedDraft
	if err := json.Unmarshal([]byte(result.Text()), &draft); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.GeneratedDraft{}, nil, appErrors.NewAIError("AI_RESPONSE_PARSE_FAILED",
			"Failed to parse AI response for generate_draft", err)
	}

	usage := extractTokenUsage(result)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.letter_words", draft.Letter.WordCount),
		attribute.Int("output.email_words", draft.Email.WordCount),
	)
	return draft, usage, nil
}

// generateWithRetry retries transient failures with exponential backoff
// and jitter. Non-retryable errors (auth, bad input) fail immediately.
func (g *GeminiProvider) generateWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	maxRetries := *g.config.MaxRetries
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())
			select {
			case <-time.After(retryBackoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", maxRetries+1)
	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, maxRetries, lastErr)
}

// retryBackoff doubles per attempt with up to 10% random jitter, capped
// at maxRetryBackoff.
func retryBackoff(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitterMax := big.NewInt(int64(float64(base) * 0.1))
	jitterBig, _ := rand.Int(rand.Reader, jitterMax)
	return min(base+time.Duration(jitterBig.Int64()), maxRetryBackoff)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Timeouts and connection failures are worth another attempt.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

// GetCircuitBreakerStats reports both breakers; overall health requires
// both to be closed.
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsModelHealthy(),
	}
}

// Close implements AIProvider. The genai client holds no resources that
// need releasing in single-shot usage.
func (g *GeminiProvider) Close() error {
	return nil
}

// draftResponseConfig constrains the model to the draft JSON shape so
// responses unmarshal directly into types.GeneratedDraft.
func (g *GeminiProvider) draftResponseConfig() *genai.GenerateContentConfig {
	letterSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"salutation":       {Type: genai.TypeString},
			"openingParagraph": {Type: genai.TypeString},
			"bodyParagraphOne": {Type: genai.TypeString},
			"bodyParagraphTwo": {Type: genai.TypeString},
			"closingParagraph": {Type: genai.TypeString},
			"signature":        {Type: genai.TypeString},
			"wordCount":        {Type: genai.TypeInteger},
			"personalizationElements": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"salutation", "openingParagraph", "bodyParagraphOne", "bodyParagraphTwo", "closingParagraph", "signature", "wordCount"},
	}
	emailSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"subjectLine":      {Type: genai.TypeString},
			"greeting":         {Type: genai.TypeString},
			"openingParagraph": {Type: genai.TypeString},
			"bodyParagraph":    {Type: genai.TypeString},
			"closingParagraph": {Type: genai.TypeString},
			"signature":        {Type: genai.TypeString},
			"wordCount":        {Type: genai.TypeInteger},
		},
		Required: []string{"subjectLine", "greeting", "openingParagraph", "bodyParagraph", "closingParagraph", "signature", "wordCount"},
	}

	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"coverLetter":   letterSchema,
				"outreachEmail": emailSchema,
			},
			Required: []string{"coverLetter", "outreachEmail"},
		},
	}
	if *g.config.Temperature > 0 {
		genConfig.Temperature = g.config.Temperature
	}
	return genConfig
}

// draftPrompts resolves the system and user prompts for generation and
// fills the user template with request content.
func (g *GeminiProvider) draftPrompts(req types.GenerationRequest) (string, string) {
	loaded := config.GetPromptsForOperation("generate")
	custom := g.config.CustomPrompts

	systemPrompt := resolvePrompt(loaded.SystemPrompts.Generate, custom.SystemPrompts.Generate, DefaultSystemPrompts.Generate)
	userTemplate := resolvePrompt(loaded.UserPrompts.Generate, custom.UserPrompts.Generate, DefaultUserPrompts.Generate)

	userPrompt := fmt.Sprintf(userTemplate,
		req.LetterBounds.Min, req.LetterBounds.Max,
		req.EmailBounds.Min, req.EmailBounds.Max,
		toneInstruction(req.Tone, req.CustomStyle),
		renderCandidateProfile(req.Candidate),
		renderJobPosting(req.Job),
	)
	return systemPrompt, userPrompt
}

// resolvePrompt prefers a file-loaded prompt, then one from config,
// then the built-in default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

// renderCandidateProfile flattens a candidate profile into prompt text.
func renderCandidateProfile(c types.CandidateProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	if c.Contact.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", c.Contact.Email)
	}
	if c.Contact.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", c.Contact.Location)
	}
	if len(c.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(c.Skills, ", "))
	}

	if len(c.Experience) > 0 {
		b.WriteString("Experience:\n")
		for _, exp := range c.Experience {
			fmt.Fprintf(&b, "- %s", exp.Title)
			if exp.Organization != "" {
				fmt.Fprintf(&b, " at %s", exp.Organization)
			}
			if exp.DateRange != "" {
				fmt.Fprintf(&b, " (%s)", exp.DateRange)
			}
			b.WriteString("\n")
			if exp.Description != "" {
				fmt.Fprintf(&b, "  %s\n", exp.Description)
			}
		}
	}

	if len(c.Education) > 0 {
		b.WriteString("Education:\n")
		for _, edu := range c.Education {
			fmt.Fprintf(&b, "- %s", edu.Degree)
			if edu.Institution != "" {
				fmt.Fprintf(&b, ", %s", edu.Institution)
			}
			if edu.DateRange != "" {
				fmt.Fprintf(&b, " (%s)", edu.DateRange)
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderJobPosting flattens a job posting into prompt text.
func renderJobPosting(j types.JobPosting) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Title: %s\n", j.Title)
	if j.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", j.Company)
	}
	if j.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", j.Location)
	}
	if j.ContactName != "" {
		fmt.Fprintf(&b, "Hiring Contact: %s\n", j.ContactName)
	}
	if len(j.Requirements) > 0 {
		b.WriteString("Requirements:\n")
		for _, req := range j.Requirements {
			fmt.Fprintf(&b, "- %s\n", req)
		}
	}
	fmt.Fprintf(&b, "Description:\n%s", j.Description)

	return b.String()
}

// TokenUsage is the provider-reported token accounting for one call.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	return &TokenUsage{
		InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
		OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
	}
}

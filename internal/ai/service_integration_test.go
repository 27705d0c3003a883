package ai

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"coverdraft/internal/config"
	"coverdraft/internal/errors"
	"coverdraft/internal/types"
)

// Helper functions to create pointers for test values
func timePtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                      { return &i }
func float32Ptr(f float32) *float32          { return &f }
func boolPtr(b bool) *bool                   { return &b }

var testLogger = errors.NewLogger(slog.LevelDebug)

func testContentConfig() config.ContentConfig {
	return config.ContentConfig{
		LetterMinWords:     200,
		LetterMaxWords:     300,
		EmailMinWords:      100,
		EmailMaxWords:      150,
		WordCountTolerance: 0.5,
		ValidationRetries:  1,
		DefaultTone:        "professional",
	}
}

func TestCircuitBreakerIntegrationWithService(t *testing.T) {
	// Create a service with specific circuit breaker config
	testOpConfig := &config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "test-model",
		Timeout:          timePtr(30 * time.Second),
		APIKey:           "test-key",
		MaxRetries:       intPtr(1),
		Temperature:      float32Ptr(0.5),
		UseSystemPrompts: boolPtr(true),
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          45 * time.Second,
			MinRequests:      2,
			FailureThreshold: 0.8,
		},
	}

	service, err := NewService(testOpConfig, testContentConfig(), testLogger)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	// Verify the service has the correct configuration
	if service.config.CircuitBreaker.MaxRequests != 5 {
		t.Errorf("Expected circuit breaker max requests 5, got %d", service.config.CircuitBreaker.MaxRequests)
	}
	if service.config.CircuitBreaker.FailureThreshold != 0.8 {
		t.Errorf("Expected circuit breaker failure threshold 0.8, got %f", service.config.CircuitBreaker.FailureThreshold)
	}

	// Test that the provider has a circuit breaker
	if geminiProvider, ok := service.Provider.(*GeminiProvider); ok {
		stats := geminiProvider.GetCircuitBreakerStats()

		aiOpsStats, ok := stats["ai_operations"].(map[string]any)
		if !ok {
			t.Fatal("AI operations stats should exist and be a map")
		}
		if name, _ := aiOpsStats["name"].(string); name != "AI-generate" {
			t.Errorf("Expected circuit breaker name 'AI-generate', got '%s'", name)
		}

		modelOpsStats, ok := stats["model_operations"].(map[string]any)
		if !ok {
			t.Fatal("Model operations stats should exist and be a map")
		}
		if name, _ := modelOpsStats["name"].(string); name != "AI-Model-generate" {
			t.Errorf("Expected model circuit breaker name 'AI-Model-generate', got '%s'", name)
		}

		// Check overall health
		if overallHealthy, _ := stats["overall_healthy"].(bool); !overallHealthy {
			t.Error("Circuit breaker should be healthy initially")
		}
	} else {
		t.Fatal("Service provider is not of type *GeminiProvider")
	}
}

func TestNewServiceRejectsUnknownProvider(t *testing.T) {
	cfg := &config.OperationAIConfig{
		Provider:         "openai",
		Model:            "test-model",
		Timeout:          timePtr(30 * time.Second),
		APIKey:           "test-key",
		MaxRetries:       intPtr(1),
		Temperature:      float32Ptr(0.5),
		UseSystemPrompts: boolPtr(true),
	}

	_, err := NewService(cfg, testContentConfig(), testLogger)
	if err == nil {
		t.Fatal("Expected error for unsupported provider")
	}
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Expected INVALID_CONFIG error, got: %v", err)
	}
}

// stubProvider returns queued drafts in order, repeating the last one.
type stubProvider struct {
	drafts []types.GeneratedDraft
	err    error
	calls  int
}

func (s *stubProvider) GenerateDraft(ctx context.Context, req types.GenerationRequest) (types.GeneratedDraft, *TokenUsage, error) {
	s.calls++
	if s.err != nil {
		return types.GeneratedDraft{}, nil, s.err
	}
	idx := s.calls - 1
	if idx >= len(s.drafts) {
		idx = len(s.drafts) - 1
	}
	return s.drafts[idx], &TokenUsage{InputTokens: 100, OutputTokens: 200, TotalTokens: 300}, nil
}

func (s *stubProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	return &ModelInfo{Name: "stub", Available: true}
}

func (s *stubProvider) Close() error { return nil }

func serviceWithStub(stub *stubProvider, content config.ContentConfig) *Service {
	return &Service{
		Provider: stub,
		content:  content,
		logger:   testLogger,
	}
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func validDraft() types.GeneratedDraft {
	return types.GeneratedDraft{
		Letter: types.CoverLetter{
			Salutation:       "Dear Hiring Manager,",
			OpeningParagraph: words(40),
			BodyParagraphOne: words(80),
			BodyParagraphTwo: words(80),
			ClosingParagraph: words(30),
			Signature:        "Jane Doe",
		},
		Email: types.EmailDraft{
			SubjectLine:      "Application for Software Engineer",
			Greeting:         "Hello,",
			OpeningParagraph: words(30),
			BodyParagraph:    words(50),
			ClosingParagraph: words(20),
			Signature:        "Jane Doe",
		},
	}
}

func testRequest() types.GenerationRequest {
	return types.GenerationRequest{
		Candidate: types.CandidateProfile{Name: "Jane Doe"},
		Job: types.JobPosting{
			Title:        "Software Engineer",
			Company:      "Acme Corp",
			Description:  "Build things.",
			ContactEmail: "careers@acme.com",
		},
		Tone:         types.ToneProfessional,
		LetterBounds: types.WordBounds{Min: 200, Max: 300},
		EmailBounds:  types.WordBounds{Min: 100, Max: 150},
	}
}

func TestGenerateDraftRecomputesWordCounts(t *testing.T) {
	draft := validDraft()
	draft.Letter.WordCount = 9999 // model's own count is ignored
	stub := &stubProvider{drafts: []types.GeneratedDraft{draft}}
	service := serviceWithStub(stub, testContentConfig())

	result, usage, err := service.GenerateDraft(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("GenerateDraft failed: %v", err)
	}

	wantLetter := countWords(result.Letter.Text())
	if result.Letter.WordCount != wantLetter {
		t.Errorf("Expected recomputed letter word count %d, got %d", wantLetter, result.Letter.WordCount)
	}
	if result.Email.ToEmail != "careers@acme.com" {
		t.Errorf("Expected recipient filled from job contact, got '%s'", result.Email.ToEmail)
	}
	if usage == nil || usage.TotalTokens != 300 {
		t.Errorf("Expected token usage to be propagated, got %+v", usage)
	}
	if stub.calls != 1 {
		t.Errorf("Expected a single provider call, got %d", stub.calls)
	}
}

func TestGenerateDraftRetriesOnceAfterInvalidResponse(t *testing.T) {
	short := validDraft()
	short.Letter.BodyParagraphOne = words(5)
	short.Letter.BodyParagraphTwo = ""
	short.Letter.OpeningParagraph = words(5)
	short.Letter.ClosingParagraph = words(5)

	stub := &stubProvider{drafts: []types.GeneratedDraft{short, validDraft()}}
	service := serviceWithStub(stub, testContentConfig())

	_, usage, err := service.GenerateDraft(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Expected success after retry, got: %v", err)
	}
	if stub.calls != 2 {
		t.Errorf("Expected 2 provider calls, got %d", stub.calls)
	}
	if usage == nil || usage.TotalTokens != 600 {
		t.Errorf("Expected token usage summed across attempts, got %+v", usage)
	}
}

func TestGenerateDraftFailsAfterExhaustedValidationRetries(t *testing.T) {
	short := validDraft()
	short.Letter.OpeningParagraph = words(3)
	short.Letter.BodyParagraphOne = words(3)
	short.Letter.BodyParagraphTwo = words(3)
	short.Letter.ClosingParagraph = words(3)

	stub := &stubProvider{drafts: []types.GeneratedDraft{short}}
	service := serviceWithStub(stub, testContentConfig())

	_, _, err := service.GenerateDraft(context.Background(), testRequest())
	if err == nil {
		t.Fatal("Expected validation failure")
	}
	if !errors.HasCode(err, errors.ErrCodeGenerationInvalid) {
		t.Errorf("Expected GENERATION_VALIDATION_FAILED, got: %v", err)
	}
	if stub.calls != 2 {
		t.Errorf("Expected 2 provider calls (1 retry), got %d", stub.calls)
	}
}

func TestGenerateDraftProviderErrorNotRetried(t *testing.T) {
	stub := &stubProvider{err: errors.NewAIError(errors.ErrCodeAIServiceFailed, "upstream failure", nil)}
	service := serviceWithStub(stub, testContentConfig())

	_, _, err := service.GenerateDraft(context.Background(), testRequest())
	if err == nil {
		t.Fatal("Expected provider error to surface")
	}
	if !errors.HasCode(err, errors.ErrCodeAIServiceFailed) {
		t.Errorf("Expected AI_SERVICE_FAILED, got: %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("Expected a single provider call, got %d", stub.calls)
	}
}

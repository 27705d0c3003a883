package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Metrics holds every custom instrument the service records to. The
// zero value is safe: nil instruments are simply skipped.
type Metrics struct {
	// AI operations
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Counter

	// Business outcomes
	DraftsGenerated metric.Int64Counter
	ResumesParsed   metric.Int64Counter
	JobsScraped     metric.Int64Counter

	// Infrastructure
	CertReloadCount metric.Int64Counter
	CertExpiryTime  metric.Float64Gauge
	RateLimitHits   metric.Int64Counter
}

// TokenUsage mirrors the provider's token accounting so results can be
// converted without field-by-field copies.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// AIOperationResult carries the outcome of a tracked AI call back to
// the metrics layer.
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram(
		"coverdraft_ai_processing_duration_seconds",
		metric.WithDescription("Duration of AI content generation operations"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time histogram: %w", err)
	}
	if m.AIRequestCount, err = meter.Int64Counter(
		"coverdraft_ai_requests_total",
		metric.WithDescription("Total number of AI generation requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI request counter: %w", err)
	}
	if m.AIErrorCount, err = meter.Int64Counter(
		"coverdraft_ai_errors_total",
		metric.WithDescription("Total number of failed AI generation requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI error counter: %w", err)
	}
	if m.AITokenUsage, err = meter.Int64Counter(
		"coverdraft_ai_tokens_total",
		metric.WithDescription("Total number of tokens consumed by AI operations"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token counter: %w", err)
	}

	if m.DraftsGenerated, err = meter.Int64Counter(
		"coverdraft_drafts_generated_total",
		metric.WithDescription("Total number of cover letter and email drafts generated"),
	); err != nil {
		return nil, fmt.Errorf("failed to create drafts counter: %w", err)
	}
	if m.ResumesParsed, err = meter.Int64Counter(
		"coverdraft_resumes_parsed_total",
		metric.WithDescription("Total number of resumes parsed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create resumes counter: %w", err)
	}
	if m.JobsScraped, err = meter.Int64Counter(
		"coverdraft_jobs_scraped_total",
		metric.WithDescription("Total number of job postings scraped"),
	); err != nil {
		return nil, fmt.Errorf("failed to create jobs counter: %w", err)
	}

	if m.CertReloadCount, err = meter.Int64Counter(
		"coverdraft_cert_reloads_total",
		metric.WithDescription("Total number of certificate reload attempts"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cert reload counter: %w", err)
	}
	if m.CertExpiryTime, err = meter.Float64Gauge(
		"coverdraft_cert_expiry_seconds",
		metric.WithDescription("Seconds until certificate expiry"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cert expiry gauge: %w", err)
	}
	if m.RateLimitHits, err = meter.Int64Counter(
		"coverdraft_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limited requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit counter: %w", err)
	}

	return m, nil
}

// TrackAIOperationWithTokens wraps fn in a span and records duration,
// request/error counts, and token usage. The error inside the result is
// returned so callers keep their normal error flow.
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult, om *ObservabilityManager) error {
	tracer := om.Tracer("coverdraft.ai")
	ctx, span := tracer.Start(ctx, "ai."+operation,
		oteltrace.WithAttributes(attribute.String("ai.operation", operation)))
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	elapsed := time.Since(start)

	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, result.Error.Error())
	}

	if om.fullConfig == nil {
		if result.Error != nil {
			return result.Error
		}
		return nil
	}
	aiCfg := om.fullConfig.Observability.CustomMetrics.AIOperations
	if !aiCfg.Enabled {
		if result.Error != nil {
			return result.Error
		}
		return nil
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", result.Error == nil),
	}

	if aiCfg.TrackDuration && m.AIProcessingTime != nil {
		m.AIProcessingTime.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
		span.SetAttributes(attribute.Float64("ai.duration_seconds", elapsed.Seconds()))
	}
	if m.AIRequestCount != nil {
		m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if result.Error != nil && m.AIErrorCount != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(
			append(attrs, attribute.String("error", result.Error.Error()))...))
	}
	if aiCfg.TrackTokenUsage && result.TokenUsage != nil {
		m.recordTokens(ctx, span, result.TokenUsage, attrs)
	}

	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (m *Metrics) recordTokens(ctx context.Context, span oteltrace.Span, usage *TokenUsage, attrs []attribute.KeyValue) {
	if m.AITokenUsage == nil {
		return
	}
	for _, group := range []struct {
		kind  string
		count int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		if group.count == 0 {
			continue
		}
		m.AITokenUsage.Add(ctx, group.count, metric.WithAttributes(
			append(attrs, attribute.String("token_type", group.kind))...))
	}
	span.SetAttributes(
		attribute.Int64("ai.tokens.input", usage.InputTokens),
		attribute.Int64("ai.tokens.output", usage.OutputTokens),
		attribute.Int64("ai.tokens.total", usage.TotalTokens),
	)
}

// RecordBusinessMetric increments the counter matching metricType.
// Unknown types are ignored rather than erroring; the caller is in a
// request path.
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, om *ObservabilityManager, extraAttrs ...attribute.KeyValue) {
	if om.fullConfig == nil {
		return
	}
	custom := om.fullConfig.Observability.CustomMetrics

	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, extraAttrs...)
	opts := metric.WithAttributes(attrs...)

	switch metricType {
	case "draft_generated":
		if custom.BusinessMetrics.Enabled && m.DraftsGenerated != nil {
			m.DraftsGenerated.Add(ctx, 1, opts)
		}
	case "resume_parsed":
		if custom.BusinessMetrics.Enabled && m.ResumesParsed != nil {
			m.ResumesParsed.Add(ctx, 1, opts)
		}
	case "job_scraped":
		if custom.BusinessMetrics.Enabled && m.JobsScraped != nil {
			m.JobsScraped.Add(ctx, 1, opts)
		}
	case "rate_limit_hit":
		if custom.Infrastructure.TrackRateLimits && m.RateLimitHits != nil {
			m.RateLimitHits.Add(ctx, 1, opts)
		}
	}
}

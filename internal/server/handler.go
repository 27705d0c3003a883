package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"coverdraft/internal/ai"
	"coverdraft/internal/generate"
	"coverdraft/internal/jobpost"
	"coverdraft/internal/observability"
	"coverdraft/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createGenerateHandler wraps the generate handler with observability
func (s *Server) createGenerateHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("coverdraft.api")
		ctx, span := tracer.Start(ctx, "api.generate")
		defer span.End()

		// Parse request
		var req GenerateRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		// Validation
		if strings.TrimSpace(req.Candidate.Name) == "" {
			err := fmt.Errorf("missing candidate name")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing candidate name", "candidate.name field is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Job.Title) == "" || strings.TrimSpace(req.Job.Description) == "" {
			err := fmt.Errorf("missing job fields")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing job fields", "job.title and job.description fields are required", http.StatusBadRequest)
			return
		}

		// Add request attributes to span
		span.SetAttributes(
			attribute.String("request.company", req.Job.Company),
			attribute.Int("request.skill_count", len(req.Candidate.Skills)),
			attribute.String("request.tone", req.Tone),
			attribute.String("operation", "generate"),
		)

		// Create AI service for the generate operation
		generateConfig := s.AppConfig.GetGenerateConfig()
		aiService, err := ai.NewService(&generateConfig, s.AppConfig.Content, s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		pipeline := generate.NewPipeline(s.AppConfig, aiService, s.Logger)

		// Track AI operation with observability and token usage
		metrics := om.GetMetrics()
		var result types.GenerationResult
		err = metrics.TrackAIOperationWithTokens(ctx, "generate", func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := pipeline.Generate(ctx, req.Candidate, req.Job, types.Tone(req.Tone), req.CustomStyle)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "draft_generated", false, om,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to generate drafts", err.Error(), http.StatusInternalServerError)
			return
		}

		// Record success metrics
		metrics.RecordBusinessMetric(ctx, "draft_generated", true, om,
			attribute.Int("output.letter_words", result.Letter.WordCount),
			attribute.Int("output.email_words", result.Email.WordCount),
			attribute.Float64("quality.personalization", result.Metrics.PersonalizationScore))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.letter_words", result.Letter.WordCount),
			attribute.Int("response.email_words", result.Email.WordCount),
			attribute.Float64("quality.personalization", result.Metrics.PersonalizationScore),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createParseHandler wraps the resume parse handler with observability.
// The resume document is uploaded as multipart form data under "resume".
func (s *Server) createParseHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("coverdraft.api")
		ctx, span := tracer.Start(ctx, "api.parse")
		defer span.End()

		data, filename, err := s.readResumeUpload(r)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid resume upload", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.size_bytes", len(data)),
			attribute.String("request.filename", filename),
			attribute.String("operation", "parse"),
		)

		// Parsing is local, no AI service required
		pipeline := generate.NewPipeline(s.AppConfig, nil, s.Logger)

		metrics := om.GetMetrics()
		profile, err := pipeline.ParseResume(data, filename)
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "resume_parsed", false, om,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to parse resume", err.Error(), http.StatusUnprocessableEntity)
			return
		}

		metrics.RecordBusinessMetric(ctx, "resume_parsed", true, om,
			attribute.Int("skills_count", len(profile.Skills)),
			attribute.Bool("low_confidence", profile.LowConfidence))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("skills_count", len(profile.Skills)),
			attribute.Bool("low_confidence", profile.LowConfidence),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(profile); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createScrapeHandler wraps the job scrape handler with observability
func (s *Server) createScrapeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("coverdraft.api")
		ctx, span := tracer.Start(ctx, "api.scrape")
		defer span.End()

		var req ScrapeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if req.URL == "" && req.Manual == nil {
			err := fmt.Errorf("missing job input")
			span.RecordError(err)
			writeErrorResponse(w, "Missing job input", "url or manual field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("request.url", req.URL),
			attribute.Bool("request.manual", req.Manual != nil),
			attribute.String("operation", "scrape"),
		)

		// Scraping is local, no AI service required
		pipeline := generate.NewPipeline(s.AppConfig, nil, s.Logger)

		metrics := om.GetMetrics()
		job, err := s.resolveScrapeRequest(ctx, pipeline, req)
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "job_scraped", false, om,
				attribute.String("error", err.Error()))
			status := http.StatusInternalServerError
			if jobpost.IsManualEntryRequired(err) {
				// The caller can retry with manually entered fields
				status = http.StatusUnprocessableEntity
			}
			writeErrorResponse(w, "Failed to scrape job listing", err.Error(), status)
			return
		}

		metrics.RecordBusinessMetric(ctx, "job_scraped", true, om,
			attribute.Bool("manual_entry", job.ManuallyFilled),
			attribute.Int("requirements_count", len(job.Requirements)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Bool("manual_entry", job.ManuallyFilled),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(job); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// resolveScrapeRequest prefers the URL path, falling back to manual
// fields when the listing cannot be scraped.
func (s *Server) resolveScrapeRequest(ctx context.Context, pipeline *generate.Pipeline, req ScrapeRequest) (types.JobPosting, error) {
	if req.URL != "" {
		job, err := pipeline.ResolveJob(ctx, req.URL)
		if err == nil {
			return job, nil
		}
		if req.Manual == nil || !jobpost.IsManualEntryRequired(err) {
			return types.JobPosting{}, err
		}
		s.Logger.Warn("Job listing could not be scraped, using manual fields",
			"url", req.URL,
			"error", err.Error())
	}
	return pipeline.JobFromManual(*req.Manual)
}

// readResumeUpload reads the resume document from a multipart upload,
// enforcing the configured size limit and allowed file types.
func (s *Server) readResumeUpload(r *http.Request) ([]byte, string, error) {
	maxSize := s.AppConfig.Document.MaxFileSize
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, "", fmt.Errorf("failed to parse multipart form: %w", err)
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		return nil, "", fmt.Errorf("resume file field is required: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.Logger.Warn("Failed to close uploaded file", "error", err)
		}
	}()

	if header.Size > maxSize {
		return nil, "", fmt.Errorf("resume exceeds size limit of %d bytes", maxSize)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if len(s.AppConfig.Document.AllowedTypes) > 0 && !slices.Contains(s.AppConfig.Document.AllowedTypes, ext) {
		return nil, "", fmt.Errorf("unsupported file type %q, allowed types: %v", ext, s.AppConfig.Document.AllowedTypes)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", fmt.Errorf("resume exceeds size limit of %d bytes", maxSize)
	}

	return data, header.Filename, nil
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Check if this request was rate limited by examining the response
			// We'll wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

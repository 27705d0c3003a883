package generate

import (
	"context"
	"strings"

	"coverdraft/internal/ai"
	"coverdraft/internal/config"
	"coverdraft/internal/errors"
	"coverdraft/internal/extract"
	"coverdraft/internal/jobpost"
	"coverdraft/internal/parser"
	"coverdraft/internal/quality"
	"coverdraft/internal/types"
)

// DraftGenerator produces a validated draft for a generation request.
// Implemented by ai.Service.
type DraftGenerator interface {
	GenerateDraft(ctx context.Context, req types.GenerationRequest) (types.GeneratedDraft, *ai.TokenUsage, error)
}

// Builder assembles generation requests from previously gathered inputs.
// A request never leaves the builder with required fields missing.
type Builder struct {
	content config.ContentConfig
}

// NewBuilder creates a request builder bound to the content configuration
func NewBuilder(content config.ContentConfig) *Builder {
	return &Builder{content: content}
}

// Build validates inputs and assembles a generation request. Word bounds
// come from configuration, tone falls back to the configured default.
func (b *Builder) Build(candidate types.CandidateProfile, job types.JobPosting, tone types.Tone, customStyle string) (types.GenerationRequest, error) {
	var missing []string
	if strings.TrimSpace(candidate.Name) == "" {
		missing = append(missing, "candidate name")
	}
	if strings.TrimSpace(job.Title) == "" {
		missing = append(missing, "job title")
	}
	if strings.TrimSpace(job.Description) == "" {
		missing = append(missing, "job description")
	}
	if len(missing) > 0 {
		return types.GenerationRequest{}, errors.NewValidationError(errors.ErrCodeIncompleteInput,
			"Cannot generate content without: "+strings.Join(missing, ", "), nil).
			WithContext("missing_fields", missing)
	}

	if tone == "" {
		tone = types.ParseTone(b.content.DefaultTone)
	} else {
		tone = types.ParseTone(string(tone))
	}

	return types.GenerationRequest{
		Candidate:   candidate,
		Job:         job,
		Tone:        tone,
		CustomStyle: customStyle,
		LetterBounds: types.WordBounds{
			Min: b.content.LetterMinWords,
			Max: b.content.LetterMaxWords,
		},
		EmailBounds: types.WordBounds{
			Min: b.content.EmailMinWords,
			Max: b.content.EmailMaxWords,
		},
	}, nil
}

// Pipeline wires document extraction, resume parsing, job resolution and
// draft generation into the application-level operations.
type Pipeline struct {
	extractor *extract.Extractor
	resolver  *jobpost.Resolver
	builder   *Builder
	generator DraftGenerator
	logger    *errors.Logger
}

// NewPipeline creates a pipeline from application configuration
func NewPipeline(cfg *config.Config, generator DraftGenerator, logger *errors.Logger) *Pipeline {
	return &Pipeline{
		extractor: extract.New(cfg.Document.MaxFileSize, logger),
		resolver: jobpost.New(jobpost.Config{
			Timeout:    cfg.Scrape.Timeout,
			Retries:    cfg.Scrape.Retries,
			RetryDelay: cfg.Scrape.RetryDelay,
			UserAgent:  cfg.Scrape.UserAgent,
		}, nil, logger),
		builder:   NewBuilder(cfg.Content),
		generator: generator,
		logger:    logger,
	}
}

// ParseResume extracts text from a resume document and parses it into a
// candidate profile. Extraction confidence is carried onto the profile.
func (p *Pipeline) ParseResume(data []byte, filename string) (types.CandidateProfile, error) {
	result, err := p.extractor.Extract(data, filename)
	if err != nil {
		return types.CandidateProfile{}, err
	}

	profile := parser.Parse(result.Text)
	if result.LowConfidence {
		profile.LowConfidence = true
		p.logger.Warn("Resume text extraction yielded little content",
			"filename", filename,
			"format", string(result.Format))
	}

	p.logger.Debug("Resume parsed",
		"name", profile.Name,
		"skills", len(profile.Skills),
		"experience_entries", len(profile.Experience),
		"education_entries", len(profile.Education))

	return profile, nil
}

// ResolveJob fetches and parses a job listing from its URL
func (p *Pipeline) ResolveJob(ctx context.Context, url string) (types.JobPosting, error) {
	posting, err := p.resolver.FromURL(ctx, url)
	if err != nil {
		return types.JobPosting{}, err
	}
	return *posting, nil
}

// JobFromManual builds a job posting from manually entered fields
func (p *Pipeline) JobFromManual(fields jobpost.ManualFields) (types.JobPosting, error) {
	posting, err := p.resolver.FromManual(fields)
	if err != nil {
		return types.JobPosting{}, err
	}
	return *posting, nil
}

// Generate builds the request, produces a validated draft, and scores it
func (p *Pipeline) Generate(ctx context.Context, candidate types.CandidateProfile, job types.JobPosting, tone types.Tone, customStyle string) (types.GenerationResult, *ai.TokenUsage, error) {
	req, err := p.builder.Build(candidate, job, tone, customStyle)
	if err != nil {
		return types.GenerationResult{}, nil, err
	}

	draft, usage, err := p.generator.GenerateDraft(ctx, req)
	if err != nil {
		return types.GenerationResult{}, usage, err
	}

	result := types.GenerationResult{
		Letter: draft.Letter,
		Email:  draft.Email,
	}
	result.Metrics = quality.Score(&result, candidate, job, req.Tone)

	p.logger.Info("Content generated",
		"company", job.Company,
		"title", job.Title,
		"tone", string(req.Tone),
		"letter_words", result.Letter.WordCount,
		"email_words", result.Email.WordCount,
		"personalization_score", result.Metrics.PersonalizationScore)

	return result, usage, nil
}

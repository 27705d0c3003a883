package generate

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"coverdraft/internal/ai"
	"coverdraft/internal/config"
	"coverdraft/internal/errors"
	"coverdraft/internal/jobpost"
	"coverdraft/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLogger(slog.LevelError)

func testConfig() *config.Config {
	return &config.Config{
		Document: config.DocumentConfig{
			MaxFileSize:  10 * 1024 * 1024,
			AllowedTypes: []string{"pdf", "docx", "txt"},
		},
		Content: config.ContentConfig{
			LetterMinWords:     200,
			LetterMaxWords:     300,
			EmailMinWords:      100,
			EmailMaxWords:      150,
			WordCountTolerance: 0.5,
			ValidationRetries:  1,
			DefaultTone:        "professional",
		},
	}
}

func TestBuilderBuild(t *testing.T) {
	builder := NewBuilder(testConfig().Content)

	candidate := types.CandidateProfile{Name: "Jane Doe", Skills: []string{"Go"}}
	job := types.JobPosting{Title: "Backend Engineer", Company: "Acme", Description: "Build services."}

	req, err := builder.Build(candidate, job, types.ToneWarm, "")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", req.Candidate.Name)
	assert.Equal(t, types.ToneWarm, req.Tone)
	assert.Equal(t, types.WordBounds{Min: 200, Max: 300}, req.LetterBounds)
	assert.Equal(t, types.WordBounds{Min: 100, Max: 150}, req.EmailBounds)
}

func TestBuilderDefaultTone(t *testing.T) {
	builder := NewBuilder(testConfig().Content)

	req, err := builder.Build(
		types.CandidateProfile{Name: "Jane Doe"},
		types.JobPosting{Title: "Engineer", Description: "Work."},
		"", "")
	require.NoError(t, err)
	assert.Equal(t, types.ToneProfessional, req.Tone)
}

func TestBuilderMissingFields(t *testing.T) {
	builder := NewBuilder(testConfig().Content)

	tests := []struct {
		name      string
		candidate types.CandidateProfile
		job       types.JobPosting
		missing   []string
	}{
		{
			name:    "everything missing",
			missing: []string{"candidate name", "job title", "job description"},
		},
		{
			name:      "job description missing",
			candidate: types.CandidateProfile{Name: "Jane Doe"},
			job:       types.JobPosting{Title: "Engineer"},
			missing:   []string{"job description"},
		},
		{
			name:      "whitespace name rejected",
			candidate: types.CandidateProfile{Name: "   "},
			job:       types.JobPosting{Title: "Engineer", Description: "Work."},
			missing:   []string{"candidate name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := builder.Build(tt.candidate, tt.job, types.ToneProfessional, "")
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeIncompleteInput))

			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.missing, appErr.Context["missing_fields"])
		})
	}
}

// stubGenerator returns a fixed draft without calling any model.
type stubGenerator struct {
	draft types.GeneratedDraft
	err   error
	last  types.GenerationRequest
}

func (s *stubGenerator) GenerateDraft(ctx context.Context, req types.GenerationRequest) (types.GeneratedDraft, *ai.TokenUsage, error) {
	s.last = req
	if s.err != nil {
		return types.GeneratedDraft{}, nil, s.err
	}
	return s.draft, &ai.TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30}, nil
}

func sampleDraft() types.GeneratedDraft {
	return types.GeneratedDraft{
		Letter: types.CoverLetter{
			Salutation:       "Dear Alex Chen,",
			OpeningParagraph: "I am excited to apply for the Backend Engineer position at Acme Corp.",
			BodyParagraphOne: "In 4 years of building Go services I improved throughput by 40% using PostgreSQL and Kubernetes.",
			BodyParagraphTwo: "My experience leading a platform team matches the requirements you describe.",
			ClosingParagraph: "I would welcome the chance to discuss the role.",
			Signature:        "Jane Doe",
			WordCount:        230,
		},
		Email: types.EmailDraft{
			SubjectLine:      "Application for Backend Engineer position at Acme Corp",
			Greeting:         "Hello Alex,",
			OpeningParagraph: "I have applied for the Backend Engineer role.",
			BodyParagraph:    "My background in Go and PostgreSQL fits the position well.",
			ClosingParagraph: "My resume and cover letter are attached.",
			Signature:        "Jane Doe",
			WordCount:        120,
		},
	}
}

const sampleResumeText = `Jane Doe
jane.doe@example.com | (555) 123-4567
Portland, OR

Skills
Go, PostgreSQL, Kubernetes, Docker

Experience

Senior Software Engineer at Initech (2021 - Present)
- Led a platform team of 5 engineers
- Improved API throughput by 40%

Education

B.S. Computer Science, Portland State University (2013 - 2017)
`

func TestPipelineParseResume(t *testing.T) {
	p := NewPipeline(testConfig(), &stubGenerator{}, testLogger)

	profile, err := p.ParseResume([]byte(sampleResumeText), "resume.txt")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", profile.Name)
	assert.Equal(t, "jane.doe@example.com", profile.Contact.Email)
	assert.Contains(t, profile.Skills, "Go")
	assert.False(t, profile.LowConfidence)
}

func TestPipelineParseResumeLowConfidence(t *testing.T) {
	p := NewPipeline(testConfig(), &stubGenerator{}, testLogger)

	profile, err := p.ParseResume([]byte("x"), "scan.txt")
	require.NoError(t, err)
	assert.True(t, profile.LowConfidence)
}

func TestPipelineGenerate(t *testing.T) {
	stub := &stubGenerator{draft: sampleDraft()}
	p := NewPipeline(testConfig(), stub, testLogger)

	candidate := types.CandidateProfile{
		Name:   "Jane Doe",
		Skills: []string{"Go", "PostgreSQL", "Kubernetes"},
	}
	job := types.JobPosting{
		Title:       "Backend Engineer",
		Company:     "Acme Corp",
		Description: "We need a Go engineer with PostgreSQL experience.",
		ContactName: "Alex Chen",
	}

	result, usage, err := p.Generate(context.Background(), candidate, job, types.ToneProfessional, "")
	require.NoError(t, err)

	assert.Equal(t, "Dear Alex Chen,", result.Letter.Salutation)
	assert.Greater(t, result.Metrics.PersonalizationScore, 0.0)
	assert.Greater(t, result.Metrics.CompanyAlignmentScore, 0.0)
	assert.Greater(t, result.Metrics.SpecificExamplesCount, 0)
	assert.Equal(t, int64(30), usage.TotalTokens)

	// the builder filled the request the stub received
	assert.Equal(t, types.WordBounds{Min: 200, Max: 300}, stub.last.LetterBounds)
}

func TestPipelineGenerateIncompleteInput(t *testing.T) {
	stub := &stubGenerator{draft: sampleDraft()}
	p := NewPipeline(testConfig(), stub, testLogger)

	_, _, err := p.Generate(context.Background(), types.CandidateProfile{}, types.JobPosting{}, types.ToneProfessional, "")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeIncompleteInput))
}

func TestPipelineEndToEndWithManualJob(t *testing.T) {
	stub := &stubGenerator{draft: sampleDraft()}
	p := NewPipeline(testConfig(), stub, testLogger)

	profile, err := p.ParseResume([]byte(sampleResumeText), "resume.txt")
	require.NoError(t, err)

	job, err := p.JobFromManual(jobpost.ManualFields{
		Title:       "Backend Engineer",
		Company:     "Acme Corp",
		Description: "We need a Go engineer with PostgreSQL experience.",
		ContactName: "Alex Chen",
	})
	require.NoError(t, err)
	assert.True(t, job.ManuallyFilled)
	assert.Equal(t, "careers@acmecorp.com", job.ContactEmail)

	result, _, err := p.Generate(context.Background(), profile, job, types.ToneWarm, "")
	require.NoError(t, err)

	assert.True(t, strings.Contains(result.Letter.Text(), "Backend Engineer"))
	assert.Equal(t, types.ToneWarm, stub.last.Tone)
	assert.Greater(t, result.Metrics.ProfessionalismScore, 0.0)
}

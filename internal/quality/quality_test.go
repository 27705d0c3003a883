package quality

import (
	"testing"

	"coverdraft/internal/types"

	"github.com/stretchr/testify/assert"
)

func sampleResult() *types.GenerationResult {
	return &types.GenerationResult{
		Letter: types.CoverLetter{
			Salutation:       "Dear Hiring Manager,",
			OpeningParagraph: "I am excited to apply for the Data Analyst role at Acme Corp.",
			BodyParagraphOne: "At Initech I built dashboards in Python and SQL that reduced reporting time by 40%.",
			BodyParagraphTwo: "I led a team of 3 analysts over 2 years and improved data quality across the company.",
			ClosingParagraph: "I would welcome the chance to discuss how my experience fits your needs.",
			Signature:        "Sincerely,\nJane Doe",
		},
		Email: types.EmailDraft{
			SubjectLine:      "Application for Data Analyst position",
			Greeting:         "Dear Acme Corp team,",
			OpeningParagraph: "I recently applied for the Data Analyst position and wanted to introduce myself.",
			BodyParagraph:    "My background in SQL and Python maps directly to the role.",
			ClosingParagraph: "Thank you for your consideration.",
			Signature:        "Jane Doe",
		},
	}
}

func sampleCandidate() types.CandidateProfile {
	return types.CandidateProfile{
		Name:   "Jane Doe",
		Skills: []string{"Python", "SQL", "Tableau"},
		Experience: []types.ExperienceEntry{
			{Title: "Data Analyst", Organization: "Initech"},
		},
	}
}

func sampleJob() types.JobPosting {
	return types.JobPosting{
		Title:        "Data Analyst",
		Company:      "Acme Corp",
		Description:  "Analyze data using Python and SQL",
		Requirements: []string{"Python experience", "SQL fluency"},
	}
}

func TestScoreRangesAlwaysValid(t *testing.T) {
	tests := []struct {
		name      string
		result    *types.GenerationResult
		candidate types.CandidateProfile
		job       types.JobPosting
	}{
		{name: "nil result"},
		{name: "empty everything", result: &types.GenerationResult{}},
		{name: "full inputs", result: sampleResult(), candidate: sampleCandidate(), job: sampleJob()},
		{
			name: "informal text floors at zero",
			result: &types.GenerationResult{
				Letter: types.CoverLetter{OpeningParagraph: "hey!! this is gonna be awesome lol, totally wanna work there btw"},
			},
			candidate: sampleCandidate(),
			job:       sampleJob(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Score(tt.result, tt.candidate, tt.job, types.ToneProfessional)
			for name, v := range map[string]float64{
				"personalization":  m.PersonalizationScore,
				"companyAlignment": m.CompanyAlignmentScore,
				"toneConsistency":  m.ToneConsistencyScore,
				"professionalism":  m.ProfessionalismScore,
			} {
				assert.GreaterOrEqual(t, v, 0.0, name)
				assert.LessOrEqual(t, v, 1.0, name)
			}
			assert.GreaterOrEqual(t, m.SpecificExamplesCount, 0)
			assert.GreaterOrEqual(t, m.AchievementMentions, 0)
		})
	}
}

func TestScoreEmptyInputIsZero(t *testing.T) {
	m := Score(&types.GenerationResult{}, sampleCandidate(), sampleJob(), types.ToneProfessional)
	assert.Zero(t, m.PersonalizationScore)
	assert.Zero(t, m.CompanyAlignmentScore)
	assert.Zero(t, m.ToneConsistencyScore)
	assert.Zero(t, m.ProfessionalismScore)
	assert.Zero(t, m.SpecificExamplesCount)
}

func TestPersonalizationReflectsSkillMentions(t *testing.T) {
	m := Score(sampleResult(), sampleCandidate(), sampleJob(), types.ToneProfessional)
	// Python, SQL, Data Analyst and Initech appear; Tableau does not
	assert.Greater(t, m.PersonalizationScore, 0.5)
	assert.Less(t, m.PersonalizationScore, 1.0)
}

func TestCompanyAlignment(t *testing.T) {
	m := Score(sampleResult(), sampleCandidate(), sampleJob(), types.ToneProfessional)
	assert.Greater(t, m.CompanyAlignmentScore, 0.0)

	empty := Score(sampleResult(), sampleCandidate(), types.JobPosting{}, types.ToneProfessional)
	assert.Zero(t, empty.CompanyAlignmentScore)
}

func TestToneConsistencyPenalizesInformality(t *testing.T) {
	formal := Score(sampleResult(), sampleCandidate(), sampleJob(), types.ToneProfessional)

	informal := sampleResult()
	informal.Letter.OpeningParagraph = "hey, gonna be awesome to work there!!"
	penalized := Score(informal, sampleCandidate(), sampleJob(), types.ToneProfessional)

	assert.Greater(t, formal.ToneConsistencyScore, penalized.ToneConsistencyScore)
}

func TestWarmToneToleratesExclamation(t *testing.T) {
	excited := sampleResult()
	excited.Letter.OpeningParagraph = "I am thrilled to apply for the Data Analyst role at Acme Corp!"

	warm := Score(excited, sampleCandidate(), sampleJob(), types.ToneWarm)
	professional := Score(excited, sampleCandidate(), sampleJob(), types.ToneProfessional)

	assert.GreaterOrEqual(t, warm.ToneConsistencyScore, professional.ToneConsistencyScore)
}

func TestSpecificExamplesAndAchievements(t *testing.T) {
	m := Score(sampleResult(), sampleCandidate(), sampleJob(), types.ToneProfessional)
	// "40%", "2 years" at minimum
	assert.GreaterOrEqual(t, m.SpecificExamplesCount, 2)
	// built, reduced, led, improved
	assert.GreaterOrEqual(t, m.AchievementMentions, 3)
}

func BenchmarkScore(b *testing.B) {
	result := sampleResult()
	candidate := sampleCandidate()
	job := sampleJob()
	for b.Loop() {
		Score(result, candidate, job, types.ToneProfessional)
	}
}

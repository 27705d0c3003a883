package types

import "strings"

// Tone selects the writing style for generated content.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneWarm         Tone = "warm"
	ToneConcise      Tone = "concise"
	ToneCustom       Tone = "custom"
)

// ParseTone maps user input to a known tone, defaulting to professional.
func ParseTone(s string) Tone {
	switch Tone(strings.ToLower(strings.TrimSpace(s))) {
	case ToneWarm:
		return ToneWarm
	case ToneConcise:
		return ToneConcise
	case ToneCustom:
		return ToneCustom
	default:
		return ToneProfessional
	}
}

// ContactInfo holds contact fields recovered from a resume.
type ContactInfo struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// ExperienceEntry is a single position recovered from a resume.
type ExperienceEntry struct {
	Title        string `json:"title,omitempty"`
	Organization string `json:"organization,omitempty"`
	DateRange    string `json:"dateRange,omitempty"`
	Description  string `json:"description,omitempty"`
}

// EducationEntry is a single education record recovered from a resume.
type EducationEntry struct {
	Degree      string `json:"degree,omitempty"`
	Institution string `json:"institution,omitempty"`
	DateRange   string `json:"dateRange,omitempty"`
}

// CandidateProfile is the structured representation of a resume.
// It is produced once by the parser and read-only downstream.
type CandidateProfile struct {
	Name       string            `json:"name"`
	Contact    ContactInfo       `json:"contact"`
	Skills     []string          `json:"skills,omitempty"`
	Experience []ExperienceEntry `json:"experience,omitempty"`
	Education  []EducationEntry  `json:"education,omitempty"`

	// LowConfidence marks profiles built from near-empty extracted text,
	// e.g. a scanned PDF with no text layer.
	LowConfidence bool `json:"lowConfidence,omitempty"`
}

// JobPosting is the structured representation of a job advertisement.
// The scrape path and the manual path both produce this shape.
type JobPosting struct {
	Title          string   `json:"title"`
	Company        string   `json:"company,omitempty"`
	Location       string   `json:"location,omitempty"`
	Description    string   `json:"description"`
	Requirements   []string `json:"requirements,omitempty"`
	ContactName    string   `json:"contactName,omitempty"`
	ContactEmail   string   `json:"contactEmail,omitempty"`
	SubjectHint    string   `json:"subjectHint,omitempty"`
	SourceURL      string   `json:"sourceURL,omitempty"`
	ManuallyFilled bool     `json:"manuallyFilled,omitempty"`
}

// WordBounds is an inclusive word-count range for a generated text.
type WordBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// GenerationRequest is the validated input for one content-generation
// attempt. Constructed once per attempt, never dispatched incomplete.
type GenerationRequest struct {
	Candidate    CandidateProfile `json:"candidate"`
	Job          JobPosting       `json:"job"`
	Tone         Tone             `json:"tone"`
	CustomStyle  string           `json:"customStyle,omitempty"`
	LetterBounds WordBounds       `json:"letterBounds"`
	EmailBounds  WordBounds       `json:"emailBounds"`
}

// CoverLetter is the structured cover letter returned by the model.
type CoverLetter struct {
	Salutation              string   `json:"salutation"`
	OpeningParagraph        string   `json:"openingParagraph"`
	BodyParagraphOne        string   `json:"bodyParagraphOne"`
	BodyParagraphTwo        string   `json:"bodyParagraphTwo"`
	ClosingParagraph        string   `json:"closingParagraph"`
	Signature               string   `json:"signature"`
	WordCount               int      `json:"wordCount"`
	PersonalizationElements []string `json:"personalizationElements,omitempty"`
}

// Text renders the letter as plain text in reading order.
func (c CoverLetter) Text() string {
	parts := []string{
		c.Salutation,
		c.OpeningParagraph,
		c.BodyParagraphOne,
		c.BodyParagraphTwo,
		c.ClosingParagraph,
		c.Signature,
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

// EmailDraft is the structured outreach email returned by the model.
type EmailDraft struct {
	ToEmail          string `json:"toEmail,omitempty"`
	SubjectLine      string `json:"subjectLine"`
	Greeting         string `json:"greeting"`
	OpeningParagraph string `json:"openingParagraph"`
	BodyParagraph    string `json:"bodyParagraph"`
	ClosingParagraph string `json:"closingParagraph"`
	Signature        string `json:"signature"`
	WordCount        int    `json:"wordCount"`
}

// Body renders the email body as plain text in reading order.
func (e EmailDraft) Body() string {
	parts := []string{
		e.Greeting,
		e.OpeningParagraph,
		e.BodyParagraph,
		e.ClosingParagraph,
		e.Signature,
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

// GeneratedDraft is the raw model output before validation and scoring.
type GeneratedDraft struct {
	Letter CoverLetter `json:"coverLetter"`
	Email  EmailDraft  `json:"outreachEmail"`
}

// QualityMetrics are heuristic scores over generated content.
// All fractional scores are clamped to [0,1].
type QualityMetrics struct {
	PersonalizationScore  float64 `json:"personalizationScore"`
	CompanyAlignmentScore float64 `json:"companyAlignmentScore"`
	ToneConsistencyScore  float64 `json:"toneConsistencyScore"`
	ProfessionalismScore  float64 `json:"professionalismScore"`
	SpecificExamplesCount int     `json:"specificExamplesCount"`
	AchievementMentions   int     `json:"achievementMentions"`
}

// GenerationResult is the final output of one pipeline run.
type GenerationResult struct {
	Letter  CoverLetter    `json:"letter"`
	Email   EmailDraft     `json:"email"`
	Metrics QualityMetrics `json:"metrics"`
}

package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"coverdraft/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "GenerationResult", &GenerationTextFormatter{})
	registry.RegisterFormatter("markdown", "GenerationResult", &GenerationMarkdownFormatter{})
	registry.RegisterFormatter("text", "CandidateProfile", &ProfileTextFormatter{})
	registry.RegisterFormatter("markdown", "CandidateProfile", &ProfileMarkdownFormatter{})
	registry.RegisterFormatter("text", "JobPosting", &JobPostingTextFormatter{})
	registry.RegisterFormatter("markdown", "JobPosting", &JobPostingMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.GenerationResult:
		return "GenerationResult"
	case types.CandidateProfile:
		return "CandidateProfile"
	case types.JobPosting:
		return "JobPosting"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// GenerationTextFormatter handles text formatting for generation results
type GenerationTextFormatter struct{}

func (gtf *GenerationTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.GenerationResult)
	if !ok {
		return "", fmt.Errorf("expected GenerationResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== COVER LETTER ===\n\n")
	output.WriteString(result.Letter.Text())
	output.WriteString("\n\n")
	output.WriteString(fmt.Sprintf("(%d words)\n\n", result.Letter.WordCount))

	output.WriteString("=== OUTREACH EMAIL ===\n")
	if result.Email.ToEmail != "" {
		output.WriteString(fmt.Sprintf("To: %s\n", result.Email.ToEmail))
	}
	output.WriteString(fmt.Sprintf("Subject: %s\n\n", result.Email.SubjectLine))
	output.WriteString(result.Email.Body())
	output.WriteString("\n\n")
	output.WriteString(fmt.Sprintf("(%d words)\n\n", result.Email.WordCount))

	output.WriteString("=== QUALITY ===\n")
	output.WriteString(fmt.Sprintf("Personalization:   %.0f%%\n", result.Metrics.PersonalizationScore*100))
	output.WriteString(fmt.Sprintf("Company alignment: %.0f%%\n", result.Metrics.CompanyAlignmentScore*100))
	output.WriteString(fmt.Sprintf("Tone consistency:  %.0f%%\n", result.Metrics.ToneConsistencyScore*100))
	output.WriteString(fmt.Sprintf("Professionalism:   %.0f%%\n", result.Metrics.ProfessionalismScore*100))
	output.WriteString(fmt.Sprintf("Specific examples: %d\n", result.Metrics.SpecificExamplesCount))
	output.WriteString(fmt.Sprintf("Achievements:      %d\n", result.Metrics.AchievementMentions))

	if len(result.Letter.PersonalizationElements) > 0 {
		output.WriteString("\nPersonalization elements:\n")
		for _, element := range result.Letter.PersonalizationElements {
			output.WriteString(fmt.Sprintf("- %s\n", element))
		}
	}

	return output.String(), nil
}

func (gtf *GenerationTextFormatter) SupportedType() string {
	return "GenerationResult"
}

// GenerationMarkdownFormatter handles markdown formatting for generation results
type GenerationMarkdownFormatter struct{}

func (gmf *GenerationMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.GenerationResult)
	if !ok {
		return "", fmt.Errorf("expected GenerationResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Cover Letter\n\n")
	output.WriteString(result.Letter.Text())
	output.WriteString("\n\n")
	output.WriteString(fmt.Sprintf("*%d words*\n\n", result.Letter.WordCount))

	output.WriteString("# Outreach Email\n\n")
	if result.Email.ToEmail != "" {
		output.WriteString(fmt.Sprintf("**To:** %s\n\n", result.Email.ToEmail))
	}
	output.WriteString(fmt.Sprintf("**Subject:** %s\n\n", result.Email.SubjectLine))
	output.WriteString(result.Email.Body())
	output.WriteString("\n\n")
	output.WriteString(fmt.Sprintf("*%d words*\n\n", result.Email.WordCount))

	output.WriteString("# Quality\n\n")
	output.WriteString("| Metric | Value |\n|---|---|\n")
	output.WriteString(fmt.Sprintf("| Personalization | %.0f%% |\n", result.Metrics.PersonalizationScore*100))
	output.WriteString(fmt.Sprintf("| Company alignment | %.0f%% |\n", result.Metrics.CompanyAlignmentScore*100))
	output.WriteString(fmt.Sprintf("| Tone consistency | %.0f%% |\n", result.Metrics.ToneConsistencyScore*100))
	output.WriteString(fmt.Sprintf("| Professionalism | %.0f%% |\n", result.Metrics.ProfessionalismScore*100))
	output.WriteString(fmt.Sprintf("| Specific examples | %d |\n", result.Metrics.SpecificExamplesCount))
	output.WriteString(fmt.Sprintf("| Achievement mentions | %d |\n", result.Metrics.AchievementMentions))

	if len(result.Letter.PersonalizationElements) > 0 {
		output.WriteString("\n## Personalization Elements\n\n")
		for _, element := range result.Letter.PersonalizationElements {
			output.WriteString(fmt.Sprintf("- %s\n", element))
		}
	}

	return output.String(), nil
}

func (gmf *GenerationMarkdownFormatter) SupportedType() string {
	return "GenerationResult"
}

// ProfileTextFormatter handles text formatting for parsed candidate profiles
type ProfileTextFormatter struct{}

func (ptf *ProfileTextFormatter) Format(data any) (string, error) {
	profile, ok := data.(types.CandidateProfile)
	if !ok {
		return "", fmt.Errorf("expected CandidateProfile, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== CANDIDATE PROFILE ===\n\n")
	output.WriteString(fmt.Sprintf("Name: %s\n", valueOr(profile.Name, "(not found)")))
	if profile.LowConfidence {
		output.WriteString("Warning: little text was extracted from the document; fields may be incomplete.\n")
	}
	output.WriteString("\nContact:\n")
	writeContactLine(&output, "Email", profile.Contact.Email)
	writeContactLine(&output, "Phone", profile.Contact.Phone)
	writeContactLine(&output, "Location", profile.Contact.Location)
	writeContactLine(&output, "LinkedIn", profile.Contact.LinkedIn)
	writeContactLine(&output, "GitHub", profile.Contact.GitHub)

	if len(profile.Skills) > 0 {
		output.WriteString("\nSkills:\n")
		for _, skill := range profile.Skills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
	}

	if len(profile.Experience) > 0 {
		output.WriteString("\nExperience:\n")
		for _, entry := range profile.Experience {
			output.WriteString(fmt.Sprintf("- %s", entry.Title))
			if entry.Organization != "" {
				output.WriteString(fmt.Sprintf(" at %s", entry.Organization))
			}
			if entry.DateRange != "" {
				output.WriteString(fmt.Sprintf(" (%s)", entry.DateRange))
			}
			output.WriteString("\n")
		}
	}

	if len(profile.Education) > 0 {
		output.WriteString("\nEducation:\n")
		for _, entry := range profile.Education {
			output.WriteString(fmt.Sprintf("- %s", entry.Degree))
			if entry.Institution != "" {
				output.WriteString(fmt.Sprintf(", %s", entry.Institution))
			}
			if entry.DateRange != "" {
				output.WriteString(fmt.Sprintf(" (%s)", entry.DateRange))
			}
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (ptf *ProfileTextFormatter) SupportedType() string {
	return "CandidateProfile"
}

// ProfileMarkdownFormatter handles markdown formatting for parsed candidate profiles
type ProfileMarkdownFormatter struct{}

func (pmf *ProfileMarkdownFormatter) Format(data any) (string, error) {
	profile, ok := data.(types.CandidateProfile)
	if !ok {
		return "", fmt.Errorf("expected CandidateProfile, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("# %s\n\n", valueOr(profile.Name, "Candidate")))
	if profile.LowConfidence {
		output.WriteString("> Little text was extracted from the document; fields may be incomplete.\n\n")
	}

	output.WriteString("## Contact\n\n")
	writeContactBullet(&output, "Email", profile.Contact.Email)
	writeContactBullet(&output, "Phone", profile.Contact.Phone)
	writeContactBullet(&output, "Location", profile.Contact.Location)
	writeContactBullet(&output, "LinkedIn", profile.Contact.LinkedIn)
	writeContactBullet(&output, "GitHub", profile.Contact.GitHub)
	output.WriteString("\n")

	if len(profile.Skills) > 0 {
		output.WriteString("## Skills\n\n")
		output.WriteString(strings.Join(profile.Skills, ", "))
		output.WriteString("\n\n")
	}

	if len(profile.Experience) > 0 {
		output.WriteString("## Experience\n\n")
		for _, entry := range profile.Experience {
			output.WriteString(fmt.Sprintf("### %s", entry.Title))
			if entry.Organization != "" {
				output.WriteString(fmt.Sprintf(" at %s", entry.Organization))
			}
			output.WriteString("\n\n")
			if entry.DateRange != "" {
				output.WriteString(fmt.Sprintf("*%s*\n\n", entry.DateRange))
			}
			if entry.Description != "" {
				output.WriteString(entry.Description)
				output.WriteString("\n\n")
			}
		}
	}

	if len(profile.Education) > 0 {
		output.WriteString("## Education\n\n")
		for _, entry := range profile.Education {
			output.WriteString(fmt.Sprintf("- %s", entry.Degree))
			if entry.Institution != "" {
				output.WriteString(fmt.Sprintf(", %s", entry.Institution))
			}
			if entry.DateRange != "" {
				output.WriteString(fmt.Sprintf(" (%s)", entry.DateRange))
			}
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (pmf *ProfileMarkdownFormatter) SupportedType() string {
	return "CandidateProfile"
}

// JobPostingTextFormatter handles text formatting for scraped job postings
type JobPostingTextFormatter struct{}

func (jtf *JobPostingTextFormatter) Format(data any) (string, error) {
	posting, ok := data.(types.JobPosting)
	if !ok {
		return "", fmt.Errorf("expected JobPosting, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== JOB POSTING ===\n\n")
	output.WriteString(fmt.Sprintf("Title: %s\n", posting.Title))
	if posting.Company != "" {
		output.WriteString(fmt.Sprintf("Company: %s\n", posting.Company))
	}
	if posting.Location != "" {
		output.WriteString(fmt.Sprintf("Location: %s\n", posting.Location))
	}
	if posting.ContactName != "" {
		output.WriteString(fmt.Sprintf("Contact: %s\n", posting.ContactName))
	}
	if posting.ContactEmail != "" {
		output.WriteString(fmt.Sprintf("Contact email: %s\n", posting.ContactEmail))
	}
	if posting.SourceURL != "" {
		output.WriteString(fmt.Sprintf("Source: %s\n", posting.SourceURL))
	}
	if posting.ManuallyFilled {
		output.WriteString("Entry: manual\n")
	}

	output.WriteString("\nDescription:\n")
	output.WriteString(posting.Description)
	output.WriteString("\n")

	if len(posting.Requirements) > 0 {
		output.WriteString("\nRequirements:\n")
		for _, req := range posting.Requirements {
			output.WriteString(fmt.Sprintf("- %s\n", req))
		}
	}

	return output.String(), nil
}

func (jtf *JobPostingTextFormatter) SupportedType() string {
	return "JobPosting"
}

// JobPostingMarkdownFormatter handles markdown formatting for scraped job postings
type JobPostingMarkdownFormatter struct{}

func (jmf *JobPostingMarkdownFormatter) Format(data any) (string, error) {
	posting, ok := data.(types.JobPosting)
	if !ok {
		return "", fmt.Errorf("expected JobPosting, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("# %s", posting.Title))
	if posting.Company != "" {
		output.WriteString(fmt.Sprintf(" at %s", posting.Company))
	}
	output.WriteString("\n\n")

	if posting.Location != "" {
		output.WriteString(fmt.Sprintf("**Location:** %s\n\n", posting.Location))
	}
	if posting.ContactName != "" || posting.ContactEmail != "" {
		output.WriteString("**Contact:** ")
		output.WriteString(strings.TrimSpace(posting.ContactName + " " + posting.ContactEmail))
		output.WriteString("\n\n")
	}
	if posting.SourceURL != "" {
		output.WriteString(fmt.Sprintf("**Source:** %s\n\n", posting.SourceURL))
	}

	output.WriteString("## Description\n\n")
	output.WriteString(posting.Description)
	output.WriteString("\n\n")

	if len(posting.Requirements) > 0 {
		output.WriteString("## Requirements\n\n")
		for _, req := range posting.Requirements {
			output.WriteString(fmt.Sprintf("- %s\n", req))
		}
	}

	return output.String(), nil
}

func (jmf *JobPostingMarkdownFormatter) SupportedType() string {
	return "JobPosting"
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func writeContactLine(output *strings.Builder, label, value string) {
	if value != "" {
		output.WriteString(fmt.Sprintf("  %s: %s\n", label, value))
	}
}

func writeContactBullet(output *strings.Builder, label, value string) {
	if value != "" {
		output.WriteString(fmt.Sprintf("- **%s:** %s\n", label, value))
	}
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()

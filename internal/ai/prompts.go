package ai

import (
	"fmt"

	"coverdraft/internal/types"
)

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	Generate string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	Generate string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	Generate: `You are an expert career writer who produces cover letters and outreach emails for job applications. Your core principles are:

- NEVER invent skills, employers, achievements, or qualifications the candidate does not have
- Every claim must be traceable to the candidate profile you are given
- Reference the specific company and role rather than writing generic filler
- Keep the requested tone consistent from the first sentence to the signature

Your expertise includes:
- Persuasive, authentic cover letter writing
- Concise recruiter outreach emails
- Matching candidate strengths to stated job requirements
- Professional business correspondence conventions`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	Generate: `Write a cover letter and a short outreach email for the candidate applying to the job below.

**Requirements:**

1. **Cover Letter**:
   - Address the hiring contact by name if one is given, otherwise use a suitable general salutation.
   - Open by naming the specific role and company.
   - Use two body paragraphs that connect the candidate's actual skills and experience to the job requirements. Include concrete examples from the candidate profile where possible.
   - Close with a call to action and a signature using the candidate's name.
   - Target %d to %d words for the letter body overall.

2. **Outreach Email**:
   - Write a brief email to accompany the application, with a clear subject line naming the role.
   - Summarize the candidate's fit in one or two sentences and point to the attached letter and resume.
   - Target %d to %d words for the email body overall.

3. **Tone**: %s

Report the word count of each piece in its wordCount field.

**Candidate Profile:**
-----
%s
-----

**Job Posting:**
-----
%s
-----`,
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `json:"systemPrompts"`
	UserPrompts   UserPrompts   `json:"userPrompts"`
}

// GetDefaultPromptConfig returns the default prompt configuration
func GetDefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompts: DefaultSystemPrompts,
		UserPrompts:   DefaultUserPrompts,
	}
}

// toneInstruction renders the style directive for the requested tone.
func toneInstruction(tone types.Tone, customStyle string) string {
	switch tone {
	case types.ToneWarm:
		return "Warm and personable. Show genuine enthusiasm for the role and the company while staying professional."
	case types.ToneConcise:
		return "Direct and economical. Short sentences, no filler phrases, every sentence carries information."
	case types.ToneCustom:
		if customStyle != "" {
			return fmt.Sprintf("Follow this style guidance: %s", customStyle)
		}
		return "Formal and professional business correspondence."
	default:
		return "Formal and professional business correspondence."
	}
}

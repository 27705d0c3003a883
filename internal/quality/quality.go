// Package quality computes heuristic scores over generated content.
// Scoring is a pure function with no failure modes: empty input
// degrades to zero scores instead of erroring.
package quality

import (
	"regexp"
	"strings"

	"coverdraft/internal/types"
)

var (
	// specific, quantified claims: "30%", "2M+", "$500", "5 years"
	specificExampleRe = regexp.MustCompile(`\b\d+(?:\.\d+)?[%+$MKk]|\$\d+|\b\d+\s+(?:years?|months?)\b`)

	wordRe     = regexp.MustCompile(`[A-Za-z0-9'+#.-]+`)
	sentenceRe = regexp.MustCompile(`[.!?]['")\]]?(\s|$)`)
)

var achievementVerbs = []string{
	"achieved", "built", "created", "delivered", "designed", "developed",
	"drove", "grew", "improved", "increased", "launched", "led", "managed",
	"optimized", "reduced", "saved", "scaled", "shipped",
}

var informalMarkers = []string{
	"hey", "gonna", "wanna", "kinda", "sorta", "awesome", "super cool",
	"totally", "lol", "btw", "stuff like that", "!!",
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "you": true,
	"our": true, "your": true, "that": true, "this": true, "will": true,
	"are": true, "have": true, "has": true, "from": true, "into": true,
	"about": true, "who": true, "what": true, "work": true, "team": true,
	"role": true, "job": true, "their": true, "they": true, "all": true,
}

// Score computes quality metrics for a generated letter and email
// against the candidate and job they were generated from.
func Score(result *types.GenerationResult, candidate types.CandidateProfile, job types.JobPosting, tone types.Tone) types.QualityMetrics {
	if result == nil {
		return types.QualityMetrics{}
	}
	text := result.Letter.Text() + "\n\n" + result.Email.Body()
	lower := strings.ToLower(text)

	return types.QualityMetrics{
		PersonalizationScore:  personalization(lower, candidate),
		CompanyAlignmentScore: companyAlignment(lower, job),
		ToneConsistencyScore:  toneConsistency(lower, tone),
		ProfessionalismScore:  professionalism(text, result),
		SpecificExamplesCount: len(specificExampleRe.FindAllString(text, -1)),
		AchievementMentions:   countAchievements(lower),
	}
}

// personalization approximates the fraction of candidate skills and
// experience keywords reflected in the text.
func personalization(lower string, candidate types.CandidateProfile) float64 {
	var terms []string
	terms = append(terms, candidate.Skills...)
	for _, exp := range candidate.Experience {
		if exp.Title != "" {
			terms = append(terms, exp.Title)
		}
		if exp.Organization != "" {
			terms = append(terms, exp.Organization)
		}
	}
	return fractionPresent(lower, terms)
}

// companyAlignment approximates the fraction of job-posting keywords
// reflected in the text.
func companyAlignment(lower string, job types.JobPosting) float64 {
	var terms []string
	if job.Company != "" {
		terms = append(terms, job.Company)
	}
	if job.Title != "" {
		terms = append(terms, job.Title)
	}
	terms = append(terms, keywords(job.Requirements, job.Description)...)
	return fractionPresent(lower, terms)
}

// keywords pulls significant words out of the requirements, falling
// back to the description when there are none.
func keywords(requirements []string, description string) []string {
	source := strings.Join(requirements, " ")
	if source == "" {
		source = description
	}
	seen := make(map[string]bool)
	var out []string
	for _, w := range wordRe.FindAllString(strings.ToLower(source), -1) {
		w = strings.Trim(w, ".-")
		if len(w) < 4 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) >= 20 {
			break
		}
	}
	return out
}

func fractionPresent(lower string, terms []string) float64 {
	if len(terms) == 0 || strings.TrimSpace(lower) == "" {
		return 0
	}
	found := 0
	for _, term := range terms {
		if strings.Contains(lower, strings.ToLower(term)) {
			found++
		}
	}
	return clamp(float64(found) / float64(len(terms)))
}

// toneConsistency starts from full marks and deducts per informal
// marker. The warm tone tolerates exclamation, the others do not.
func toneConsistency(lower string, tone types.Tone) float64 {
	if strings.TrimSpace(lower) == "" {
		return 0
	}
	score := 1.0
	for _, marker := range informalMarkers {
		score -= 0.15 * float64(strings.Count(lower, marker))
	}
	if tone != types.ToneWarm {
		score -= 0.05 * float64(strings.Count(lower, "!"))
	}
	return clamp(score)
}

// professionalism rewards complete sentences, a salutation and a
// sign-off.
func professionalism(text string, result *types.GenerationResult) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	score := 0.0

	words := len(wordRe.FindAllString(text, -1))
	sentences := len(sentenceRe.FindAllString(text, -1))
	if sentences > 0 {
		avg := float64(words) / float64(sentences)
		// complete prose runs roughly 8 to 30 words per sentence
		if avg >= 8 && avg <= 30 {
			score += 0.5
		} else {
			score += 0.25
		}
	}
	if strings.TrimSpace(result.Letter.Salutation) != "" || strings.TrimSpace(result.Email.Greeting) != "" {
		score += 0.25
	}
	if strings.TrimSpace(result.Letter.Signature) != "" || strings.TrimSpace(result.Email.Signature) != "" {
		score += 0.25
	}
	return clamp(score)
}

func countAchievements(lower string) int {
	n := 0
	for _, verb := range achievementVerbs {
		n += strings.Count(lower, verb)
	}
	return n
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

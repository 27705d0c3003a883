package ai

import (
	"fmt"
	"strings"

	"coverdraft/internal/types"
)

// countWords counts whitespace-separated tokens in rendered text.
func countWords(text string) int {
	return len(strings.Fields(text))
}

// allowedRange widens a word bound by the tolerance fraction of its width.
// A 200-300 bound with 0.5 tolerance accepts 150-350 words.
func allowedRange(bounds types.WordBounds, tolerance float64) (int, int) {
	width := float64(bounds.Max - bounds.Min)
	low := bounds.Min - int(width*tolerance)
	if low < 1 {
		low = 1
	}
	high := bounds.Max + int(width*tolerance)
	return low, high
}

// validateDraft checks a model response for missing fields and word counts
// outside the tolerated range.
func validateDraft(draft types.GeneratedDraft, req types.GenerationRequest, tolerance float64) error {
	var problems []string

	letterFields := map[string]string{
		"salutation":       draft.Letter.Salutation,
		"openingParagraph": draft.Letter.OpeningParagraph,
		"bodyParagraphOne": draft.Letter.BodyParagraphOne,
		"closingParagraph": draft.Letter.ClosingParagraph,
		"signature":        draft.Letter.Signature,
	}
	for field, value := range letterFields {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, "letter missing "+field)
		}
	}

	emailFields := map[string]string{
		"subjectLine":   draft.Email.SubjectLine,
		"greeting":      draft.Email.Greeting,
		"bodyParagraph": draft.Email.BodyParagraph,
		"signature":     draft.Email.Signature,
	}
	for field, value := range emailFields {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, "email missing "+field)
		}
	}

	if low, high := allowedRange(req.LetterBounds, tolerance); draft.Letter.WordCount < low || draft.Letter.WordCount > high {
		problems = append(problems, fmt.Sprintf("letter word count %d outside %d-%d", draft.Letter.WordCount, low, high))
	}
	if low, high := allowedRange(req.EmailBounds, tolerance); draft.Email.WordCount < low || draft.Email.WordCount > high {
		problems = append(problems, fmt.Sprintf("email word count %d outside %d-%d", draft.Email.WordCount, low, high))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

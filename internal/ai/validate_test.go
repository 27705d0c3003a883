package ai

import (
	"strings"
	"testing"

	"coverdraft/internal/types"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   \n\t ", 0},
		{"one", 1},
		{"Dear Hiring Manager,", 3},
		{"spread  across\nlines\t here", 4},
	}

	for _, tt := range tests {
		if got := countWords(tt.text); got != tt.want {
			t.Errorf("countWords(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestAllowedRange(t *testing.T) {
	tests := []struct {
		name      string
		bounds    types.WordBounds
		tolerance float64
		wantLow   int
		wantHigh  int
	}{
		{"half tolerance", types.WordBounds{Min: 200, Max: 300}, 0.5, 150, 350},
		{"zero tolerance", types.WordBounds{Min: 100, Max: 150}, 0, 100, 150},
		{"floor at one word", types.WordBounds{Min: 5, Max: 50}, 1.0, 1, 95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, high := allowedRange(tt.bounds, tt.tolerance)
			if low != tt.wantLow || high != tt.wantHigh {
				t.Errorf("allowedRange(%+v, %v) = %d-%d, want %d-%d",
					tt.bounds, tt.tolerance, low, high, tt.wantLow, tt.wantHigh)
			}
		})
	}
}

func TestValidateDraft(t *testing.T) {
	req := testRequest()

	t.Run("valid draft passes", func(t *testing.T) {
		draft := validDraft()
		draft.Letter.WordCount = countWords(draft.Letter.Text())
		draft.Email.WordCount = countWords(draft.Email.Body())

		if err := validateDraft(draft, req, 0.5); err != nil {
			t.Errorf("Expected valid draft to pass, got: %v", err)
		}
	})

	t.Run("missing salutation reported", func(t *testing.T) {
		draft := validDraft()
		draft.Letter.Salutation = "  "
		draft.Letter.WordCount = countWords(draft.Letter.Text())
		draft.Email.WordCount = countWords(draft.Email.Body())

		err := validateDraft(draft, req, 0.5)
		if err == nil {
			t.Fatal("Expected error for missing salutation")
		}
		if !strings.Contains(err.Error(), "letter missing salutation") {
			t.Errorf("Expected salutation problem in error, got: %v", err)
		}
	})

	t.Run("missing email subject reported", func(t *testing.T) {
		draft := validDraft()
		draft.Email.SubjectLine = ""
		draft.Letter.WordCount = countWords(draft.Letter.Text())
		draft.Email.WordCount = countWords(draft.Email.Body())

		err := validateDraft(draft, req, 0.5)
		if err == nil {
			t.Fatal("Expected error for missing subject line")
		}
		if !strings.Contains(err.Error(), "email missing subjectLine") {
			t.Errorf("Expected subject problem in error, got: %v", err)
		}
	})

	t.Run("letter word count out of range", func(t *testing.T) {
		draft := validDraft()
		draft.Letter.WordCount = 10
		draft.Email.WordCount = countWords(draft.Email.Body())

		err := validateDraft(draft, req, 0.5)
		if err == nil {
			t.Fatal("Expected error for short letter")
		}
		if !strings.Contains(err.Error(), "letter word count") {
			t.Errorf("Expected letter word count problem in error, got: %v", err)
		}
	})

	t.Run("tolerance admits slightly long content", func(t *testing.T) {
		draft := validDraft()
		draft.Letter.WordCount = 340 // above 300 but inside the tolerated 350
		draft.Email.WordCount = countWords(draft.Email.Body())

		if err := validateDraft(draft, req, 0.5); err != nil {
			t.Errorf("Expected tolerated word count to pass, got: %v", err)
		}
	})
}

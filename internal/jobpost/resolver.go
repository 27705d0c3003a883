// Package jobpost resolves a job source, either a listing URL or manual
// fields, into a single JobPosting shape.
//
// A failed scrape is a routine outcome that routes the caller to manual
// entry, not an anomaly. IsManualEntryRequired distinguishes that branch
// from real failures.
package jobpost

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"coverdraft/internal/errors"
	"coverdraft/internal/types"
)

// Config controls the scrape path.
type Config struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	UserAgent  string
}

// Resolver turns job sources into JobPosting records.
type Resolver struct {
	cfg    Config
	client *http.Client
	logger *errors.Logger
}

// New creates a Resolver. A nil client gets a default one bound to the
// configured timeout.
func New(cfg Config, client *http.Client, logger *errors.Logger) *Resolver {
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Resolver{cfg: cfg, client: client, logger: logger}
}

// ManualFields are job details supplied directly by the user.
type ManualFields struct {
	Title        string `json:"title"`
	Company      string `json:"company,omitempty"`
	Location     string `json:"location,omitempty"`
	Description  string `json:"description"`
	ContactName  string `json:"contactName,omitempty"`
	ContactEmail string `json:"contactEmail,omitempty"`
}

// IsManualEntryRequired reports whether err is the recoverable
// scrape-failed condition rather than a fatal error.
func IsManualEntryRequired(err error) bool {
	return errors.HasCode(err, errors.ErrCodeScrapeFailed)
}

// ValidateURL checks that raw is a fetchable http(s) job listing URL.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "job URL is empty", nil)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("not a valid job listing URL: %s", raw), err)
	}
	return nil
}

// FromManual builds a posting from user-entered fields. Only the title
// and description are required.
func (r *Resolver) FromManual(fields ManualFields) (*types.JobPosting, error) {
	var missing []string
	if strings.TrimSpace(fields.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(fields.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return nil, errors.NewValidationError(errors.ErrCodeIncompleteInput,
			fmt.Sprintf("missing required job fields: %s", strings.Join(missing, ", ")), nil).
			WithContext("missing_fields", missing)
	}

	posting := &types.JobPosting{
		Title:          strings.TrimSpace(fields.Title),
		Company:        strings.TrimSpace(fields.Company),
		Location:       strings.TrimSpace(fields.Location),
		Description:    strings.TrimSpace(fields.Description),
		ContactName:    strings.TrimSpace(fields.ContactName),
		ContactEmail:   strings.TrimSpace(fields.ContactEmail),
		ManuallyFilled: true,
	}
	finishPosting(posting)
	return posting, nil
}

// finishPosting fills the derived fields both entry paths share:
// extracted requirements, a fallback hiring contact, and a suggested
// subject line.
func finishPosting(p *types.JobPosting) {
	if len(p.Requirements) == 0 {
		p.Requirements = extractRequirements(p.Description)
	}
	if p.ContactEmail == "" {
		p.ContactEmail = fallbackContactEmail(p.Company, p.SourceURL)
	}
	if p.SubjectHint == "" {
		p.SubjectHint = suggestSubject(p.Title, p.Company)
	}
}

func suggestSubject(title, company string) string {
	if title == "" {
		return ""
	}
	if company == "" {
		return fmt.Sprintf("Application for %s position", title)
	}
	return fmt.Sprintf("Application for %s position at %s", title, company)
}

var companyCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// fallbackContactEmail guesses a hiring inbox when the page exposes no
// contact. Prefers the listing's own domain, then a domain derived
// from the company name.
func fallbackContactEmail(company, sourceURL string) string {
	if sourceURL != "" {
		if u, err := url.Parse(sourceURL); err == nil {
			host := strings.TrimPrefix(u.Hostname(), "www.")
			if host != "" && !isJobBoardHost(host) {
				return "careers@" + host
			}
		}
	}
	slug := companyCleanRe.ReplaceAllString(strings.ToLower(company), "")
	if slug == "" {
		return ""
	}
	return "careers@" + slug + ".com"
}

var jobBoardHosts = []string{"linkedin.com", "indeed.com", "glassdoor.com", "lever.co", "greenhouse.io", "workday.com"}

func isJobBoardHost(host string) bool {
	for _, b := range jobBoardHosts {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

var requirementHeadingRe = regexp.MustCompile(`(?i)^(requirements|qualifications|what you.ll need|what we.re looking for|must have)s?\b`)
var requirementBulletRe = regexp.MustCompile(`^[\s]*[-•*·▪◦]\s*`)

const maxRequirements = 10

// extractRequirements pulls bulleted lines from the requirements or
// qualifications section of a description, falling back to any
// bulleted lines when no such section exists.
func extractRequirements(description string) []string {
	lines := strings.Split(description, "\n")
	var fromSection, anyBullets []string
	inSection := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if requirementHeadingRe.MatchString(trimmed) {
			inSection = true
			continue
		}
		isBullet := requirementBulletRe.MatchString(line)
		if inSection && !isBullet && len(strings.Fields(trimmed)) <= 5 {
			// short non-bullet line reads as the next heading
			inSection = false
		}
		if !isBullet {
			continue
		}
		item := strings.TrimSpace(requirementBulletRe.ReplaceAllString(line, ""))
		if item == "" {
			continue
		}
		if inSection && len(fromSection) < maxRequirements {
			fromSection = append(fromSection, item)
		}
		if len(anyBullets) < maxRequirements {
			anyBullets = append(anyBullets, item)
		}
	}
	if len(fromSection) > 0 {
		return fromSection
	}
	return anyBullets
}

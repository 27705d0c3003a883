package jobpost

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"coverdraft/internal/errors"
	"coverdraft/internal/types"

	"github.com/PuerkitoBio/goquery"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; coverdraft/1.0)"

// maxResponseBytes caps how much listing HTML is read per fetch.
const maxResponseBytes = 4 << 20

// FromURL fetches and parses a job listing. Fetch errors are retried
// with a fixed delay up to the configured budget. Exhausted retries and
// unusable markup both surface the recoverable scrape-failed condition,
// never a fatal error; callers route it to manual entry.
func (r *Resolver) FromURL(ctx context.Context, rawURL string) (*types.JobPosting, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= r.cfg.Retries; attempt++ {
		body, retryable, err := r.fetch(ctx, rawURL)
		if err == nil {
			posting, parseErr := parseListing(body, rawURL)
			if parseErr != nil {
				return nil, parseErr
			}
			return posting, nil
		}

		lastErr = err
		if r.logger != nil {
			r.logger.Warn("job listing fetch failed",
				"url", rawURL,
				"attempt", attempt,
				"max_attempts", r.cfg.Retries,
				"error", err.Error())
		}
		if !retryable || attempt == r.cfg.Retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, scrapeFailed(rawURL, ctx.Err())
		case <-time.After(r.cfg.RetryDelay):
		}
	}
	return nil, scrapeFailed(rawURL, lastErr)
}

// fetch performs one HTTP GET. The second return reports whether the
// failure is worth another attempt.
func (r *Resolver) fetch(ctx context.Context, rawURL string) (string, bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, err
	}
	ua := r.cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("unexpected status %d fetching listing", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", true, err
	}
	return string(data), false, nil
}

func scrapeFailed(rawURL string, cause error) error {
	return errors.NewNetworkError(errors.ErrCodeScrapeFailed,
		"could not scrape job listing, manual entry required", cause).
		WithContext("url", rawURL)
}

// parseListing extracts job fields from listing HTML. A page missing a
// locatable title or description is a scrape failure.
func parseListing(html, sourceURL string) (*types.JobPosting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, scrapeFailed(sourceURL, err)
	}
	doc.Find(noiseSelector).Remove()

	posting := &types.JobPosting{
		Title:       firstMatch(doc, titleSelectors),
		Company:     firstMatch(doc, companySelectors),
		Location:    firstMatch(doc, locationSelectors),
		Description: firstBlockMatch(doc, descriptionSelectors),
		SourceURL:   sourceURL,
	}

	if posting.Title == "" || posting.Description == "" {
		return nil, errors.NewNetworkError(errors.ErrCodeScrapeFailed,
			"listing page is missing required fields, manual entry required", nil).
			WithContext("url", sourceURL).
			WithContext("found_title", posting.Title != "").
			WithContext("found_description", posting.Description != "")
	}

	finishPosting(posting)
	return posting, nil
}

// firstMatch returns the first selector's first non-empty text.
func firstMatch(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		text := cleanInline(doc.Find(sel).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// firstBlockMatch is firstMatch for multi-line content, preserving
// paragraph structure for downstream requirement extraction.
func firstBlockMatch(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		// keep list items on their own lines
		node.Find("li").Each(func(_ int, li *goquery.Selection) {
			li.PrependHtml("\n- ")
		})
		node.Find("p, br, div, h1, h2, h3, h4").Each(func(_ int, el *goquery.Selection) {
			el.AppendHtml("\n")
		})
		text := cleanBlock(node.Text())
		if text != "" {
			return text
		}
	}
	return ""
}

var inlineSpaceRe = regexp.MustCompile(`\s+`)

func cleanInline(s string) string {
	return strings.TrimSpace(inlineSpaceRe.ReplaceAllString(s, " "))
}

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

func cleanBlock(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpaceRe.ReplaceAllString(line, " "))
	}
	out := strings.Join(lines, "\n")
	out = blankLinesRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

package jobpost

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"coverdraft/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<!DOCTYPE html>
<html>
<head><title>Data Analyst - Acme</title><script>var tracking = 1;</script></head>
<body>
<nav>Jobs Home</nav>
<h1 class="top-card-layout__title">Data Analyst</h1>
<a class="topcard__org-name-link">Acme Corp</a>
<span class="topcard__flavor--bullet">Austin, TX</span>
<div class="show-more-less-html__markup">
<p>Acme Corp is hiring a Data Analyst to join our insights team.</p>
<p>Requirements</p>
<ul>
<li>3+ years with SQL</li>
<li>Experience with Python</li>
<li>Strong communication skills</li>
</ul>
</div>
<footer>About Acme</footer>
</body>
</html>`

func testResolver(t *testing.T, retries int) *Resolver {
	t.Helper()
	return New(Config{
		Timeout:    2 * time.Second,
		Retries:    retries,
		RetryDelay: 10 * time.Millisecond,
	}, nil, nil)
}

func TestFromURLScrapesListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingHTML))
	}))
	defer srv.Close()

	r := testResolver(t, 3)
	posting, err := r.FromURL(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Data Analyst", posting.Title)
	assert.Equal(t, "Acme Corp", posting.Company)
	assert.Equal(t, "Austin, TX", posting.Location)
	assert.Contains(t, posting.Description, "insights team")
	assert.NotContains(t, posting.Description, "tracking")
	assert.NotContains(t, posting.Description, "Jobs Home")
	assert.Contains(t, posting.Requirements, "3+ years with SQL")
	assert.Equal(t, srv.URL, posting.SourceURL)
	assert.False(t, posting.ManuallyFilled)
	assert.NotEmpty(t, posting.SubjectHint)
}

func TestFromURLRetriesThenRecoverable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := testResolver(t, 3)
	_, err := r.FromURL(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsManualEntryRequired(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFromURLRecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(listingHTML))
	}))
	defer srv.Close()

	r := testResolver(t, 3)
	posting, err := r.FromURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Data Analyst", posting.Title)
}

func TestFromURLClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := testResolver(t, 3)
	_, err := r.FromURL(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsManualEntryRequired(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFromURLMissingFieldsIsRecoverable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Nothing to see here</p></body></html>`))
	}))
	defer srv.Close()

	r := testResolver(t, 1)
	_, err := r.FromURL(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsManualEntryRequired(err))
}

func TestFromURLNetworkErrorIsRecoverable(t *testing.T) {
	// closed server: connection refused on every attempt
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	r := testResolver(t, 2)
	_, err := r.FromURL(context.Background(), url)
	require.Error(t, err)
	assert.True(t, IsManualEntryRequired(err))
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https listing", url: "https://www.linkedin.com/jobs/view/12345"},
		{name: "plain http", url: "http://example.com/careers/42"},
		{name: "empty", url: "", wantErr: true},
		{name: "no scheme", url: "linkedin.com/jobs/view/12345", wantErr: true},
		{name: "ftp scheme", url: "ftp://example.com/job", wantErr: true},
		{name: "not a url", url: "apply via email", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, IsManualEntryRequired(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromManual(t *testing.T) {
	r := testResolver(t, 1)

	posting, err := r.FromManual(ManualFields{
		Title:       "Software Engineer",
		Description: "Build things",
	})
	require.NoError(t, err)
	assert.Equal(t, "Software Engineer", posting.Title)
	assert.Equal(t, "Build things", posting.Description)
	assert.True(t, posting.ManuallyFilled)
	assert.Equal(t, "Application for Software Engineer position", posting.SubjectHint)
}

func TestFromManualMissingFields(t *testing.T) {
	r := testResolver(t, 1)

	tests := []struct {
		name   string
		fields ManualFields
	}{
		{name: "missing title", fields: ManualFields{Description: "Build things"}},
		{name: "missing description", fields: ManualFields{Title: "Engineer"}},
		{name: "whitespace only", fields: ManualFields{Title: "  ", Description: "\t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.FromManual(tt.fields)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeIncompleteInput))
		})
	}
}

func TestFallbackContactEmail(t *testing.T) {
	tests := []struct {
		name      string
		company   string
		sourceURL string
		want      string
	}{
		{name: "company domain from listing url", company: "Acme", sourceURL: "https://www.acme.com/jobs/1", want: "careers@acme.com"},
		{name: "job board host ignored", company: "Acme Corp", sourceURL: "https://www.linkedin.com/jobs/view/1", want: "careers@acmecorp.com"},
		{name: "company name slug", company: "Initech, Inc.", want: "careers@initechinc.com"},
		{name: "no company no url", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fallbackContactEmail(tt.company, tt.sourceURL))
		})
	}
}

func TestExtractRequirements(t *testing.T) {
	desc := "We build data tools.\n\nRequirements\n- 5 years of Go\n- SQL fluency\n\nBenefits\n- Free snacks"
	got := extractRequirements(desc)
	assert.Equal(t, []string{"5 years of Go", "SQL fluency"}, got)
}

func TestExtractRequirementsNoSectionFallsBackToBullets(t *testing.T) {
	desc := "About the role:\n- Ship features\n- Review code"
	got := extractRequirements(desc)
	assert.Equal(t, []string{"Ship features", "Review code"}, got)
}

func TestExtractRequirementsEmpty(t *testing.T) {
	assert.Empty(t, extractRequirements("A plain paragraph with no lists."))
}

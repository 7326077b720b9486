package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portfolioPage = `<html><head><title>Jeeva</title>
<style>.x{color:red}</style><script>var tracking = "should not appear anywhere in the output at all";</script></head>
<body>
<nav>Menu</nav>
<section class="about"><h2>About</h2><p>I build scalable web applications with React and Node.js for startups.</p></section>
<section class="projects"><h2>Projects</h2><p>Task manager app built with WebSocket updates and a Go backend.</p></section>
</body></html>`

func TestExtractPortfolioText_Sections(t *testing.T) {
	got, err := ExtractPortfolioText([]byte(portfolioPage))
	require.NoError(t, err)

	assert.Contains(t, got, "React and Node.js")
	assert.Contains(t, got, "WebSocket updates")
	assert.Contains(t, got, "\n\n")
	assert.NotContains(t, got, "tracking")
	assert.NotContains(t, got, "color:red")
}

func TestExtractPortfolioText_ParagraphFallback(t *testing.T) {
	page := `<html><body><div><p>Short</p><p>This paragraph is definitely long enough.</p><li>A list item that is long too</li></div></body></html>`
	got, err := ExtractPortfolioText([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "This paragraph is definitely long enough.\n\nA list item that is long too", got)
}

func TestExtractPortfolioText_Empty(t *testing.T) {
	got, err := ExtractPortfolioText([]byte(`<html><body></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPortfolioFetcher_Fetch(t *testing.T) {
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(portfolioPage))
	}))
	defer srv.Close()

	f := NewPortfolioFetcher(5 * time.Second)
	got, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, got, "React and Node.js")
	assert.Equal(t, UserAgentBot, ua.Load())
}

func TestPortfolioFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(portfolioPage))
	}))
	defer srv.Close()

	got, err := NewPortfolioFetcher(5*time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPortfolioFetcher_NotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewPortfolioFetcher(5*time.Second).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.False(t, se.Retryable())
}

func TestPortfolioFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	start := time.Now()
	_, err := NewPortfolioFetcher(100*time.Millisecond).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestIsRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		if !isRetryableStatus(code) {
			t.Errorf("isRetryableStatus(%d) = false, want true", code)
		}
	}
	for _, code := range []int{200, 301, 400, 403, 404} {
		if isRetryableStatus(code) {
			t.Errorf("isRetryableStatus(%d) = true, want false", code)
		}
	}
}

func TestExtractPortfolioText_MarkdownFallback(t *testing.T) {
	page := `<html><body><div>Tiny <b>bold</b></div></body></html>`
	got, err := ExtractPortfolioText([]byte(page))
	require.NoError(t, err)
	assert.True(t, strings.Contains(got, "Tiny") && strings.Contains(got, "bold"), got)
}

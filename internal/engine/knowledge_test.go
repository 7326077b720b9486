package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu   sync.Mutex
	text string
	err  error
	urls []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return f.text, f.err
}

type stubPDF struct {
	text string
	err  error
}

func (p stubPDF) Extract(context.Context, []byte) (string, error) { return p.text, p.err }

// newSampleStore returns a store that always falls back to sample data.
func newSampleStore(t *testing.T) *KnowledgeStore {
	t.Helper()
	return NewKnowledgeStore(KnowledgeConfig{
		ResumePath: filepath.Join(t.TempDir(), "missing.pdf"),
		Fetcher:    &stubFetcher{err: errors.New("offline")},
	})
}

func TestContextFor_NotInitialized(t *testing.T) {
	k := newSampleStore(t)
	assert.Equal(t, "Knowledge base not yet initialized.", k.ContextFor("what are your skills?"))
	assert.False(t, k.Initialized())
	assert.Empty(t, k.Facts().Skills)
}

func TestInitialize_SampleFallback(t *testing.T) {
	k := newSampleStore(t)
	k.Initialize(context.Background())

	require.True(t, k.Initialized())
	doc := k.Document()
	assert.Equal(t, SampleResume, doc.ResumeText)
	assert.Equal(t, "sample", doc.ResumeSource)
	assert.Equal(t, SamplePortfolio, doc.PortfolioText)
	assert.Equal(t, "sample", doc.PortfolioSource)
	assert.Contains(t, doc.Skills, "React")
	assert.Contains(t, doc.Skills, "Node.js")
	assert.False(t, doc.LoadedAt.IsZero())
}

func TestContextFor_Skills(t *testing.T) {
	k := newSampleStore(t)
	k.Initialize(context.Background())

	got := k.ContextFor("what are your skills?")
	want := "Skills: " + strings.Join(k.Facts().Skills, ", ")
	assert.True(t, strings.HasPrefix(got, want), "ContextFor() = %q", got)
}

func TestContextFor_NoKeywordSummary(t *testing.T) {
	k := newSampleStore(t)
	k.Initialize(context.Background())

	got := k.ContextFor("hello there")
	assert.True(t, strings.HasPrefix(got, "Resume Summary: "), "got %q", got)
	assert.Contains(t, got, "\n\nPortfolio Summary: ")
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestInitialize_FileAndWeb(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))

	fetcher := &stubFetcher{text: "I design systems in Go and deploy them with Docker."}
	k := NewKnowledgeStore(KnowledgeConfig{
		ResumePath:   path,
		PortfolioURL: "https://example.com",
		PDF:          stubPDF{text: "Senior engineer skilled in Python and PostgreSQL."},
		Fetcher:      fetcher,
	})
	k.Initialize(context.Background())

	doc := k.Document()
	assert.Equal(t, "file", doc.ResumeSource)
	assert.Equal(t, "web", doc.PortfolioSource)
	assert.Equal(t, []string{"Python", "PostgreSQL", "Docker"}, doc.Skills)
	assert.Equal(t, []string{"https://example.com"}, fetcher.urls)
}

func TestInitialize_PDFErrorUsesSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	k := NewKnowledgeStore(KnowledgeConfig{
		ResumePath: path,
		PDF:        stubPDF{err: errors.New("corrupt")},
		Fetcher:    &stubFetcher{text: "portfolio"},
	})
	k.Initialize(context.Background())
	assert.Equal(t, "sample", k.Document().ResumeSource)
	assert.Equal(t, "web", k.Document().PortfolioSource)
}

func TestSetPortfolioURL(t *testing.T) {
	fetcher := &stubFetcher{text: "x"}
	k := NewKnowledgeStore(KnowledgeConfig{
		ResumePath: filepath.Join(t.TempDir(), "missing.pdf"),
		Fetcher:    fetcher,
	})
	assert.Equal(t, DefaultPortfolioURL, k.PortfolioURL())

	k.SetPortfolioURL("https://new.example")
	k.Initialize(context.Background())
	assert.Equal(t, "https://new.example", k.Status().PortfolioURL)
	assert.Equal(t, []string{"https://new.example"}, fetcher.urls)
}

func TestReinitialize_ConcurrentReaders(t *testing.T) {
	k := newSampleStore(t)
	k.Initialize(context.Background())

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				if got := k.ContextFor("skills"); !strings.HasPrefix(got, "Skills: ") {
					t.Errorf("ContextFor() = %q", got)
					return
				}
			}
		}()
	}
	for range 3 {
		k.Initialize(context.Background())
	}
	wg.Wait()
}

func TestStatus(t *testing.T) {
	k := newSampleStore(t)
	st := k.Status()
	assert.False(t, st.Initialized)

	k.Initialize(context.Background())
	st = k.Status()
	assert.True(t, st.Initialized)
	assert.True(t, st.HasResume)
	assert.True(t, st.HasPortfolio)
	assert.Equal(t, len(k.Facts().Skills), st.SkillsCount)
}

func TestReloadIfResumeChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 first"), 0o644))
	f := &stubFetcher{text: "portfolio text"}
	k := NewKnowledgeStore(KnowledgeConfig{
		ResumePath: path,
		Fetcher:    f,
		PDF:        stubPDF{text: "React developer"},
	})
	ctx := context.Background()

	assert.True(t, k.ReloadIfResumeChanged(ctx), "first load always runs")
	assert.Len(t, f.urls, 1)

	assert.False(t, k.ReloadIfResumeChanged(ctx), "same bytes must not reload")
	assert.Len(t, f.urls, 1)

	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 second"), 0o644))
	assert.True(t, k.ReloadIfResumeChanged(ctx))
	assert.Len(t, f.urls, 2)
	assert.NotEmpty(t, k.Document().ResumeDigest)

	k.Initialize(ctx)
	assert.False(t, k.ReloadIfResumeChanged(ctx), "an explicit reload already picked up the file")
	assert.Len(t, f.urls, 3)
}

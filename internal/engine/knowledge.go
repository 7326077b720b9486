package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// NotInitializedContext is returned by ContextFor before the first load completes.
const NotInitializedContext = "Knowledge base not yet initialized."

const summaryRunes = 1000

var (
	skillKeywords      = []string{"skill", "technology", "tech"}
	projectKeywords    = []string{"project", "work", "portfolio"}
	experienceKeywords = []string{"experience", "background", "career"}
)

// KnowledgeConfig wires a KnowledgeStore. Nil collaborators get defaults.
type KnowledgeConfig struct {
	ResumePath   string
	PortfolioURL string
	PDF          PDFExtractor
	Fetcher      PortfolioFetcher
	Deriver      FactDeriver
}

// KnowledgeStore owns the knowledge document and answers context lookups.
//
// Every Initialize builds a complete new document and publishes it with a
// single atomic store, so readers never see a half-reloaded document.
// Reloads themselves are serialized.
type KnowledgeStore struct {
	resumePath string
	pdf        PDFExtractor
	fetcher    PortfolioFetcher
	deriver    FactDeriver

	reloadMu sync.Mutex
	urlMu    sync.RWMutex
	url      string

	doc atomic.Pointer[KnowledgeDocument]
}

// NewKnowledgeStore creates an uninitialized store.
func NewKnowledgeStore(c KnowledgeConfig) *KnowledgeStore {
	k := &KnowledgeStore{
		resumePath: c.ResumePath,
		pdf:        c.PDF,
		fetcher:    c.Fetcher,
		deriver:    c.Deriver,
		url:        c.PortfolioURL,
	}
	if k.resumePath == "" {
		k.resumePath = "data/resume.pdf"
	}
	if k.pdf == nil {
		k.pdf = PlainTextPDF{}
	}
	if k.fetcher == nil {
		k.fetcher = NewPortfolioFetcher(10 * time.Second)
	}
	if k.deriver == nil {
		k.deriver = NewRegexDeriver()
	}
	return k
}

// ResumePath returns where the resume PDF is read from.
func (k *KnowledgeStore) ResumePath() string { return k.resumePath }

// PortfolioURL returns the configured portfolio URL, or the default.
func (k *KnowledgeStore) PortfolioURL() string {
	k.urlMu.RLock()
	defer k.urlMu.RUnlock()
	if k.url == "" {
		return DefaultPortfolioURL
	}
	return k.url
}

// SetPortfolioURL overrides the portfolio URL for subsequent loads.
func (k *KnowledgeStore) SetPortfolioURL(u string) {
	k.urlMu.Lock()
	k.url = u
	k.urlMu.Unlock()
}

// Initialize (re)loads resume and portfolio text and derives facts.
// Load failures fall back to sample data; even an unexpected panic leaves
// the store initialized with whatever was loaded so far.
func (k *KnowledgeStore) Initialize(ctx context.Context) {
	k.reloadMu.Lock()
	defer k.reloadMu.Unlock()
	k.initialize(ctx)
}

// ReloadIfResumeChanged reinitializes only when the resume file's content
// differs from the one behind the current document. It reports whether a
// reload happened. A reload already in flight is waited for first, so a
// change it picked up is not loaded twice.
func (k *KnowledgeStore) ReloadIfResumeChanged(ctx context.Context) bool {
	k.reloadMu.Lock()
	defer k.reloadMu.Unlock()

	if doc := k.doc.Load(); doc != nil && doc.ResumeDigest == k.resumeDigest() {
		return false
	}
	k.initialize(ctx)
	return true
}

func (k *KnowledgeStore) resumeDigest() string {
	data, err := os.ReadFile(k.resumePath)
	if err != nil {
		return ""
	}
	return digest(data)
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (k *KnowledgeStore) initialize(ctx context.Context) {
	start := time.Now()
	doc := &KnowledgeDocument{PortfolioURL: k.PortfolioURL()}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("knowledge: initialize panicked, keeping partial data", slog.Any("panic", r))
		}
		doc.LoadedAt = time.Now()
		k.doc.Store(doc)
		metrics.KnowledgeReloads.Add(1)
		slog.Info("knowledge: initialized",
			slog.String("resume", doc.ResumeSource),
			slog.String("portfolio", doc.PortfolioSource),
			slog.Int("skills", len(doc.Skills)),
			slog.Int("projects", len(doc.Projects)),
			slog.Int("experience", len(doc.Experience)),
			slog.Duration("elapsed", time.Since(start)),
		)
	}()

	doc.ResumeText, doc.ResumeSource, doc.ResumeDigest = k.loadResume(ctx)
	doc.PortfolioText, doc.PortfolioSource = k.loadPortfolio(ctx, doc.PortfolioURL)
	doc.KnowledgeFacts = k.deriver.DeriveFacts(doc.ResumeText + " " + doc.PortfolioText)
}

// loadResume returns the resume text, its source and the digest of the
// bytes read.
func (k *KnowledgeStore) loadResume(ctx context.Context) (string, string, string) {
	data, err := os.ReadFile(k.resumePath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("knowledge: no resume file, using sample data", slog.String("path", k.resumePath))
		return SampleResume, "sample", ""
	}
	if err != nil {
		slog.Warn("knowledge: resume unavailable, using sample data",
			slog.Any("error", &RetrievalError{Source: "resume", Err: err}))
		return SampleResume, "sample", ""
	}

	sum := digest(data)
	text, err := k.pdf.Extract(ctx, data)
	if err != nil {
		slog.Warn("knowledge: resume extraction failed, using sample data",
			slog.Any("error", &RetrievalError{Source: "resume", Err: err}))
		return SampleResume, "sample", sum
	}
	return text, "file", sum
}

func (k *KnowledgeStore) loadPortfolio(ctx context.Context, url string) (string, string) {
	text, err := k.fetcher.Fetch(ctx, url)
	if err != nil {
		slog.Warn("knowledge: portfolio scrape failed, using sample data",
			slog.String("url", url),
			slog.Any("error", &RetrievalError{Source: "portfolio", Err: err}))
		return SamplePortfolio, "sample"
	}
	return text, "web"
}

// Initialized reports whether at least one load has completed.
func (k *KnowledgeStore) Initialized() bool {
	return k.doc.Load() != nil
}

// Document returns the current document, or nil before the first load.
// The returned value must not be modified.
func (k *KnowledgeStore) Document() *KnowledgeDocument {
	return k.doc.Load()
}

// Facts returns the derived facts of the current document.
func (k *KnowledgeStore) Facts() KnowledgeFacts {
	if doc := k.doc.Load(); doc != nil {
		return doc.KnowledgeFacts
	}
	return KnowledgeFacts{}
}

// ContextFor assembles the knowledge context relevant to query. Keyword
// families are matched by substring and all matching blocks are included;
// with no match a summary of both sources is returned instead.
func (k *KnowledgeStore) ContextFor(query string) string {
	doc := k.doc.Load()
	if doc == nil {
		return NotInitializedContext
	}

	q := strings.ToLower(query)
	var sb strings.Builder

	if containsAny(q, skillKeywords) {
		sb.WriteString("Skills: " + strings.Join(doc.Skills, ", ") + "\n\n")
	}
	if containsAny(q, projectKeywords) && len(doc.Projects) > 0 {
		sb.WriteString("Projects:\n" + strings.Join(doc.Projects, "\n\n") + "\n\n")
	}
	if containsAny(q, experienceKeywords) && len(doc.Experience) > 0 {
		sb.WriteString("Experience:\n" + strings.Join(doc.Experience, "\n\n") + "\n\n")
	}

	if sb.Len() == 0 {
		resume := TruncateRunes(Clean(doc.ResumeText), summaryRunes, "")
		portfolio := TruncateRunes(Clean(doc.PortfolioText), summaryRunes, "")
		sb.WriteString("Resume Summary: " + resume + "...\n\n")
		sb.WriteString("Portfolio Summary: " + portfolio + "...")
	}
	return sb.String()
}

// Status summarises the current document.
func (k *KnowledgeStore) Status() KnowledgeStatus {
	doc := k.doc.Load()
	if doc == nil {
		return KnowledgeStatus{PortfolioURL: k.PortfolioURL()}
	}
	return KnowledgeStatus{
		Initialized:     true,
		HasResume:       doc.ResumeText != "",
		HasPortfolio:    doc.PortfolioText != "",
		ResumeSource:    doc.ResumeSource,
		PortfolioSource: doc.PortfolioSource,
		PortfolioURL:    doc.PortfolioURL,
		SkillsCount:     len(doc.Skills),
		ProjectsCount:   len(doc.Projects),
		ExperienceCount: len(doc.Experience),
		LoadedAt:        doc.LoadedAt,
	}
}

package engine

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// DefaultPortfolioURL is scraped when no portfolio URL is configured.
const DefaultPortfolioURL = "https://jeeva-portfolio-gamma.vercel.app"

const (
	contentSelectors  = "main, .content, .portfolio, .about, .projects, .skills, section, article"
	fallbackSelectors = "p, h1, h2, h3, h4, h5, h6, li"
)

// PortfolioFetcher downloads a portfolio page and returns its visible text.
type PortfolioFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPPortfolioFetcher scrapes a live page over HTTP.
type HTTPPortfolioFetcher struct {
	client    *http.Client
	timeout   time.Duration
	retryBase time.Duration
	userAgent string
}

// NewPortfolioFetcher builds a fetcher whose whole fetch (retries included)
// is bounded by timeout.
func NewPortfolioFetcher(timeout time.Duration) *HTTPPortfolioFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPPortfolioFetcher{
		client:    newFetchClient(),
		timeout:   timeout,
		retryBase: 500 * time.Millisecond,
		userAgent: UserAgentBot,
	}
}

// Fetch implements PortfolioFetcher.
func (f *HTTPPortfolioFetcher) Fetch(ctx context.Context, rawURL string) (text string, err error) {
	metrics.FetchRequests.Add(1)
	defer func() {
		if err != nil {
			metrics.FetchErrors.Add(1)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, err := f.download(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return ExtractPortfolioText(body)
}

// ExtractPortfolioText pulls visible text out of a portfolio page.
// Content-bearing containers are preferred; if none carry enough text,
// paragraphs, headings and list items are used; as a last resort the body
// is converted to markdown. Blocks are joined with blank lines.
func ExtractPortfolioText(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style").Remove()

	blocks := collectBlocks(doc.Selection, contentSelectors, 50)
	if len(blocks) == 0 {
		blocks = collectBlocks(doc.Find("body"), fallbackSelectors, 20)
	}
	if len(blocks) == 0 {
		if text := bodyAsMarkdown(doc); text != "" {
			blocks = append(blocks, text)
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

func collectBlocks(root *goquery.Selection, selectors string, minRunes int) []string {
	var blocks []string
	root.Find(selectors).Each(func(_ int, s *goquery.Selection) {
		text := Clean(s.Text())
		if utf8.RuneCountInString(text) > minRunes {
			blocks = append(blocks, text)
		}
	})
	return blocks
}

func bodyAsMarkdown(doc *goquery.Document) string {
	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return ""
	}
	return Clean(md)
}

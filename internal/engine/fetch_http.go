package engine

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	maxPortfolioBytes = 5 << 20
	maxRedirects      = 5
	fetchAttempts     = 3
)

// StatusError is returned when the portfolio host answers with a non-200 status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", e.URL, e.Code)
}

// Retryable reports whether another attempt might succeed.
func (e *StatusError) Retryable() bool { return isRetryableStatus(e.Code) }

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func newFetchClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
			DisableCompression:  true,
		},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("portfolio redirected more than %d times", maxRedirects)
			}
			return nil
		},
	}
}

// download GETs rawURL and returns the decoded body. Transient statuses and
// truncated bodies are retried with exponential backoff; everything else
// fails on the first attempt.
func (f *HTTPPortfolioFetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		body, err := f.get(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		var se *StatusError
		if errors.As(err, &se) && se.Retryable() {
			return nil, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.retryBase
	bo.MaxInterval = 6 * f.retryBase

	body, err := backoff.Retry(ctx, op, backoff.WithBackOff(bo), backoff.WithMaxTries(fetchAttempts))
	if err != nil {
		return nil, fmt.Errorf("after %d attempt(s): %w", attempt, err)
	}
	return body, nil
}

func (f *HTTPPortfolioFetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	var r io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(io.LimitReader(r, maxPortfolioBytes))
}

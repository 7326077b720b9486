package chatserver

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_alfred/internal/toolutil"
)

const limiterIdle = 10 * time.Minute

// IPLimiter is a per-client token bucket.
type IPLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
	trusted bool
	now     func() time.Time
}

type clientLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewIPLimiter allows rps requests per second with the given burst per IP.
// rps <= 0 disables limiting. X-Forwarded-For is only read when trustProxy
// is set, i.e. the server sits behind a proxy that appends to that header.
func NewIPLimiter(rps float64, burst int, trustProxy bool) *IPLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
		trusted: trustProxy,
		now:     time.Now,
	}
}

// Allow reports whether key may make another request now.
func (l *IPLimiter) Allow(key string) bool {
	if l == nil || l.rps <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{lim: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.seen = l.now()
	return c.lim.AllowN(c.seen, 1)
}

// Cleanup drops clients not seen for limiterIdle. Returns how many were dropped.
func (l *IPLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-limiterIdle)
	n := 0
	for k, c := range l.clients {
		if c.seen.Before(cutoff) {
			delete(l.clients, k)
			n++
		}
	}
	return n
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (l *IPLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Cleanup()
		}
	}
}

// Middleware rejects over-limit requests with 429.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(l.ClientKey(r)) {
			toolutil.WriteError(w, http.StatusTooManyRequests, "Too many requests, please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientKey identifies the caller of r for limiting and logging.
func (l *IPLimiter) ClientKey(r *http.Request) string {
	if l != nil && l.trusted {
		if ip := forwardedFor(r); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// forwardedFor returns the rightmost X-Forwarded-For entry, the one written
// by the nearest proxy. Entries to its left are client-supplied.
func forwardedFor(r *http.Request) string {
	xff := r.Header.Values("X-Forwarded-For")
	if len(xff) == 0 {
		return ""
	}
	last := xff[len(xff)-1]
	if i := strings.LastIndexByte(last, ','); i >= 0 {
		last = last[i+1:]
	}
	return strings.TrimSpace(last)
}

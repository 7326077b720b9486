package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// MaxStoredTurns caps each session's log; the oldest turns go first.
	MaxStoredTurns = 20
	// PromptTurns is how many trailing turns are sent with a prompt.
	PromptTurns = 10
)

// SessionHistory stores the ordered turn log of each chat session.
type SessionHistory interface {
	// Append adds turns in order, creating the session if needed.
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	// RecentTurns returns up to n trailing turns, oldest first.
	RecentTurns(ctx context.Context, sessionID string, n int) ([]Turn, error)
	// Clear forgets a session. Clearing an unknown session is a no-op.
	Clear(ctx context.Context, sessionID string) error
}

// MemoryHistory keeps session logs in process memory.
// Sessions idle for longer than idleTTL are dropped by Sweep.
type MemoryHistory struct {
	mu       sync.Mutex
	sessions map[string]*sessionLog
	idleTTL  time.Duration
	now      func() time.Time
}

type sessionLog struct {
	turns   []Turn
	touched time.Time
}

// NewMemoryHistory creates an empty history. idleTTL <= 0 disables expiry.
func NewMemoryHistory(idleTTL time.Duration) *MemoryHistory {
	return &MemoryHistory{
		sessions: make(map[string]*sessionLog),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func (h *MemoryHistory) Append(_ context.Context, sessionID string, turns ...Turn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	log, ok := h.sessions[sessionID]
	if !ok {
		log = &sessionLog{}
		h.sessions[sessionID] = log
	}
	log.turns = append(log.turns, turns...)
	if over := len(log.turns) - MaxStoredTurns; over > 0 {
		kept := make([]Turn, MaxStoredTurns)
		copy(kept, log.turns[over:])
		log.turns = kept
	}
	log.touched = h.now()
	return nil
}

func (h *MemoryHistory) RecentTurns(_ context.Context, sessionID string, n int) ([]Turn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log, ok := h.sessions[sessionID]
	if !ok || n <= 0 {
		return []Turn{}, nil
	}
	start := max(len(log.turns)-n, 0)
	out := make([]Turn, len(log.turns)-start)
	copy(out, log.turns[start:])
	return out, nil
}

func (h *MemoryHistory) Clear(_ context.Context, sessionID string) error {
	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()
	return nil
}

// Len returns the number of live sessions.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Sweep drops sessions not touched within idleTTL and returns how many.
func (h *MemoryHistory) Sweep() int {
	if h.idleTTL <= 0 {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := h.now().Add(-h.idleTTL)
	removed := 0
	for id, log := range h.sessions {
		if log.touched.Before(cutoff) {
			delete(h.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (h *MemoryHistory) RunSweeper(ctx context.Context, interval time.Duration) {
	if h.idleTTL <= 0 {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.Sweep(); n > 0 {
				slog.Debug("history: expired idle sessions", slog.Int("removed", n))
			}
		}
	}
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	ChatRequests     atomic.Int64
	ChatErrors       atomic.Int64
	LLMCalls         atomic.Int64
	LLMErrors        atomic.Int64
	FallbackAnswers  atomic.Int64
	FetchRequests    atomic.Int64
	FetchErrors      atomic.Int64
	PDFExtractions   atomic.Int64
	PDFErrors        atomic.Int64
	KnowledgeReloads atomic.Int64
	SessionsCleared  atomic.Int64
}

var metricKeys = []string{
	"chat_requests", "chat_errors",
	"llm_calls", "llm_errors", "fallback_answers",
	"fetch_requests", "fetch_errors",
	"pdf_extractions", "pdf_errors",
	"knowledge_reloads", "sessions_cleared",
}

// GetMetrics returns a snapshot of all counters.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"chat_requests":     metrics.ChatRequests.Load(),
		"chat_errors":       metrics.ChatErrors.Load(),
		"llm_calls":         metrics.LLMCalls.Load(),
		"llm_errors":        metrics.LLMErrors.Load(),
		"fallback_answers":  metrics.FallbackAnswers.Load(),
		"fetch_requests":    metrics.FetchRequests.Load(),
		"fetch_errors":      metrics.FetchErrors.Load(),
		"pdf_extractions":   metrics.PDFExtractions.Load(),
		"pdf_errors":        metrics.PDFErrors.Load(),
		"knowledge_reloads": metrics.KnowledgeReloads.Load(),
		"sessions_cleared":  metrics.SessionsCleared.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}

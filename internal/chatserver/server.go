// Package chatserver exposes the chat engine over HTTP, WebSocket and MCP,
// plus the JWT-protected admin API.
package chatserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go_alfred/internal/engine"
	"github.com/anatolykoptev/go_alfred/internal/storage"
	"github.com/anatolykoptev/go_alfred/internal/toolutil"
)

// GenericErrorMessage is the only failure text a visitor ever sees.
const GenericErrorMessage = "Sorry, I encountered an error. Please try again."

const archiveTimeout = 3 * time.Second

// TranscriptArchive stores completed turns. Optional.
type TranscriptArchive interface {
	Record(ctx context.Context, e storage.Exchange) error
	List(ctx context.Context, sessionID string, limit int) ([]storage.Exchange, error)
}

// Deps wires a Server.
type Deps struct {
	Generator   *engine.Generator
	Settings    *storage.Settings
	Transcripts TranscriptArchive // nil = archive disabled
	Auth        *Auth
	Limiter     *IPLimiter
	ResumePath  string
	Persona     engine.Persona
}

// Server serves the chat widget API.
type Server struct {
	gen         *engine.Generator
	settings    *storage.Settings
	transcripts TranscriptArchive
	auth        *Auth
	limiter     *IPLimiter
	resumePath  string
	persona     engine.Persona
}

func New(d Deps) *Server {
	return &Server{
		gen:         d.Generator,
		settings:    d.Settings,
		transcripts: d.Transcripts,
		auth:        d.Auth,
		limiter:     d.Limiter,
		resumePath:  d.ResumePath,
		persona:     d.Persona,
	}
}

// Handler returns the routed, middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, engine.FormatMetrics())
	})

	mux.Handle("POST /api/chat/message", s.limiter.Middleware(http.HandlerFunc(s.handleChatMessage)))
	mux.HandleFunc("POST /api/chat/clear", s.handleChatClear)
	mux.HandleFunc("GET /api/chat/settings", s.handlePublicSettings)
	mux.HandleFunc("GET /ws", s.handleSocket)

	mux.HandleFunc("POST /api/admin/login", s.handleLogin)
	admin := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.auth.Require(h))
	}
	admin("POST /api/admin/upload-resume", s.handleUploadResume)
	admin("POST /api/admin/set-portfolio-url", s.handleSetPortfolioURL)
	admin("GET /api/admin/status", s.handleStatus)
	admin("POST /api/admin/reinitialize", s.handleReinitialize)
	admin("GET /api/admin/settings", s.handleGetSettings)
	admin("POST /api/admin/update-settings", s.handleUpdateSettings)
	admin("GET /api/admin/transcripts", s.handleTranscripts)

	return recoverMiddleware(logMiddleware(corsMiddleware(mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	toolutil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"mode":        s.gen.Mode().String(),
		"initialized": s.gen.Knowledge().Initialized(),
	})
}

// archive records a finished turn off the request path.
func (s *Server) archive(sessionID, message string, reply engine.Reply) {
	if s.transcripts == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		err := s.transcripts.Record(ctx, storage.Exchange{
			SessionID:   sessionID,
			UserMessage: message,
			Reply:       reply.Content,
			Mode:        reply.Mode.String(),
		})
		if err != nil {
			slog.Warn("transcript archive failed", slog.String("session", sessionID), slog.Any("error", err))
		}
	}()
}

// --- middleware ---

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if r.URL.Path == "/health" {
			return
		}
		slog.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				slog.Error("http handler panicked", slog.String("path", r.URL.Path), slog.Any("panic", v))
				toolutil.WriteJSON(w, http.StatusInternalServerError, map[string]string{
					"error":   "Internal server error",
					"message": GenericErrorMessage,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

package chatserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/anatolykoptev/go_alfred/internal/engine"
	"github.com/anatolykoptev/go_alfred/internal/toolutil"
)

const (
	maxResumeBytes      = 10 << 20
	maxPersonalityRunes = 64
	maxWelcomeRunes     = 500
)

var pdfMagic = []byte("%PDF-")

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := toolutil.DecodeJSON[struct {
		Password string `json:"password"`
	}](w, r)
	if n := utf8.RuneCountInString(req.Password); err != nil || n < minPassword || n > maxPassword {
		toolutil.WriteError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	token, err := s.auth.Login(req.Password)
	switch {
	case errors.Is(err, ErrAdminDisabled):
		toolutil.WriteError(w, http.StatusServiceUnavailable, "Admin API disabled")
		return
	case errors.Is(err, ErrInvalidPassword):
		slog.Warn("admin login failed", slog.String("ip", s.limiter.ClientKey(r)))
		toolutil.WriteError(w, http.StatusUnauthorized, "Invalid password")
		return
	case err != nil:
		slog.Error("admin login: sign token", slog.Any("error", err))
		toolutil.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	toolutil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
}

func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxResumeBytes+(1<<20))
	if err := r.ParseMultipartForm(maxResumeBytes); err != nil {
		toolutil.WriteError(w, http.StatusBadRequest, "Upload too large or malformed (max 10MB)")
		return
	}
	file, hdr, err := r.FormFile("resume")
	if err != nil {
		toolutil.WriteError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()
	if hdr.Size > maxResumeBytes {
		toolutil.WriteError(w, http.StatusBadRequest, "File too large (max 10MB)")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxResumeBytes+1))
	if err != nil || len(data) > maxResumeBytes {
		toolutil.WriteError(w, http.StatusBadRequest, "Could not read upload")
		return
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		toolutil.WriteError(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}
	if err := writeFileAtomic(s.resumePath, data); err != nil {
		slog.Error("admin: store resume", slog.Any("error", err))
		toolutil.WriteError(w, http.StatusInternalServerError, "Failed to upload resume")
		return
	}
	slog.Info("admin: resume uploaded", slog.String("name", hdr.Filename), slog.Int("bytes", len(data)))

	s.gen.ReinitializeKnowledge(context.WithoutCancel(r.Context()))
	toolutil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Resume uploaded and knowledge base updated",
		"status":  s.gen.Knowledge().Status(),
	})
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*.pdf")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ValidPortfolioURL accepts absolute http(s) URLs with a host.
func ValidPortfolioURL(raw string) error {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func (s *Server) handleSetPortfolioURL(w http.ResponseWriter, r *http.Request) {
	req, err := toolutil.DecodeJSON[struct {
		URL string `json:"url"`
	}](w, r)
	if err != nil || strings.TrimSpace(req.URL) == "" {
		toolutil.WriteError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if err := ValidPortfolioURL(req.URL); err != nil {
		toolutil.WriteError(w, http.StatusBadRequest, "Invalid URL format")
		return
	}
	u := strings.TrimSpace(req.URL)
	if s.settings != nil {
		if err := s.settings.SetPortfolioURL(r.Context(), u); err != nil {
			slog.Error("admin: persist portfolio url", slog.Any("error", err))
			toolutil.WriteError(w, http.StatusInternalServerError, "Failed to update portfolio URL")
			return
		}
	}
	s.gen.Knowledge().SetPortfolioURL(u)
	s.gen.ReinitializeKnowledge(context.WithoutCancel(r.Context()))
	toolutil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Portfolio URL updated and knowledge base refreshed",
		"url":     u,
	})
}

type adminStatus struct {
	engine.KnowledgeStatus
	Mode string `json:"mode"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	toolutil.WriteJSON(w, http.StatusOK, adminStatus{
		KnowledgeStatus: s.gen.Knowledge().Status(),
		Mode:            s.gen.Mode().String(),
	})
}

func (s *Server) handleReinitialize(w http.ResponseWriter, r *http.Request) {
	s.gen.ReinitializeKnowledge(context.WithoutCancel(r.Context()))
	toolutil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Knowledge base reinitialized",
		"status":  s.gen.Knowledge().Status(),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	toolutil.WriteJSON(w, http.StatusOK, s.widget(r.Context()))
}

type settingsUpdate struct {
	VoiceEnabled   *bool   `json:"voiceEnabled"`
	Personality    *string `json:"personality"`
	WelcomeMessage *string `json:"welcomeMessage"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		toolutil.WriteError(w, http.StatusServiceUnavailable, "Settings store unavailable")
		return
	}
	req, err := toolutil.DecodeJSON[settingsUpdate](w, r)
	if err != nil {
		toolutil.WriteError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	ws := s.widget(r.Context())
	if req.VoiceEnabled != nil {
		ws.VoiceEnabled = *req.VoiceEnabled
	}
	if req.Personality != nil {
		p := strings.TrimSpace(*req.Personality)
		if p == "" || utf8.RuneCountInString(p) > maxPersonalityRunes {
			toolutil.WriteError(w, http.StatusBadRequest, "Invalid personality")
			return
		}
		ws.Personality = p
	}
	if req.WelcomeMessage != nil {
		m := strings.TrimSpace(*req.WelcomeMessage)
		if m == "" || utf8.RuneCountInString(m) > maxWelcomeRunes {
			toolutil.WriteError(w, http.StatusBadRequest, "Invalid welcome message")
			return
		}
		ws.WelcomeMessage = m
	}
	if err := s.settings.SaveWidget(r.Context(), ws); err != nil {
		slog.Error("admin: save settings", slog.Any("error", err))
		toolutil.WriteError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}
	toolutil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "settings": ws})
}

func (s *Server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	if s.transcripts == nil {
		toolutil.WriteError(w, http.StatusNotFound, "Transcript archive disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := s.transcripts.List(r.Context(), r.URL.Query().Get("sessionId"), limit)
	if err != nil {
		slog.Error("admin: list transcripts", slog.Any("error", err))
		toolutil.WriteError(w, http.StatusInternalServerError, "Failed to list transcripts")
		return
	}
	toolutil.WriteJSON(w, http.StatusOK, map[string]any{"transcripts": items, "total": len(items)})
}

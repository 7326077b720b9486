package chatserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/anatolykoptev/go_alfred/internal/storage"
	"github.com/anatolykoptev/go_alfred/internal/toolutil"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	req, err := toolutil.DecodeJSON[chatRequest](w, r)
	if err != nil {
		toolutil.WriteError(w, http.StatusBadRequest, "Message and sessionId are required")
		return
	}
	if err := toolutil.ValidateChat(req.Message, req.SessionID); err != nil {
		toolutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := s.gen.ProcessMessage(r.Context(), req.Message, req.SessionID)
	if err != nil {
		slog.Error("chat: process message failed", slog.String("session", req.SessionID), slog.Any("error", err))
		toolutil.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to process message",
			"message": GenericErrorMessage,
		})
		return
	}
	s.archive(req.SessionID, req.Message, reply)
	toolutil.WriteJSON(w, http.StatusOK, reply)
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	req, err := toolutil.DecodeJSON[chatRequest](w, r)
	if err != nil || toolutil.ValidateSessionID(req.SessionID) != nil {
		toolutil.WriteError(w, http.StatusBadRequest, "SessionId is required")
		return
	}
	if err := s.gen.ClearHistory(r.Context(), req.SessionID); err != nil {
		slog.Error("chat: clear history failed", slog.String("session", req.SessionID), slog.Any("error", err))
		toolutil.WriteError(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}
	toolutil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Conversation history cleared"})
}

type publicSettings struct {
	VoiceEnabled   bool   `json:"voiceEnabled"`
	WelcomeMessage string `json:"welcomeMessage"`
	AssistantName  string `json:"assistantName"`
}

func (s *Server) handlePublicSettings(w http.ResponseWriter, r *http.Request) {
	ws := s.widget(r.Context())
	toolutil.WriteJSON(w, http.StatusOK, publicSettings{
		VoiceEnabled:   ws.VoiceEnabled,
		WelcomeMessage: ws.WelcomeMessage,
		AssistantName:  s.persona.AssistantName,
	})
}

// widget returns stored widget settings, or defaults when unavailable.
func (s *Server) widget(ctx context.Context) storage.WidgetSettings {
	defaults := storage.DefaultWidgetSettings(s.persona.AssistantName, s.persona.OwnerName)
	if s.settings == nil {
		return defaults
	}
	ws, err := s.settings.Widget(ctx)
	if err != nil {
		slog.Warn("settings: read failed, using defaults", slog.Any("error", err))
		return defaults
	}
	return ws
}

// Package toolutil provides shared helpers for the HTTP, WebSocket and MCP
// chat surfaces: input validation and JSON encoding.
package toolutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	MaxMessageRunes = 1000
	MinSessionRunes = 10
	MaxSessionRunes = 128
	maxBodyBytes    = 64 << 10
)

var (
	ErrInvalidMessage = errors.New("message must be between 1 and 1000 characters")
	ErrInvalidSession = errors.New("sessionId must be between 10 and 128 characters")
)

// ValidateMessage checks a chat message before it reaches the engine.
func ValidateMessage(msg string) error {
	n := utf8.RuneCountInString(msg)
	if strings.TrimSpace(msg) == "" || n > MaxMessageRunes {
		return ErrInvalidMessage
	}
	return nil
}

// ValidateSessionID checks a client-supplied session identifier.
func ValidateSessionID(id string) error {
	n := utf8.RuneCountInString(id)
	if n < MinSessionRunes || n > MaxSessionRunes {
		return ErrInvalidSession
	}
	return nil
}

// ValidateChat validates both message and session id.
func ValidateChat(msg, sessionID string) error {
	if err := ValidateMessage(msg); err != nil {
		return err
	}
	return ValidateSessionID(sessionID)
}

// DecodeJSON reads a size-limited JSON request body into T.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var out T
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return out, errors.New("empty request body")
		}
		return out, fmt.Errorf("invalid JSON body: %w", err)
	}
	return out, nil
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg} with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

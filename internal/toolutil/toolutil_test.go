package toolutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		ok   bool
	}{
		{"empty", "", false},
		{"blank", "   ", false},
		{"one char", "a", true},
		{"max", strings.Repeat("é", MaxMessageRunes), true},
		{"too long", strings.Repeat("a", MaxMessageRunes+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.msg)
			if (err == nil) != tt.ok {
				t.Errorf("ValidateMessage() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		id string
		ok bool
	}{
		{"short", false},
		{"session-abc123", true},
		{strings.Repeat("s", MaxSessionRunes), true},
		{strings.Repeat("s", MaxSessionRunes+1), false},
	}
	for _, tt := range tests {
		if err := ValidateSessionID(tt.id); (err == nil) != tt.ok {
			t.Errorf("ValidateSessionID(%q) error = %v, want ok=%v", tt.id, err, tt.ok)
		}
	}
}

func TestValidateChat(t *testing.T) {
	assert.ErrorIs(t, ValidateChat("", "session-abc123"), ErrInvalidMessage)
	assert.ErrorIs(t, ValidateChat("hi", "x"), ErrInvalidSession)
	assert.NoError(t, ValidateChat("hi", "session-abc123"))
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Message string `json:"message"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"hello"}`))
	got, err := DecodeJSON[payload](httptest.NewRecorder(), r)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Message)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	_, err = DecodeJSON[payload](httptest.NewRecorder(), r)
	assert.Error(t, err)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	_, err = DecodeJSON[payload](httptest.NewRecorder(), r)
	assert.Error(t, err)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"nope"}`, rec.Body.String())
}

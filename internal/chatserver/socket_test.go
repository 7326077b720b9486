package chatserver

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialSocket(t *testing.T, e *testEnv) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(e.handler)
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestSocket_ChatMessage(t *testing.T) {
	e := newTestEnv(t, nil)
	conn := dialSocket(t, e)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"event":     EventChatMessage,
		"message":   "What are the main skills?",
		"sessionId": "session-abc123",
	}))
	var out socketOutbound
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, EventResponse, out.Event)
	assert.Equal(t, "session-abc123", out.SessionID)
	assert.True(t, strings.HasPrefix(out.Message, "- Key skills:"), out.Message)
	assert.NotEmpty(t, out.Timestamp)
}

func TestSocket_InvalidMessage(t *testing.T) {
	e := newTestEnv(t, nil)
	conn := dialSocket(t, e)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"event":     EventChatMessage,
		"message":   "",
		"sessionId": "session-abc123",
	}))
	var out socketOutbound
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, EventError, out.Event)
}

func TestSocket_ClearHistory(t *testing.T) {
	e := newTestEnv(t, nil)
	conn := dialSocket(t, e)

	require.NoError(t, conn.WriteJSON(map[string]string{"event": EventChatMessage, "message": "skills", "sessionId": "session-abc123"}))
	var out socketOutbound
	require.NoError(t, conn.ReadJSON(&out))

	require.NoError(t, conn.WriteJSON(map[string]string{"event": EventClear, "sessionId": "session-abc123"}))
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, EventResponse, out.Event)
	assert.Equal(t, "Conversation history cleared", out.Message)
}

func TestSocket_UnknownEvent(t *testing.T) {
	e := newTestEnv(t, nil)
	conn := dialSocket(t, e)

	require.NoError(t, conn.WriteJSON(map[string]string{"event": "dance"}))
	var out socketOutbound
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, EventError, out.Event)
}

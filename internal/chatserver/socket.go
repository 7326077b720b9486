package chatserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/anatolykoptev/go_alfred/internal/engine"
	"github.com/anatolykoptev/go_alfred/internal/toolutil"
)

const (
	EventChatMessage = "chat-message"
	EventClear       = "clear-history"
	EventResponse    = "alfred-response"
	EventError       = "alfred-error"

	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = socketPongWait * 9 / 10
	socketMaxMessage = 16 << 10
)

// The widget is embedded on the portfolio's own origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type socketInbound struct {
	Event     string `json:"event"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type socketOutbound struct {
	Event     string                `json:"event"`
	Message   string                `json:"message"`
	Timestamp string                `json:"timestamp"`
	SessionID string                `json:"sessionId,omitempty"`
	Mode      engine.GenerationMode `json:"mode,omitzero"`
}

// socketConn serializes writes; gorilla allows one concurrent writer.
type socketConn struct {
	id  string
	ip  string
	ws  *websocket.Conn
	wmu sync.Mutex
}

func (c *socketConn) send(msg socketOutbound) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(socketWriteWait))
	return c.ws.WriteJSON(msg)
}

func (c *socketConn) ping() error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(socketWriteWait))
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("socket upgrade failed", slog.Any("error", err))
		return
	}
	c := &socketConn{id: uuid.NewString(), ip: s.limiter.ClientKey(r), ws: ws}
	slog.Info("socket connected", slog.String("conn", c.id))

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer func() {
		cancel()
		ws.Close()
		slog.Info("socket disconnected", slog.String("conn", c.id))
	}()

	ws.SetReadLimit(socketMaxMessage)
	_ = ws.SetReadDeadline(time.Now().Add(socketPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(socketPongWait))
	})
	go s.pingLoop(ctx, c)

	for {
		var in socketInbound
		if err := ws.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("socket read failed", slog.String("conn", c.id), slog.Any("error", err))
			}
			return
		}
		if err := s.handleSocketEvent(ctx, c, in); err != nil {
			slog.Debug("socket write failed", slog.String("conn", c.id), slog.Any("error", err))
			return
		}
	}
}

func (s *Server) pingLoop(ctx context.Context, c *socketConn) {
	t := time.NewTicker(socketPingPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleSocketEvent(ctx context.Context, c *socketConn, in socketInbound) error {
	now := func() string { return time.Now().UTC().Format(engine.TimestampFormat) }
	fail := func(msg string) error {
		return c.send(socketOutbound{Event: EventError, Message: msg, Timestamp: now()})
	}

	switch in.Event {
	case EventChatMessage:
		if err := toolutil.ValidateChat(in.Message, in.SessionID); err != nil {
			return fail(err.Error())
		}
		if !s.limiter.Allow(c.ip) {
			return fail("Too many requests, please slow down.")
		}
		reply, err := s.gen.ProcessMessage(ctx, in.Message, in.SessionID)
		if err != nil {
			slog.Error("socket: process message failed", slog.String("conn", c.id), slog.Any("error", err))
			return fail(GenericErrorMessage)
		}
		s.archive(in.SessionID, in.Message, reply)
		return c.send(socketOutbound{
			Event:     EventResponse,
			Message:   reply.Content,
			Timestamp: reply.Timestamp,
			SessionID: in.SessionID,
			Mode:      reply.Mode,
		})
	case EventClear:
		if err := toolutil.ValidateSessionID(in.SessionID); err != nil {
			return fail(err.Error())
		}
		if err := s.gen.ClearHistory(ctx, in.SessionID); err != nil {
			slog.Error("socket: clear history failed", slog.String("conn", c.id), slog.Any("error", err))
			return fail(GenericErrorMessage)
		}
		return c.send(socketOutbound{
			Event:     EventResponse,
			Message:   "Conversation history cleared",
			Timestamp: now(),
			SessionID: in.SessionID,
		})
	}
	return fail("unknown event")
}

// Package drawdb is the remote-control channel to a DrawDB browser frontend. The
// frontend dials in over WebSocket; commands are sent as JSON frames and each one waits
// for the frontend's acknowledgment.
package drawdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
)

var (
	_ http.Handler             = (*Hub)(nil)
	_ contractx.RemoteClient   = (*Hub)(nil)
	_ contractx.StatusProvider = (*Hub)(nil)
)

type Option func(*Hub)

func WithLogger(logger zerolog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(h *Hub) {
		if newID != nil {
			h.newID = newID
		}
	}
}

// Hub accepts frontend connections and forwards commands to the most recent one.
// A new connection replaces the previous session.
type Hub struct {
	cfg      Config
	upgrader websocket.Upgrader
	logger   zerolog.Logger
	newID    func() string
	now      func() time.Time

	mu     sync.RWMutex
	active *session
	closed bool
}

func NewHub(cfg Config, opts ...Option) *Hub {
	cfg = cfg.withDefaults()
	h := &Hub{
		cfg:    cfg,
		logger: log.Logger.With().Str("component", "drawdb").Logger(),
		newID:  uuid.NewString,
		now:    time.Now,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		if len(set) == 0 {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[strings.TrimRight(r.Header.Get("Origin"), "/")]
		return ok
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "remote control is shut down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("remote-control upgrade failed")
		return
	}

	s := newSession(h.newID(), conn, h.now())
	prev, ok := h.attach(s)
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "remote control is shut down"),
			time.Now().Add(h.cfg.WriteTimeout))
		s.close()
		return
	}
	if prev != nil {
		h.logger.Info().Str("session_id", prev.id).Msg("DrawDB frontend replaced by a newer connection")
		prev.close()
	}
	h.logger.Info().
		Str("session_id", s.id).
		Str("remote_addr", s.remoteAddr).
		Msg("DrawDB frontend connected")

	if err := s.writeJSON(connectedFrame{Type: frameConnected, SessionID: s.id}, h.cfg.WriteTimeout); err != nil {
		h.logger.Warn().Err(err).Str("session_id", s.id).Msg("send connected frame")
	}

	go h.keepAlive(s)
	err = h.readLoop(s)

	h.detach(s)
	s.close()
	h.logger.Info().Err(err).Str("session_id", s.id).Msg("DrawDB frontend disconnected")
}

// attach makes s the active session and returns the one it replaces. It refuses once
// the hub is closed.
func (h *Hub) attach(s *session) (*session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	prev := h.active
	h.active = s
	return prev, true
}

func (h *Hub) detach(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == s {
		h.active = nil
	}
}

func (h *Hub) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

func (h *Hub) current() *session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.active
}

func (h *Hub) readLoop(s *session) error {
	s.conn.SetReadLimit(h.cfg.MaxMessageBytes)
	extend := func() error {
		return s.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	}
	if err := extend(); err != nil {
		return err
	}
	s.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if err := extend(); err != nil {
			return err
		}

		var in inboundFrame
		if err := json.Unmarshal(raw, &in); err != nil {
			h.logger.Warn().Err(err).Str("session_id", s.id).Msg("drop malformed frame")
			continue
		}
		h.handleFrame(s, in)
	}
}

func (h *Hub) handleFrame(s *session, in inboundFrame) {
	switch in.Type {
	case frameResponse:
		if !s.resolve(in.ID, ack{success: in.Success, message: in.Error}) {
			h.logger.Debug().Str("session_id", s.id).Str("command_id", in.ID).Msg("response for unknown command")
		}
	case framePing:
		if err := s.writeJSON(pongFrame{Type: framePong}, h.cfg.WriteTimeout); err != nil {
			h.logger.Warn().Err(err).Str("session_id", s.id).Msg("send pong")
		}
	case frameHello:
		h.logger.Debug().Str("session_id", s.id).RawJSON("data", nonEmptyJSON(in.Data)).Msg("frontend hello")
	default:
		h.logger.Warn().Str("session_id", s.id).Str("type", in.Type).Msg("unknown frame type")
	}
}

func (h *Hub) keepAlive(s *session) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done():
			return
		case <-ticker.C:
			if err := s.ping(h.cfg.WriteTimeout); err != nil {
				h.logger.Debug().Err(err).Str("session_id", s.id).Msg("ping failed")
				s.close()
				return
			}
		}
	}
}

func (h *Hub) IsConnected() bool {
	return h.current() != nil
}

// SendCommand writes one command frame and blocks until the frontend acknowledges it,
// the command timeout passes, ctx ends, or the connection drops.
func (h *Hub) SendCommand(ctx context.Context, name string, payload contractx.CommandPayload) error {
	s := h.current()
	if s == nil {
		return contractx.ErrNotConnected
	}
	// Nothing is written for a caller that has already given up.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s not sent: %w", name, err)
	}

	id := h.newID()
	ch := make(chan ack, 1)
	if !s.register(id, ch) {
		return fmt.Errorf("%w: %s: connection closed", contractx.ErrSendFailed, name)
	}
	defer s.unregister(id)

	frame := commandFrame{Type: frameCommand, ID: id, Command: name, Payload: payload}
	if err := s.writeJSON(frame, h.cfg.WriteTimeout); err != nil {
		s.close()
		return fmt.Errorf("%w: write %s: %w", contractx.ErrSendFailed, name, err)
	}

	timer := time.NewTimer(h.cfg.CommandTimeout)
	defer timer.Stop()

	select {
	case a := <-ch:
		if !a.success {
			reason := strings.TrimSpace(a.message)
			if reason == "" {
				reason = "no reason given"
			}
			return fmt.Errorf("%w: %s: %s", contractx.ErrRemoteRejected, name, reason)
		}
		h.logger.Debug().Str("session_id", s.id).Str("command_id", id).Str("command", name).Msg("command acknowledged")
		return nil
	case <-s.done():
		return fmt.Errorf("%w: %s: connection closed before acknowledgment", contractx.ErrSendFailed, name)
	case <-timer.C:
		return fmt.Errorf("%w: %s after %s", contractx.ErrCommandTimeout, name, h.cfg.CommandTimeout)
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", contractx.ErrSendFailed, name, ctx.Err())
	}
}

func (h *Hub) Status() contractx.ConnectionStatus {
	s := h.current()
	if s == nil {
		return contractx.ConnectionStatus{}
	}
	return contractx.ConnectionStatus{
		Connected:       true,
		SessionID:       s.id,
		RemoteAddr:      s.remoteAddr,
		ConnectedAt:     s.connectedAt,
		PendingCommands: s.pendingCount(),
	}
}

// Close drops the active session and refuses later connections; in-flight commands
// fail with ErrSendFailed.
func (h *Hub) Close() error {
	h.mu.Lock()
	s := h.active
	h.active = nil
	h.closed = true
	h.mu.Unlock()

	if s == nil {
		return nil
	}
	s.close()
	return nil
}

func nonEmptyJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}

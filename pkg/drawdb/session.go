package drawdb

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type ack struct {
	success bool
	message string
}

// session is one attached frontend. Writes are serialized; pending maps command ids
// to the waiter for their acknowledgment.
type session struct {
	id          string
	conn        *websocket.Conn
	remoteAddr  string
	connectedAt time.Time

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan ack

	closed    chan struct{}
	closeOnce sync.Once
}

func newSession(id string, conn *websocket.Conn, now time.Time) *session {
	return &session{
		id:          id,
		conn:        conn,
		remoteAddr:  conn.RemoteAddr().String(),
		connectedAt: now.UTC(),
		pending:     make(map[string]chan ack, 4),
		closed:      make(chan struct{}),
	}
}

func (s *session) writeJSON(v any, timeout time.Duration) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

func (s *session) ping(timeout time.Duration) error {
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

// register returns false once the session is closed.
func (s *session) register(id string, ch chan ack) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.closed:
		return false
	default:
	}
	s.pending[id] = ch
	return true
}

func (s *session) unregister(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *session) resolve(id string, a ack) bool {
	s.mu.Lock()
	ch, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()

	if !ok {
		return false
	}
	ch <- a
	return true
}

func (s *session) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		close(s.closed)
		s.mu.Unlock()
		_ = s.conn.Close()
	})
}

func (s *session) done() <-chan struct{} {
	return s.closed
}

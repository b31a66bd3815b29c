package drawdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
)

func newTestHub(t *testing.T, cfg Config) (*Hub, string) {
	t.Helper()

	hub := NewHub(cfg, WithLogger(zerolog.New(io.Discard)))
	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		_ = hub.Close()
		server.Close()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dialFrontend(t *testing.T, url string) (*websocket.Conn, string) {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var hello connectedFrame
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, frameConnected, hello.Type)
	require.NotEmpty(t, hello.SessionID)
	return conn, hello.SessionID
}

type receivedCommand struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Command string `json:"command"`
	Payload struct {
		Data         json.RawMessage `json:"data"`
		AddToHistory bool            `json:"addToHistory"`
	} `json:"payload"`
}

// answer reads one command and replies with the given outcome.
func answer(t *testing.T, conn *websocket.Conn, success bool, reason string) <-chan receivedCommand {
	t.Helper()

	out := make(chan receivedCommand, 1)
	go func() {
		var cmd receivedCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			t.Errorf("read command: %v", err)
			close(out)
			return
		}
		reply := map[string]any{"type": "response", "id": cmd.ID, "success": success}
		if reason != "" {
			reply["error"] = reason
		}
		if err := conn.WriteJSON(reply); err != nil {
			t.Errorf("write response: %v", err)
		}
		out <- cmd
	}()
	return out
}

func TestSendCommandNotConnected(t *testing.T) {
	t.Parallel()

	hub, _ := newTestHub(t, Config{})
	assert.False(t, hub.IsConnected())
	assert.False(t, hub.Status().Connected)

	err := hub.SendCommand(context.Background(), "addType", contractx.CommandPayload{})
	require.ErrorIs(t, err, contractx.ErrNotConnected)
}

func TestSendCommandAcknowledged(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t, Config{})
	conn, sessionID := dialFrontend(t, url)
	require.True(t, hub.IsConnected())
	assert.Equal(t, sessionID, hub.Status().SessionID)

	got := answer(t, conn, true, "")
	err := hub.SendCommand(context.Background(), "addType", contractx.CommandPayload{
		Data: contractx.TypeDefinition{
			ID:     "t-1",
			Name:   "address_type",
			Fields: []contractx.Field{{Name: "street", Type: "text"}},
		},
		AddToHistory: true,
	})
	require.NoError(t, err)

	cmd := <-got
	assert.Equal(t, frameCommand, cmd.Type)
	assert.Equal(t, "addType", cmd.Command)
	assert.NotEmpty(t, cmd.ID)
	assert.True(t, cmd.Payload.AddToHistory)
	assert.JSONEq(t, `{"id":"t-1","name":"address_type","fields":[{"name":"street","type":"text"}],"comment":""}`, string(cmd.Payload.Data))
	assert.Zero(t, hub.Status().PendingCommands)
}

func TestSendCommandRejected(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t, Config{})
	conn, _ := dialFrontend(t, url)

	answer(t, conn, false, "type address_type already exists")
	err := hub.SendCommand(context.Background(), "addType", contractx.CommandPayload{AddToHistory: true})
	require.ErrorIs(t, err, contractx.ErrRemoteRejected)
	require.ErrorIs(t, err, contractx.ErrSendFailed)
	assert.Contains(t, err.Error(), "already exists")
}

func TestSendCommandTimeout(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t, Config{CommandTimeout: 100 * time.Millisecond})
	conn, _ := dialFrontend(t, url)

	go func() {
		var cmd receivedCommand
		_ = conn.ReadJSON(&cmd)
	}()

	err := hub.SendCommand(context.Background(), "addType", contractx.CommandPayload{})
	require.ErrorIs(t, err, contractx.ErrCommandTimeout)
	require.ErrorIs(t, err, contractx.ErrSendFailed)
}

func TestSendCommandContextCanceled(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t, Config{})
	conn, _ := dialFrontend(t, url)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		var cmd receivedCommand
		_ = conn.ReadJSON(&cmd)
		cancel()
	}()

	err := hub.SendCommand(ctx, "addType", contractx.CommandPayload{})
	require.ErrorIs(t, err, contractx.ErrSendFailed)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSendCommandCanceledBeforeSendWritesNothing(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t, Config{})
	conn, _ := dialFrontend(t, url)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := hub.SendCommand(ctx, "addType", contractx.CommandPayload{Data: map[string]string{"name": "address_type"}})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, contractx.ErrSendFailed)
	assert.Zero(t, hub.Status().PendingCommands)

	// Frames go out in order, so the pong is the first thing after the connected frame.
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var next map[string]any
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, framePong, next["type"])
}

func TestSendCommandFailsWhenFrontendDrops(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t, Config{CommandTimeout: 5 * time.Second})
	conn, _ := dialFrontend(t, url)

	go func() {
		var cmd receivedCommand
		_ = conn.ReadJSON(&cmd)
		_ = conn.Close()
	}()

	err := hub.SendCommand(context.Background(), "addType", contractx.CommandPayload{})
	require.ErrorIs(t, err, contractx.ErrSendFailed)
	assert.NotErrorIs(t, err, contractx.ErrCommandTimeout)

	require.Eventually(t, func() bool { return !hub.IsConnected() }, 2*time.Second, 10*time.Millisecond)
}

func TestNewerConnectionReplacesOlder(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t, Config{})
	first, _ := dialFrontend(t, url)
	_, secondID := dialFrontend(t, url)

	assert.Equal(t, secondID, hub.Status().SessionID)

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	require.Error(t, err)
	assert.True(t, hub.IsConnected())
}

func TestPingFrameGetsPong(t *testing.T) {
	t.Parallel()

	_, url := newTestHub(t, Config{})
	conn, _ := dialFrontend(t, url)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	var reply pongFrame
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, framePong, reply.Type)
}

func TestHelloFrameKeepsSession(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t, Config{})
	conn, id := dialFrontend(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "hello", "data": map[string]string{"app": "drawdb"}}))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply pongFrame
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, framePong, reply.Type)
	assert.Equal(t, id, hub.Status().SessionID)
}

func TestOriginNotAllowed(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t, Config{AllowedOrigins: []string{"http://localhost:5173"}})

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, hub.IsConnected())

	header.Set("Origin", "http://localhost:5173/")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestCloseFailsInFlightCommands(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t, Config{})
	conn, _ := dialFrontend(t, url)

	go func() {
		var cmd receivedCommand
		if err := conn.ReadJSON(&cmd); err == nil {
			_ = hub.Close()
		}
	}()

	err := hub.SendCommand(context.Background(), "addType", contractx.CommandPayload{})
	require.ErrorIs(t, err, contractx.ErrSendFailed)
	assert.False(t, hub.IsConnected())
}

func TestCloseRefusesNewConnections(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t, Config{})
	dialFrontend(t, url)
	require.NoError(t, hub.Close())

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.False(t, hub.IsConnected())

	err = hub.SendCommand(context.Background(), "addType", contractx.CommandPayload{})
	assert.ErrorIs(t, err, contractx.ErrNotConnected)
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{PingInterval: time.Minute, PongWait: time.Second}.withDefaults()
	assert.Equal(t, defaultCommandTimeout, cfg.CommandTimeout)
	assert.Equal(t, defaultWriteTimeout, cfg.WriteTimeout)
	assert.Equal(t, 2*time.Minute, cfg.PongWait)
	assert.Equal(t, int64(defaultMaxMessageBytes), cfg.MaxMessageBytes)
}

package drawdb

import (
	"encoding/json"

	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
)

const (
	frameCommand   = "command"
	frameResponse  = "response"
	frameConnected = "connected"
	framePing      = "ping"
	framePong      = "pong"
	frameHello     = "hello"
)

type commandFrame struct {
	Type    string                   `json:"type"`
	ID      string                   `json:"id"`
	Command string                   `json:"command"`
	Payload contractx.CommandPayload `json:"payload"`
}

type connectedFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

type pongFrame struct {
	Type string `json:"type"`
}

// inboundFrame is anything the frontend sends.
type inboundFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

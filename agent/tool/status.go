package tool

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
)

const (
	ToolStatus = "drawdb_status"

	statusDescription = "Report whether the DrawDB frontend is connected for remote control and how many commands are in flight."
	statusSchema      = `{"type":"object","properties":{}}`
)

var _ Tool = (*StatusTool)(nil)

// StatusTool reports whether a DrawDB frontend is attached to the remote-control channel.
type StatusTool struct {
	provider contractx.StatusProvider
	info     *schema.ToolInfo
}

func NewStatusTool(provider contractx.StatusProvider) (*StatusTool, error) {
	if provider == nil {
		return nil, errors.New("status provider is required")
	}
	info, err := toolInfo(ToolStatus, statusDescription, json.RawMessage(statusSchema))
	if err != nil {
		return nil, err
	}
	return &StatusTool{provider: provider, info: info}, nil
}

func (t *StatusTool) Name() string { return ToolStatus }

func (t *StatusTool) Description() string {
	return statusDescription
}

func (t *StatusTool) InputSchema() json.RawMessage {
	return json.RawMessage(statusSchema)
}

func (t *StatusTool) Info() *schema.ToolInfo { return t.info }

func (t *StatusTool) Execute(context.Context, json.RawMessage) (any, error) {
	return t.provider.Status(), nil
}

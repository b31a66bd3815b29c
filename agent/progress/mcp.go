package progress

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
)

const notificationMethod = "notifications/progress"

// Notifier is the slice of *server.MCPServer used to push notifications.
type Notifier interface {
	SendNotificationToClient(ctx context.Context, method string, params map[string]any) error
}

var _ contractx.ProgressReporter = (*MCPReporter)(nil)

// MCPReporter publishes updates to the MCP client that issued the progress token.
type MCPReporter struct {
	notifier Notifier
	token    mcp.ProgressToken
}

func NewMCPReporter(notifier Notifier, token mcp.ProgressToken) *MCPReporter {
	return &MCPReporter{notifier: notifier, token: token}
}

func (r *MCPReporter) Report(ctx context.Context, progress, total float64) error {
	if r.notifier == nil {
		return nil
	}
	payload := map[string]any{
		"progressToken": r.token,
		"progress":      progress,
		"total":         total,
	}
	if err := r.notifier.SendNotificationToClient(ctx, notificationMethod, payload); err != nil {
		return fmt.Errorf("send progress notification: %w", err)
	}
	return nil
}

// FromRequest picks an MCP reporter when the call carries a progress token and the
// context holds the MCP server; otherwise updates only reach the log.
func FromRequest(ctx context.Context, req mcp.CallToolRequest, logger zerolog.Logger) contractx.ProgressReporter {
	if req.Params.Meta != nil && req.Params.Meta.ProgressToken != nil {
		if srv := server.ServerFromContext(ctx); srv != nil {
			return NewMCPReporter(srv, req.Params.Meta.ProgressToken)
		}
	}
	return NewLogReporter(logger, req.Params.Name)
}

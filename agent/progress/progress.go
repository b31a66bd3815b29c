// Package progress carries tool-call progress to whoever asked for it: an MCP client
// holding a progress token, the process log, or an in-memory recorder.
package progress

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
)

// Update is a single progress notification.
type Update struct {
	Progress float64 `json:"progress"`
	Total    float64 `json:"total"`
}

var (
	_ contractx.ProgressReporter = Noop{}
	_ contractx.ProgressReporter = (*LogReporter)(nil)
	_ contractx.ProgressReporter = (*Recorder)(nil)
)

type Noop struct{}

func (Noop) Report(context.Context, float64, float64) error { return nil }

// LogReporter writes each update as a debug line.
type LogReporter struct {
	logger zerolog.Logger
	tool   string
}

func NewLogReporter(logger zerolog.Logger, tool string) *LogReporter {
	return &LogReporter{logger: logger, tool: tool}
}

func (r *LogReporter) Report(_ context.Context, progress, total float64) error {
	r.logger.Debug().
		Str("tool", r.tool).
		Float64("progress", progress).
		Float64("total", total).
		Msg("tool progress")
	return nil
}

// Recorder keeps every update it receives. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	updates []Update
	err     error
}

// NewRecorder returns a Recorder; a non-nil err is returned from every Report call
// after the update is recorded.
func NewRecorder(err error) *Recorder {
	return &Recorder{err: err}
}

func (r *Recorder) Report(_ context.Context, progress, total float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, Update{Progress: progress, Total: total})
	return r.err
}

func (r *Recorder) Updates() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Update, len(r.updates))
	copy(out, r.updates)
	return out
}

type reporterKey struct{}

func WithReporter(ctx context.Context, r contractx.ProgressReporter) context.Context {
	if r == nil {
		return ctx
	}
	return context.WithValue(ctx, reporterKey{}, r)
}

// FromContext returns the reporter stored by WithReporter, or Noop.
func FromContext(ctx context.Context) contractx.ProgressReporter {
	if ctx == nil {
		return Noop{}
	}
	if r, ok := ctx.Value(reporterKey{}).(contractx.ProgressReporter); ok && r != nil {
		return r
	}
	return Noop{}
}

package tool

import (
	"context"
	"sync"

	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
)

type sentCommand struct {
	name    string
	payload contractx.CommandPayload
}

type fakeRemote struct {
	mu        sync.Mutex
	connected bool
	err       error
	commands  []sentCommand
}

func (f *fakeRemote) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeRemote) SendCommand(_ context.Context, name string, payload contractx.CommandPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, sentCommand{name: name, payload: payload})
	return f.err
}

func (f *fakeRemote) sent() []sentCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentCommand, len(f.commands))
	copy(out, f.commands)
	return out
}

type fakeStatus struct {
	status contractx.ConnectionStatus
}

func (f fakeStatus) Status() contractx.ConnectionStatus { return f.status }

// failAtReporter fails the update whose progress equals at and records every value.
type failAtReporter struct {
	mu   sync.Mutex
	at   float64
	err  error
	seen []float64
}

func (r *failAtReporter) Report(_ context.Context, progress, _ float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, progress)
	if progress == r.at {
		return r.err
	}
	return nil
}

func (r *failAtReporter) values() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.seen))
	copy(out, r.seen)
	return out
}

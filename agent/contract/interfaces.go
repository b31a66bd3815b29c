package contract

import "context"

// RemoteClient is the connection to the DrawDB frontend that owns the diagram.
type RemoteClient interface {
	IsConnected() bool
	SendCommand(ctx context.Context, name string, payload CommandPayload) error
}

type StatusProvider interface {
	Status() ConnectionStatus
}

// ProgressReporter receives coarse progress for a single tool call.
type ProgressReporter interface {
	Report(ctx context.Context, progress, total float64) error
}

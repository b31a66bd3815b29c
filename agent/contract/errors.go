package contract

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotConnected = errors.New("DrawDB client is not connected. Make sure the DrawDB frontend is running with remote control enabled.")
	ErrSendFailed   = errors.New("send command failed")
	ErrUnknownTool  = errors.New("unknown tool")

	// ErrRemoteRejected and ErrCommandTimeout are both send failures.
	ErrRemoteRejected = fmt.Errorf("%w: rejected by remote", ErrSendFailed)
	ErrCommandTimeout = fmt.Errorf("%w: timed out waiting for acknowledgment", ErrSendFailed)
)

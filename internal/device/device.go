package device

import (
	"context"
	"errors"
	"fmt"
)

// Querier fetches one raw retrieve reply from a device.
type Querier interface {
	Query(ctx context.Context) ([]byte, error)
}

var (
	// ErrTransport marks any failure to obtain bytes from the device.
	ErrTransport = errors.New("device transport error")
	// ErrPairingPending means the thermostat has not confirmed pairing yet.
	ErrPairingPending = errors.New("pairing pending: confirm on the thermostat")
	// ErrAccessDenied means the thermostat refused pairing.
	ErrAccessDenied = errors.New("access denied by thermostat")
)

// TransportError wraps a failed device request.
type TransportError struct {
	Op     string
	Target string
	// Unreachable is set when a probe confirmed the host does not answer.
	Unreachable bool
	Err         error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	if e.Unreachable {
		msg += " (host unreachable)"
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

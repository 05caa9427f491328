package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoActiveConnections = errors.New("no active connections")
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrRoleNotFound        = errors.New("role record not found")
	ErrMalformedRequest    = errors.New("malformed request")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrBroadcasterNotFound = errors.New("broadcaster not found")
	ErrExternalUnavailable = errors.New("external service unavailable")
)

// DeliveryFailure names one connection a broadcast could not reach and
// why.
type DeliveryFailure struct {
	Handle ConnectionHandle
	Err    error
}

// PartialDeliveryError reports a broadcast where some connections
// failed, with the cause per handle. Successful recipients are not
// listed; delivery to them already happened and is not rolled back.
type PartialDeliveryError struct {
	Streamer StreamerID
	Failed   []DeliveryFailure
}

func (e *PartialDeliveryError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = fmt.Sprintf("%s: %v", f.Handle, f.Err)
	}
	return fmt.Sprintf("broadcast to %s failed for %d connection(s): %s",
		e.Streamer, len(e.Failed), strings.Join(parts, "; "))
}

// FailedHandles lists just the unreachable handles, for responses that
// do not expose internal error text.
func (e *PartialDeliveryError) FailedHandles() []ConnectionHandle {
	handles := make([]ConnectionHandle, len(e.Failed))
	for i, f := range e.Failed {
		handles[i] = f.Handle
	}
	return handles
}

package nimcheck

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteStream is reported when an endpoint is configured with
	// StrictEOF and the transport closes before the terminal marker.
	ErrIncompleteStream = errors.New("stream closed before terminal marker")
	ErrNoChoices        = errors.New("response has no choices")
)

// TransportError wraps a connection, resolution, or timeout failure.
// It is never retried internally.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a response that is not the expected document shape.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

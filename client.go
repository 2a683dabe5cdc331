package nimcheck

import (
	"context"
	"iter"
)

// Client is the capability contract every backend satisfies. Invoke and
// HealthCheck are safe for concurrent use; each InvokeStream sequence
// belongs to a single consumer.
type Client interface {
	// Invoke performs one blocking round trip. It fails with a
	// *TransportError on connection or timeout failure and a
	// *ProtocolError when the response body is not a chat completion
	// document. There are no retries.
	Invoke(ctx context.Context, req *Request) (*Response, error)

	// InvokeStream marks the request as streaming and returns a lazy,
	// forward-only sequence of content fragments. Iteration may block
	// between fragments while waiting on the network. The underlying
	// connection is released on every exit path, including an early
	// break out of the range loop.
	InvokeStream(ctx context.Context, req *Request) iter.Seq2[string, error]

	// HealthCheck probes the endpoint once. It never fails; every error
	// is reported as a not-ready status with the failure description.
	HealthCheck(ctx context.Context) HealthStatus

	// EndpointInfo describes the endpoint without performing I/O.
	EndpointInfo() string
}

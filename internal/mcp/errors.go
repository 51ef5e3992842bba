package mcp

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownServer is returned when the tool server record is absent
	// or marked inactive
	ErrUnknownServer = errors.New("unknown tool server")
	// ErrUnsupportedTransport is returned for a server record whose
	// transport tag has no client implementation
	ErrUnsupportedTransport = errors.New("unsupported tool server transport")
	// ErrTransportTimeout is returned when a tool call exceeds its deadline
	ErrTransportTimeout = errors.New("tool server timed out")
)

// TransportError is a transport-level failure talking to a tool server,
// including non-200 HTTP responses.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("tool server error: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("tool server error: %s", e.Body)
}

// RemoteError is a JSON-RPC error object returned by a tool server that was
// reached successfully.
type RemoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("tool server remote error %d: %s", e.Code, e.Message)
}

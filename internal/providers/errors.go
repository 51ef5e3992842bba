package providers

import (
	"errors"
	"fmt"
)

// ErrUpstreamTimeout is returned when a provider call exceeds its deadline.
// It is deliberately distinct from UpstreamError: a timeout carries no
// upstream status or body.
var ErrUpstreamTimeout = errors.New("upstream provider timed out")

// UpstreamError is a non-2xx response from a provider API.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Provider, e.Status, e.Body)
}

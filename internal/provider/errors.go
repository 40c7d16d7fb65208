// Package provider implements the shared fetch layer and the per-upstream
// adapters that feed the aggregator and risk engine.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrRateLimited is returned when the upstream answered 429 and
	// retries were exhausted.
	ErrRateLimited = errors.New("rate limited by upstream")

	// ErrUnavailable is returned when the circuit breaker is open.
	ErrUnavailable = errors.New("provider unavailable")
)

// RemoteError is a non-2xx response from the upstream.
type RemoteError struct {
	Provider string
	Status   int
	Body     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: upstream status %d", e.Provider, e.Status)
}

// Transient reports whether the failure class is worth retrying:
// timeouts, connection errors, 5xx and 429 responses, and an open breaker.
// Other 4xx responses and decode failures are permanent.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Status == 429 || remote.Status >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Connection-level failures surface as *url.Error wrapping *net.OpError.
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// errorClass names the failure class for metrics.
func errorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case Transient(err):
		return "transient"
	default:
		return "permanent"
	}
}

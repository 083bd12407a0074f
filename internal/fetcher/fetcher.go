// Package fetcher defines the outbound HTTP boundary shared by the search
// engine client and the blog post resolver.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrTimeout marks a fetch that exceeded its deadline.
var ErrTimeout = errors.New("fetch timed out")

// Request captures everything needed to fetch a URL.
type Request struct {
	URL     string
	Headers http.Header
}

// Response is the result returned by a Fetcher implementation.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher fetches a URL and returns the body plus metadata. Implementations
// return an error wrapping ErrTimeout on deadline expiry and a *StatusError
// for non-2xx responses.
type Fetcher interface {
	Fetch(ctx context.Context, request Request) (Response, error)
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// IsTimeout reports whether err was caused by a request deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ClassifyError wraps timeouts with ErrTimeout so callers can use errors.Is.
func ClassifyError(err error) error {
	if err == nil || errors.Is(err, ErrTimeout) {
		return err
	}
	if IsTimeout(err) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

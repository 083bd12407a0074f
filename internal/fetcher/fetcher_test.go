package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTimeout(t *testing.T) {
	t.Parallel()

	require.False(t, IsTimeout(nil))
	require.False(t, IsTimeout(errors.New("connection refused")))
	require.True(t, IsTimeout(context.DeadlineExceeded))
	require.True(t, IsTimeout(fmt.Errorf("colly visit failed: %w", &url.Error{Op: "Get", URL: "x", Err: timeoutErr{}})))
	require.True(t, IsTimeout(ErrTimeout))
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	require.NoError(t, ClassifyError(nil))

	plain := errors.New("connection reset")
	require.Same(t, plain, ClassifyError(plain))

	wrapped := ClassifyError(&url.Error{Op: "Get", URL: "x", Err: timeoutErr{}})
	require.ErrorIs(t, wrapped, ErrTimeout)
	var urlErr *url.Error
	require.ErrorAs(t, wrapped, &urlErr)
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	var err error = &StatusError{URL: "https://search.naver.com", StatusCode: 403}
	require.Contains(t, err.Error(), "403")
	var statusErr *StatusError
	require.ErrorAs(t, fmt.Errorf("fetch: %w", err), &statusErr)
	require.Equal(t, 403, statusErr.StatusCode)
}

func TestUserAgentPool(t *testing.T) {
	t.Parallel()

	pool := NewUserAgentPool(nil)
	require.Contains(t, DefaultUserAgents, pool.Next())

	pool = NewUserAgentPool([]string{"agent-a", "agent-b"})
	pool.pick = func(int) int { return 1 }
	require.Equal(t, "agent-b", pool.Next())

	h := pool.BrowserHeaders("https://www.naver.com/")
	require.Equal(t, "agent-b", h.Get("User-Agent"))
	require.Equal(t, "https://www.naver.com/", h.Get("Referer"))
	require.Contains(t, h.Get("Accept-Language"), "ko-KR")

	require.Empty(t, pool.BrowserHeaders("").Get("Referer"))
}

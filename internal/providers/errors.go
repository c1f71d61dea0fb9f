package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrProviderUnavailable is returned when no upstream is configured.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrNotFound is returned when the upstream has no bracket for the tournament.
	ErrNotFound = errors.New("bracket not found")
)

// Kind is the user-facing category of a fetch failure.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindServer      Kind = "server_error"
	KindMalformed   Kind = "malformed"
	KindUnavailable Kind = "unavailable"
)

// StatusError is an unexpected HTTP status from the upstream.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// MalformedError wraps a response body that could not be decoded.
type MalformedError struct {
	Provider string
	Err      error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Provider, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// RateLimitError captures rate limit responses from upstream providers.
type RateLimitError struct {
	Provider   string
	StatusCode int
	RetryAfter time.Duration
	Remaining  string
	Message    string
}

func (e *RateLimitError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "provider rate limited"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status=%d)", msg, e.StatusCode)
	}
	return msg
}

// AsRateLimitError attempts to unwrap an error into a RateLimitError.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr, true
	}
	return nil, false
}

// AsStatusError attempts to unwrap an error into a StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var stErr *StatusError
	if errors.As(err, &stErr) {
		return stErr, true
	}
	return nil, false
}

// AsMalformedError attempts to unwrap an error into a MalformedError.
func AsMalformedError(err error) (*MalformedError, bool) {
	var mErr *MalformedError
	if errors.As(err, &mErr) {
		return mErr, true
	}
	return nil, false
}

// Classify maps a fetch error onto the category shown to the user. A nil error has no kind.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	if _, ok := AsMalformedError(err); ok {
		return KindMalformed
	}
	if _, ok := AsRateLimitError(err); ok {
		return KindUnavailable
	}
	if _, ok := AsStatusError(err); ok {
		return KindServer
	}
	return KindUnavailable
}

// IsTransient reports whether retrying the same request may succeed:
// rate limits, 5xx responses and transport failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrProviderUnavailable) {
		return false
	}
	if _, ok := AsMalformedError(err); ok {
		return false
	}
	if _, ok := AsRateLimitError(err); ok {
		return true
	}
	if st, ok := AsStatusError(err); ok {
		return st.StatusCode >= 500
	}
	return true
}

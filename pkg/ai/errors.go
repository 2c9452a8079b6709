package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured marks a provider that cannot make calls at all, such as a
// missing API key. Retrying never helps.
var ErrNotConfigured = errors.New("provider not configured")

// StatusError is a non-200 reply from a provider's HTTP API.
type StatusError struct {
	Provider   string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s API returned status: %s", e.Provider, status)
}

// Temporary reports whether the same request may succeed later.
func (e *StatusError) Temporary() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

func statusError(provider string, resp *http.Response) error {
	return &StatusError{Provider: provider, StatusCode: resp.StatusCode, Status: resp.Status}
}

// IsRetryable decides whether a transport failure is worth another attempt.
// Cancellation, missing configuration and 4xx replies other than 408/429 are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNotConfigured) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

package services

import (
	"fmt"
	"net/http"

	"github.com/desertthunder/flickx/internal/shared"
)

// APIError is a non-2xx response from the proxy or backend.
//
// Message is the body's "error" field when present, else the operation's fallback message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap maps 401/403 to [shared.ErrNotAuthenticated], 503 to [shared.ErrServiceUnavailable] and everything
// else to [shared.ErrAPIRequest].
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.ErrNotAuthenticated
	case http.StatusServiceUnavailable:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// GoString includes the status for debugging output.
func (e *APIError) GoString() string {
	return fmt.Sprintf("APIError{Status: %d, Message: %q}", e.Status, e.Message)
}

// responseError converts a non-2xx response into an [*APIError], or returns nil for 2xx.
func responseError(resp *APIResponse, fallback string) error {
	if resp.OK() {
		return nil
	}
	msg := resp.ErrorMessage()
	if msg == "" {
		msg = fallback
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

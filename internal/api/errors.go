package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionExpired indicates that the refresh attempt following a 401 itself
// failed, or that no refresh token was available. By the time a caller sees
// this error the coordinator has already cleared all local session state and
// fired the session-expired hook, so callers should treat it as "the session
// is gone", not as something to retry.
var ErrSessionExpired = errors.New("session expired")

// ErrNotFound is a convenience sentinel matched by APIError via Is for
// HTTP 404 responses.
var ErrNotFound = errors.New("not found")

// APIError represents a non-2xx response from the Ambio API other than a
// recoverable 401. It preserves the HTTP status and the parsed error body so
// callers can render a meaningful message.
type APIError struct {
	// Status is the HTTP status code of the response.
	Status int

	// Message is the human-readable message from the error body, if any.
	Message string

	// Body is the raw response body.
	Body []byte
}

// Error returns a concise description including the server's message when
// one was provided.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// Is allows errors.Is(err, ErrNotFound) to match 404 responses.
func (e *APIError) Is(target error) bool {
	if target == ErrNotFound {
		return e.Status == http.StatusNotFound
	}
	_, ok := target.(*APIError)
	return ok
}

// newAPIError builds an APIError from a response status and body, extracting
// the conventional {"message": "..."} or {"error": "..."} field when present.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{
		Status: status,
		Body:   body,
	}

	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			apiErr.Message = envelope.Message
		} else if envelope.Error != "" {
			apiErr.Message = envelope.Error
		}
	}

	return apiErr
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err represents an HTTP 404 response.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether err represents an HTTP 401 response.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsForbidden reports whether err represents an HTTP 403 response.
func IsForbidden(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}

// Package apperr holds the error taxonomy shared by the backend transport,
// the orchestrators and the HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrAuth         = errors.New("authentication required")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrPayment      = errors.New("payment failed")
	ErrFinalization = errors.New("finalization failed")
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
	ErrCanceled     = errors.New("response discarded")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// Unwrap maps the status code onto the taxonomy so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	return KindForStatus(e.Status)
}

func KindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrAuth
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict, status == http.StatusPreconditionFailed:
		return ErrConflict
	case status >= 500:
		return ErrServer
	case status >= 400:
		return ErrValidation
	}
	return nil
}

// Validation builds an ErrValidation with a message for the user.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Message returns the text meant for the user: the backend message when
// there is one, otherwise the error string.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// Retryable reports whether the screen should offer a retry affordance.
// Payment failures always need an explicit user action instead.
func Retryable(err error) bool {
	if errors.Is(err, ErrPayment) {
		return false
	}
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer)
}

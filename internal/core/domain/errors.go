package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned when the backend denies authorization (401).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTransport covers network failures and timeouts.
	ErrTransport = errors.New("transport error")
	// ErrValidation covers 4xx responses carrying a backend detail message.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrUnexpected covers 5xx responses and undecodable payloads.
	ErrUnexpected = errors.New("unexpected error")

	ErrNotAuthenticated = errors.New("not signed in")
	ErrInvalidStatus    = errors.New("invalid task status")
	ErrTaskNotFound     = errors.New("task not found")
	// ErrSessionSuperseded is returned by a login whose result arrived after
	// a newer session change (logout, another login).
	ErrSessionSuperseded = errors.New("session changed while the request was in flight")
)

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Detail     string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap classifies the response so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return ErrValidation
	default:
		return ErrUnexpected
	}
}

const transportMessage = "Unable to reach the FlowTask server. Check your connection and try again."

// UserMessage renders err as the inline message shown next to the action
// that failed. action is the verb shown in the fallback ("Login",
// "Registration", "Delete").
func UserMessage(err error, action string) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	isAPI := errors.As(err, &apiErr)
	if isAPI && apiErr.Detail != "" {
		return apiErr.Detail
	}

	switch {
	case !isAPI && errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrTransport):
		return transportMessage
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotAuthenticated):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrUnexpected):
		// Undecodable payloads get the generic message below.
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrTaskNotFound):
		return err.Error()
	}

	if action == "" {
		action = "Request"
	}
	return action + " failed. Please try again."
}

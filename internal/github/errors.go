package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"issuegrid/internal/services"
)

var (
	// ErrUnauthorized reports a missing, invalid or under-scoped token.
	ErrUnauthorized = errors.New("github: unauthorized")
	// ErrRateLimited reports an exhausted API quota.
	ErrRateLimited = errors.New("github: rate limited")
	// ErrNotFound reports an unknown repository or issue.
	ErrNotFound = errors.New("github: not found")
)

// APIError describes a non-2xx response.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
	// Reset is when the rate limit window reopens, if GitHub reported it.
	Reset time.Time

	kind error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("github %s %s returned %d", e.Method, e.Path, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if !e.Reset.IsZero() {
		msg += " (resets " + e.Reset.UTC().Format(time.RFC3339) + ")"
	}
	return msg
}

// Unwrap exposes the classification sentinel and the services marker.
func (e *APIError) Unwrap() []error {
	marker := services.ErrExternalAPI
	switch e.kind {
	case ErrNotFound:
		marker = services.ErrNotFound
	case ErrRateLimited:
		marker = services.ErrTransient
	}
	if e.kind == nil {
		return []error{marker}
	}
	return []error{e.kind, marker}
}

func classify(resp *http.Response, method, path, message string) *APIError {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Method:  method,
		Path:    path,
		Message: message,
		Reset:   rateLimitReset(resp.Header),
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		apiErr.kind = ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		apiErr.kind = ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		apiErr.kind = ErrNotFound
	}
	return apiErr
}

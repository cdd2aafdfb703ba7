package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyContent is returned when an email has no content to classify
	ErrEmptyContent = errors.New("email content is empty")

	// ErrPipelineExhausted is returned when every tier failed and the
	// heuristic fallback is disabled. With the fallback enabled this is
	// unreachable.
	ErrPipelineExhausted = errors.New("all classification tiers failed and heuristic fallback is disabled")

	// ErrProfileNotFound is returned by profile stores for unknown config ids
	ErrProfileNotFound = errors.New("company profile not found")
)

// ProviderErrorKind distinguishes the ways a classification tier can fail
type ProviderErrorKind int

const (
	// ProviderTimeout means the tier did not answer within its time slice
	ProviderTimeout ProviderErrorKind = iota
	// ProviderUnavailable means the service could not be reached or
	// returned a non-success status
	ProviderUnavailable
	// ProviderMalformedReply means the reply could not be parsed into the
	// expected structured shape
	ProviderMalformedReply
)

// String returns the kind as a log-friendly token
func (k ProviderErrorKind) String() string {
	switch k {
	case ProviderTimeout:
		return "timeout"
	case ProviderUnavailable:
		return "unavailable"
	case ProviderMalformedReply:
		return "malformed_reply"
	default:
		return "unknown"
	}
}

// ProviderError is a typed failure from a classification tier. The
// orchestrator matches on it to escalate; it never reaches callers.
type ProviderError struct {
	Provider string
	Kind     ProviderErrorKind
	Err      error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s %s", e.Provider, e.Kind)
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderTimeout builds a timeout ProviderError
func NewProviderTimeout(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ProviderTimeout, Err: err}
}

// NewProviderUnavailable builds an unavailable ProviderError
func NewProviderUnavailable(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ProviderUnavailable, Err: err}
}

// NewProviderMalformedReply builds a malformed-reply ProviderError
func NewProviderMalformedReply(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ProviderMalformedReply, Err: err}
}

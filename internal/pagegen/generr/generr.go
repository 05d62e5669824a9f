// Package generr holds the caller-visible failure types of the generation pipeline.
package generr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	CodeInvalidRequest        = "invalid_request"
	CodeGenerationUnavailable = "generation_unavailable"
	CodeMalformedCompletion   = "malformed_completion"
	CodeInternal              = "internal_error"
)

// Reason distinguishes why no provider produced a completion.
type Reason string

const (
	// ReasonNotConfigured: no provider was eligible to be contacted at all.
	ReasonNotConfigured Reason = "not_configured"
	// ReasonUnreachable: every attempted provider failed at the transport level.
	ReasonUnreachable Reason = "unreachable"
	// ReasonProvidersFailed: at least one provider answered with an error.
	ReasonProvidersFailed Reason = "providers_failed"
)

// Attempt describes a single provider call made while acquiring a completion.
type Attempt struct {
	Provider    string `json:"provider"`
	Role        string `json:"role"`
	StatusCode  int    `json:"status_code,omitempty"`
	Message     string `json:"message"`
	Unreachable bool   `json:"-"`
	DurationMs  int64  `json:"duration_ms"`
}

type InvalidRequestError struct {
	Field   string
	Message string
}

func (e *InvalidRequestError) Error() string {
	if e == nil {
		return "invalid request"
	}
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func InvalidRequest(field, message string) *InvalidRequestError {
	return &InvalidRequestError{Field: field, Message: message}
}

type UnavailableError struct {
	Reason   Reason
	Attempts []Attempt
	Err      error
}

func (e *UnavailableError) Error() string {
	if e == nil {
		return "generation unavailable"
	}
	switch e.Reason {
	case ReasonNotConfigured:
		return "generation unavailable: no completion provider is configured"
	case ReasonUnreachable:
		return fmt.Sprintf("generation unavailable: no completion provider reachable (%d attempted)", len(e.Attempts))
	default:
		return fmt.Sprintf("generation unavailable: all completion providers returned errors (%d attempted)", len(e.Attempts))
	}
}

func (e *UnavailableError) Unwrap() error { return e.Err }

type MalformedError struct {
	Provider string
	Preview  string
	Err      error
}

func (e *MalformedError) Error() string {
	if e == nil {
		return "malformed completion"
	}
	if e.Err != nil {
		return "malformed completion: " + e.Err.Error()
	}
	return "malformed completion: no JSON object could be recovered"
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Preview truncates raw text to at most limit runes.
func Preview(raw string, limit int) string {
	if limit <= 0 {
		return raw
	}
	n := 0
	for i := range raw {
		if n == limit {
			return raw[:i]
		}
		n++
	}
	return raw
}

// Status maps a pipeline error to an HTTP status code.
func Status(err error) int {
	var inv *InvalidRequestError
	var un *UnavailableError
	var mal *MalformedError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &inv):
		return http.StatusBadRequest
	case errors.As(err, &mal):
		return http.StatusInternalServerError
	case errors.As(err, &un):
		if un.Reason == ReasonProvidersFailed {
			return http.StatusBadGateway
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Code(err error) string {
	var inv *InvalidRequestError
	var un *UnavailableError
	var mal *MalformedError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &inv):
		return CodeInvalidRequest
	case errors.As(err, &mal):
		return CodeMalformedCompletion
	case errors.As(err, &un):
		return CodeGenerationUnavailable
	default:
		return CodeInternal
	}
}

// Message is the short caller-facing message for err. Unknown errors never leak their text.
func Message(err error) string {
	if Code(err) == CodeInternal {
		return "internal server error"
	}
	return strings.TrimSpace(err.Error())
}

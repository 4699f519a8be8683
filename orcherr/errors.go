// Package orcherr defines the orchestration core's error taxonomy.
//
// ResultError mirrors the shape of the SDK's agent.ResultError so that
// orchestration failures serialize the same way agent-result failures do,
// but carries the error codes from the orchestration error taxonomy
// (InvalidIdentifier, NotRegistered, Unreachable, ToolError, Timeout,
// Blocked, PolicyDenied, Internal) rather than agent-specific codes.
package orcherr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Error codes in the orchestration core's taxonomy.
const (
	CodeInvalidIdentifier = "INVALID_IDENTIFIER"
	CodeNotRegistered     = "NOT_REGISTERED"
	CodeUnreachable       = "UNREACHABLE"
	CodeToolError         = "TOOL_ERROR"
	CodeTimeout           = "TIMEOUT"
	CodeBlocked           = "BLOCKED"
	CodePolicyDenied      = "POLICY_DENIED"
	CodeInternal          = "INTERNAL"
)

// ResultError is a JSON-serializable error carrying a taxonomy code,
// an optional cause chain, and the component that raised it.
type ResultError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     *ResultError   `json:"cause,omitempty"`
	Retryable bool           `json:"retryable"`
	Component string         `json:"component,omitempty"`
}

func (e *ResultError) Error() string {
	var parts []string
	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("%s [%s]", e.Component, e.Code))
	} else {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// New creates a ResultError with the given taxonomy code and message.
func New(code, message string) *ResultError {
	return &ResultError{Code: code, Message: message}
}

// Wrap creates a ResultError with the given code/message, chaining err as
// the cause. If err is already a *ResultError it is used directly;
// otherwise it is converted via FromError.
func Wrap(err error, code, message string) *ResultError {
	if err == nil {
		return New(code, message)
	}
	wrapped := &ResultError{Code: code, Message: message}
	if re, ok := err.(*ResultError); ok {
		wrapped.Cause = re
		return wrapped
	}
	wrapped.Cause = FromError(err)
	return wrapped
}

// FromError converts any error into a ResultError, defaulting to
// CodeInternal when the error carries no taxonomy code of its own.
func FromError(err error) *ResultError {
	if err == nil {
		return nil
	}
	if re, ok := err.(*ResultError); ok {
		return re
	}
	return &ResultError{Code: CodeInternal, Message: err.Error()}
}

func (e *ResultError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

func (e *ResultError) WithDetails(details map[string]any) *ResultError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

func (e *ResultError) WithRetryable(retryable bool) *ResultError {
	e.Retryable = retryable
	return e
}

func (e *ResultError) WithComponent(component string) *ResultError {
	e.Component = component
	return e
}

func (e *ResultError) MarshalJSON() ([]byte, error) {
	type alias ResultError
	return json.Marshal((*alias)(e))
}

func (e *ResultError) UnmarshalJSON(data []byte) error {
	type alias ResultError
	return json.Unmarshal(data, (*alias)(e))
}

// HTTPStatus maps a taxonomy code to the HTTP status the §6 surface
// should return for it.
func HTTPStatus(code string) int {
	switch code {
	case CodeInvalidIdentifier:
		return http.StatusBadRequest
	case CodeNotRegistered:
		return http.StatusNotFound
	case CodeBlocked:
		return http.StatusServiceUnavailable
	case CodePolicyDenied:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnreachable, CodeToolError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

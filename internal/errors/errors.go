package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a sift error code.
type ErrorCode string

const (
	ErrValidation     ErrorCode = "VALIDATION"      // client-side, request never sent
	ErrNetwork        ErrorCode = "NETWORK"         // no response received
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400 / 422
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"    // 401
	ErrQuotaExceeded  ErrorCode = "QUOTA_EXCEEDED"  // 402
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrRateLimited    ErrorCode = "RATE_LIMITED"    // 429
	ErrServer         ErrorCode = "SERVER"          // 5xx and everything else
)

// Error represents a structured error with code, HTTP status, and details.
// Status is 0 for errors that never reached the server (validation, network).
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidation creates an error for a client-side form constraint violation.
func NewValidation(msg string) *Error {
	return &Error{
		Code:    ErrValidation,
		Message: msg,
	}
}

// NewNetwork creates an error for a request that got no response at all.
func NewNetwork(err error) *Error {
	msg := "network error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrNetwork,
		Message: msg,
	}
}

// NewUnauthorized creates a 401 error.
func NewUnauthorized(msg string) *Error {
	if msg == "" {
		msg = "authentication required"
	}
	return &Error{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: msg,
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInternal creates a generic server-side error.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrServer,
		Status:  500,
		Message: msg,
	}
}

// FromResponse builds an Error from a non-2xx response. The human-readable
// message is extracted from the body using a fixed precedence of known
// shapes: {"detail": "..."}, then {"error": {"message": "..."}}, then a bare
// string body, then a generic fallback.
func FromResponse(status int, body []byte) *Error {
	return &Error{
		Code:    codeForStatus(status),
		Status:  status,
		Message: MessageFromBody(status, body),
	}
}

// codeForStatus maps an HTTP status to an error code.
func codeForStatus(status int) ErrorCode {
	switch status {
	case 400, 422:
		return ErrInvalidRequest
	case 401:
		return ErrUnauthorized
	case 402:
		return ErrQuotaExceeded
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	default:
		return ErrServer
	}
}

// MessageFromBody extracts a display message from a failure response body.
func MessageFromBody(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" {
		// {"detail": "..."} (the backend's default error shape)
		var detail struct {
			Detail json.RawMessage `json:"detail"`
		}
		if err := json.Unmarshal(body, &detail); err == nil && len(detail.Detail) > 0 {
			var s string
			if json.Unmarshal(detail.Detail, &s) == nil && s != "" {
				return s
			}
		}

		// {"error": {"message": "..."}}
		var wrapped struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error.Message != "" {
			return wrapped.Error.Message
		}

		// Bare string body, either JSON-encoded or plain text.
		var s string
		if err := json.Unmarshal(body, &s); err == nil && s != "" {
			return s
		}
		if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
			return trimmed
		}
	}

	return fmt.Sprintf("request failed with status %d", status)
}

// Is checks if an error is (or wraps) a sift Error with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *Error
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0 if err is not a
// sift Error or never reached the server.
func StatusOf(err error) int {
	var sErr *Error
	if stderrors.As(err, &sErr) {
		return sErr.Status
	}
	return 0
}

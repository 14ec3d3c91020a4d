package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
//
// Errors compare by code under errors.Is, so a login failure carrying the
// server's message still matches ErrAuthFailed.
type DomainError struct {
	Code    string // Error code (e.g., "CD-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Status  int    // HTTP status when the failure came from the remote API
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithMessage returns a copy of the error with a different message.
func (e *DomainError) WithMessage(message string) *DomainError {
	c := *e
	c.Message = message
	return &c
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithStatus returns a copy of the error carrying an HTTP status.
func (e *DomainError) WithStatus(status int) *DomainError {
	c := *e
	c.Status = status
	return &c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ErrorMessage returns the message a view should show for err: the domain
// message (plus details) without the code prefix, or err.Error() otherwise.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		if de.Details != "" {
			return de.Message + ": " + de.Details
		}
		return de.Message
	}
	return err.Error()
}

// ============================================================================
// Session Errors
// ============================================================================

var (
	// ErrAuthFailed is the AuthError: login rejected by the remote API or
	// the login call failed in transit.
	ErrAuthFailed = NewDomainError("CD-AUTH-4010", "Login failed")

	// ErrSessionCorrupt is the CorruptSessionError: stored session data
	// could not be parsed.
	ErrSessionCorrupt = NewDomainError("CD-SESS-5001", "stored session is corrupt")

	// ErrLoginRequired is returned when a protected view is requested
	// without a session.
	ErrLoginRequired = NewDomainError("CD-AUTH-4011", "login required")
)

// ============================================================================
// Catalog Errors
// ============================================================================

var (
	// ErrRemoteCall is the RemoteCallError: a non-success response or a
	// transport failure during a catalog operation.
	ErrRemoteCall = NewDomainError("CD-REMOTE-5020", "remote call failed")

	// ErrInvalidPayload indicates a product payload could not be encoded or decoded.
	ErrInvalidPayload = NewDomainError("CD-CAT-4000", "invalid product payload")
)

// ============================================================================
// System and Argument Errors
// ============================================================================

var (
	// ErrStorage indicates the durable local storage failed.
	ErrStorage = NewDomainError("CD-SYS-5001", "storage error")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("CD-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("CD-ARG-1002", "missing required argument")

	// ErrRouteNotFound indicates a navigation target matched no route.
	ErrRouteNotFound = NewDomainError("CD-NAV-4040", "route not found")
)

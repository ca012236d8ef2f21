// Package apperr provides error code definitions shared across the core.
package apperr

import "fmt"

// Code classifies an application error.
type Code string

const (
	// General errors
	ErrInternal Code = "INTERNAL_ERROR"
	ErrInvalid  Code = "INVALID_INPUT"
	ErrNotFound Code = "NOT_FOUND"

	// Storage errors. Fatal to the calling operation, never retried
	// internally.
	ErrDatabase  Code = "DATABASE_ERROR"
	ErrMigration Code = "MIGRATION_FAILED"

	// Transient-local conditions. Callers degrade to cached data.
	ErrNoConnectivity Code = "NO_CONNECTIVITY"
	ErrNoCredential   Code = "NO_CREDENTIAL"
	ErrNoData         Code = "NO_DATA"

	// Remote favorite service errors.
	ErrRemoteUnavailable Code = "REMOTE_UNAVAILABLE"
	ErrRemoteRejected    Code = "REMOTE_REJECTED"
	ErrRemoteDecode      Code = "REMOTE_DECODE_FAILED"

	// Catalog / generation errors.
	ErrCatalogFailed    Code = "CATALOG_FAILED"
	ErrGenerationFailed Code = "GENERATION_FAILED"
)

// Error is an application error carrying a code, a message and an
// optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps an existing error with a code.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	for err != nil {
		if appErr, ok := err.(*Error); ok && appErr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// CodeOf returns the outermost code attached to err, or ErrInternal if
// none is present.
func CodeOf(err error) Code {
	for err != nil {
		if appErr, ok := err.(*Error); ok {
			return appErr.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ErrInternal
}

// Package errors defines the application error taxonomy shared by every layer.
package errors

import (
	"net/http"

	"github.com/pkg/errors"
)

// AppError is an error that knows how it is rendered to a client.
type AppError interface {
	error
	HTTPCode() int
	ErrorCode() string
	Message() string
	// Details is optional diagnostic text. The HTTP layer drops it for 5xx responses.
	Details() string
}

// BaseError is a coded AppError. Two BaseErrors match under errors.Is when their codes match.
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a coded error.
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{httpCode: httpCode, errorCode: errorCode, message: message, details: details}
}

func sentinel(httpCode int, errorCode, message string) *BaseError {
	return NewBaseError(httpCode, errorCode, message, "")
}

// Sentinels. Authentication messages never say which part of a credential was wrong.
var (
	ErrUnauthenticated      = sentinel(http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
	ErrInvalidCredentials   = sentinel(http.StatusUnauthorized, "INVALID_CREDENTIALS", "incorrect username or password")
	ErrInvalidExternalToken = sentinel(http.StatusUnauthorized, "INVALID_EXTERNAL_TOKEN", "invalid login token")
	ErrRefreshTokenInvalid  = sentinel(http.StatusUnauthorized, "REFRESH_TOKEN_INVALID", "invalid or expired refresh token")
	ErrForbidden            = sentinel(http.StatusForbidden, "FORBIDDEN", "access denied")

	ErrIdentityNotFound = sentinel(http.StatusNotFound, "IDENTITY_NOT_FOUND", "user not found")
	ErrUsernameTaken    = sentinel(http.StatusConflict, "USERNAME_TAKEN", "username is already taken")
	ErrRoleNotFound     = sentinel(http.StatusBadRequest, "ROLE_NOT_FOUND", "unknown role")

	ErrValidationFailed = sentinel(http.StatusBadRequest, "VALIDATION_FAILED", "input validation failed")
	ErrTooManyRequests  = sentinel(http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "too many requests")

	ErrStorageUnavailable = sentinel(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "service temporarily unavailable")
	ErrInternalError      = sentinel(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
)

func (e *BaseError) Error() string     { return e.message }
func (e *BaseError) HTTPCode() int     { return e.httpCode }
func (e *BaseError) ErrorCode() string { return e.errorCode }
func (e *BaseError) Message() string   { return e.message }
func (e *BaseError) Details() string   { return e.details }

// WrapMessage annotates the error for logs without changing what the client sees.
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// WithDetails returns a copy carrying details.
func (e *BaseError) WithDetails(details string) *BaseError {
	cp := *e
	cp.details = details

	return &cp
}

// Is matches any BaseError with the same error code.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)

	return ok && e.errorCode == t.errorCode
}

// DatabaseExecuteError wraps a driver failure that is neither a known constraint nor a timeout.
type DatabaseExecuteError struct {
	err       error
	operation string
}

// NewDatabaseExecuteError wraps err raised while running operation.
func NewDatabaseExecuteError(err error, operation string) AppError {
	return &DatabaseExecuteError{err: err, operation: operation}
}

func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

func (e *DatabaseExecuteError) Unwrap() error     { return e.err }
func (e *DatabaseExecuteError) HTTPCode() int     { return http.StatusInternalServerError }
func (e *DatabaseExecuteError) ErrorCode() string { return "DATABASE_EXECUTE_FAILED" }
func (e *DatabaseExecuteError) Message() string   { return "database execution failed" }
func (e *DatabaseExecuteError) Details() string   { return e.operation }

// ConfigurationError reports a missing or invalid setting. It is only ever returned
// during startup and aborts the process.
type ConfigurationError struct {
	Key    string
	Reason string
}

// NewConfigurationError creates a configuration error for key.
func NewConfigurationError(key, reason string) *ConfigurationError {
	return &ConfigurationError{Key: key, Reason: reason}
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Key + ": " + e.Reason
}

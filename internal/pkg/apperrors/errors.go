package apperrors

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the store, the mutation gateway and the HTTP layer.
var (
	// ErrUnauthorized means no session, or an invalid one
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means authenticated but not the owner/author
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means a referenced user, photo or comment is absent
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means empty or malformed fields
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict means a unique field is already taken
	ErrConflict = errors.New("conflict")
	// ErrInternal covers store and broadcast failures
	ErrInternal = errors.New("internal error")
)

// Specific errors. Each one unwraps to a taxonomy sentinel.
var (
	ErrUserNotFound       = NewCustomError(ErrNotFound, "user not found").WithCode("USER_NOT_FOUND")
	ErrPhotoNotFound      = NewCustomError(ErrNotFound, "photo not found").WithCode("PHOTO_NOT_FOUND")
	ErrCommentNotFound    = NewCustomError(ErrNotFound, "comment not found").WithCode("COMMENT_NOT_FOUND")
	ErrSessionNotFound    = NewCustomError(ErrUnauthorized, "session not found").WithCode("SESSION_NOT_FOUND")
	ErrSessionRevoked     = NewCustomError(ErrUnauthorized, "session revoked").WithCode("SESSION_REVOKED")
	ErrSessionExpired     = NewCustomError(ErrUnauthorized, "session expired").WithCode("SESSION_EXPIRED")
	ErrInvalidCredentials = NewCustomError(ErrUnauthorized, "invalid login name or password").WithCode("INVALID_CREDENTIALS")
	ErrLoginNameTaken     = NewCustomError(ErrConflict, "login name already exists").WithCode("LOGIN_NAME_TAKEN")
	ErrEmptyComment       = NewCustomError(ErrInvalidInput, "comment cannot be empty").WithCode("EMPTY_COMMENT")
)

// NewNotFoundError creates a not-found error with a message
func NewNotFoundError(message string) error {
	return NewCustomError(ErrNotFound, message)
}

// NewForbiddenError creates a forbidden error with a message
func NewForbiddenError(message string) error {
	return NewCustomError(ErrForbidden, message)
}

// NewInvalidInputError creates an invalid-input error with a message
func NewInvalidInputError(format string, args ...interface{}) error {
	return NewCustomError(ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NewConflictError creates a conflict error with a message
func NewConflictError(message string) error {
	return NewCustomError(ErrConflict, message)
}

// NewUnauthorizedError creates an unauthorized error with a message
func NewUnauthorizedError(message string) error {
	return NewCustomError(ErrUnauthorized, message)
}

// Internal wraps a failure from the store or broadcaster as ErrInternal while
// keeping the cause in the chain.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrInternal, err))
}

// Is reports whether err matches target or any of errList.
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Kind returns the taxonomy sentinel err belongs to; unknown errors are ErrInternal.
func Kind(err error) error {
	for _, k := range []error{ErrUnauthorized, ErrForbidden, ErrNotFound, ErrInvalidInput, ErrConflict} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

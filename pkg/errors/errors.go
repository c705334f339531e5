package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for the auth domain.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicateField     = errors.New("duplicate field")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrMissingToken       = errors.New("missing token")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("expired token")
	ErrUserUnavailable    = errors.New("user unavailable")
	ErrValidation         = errors.New("validation failed")
	ErrInternal           = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
// Field is set for duplicate-field errors; Fields for validation errors.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"-"`
	Fields  map[string]string `json:"-"`
	Status  int               `json:"-"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error. The message is the user-visible plain-text
// body, e.g. "User not found.".
func NotFound(entity string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found.", entity),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// DuplicateField creates a 422 error attributed to the conflicting field.
func DuplicateField(field string) *AppError {
	return &AppError{
		Code:    "DUPLICATE_FIELD",
		Message: fmt.Sprintf("%s is already in use", field),
		Field:   field,
		Fields:  map[string]string{field: "is already in use"},
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrDuplicateField,
	}
}

// InvalidCredentials creates the 401 login failure. Account-existence and
// password mismatch produce this same value so callers cannot tell them apart.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:    "INVALID_CREDENTIALS",
		Message: "Incorrect username, password or email.",
		Status:  http.StatusUnauthorized,
		Err:     ErrInvalidCredentials,
	}
}

// Unauthorized creates the 401 authorization-guard denial.
func Unauthorized() *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: "Unauthorized.",
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// MissingToken creates the 401 for requests without a bearer credential.
func MissingToken() *AppError {
	return &AppError{
		Code:    "MISSING_TOKEN",
		Message: "No auth token",
		Status:  http.StatusUnauthorized,
		Err:     ErrMissingToken,
	}
}

// TokenInvalid creates the 401 for malformed or tampered tokens.
func TokenInvalid() *AppError {
	return &AppError{
		Code:    "TOKEN_INVALID",
		Message: "jwt malformed",
		Status:  http.StatusUnauthorized,
		Err:     ErrTokenInvalid,
	}
}

// TokenExpired creates the 401 for tokens past their expiry.
func TokenExpired() *AppError {
	return &AppError{
		Code:    "TOKEN_EXPIRED",
		Message: "jwt expired",
		Status:  http.StatusUnauthorized,
		Err:     ErrTokenExpired,
	}
}

// UserUnavailable creates the 401 for a valid token whose user no longer
// exists. Distinguished from TokenInvalid internally for logging.
func UserUnavailable() *AppError {
	return &AppError{
		Code:    "USER_UNAVAILABLE",
		Message: "User from token is unavailable.",
		Status:  http.StatusUnauthorized,
		Err:     ErrUserUnavailable,
	}
}

// Validation creates a 422 error carrying the complete field to message map.
func Validation(fields map[string]string) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Message: "validation failed",
		Fields:  fields,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrValidation,
	}
}

// Internal creates a 500 error wrapping the cause.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateField), errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrUserUnavailable):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

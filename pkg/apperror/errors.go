package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrInternal        = errors.New("internal server error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrStorage         = errors.New("storage unavailable")
	ErrExternalService = errors.New("external service unavailable")
)

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation wraps ErrInvalidInput with a human readable reason.
func Validation(message string) *AppError {
	return New(http.StatusBadRequest, message, ErrInvalidInput)
}

// Storage marks err as a persistence failure.
func Storage(message string, err error) *AppError {
	return New(http.StatusServiceUnavailable, message, errors.Join(ErrStorage, err))
}

// External marks err as a failure of an upstream collaborator.
func External(message string, err error) *AppError {
	return New(http.StatusBadGateway, message, errors.Join(ErrExternalService, err))
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrStorage) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrExternalService) {
		return http.StatusBadGateway
	}
	// Default to internal server error
	return http.StatusInternalServerError
}

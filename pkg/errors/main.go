package errors

import (
	"errors"
	"fmt"
)

const (
	StatusBadRequest          = 400
	StatusInternalServerError = 500
	StatusServiceUnavailable  = 503
)

const (
	ErrorTypeDatabaseError      = "DATABASE_ERROR"
	ErrorTypeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrorTypeInvalidRequest     = "INVALID_REQUEST"
	ErrorTypeUnknown            = "UNKNOWN_ERROR"
)

type AppError struct {
	Type    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(errType, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// NewInvalidRequestError marks a caller mistake. It is never retried server-side.
func NewInvalidRequestError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInvalidRequest, message, err)
}

// NewDatabaseError marks an unexpected fault raised by the persistence layer during an
// otherwise valid operation.
func NewDatabaseError(message string, err error) *AppError {
	return NewAppError(ErrorTypeDatabaseError, message, err)
}

// NewStorageUnavailableError marks a store that is not configured or not connected yet.
// Callers may retry once the operator has fixed the deployment.
func NewStorageUnavailableError(message string, err error) *AppError {
	return NewAppError(ErrorTypeStorageUnavailable, message, err)
}

func GetErrorType(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}

	return ErrorTypeUnknown
}

func IsInvalidRequest(err error) bool {
	return GetErrorType(err) == ErrorTypeInvalidRequest
}

func IsStorageUnavailable(err error) bool {
	return GetErrorType(err) == ErrorTypeStorageUnavailable
}

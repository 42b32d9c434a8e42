package errors

import (
	"errors"
)

const genericServerErrorMessage = "Server error."

func HTTPStatusCode(err error) int {
	if err == nil {
		return StatusInternalServerError
	}

	switch GetErrorType(err) {
	case ErrorTypeInvalidRequest:
		return StatusBadRequest
	case ErrorTypeStorageUnavailable:
		return StatusServiceUnavailable
	default:
		return StatusInternalServerError
	}
}

func GetHumanReadableMessage(err error) string {
	if err == nil {
		return genericServerErrorMessage
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		// SECURITY: avoid leaking internal error strings (DB errors, stack messages, etc.)
		return genericServerErrorMessage
	}

	switch appErr.Type {
	case ErrorTypeDatabaseError, ErrorTypeUnknown:
		return genericServerErrorMessage
	}

	return appErr.Message
}

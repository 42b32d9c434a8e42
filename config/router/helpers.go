package router

import (
	"errors"
	"io"
	"net/http"

	"github.com/akeren/rankly-signals/internal/log"
	apperrors "github.com/akeren/rankly-signals/pkg/errors"
)

func GetLogger(ctx *RequestContext) *log.Logger {
	if logger := ctx.Request.Context().Value(log.LoggerKeyForContext); logger != nil {
		if l, ok := logger.(*log.Logger); ok {
			return l
		}
	}

	baseLogger := log.NewLoggerWithJSONOutput()
	return baseLogger.WithCorrelationID(ctx.Request.Context())
}

func OKResult(data any, message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Data:       data,
		Message:    message,
	}
}

func BadRequestResult(message string, payload any) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusBadRequest,
		Data:       payload,
		Message:    message,
	}
}

func NotFoundResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusNotFound,
		Data:       nil,
		Message:    message,
	}
}

func MethodNotAllowedResult() *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusMethodNotAllowed,
		Data:       nil,
		Message:    "Method not allowed.",
	}
}

func ServiceUnavailableResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusServiceUnavailable,
		Data:       nil,
		Message:    message,
	}
}

func InternalServerErrorResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusInternalServerError,
		Data:       nil,
		Message:    message,
	}
}

func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
	}
}

// ResultFromError maps an application error to its status code and a message that is safe
// to show to clients.
func ResultFromError(ctx *RequestContext, err error) *ServiceResult {
	status := apperrors.HTTPStatusCode(err)
	message := apperrors.GetHumanReadableMessage(err)

	switch {
	case status == http.StatusServiceUnavailable:
		GetLogger(ctx).Warn("Storage unavailable", "error", err)
		return ServiceUnavailableResult(message)
	case status >= http.StatusInternalServerError:
		GetLogger(ctx).Error("Request failed", "error", err, "error_type", apperrors.GetErrorType(err))
	}

	return ErrorResult(status, message, nil)
}

// BindJSON decodes the request body into dst. An empty body leaves dst untouched.
func BindJSON(ctx *RequestContext, dst any) *ServiceResult {
	err := ctx.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrorResult(http.StatusRequestEntityTooLarge, "Request payload too large", nil)
	}

	GetLogger(ctx).Warn("Rejected malformed request body", "error", err)
	return BadRequestResult("Invalid JSON body.", Payload{
		"details": apperrors.FormatValidationErrors(err, dst),
	})
}

package router

import (
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// Payload fields are merged into the top level of the response body.
type Payload = gin.H

type ServiceResult struct {
	StatusCode int
	Data       any
	Message    string
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

// ToJSON renders {ok, ...payload} on success and {ok: false, error, ...payload} on failure.
func (result *ServiceResult) ToJSON() gin.H {
	body := gin.H{"ok": result.IsSuccess()}

	switch data := result.Data.(type) {
	case nil:
	case gin.H:
		for k, v := range data {
			body[k] = v
		}
	default:
		body["data"] = data
	}

	if result.IsError() {
		body["error"] = result.Message
	}

	return body
}

func (result *ServiceResult) IsSuccess() bool {
	return result.StatusCode >= 200 && result.StatusCode < 300
}

func (result *ServiceResult) IsError() bool {
	return result.StatusCode >= 400
}

package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akeren/rankly-signals/internal/log"
	apperrors "github.com/akeren/rankly-signals/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Email string `json:"email"`
}

func mountTestController(rs *RouterService) {
	ctrl := NewRESTController("TestController", "/", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, "ip", func(ctx *RequestContext) *ServiceResult {
			return OKResult(Payload{"ip": ctx.ClientIP()}, "ok")
		})

		rs.AddPostHandler(c, "echo", func(ctx *RequestContext) *ServiceResult {
			var payload echoRequest
			if result := BindJSON(ctx, &payload); result != nil {
				return result
			}
			return OKResult(Payload{"email": payload.Email}, "ok")
		})

		rs.AddPostHandler(c, "fail", func(ctx *RequestContext) *ServiceResult {
			return ResultFromError(ctx, apperrors.NewDatabaseError("insert failed", io.ErrClosedPipe))
		})

		rs.AddPostHandler(c, "unavailable", func(ctx *RequestContext) *ServiceResult {
			return ResultFromError(ctx, apperrors.NewStorageUnavailableError("Storage is not ready.", nil))
		})

		rs.AddGetHandler(c, "nil", func(ctx *RequestContext) *ServiceResult {
			return nil
		})
	})

	rs.MountController(ctrl)
}

func newTestRouterService(t *testing.T) *RouterService {
	t.Helper()

	logger := log.NewLoggerWithWriter(io.Discard, slog.LevelError)
	return CreateRouterService(logger, &RouterConfig{
		RequestTimeout: 5 * time.Second,
	})
}

func serve(rs *RouterService, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&body))
	return body
}

func TestTrustedProxies_DisabledByDefault(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")

	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w := serve(rs, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "10.0.0.2", body["ip"])
}

func TestTrustedProxies_StarTrustsForwardedFor(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "*")

	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w := serve(rs, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1.1.1.1", decodeBody(t, w)["ip"])
}

func TestMaxBodySize_Returns413(t *testing.T) {
	t.Setenv("MAX_REQUEST_BODY_BYTES", "10")

	rs := newTestRouterService(t)
	mountTestController(rs)

	body := bytes.Repeat([]byte{'a'}, 50)
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := serve(rs, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	assert.Equal(t, false, decodeBody(t, w)["ok"])
}

func TestBindJSON_EmptyBodyIsEmptyObject(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodPost, "/echo", nil)

	w := serve(rs, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "", decodeBody(t, w)["email"])
}

func TestBindJSON_MalformedBodyIs400(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"email": "a@b.co",`))
	req.Header.Set("Content-Type", "application/json")

	w := serve(rs, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "Invalid JSON body.", body["error"])
}

func TestBindJSON_WrongTypeIs400(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"email": 42}`))

	w := serve(rs, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	details, ok := decodeBody(t, w)["details"].([]any)
	require.True(t, ok)
	require.Len(t, details, 1)
}

func TestResultFromError_HidesInternalDetail(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	w := serve(rs, httptest.NewRequest(http.MethodPost, "/fail", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, map[string]any{"ok": false, "error": "Server error."}, body)
}

func TestResultFromError_StorageUnavailableIs503(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	w := serve(rs, httptest.NewRequest(http.MethodPost, "/unavailable", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, map[string]any{"ok": false, "error": "Storage is not ready."}, decodeBody(t, w))
}

func TestResultFromError_StorageUnavailableResult(t *testing.T) {
	logger := log.NewLoggerWithWriter(io.Discard, slog.LevelError)
	req := httptest.NewRequest(http.MethodPost, "/unavailable", nil)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = req.WithContext(context.WithValue(req.Context(), log.LoggerKeyForContext, logger))

	result := ResultFromError(ctx, fmt.Errorf("acquire: %w", apperrors.NewStorageUnavailableError("Storage is not ready.", nil)))

	assert.Equal(t, ServiceUnavailableResult("Storage is not ready."), result)
	assert.False(t, result.IsSuccess())
}

func TestNoMethod_Returns405WithAllow(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	w := serve(rs, httptest.NewRequest(http.MethodGet, "/echo", nil))

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "POST", w.Header().Get("Allow"))
	assert.Equal(t, false, decodeBody(t, w)["ok"])
}

func TestNoRoute_Returns404(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	w := serve(rs, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found.", decodeBody(t, w)["error"])
}

func TestNilHandlerResult_Returns500(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	w := serve(rs, httptest.NewRequest(http.MethodGet, "/nil", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCorrelationID_IsEchoed(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")

	w := serve(rs, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestPrometheusEndpoint_DefaultPath(t *testing.T) {
	t.Setenv("PROMETHEUS_PATH", "")
	t.Setenv("METRICS_ENABLED", "")

	rs := newTestRouterService(t)
	mountTestController(rs)
	serve(rs, httptest.NewRequest(http.MethodGet, "/ip", nil))

	w := serve(rs, httptest.NewRequest(http.MethodGet, "/prometheus", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestPrometheusEndpoint_Disabled(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "false")

	rs := newTestRouterService(t)
	mountTestController(rs)

	w := serve(rs, httptest.NewRequest(http.MethodGet, "/prometheus", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotNil(t, rs.Registerer())
}

func TestDuplicateHandlerPanics(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	assert.Panics(t, func() {
		rs.MountController(NewRESTController("Again", "/", func(rs *RouterService, c *RESTController) {
			rs.AddGetHandler(c, "ip", func(ctx *RequestContext) *ServiceResult { return OKResult(nil, "") })
		}))
	})
}

package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/models"
	"github.com/akeren/rankly-signals/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteProvider(t *testing.T) *storage.Provider {
	t.Helper()

	target := "sqlite://file:" + uuid.NewString() + "?mode=memory&cache=shared"
	p := storage.NewProvider(testLogger(), func() (storage.Config, error) {
		return storage.Config{Target: target, ConnectAttempts: 1}, nil
	})
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	return p
}

func TestTrackEndpoint_StoresEvents(t *testing.T) {
	provider := newSQLiteProvider(t)

	rs := router.CreateRouterService(testLogger(), &router.RouterConfig{RequestTimeout: 5 * time.Second})
	rs.MountController(NewEventController(provider, testLogger()))

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/track", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, req)
		return w
	}

	for _, body := range []string{``, `{}`, `{"type":"pageview","path":"/"}`, `{"type":"waitlist_join"}`, `{"type":"cta_click"}`} {
		w := post(body)
		require.Equal(t, http.StatusOK, w.Code, body)
		assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	}

	w := post(`{"type":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	handle, err := provider.Acquire(context.Background())
	require.NoError(t, err)

	pageviews, err := handle.Events().CountByType(context.Background(), models.EventTypePageview)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pageviews)

	joins, err := handle.Events().CountByType(context.Background(), models.EventTypeWaitlistJoin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), joins)
}

func TestTrackEndpoint_UnconfiguredStorageIs503(t *testing.T) {
	provider := storage.NewProvider(testLogger(), func() (storage.Config, error) {
		return storage.Config{}, nil
	})

	rs := router.CreateRouterService(testLogger(), &router.RouterConfig{RequestTimeout: 5 * time.Second})
	rs.MountController(NewEventController(provider, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/track", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, storage.StatusUnconfigured, provider.State().Status)
}

package waitlist

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/models"
	apperrors "github.com/akeren/rankly-signals/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestRouter(t *testing.T, repo WaitlistRepository) *router.RouterService {
	t.Helper()

	rs := router.CreateRouterService(testLogger(), &router.RouterConfig{RequestTimeout: 5 * time.Second})
	rs.MountController(router.NewRESTController("WaitlistController", "/waitlist", func(rs *router.RouterService, c *router.RESTController) {
		rs.AddPostHandler(c, "", joinWaitlistHandler(NewWaitlistService(testLogger(), repo, rs.Registerer())))
	}))
	return rs
}

func postWaitlist(rs *router.RouterService, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/waitlist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	return w
}

func TestJoinWaitlistHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := NewMockWaitlistRepository(ctrl)
	rs := newTestRouter(t, mockRepo)

	t.Run("created", func(t *testing.T) {
		mockRepo.EXPECT().
			RegisterEntry(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, entry *models.WaitlistEntry) (bool, error) {
				require.NotNil(t, entry.UserAgent)
				require.NotNil(t, entry.Referrer)
				assert.Equal(t, "test-agent", *entry.UserAgent)
				assert.Equal(t, "https://rankly.example/", *entry.Referrer)
				return true, nil
			})

		w := postWaitlist(rs, `{"email":"ada@example.com"}`, map[string]string{
			"User-Agent": "test-agent",
			"Referer":    "https://rankly.example/",
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"alreadyOnList":false}`, w.Body.String())
	})

	t.Run("already on list", func(t *testing.T) {
		mockRepo.EXPECT().RegisterEntry(gomock.Any(), gomock.Any()).Return(false, nil)

		w := postWaitlist(rs, `{"email":"ADA@example.com"}`, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"alreadyOnList":true}`, w.Body.String())
	})

	t.Run("invalid email", func(t *testing.T) {
		w := postWaitlist(rs, `{"email":"nope"}`, nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"ok":false,"error":"Invalid email."}`, w.Body.String())
	})

	t.Run("empty body", func(t *testing.T) {
		w := postWaitlist(rs, ``, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := postWaitlist(rs, `{"email":`, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("storage unavailable", func(t *testing.T) {
		mockRepo.EXPECT().
			RegisterEntry(gomock.Any(), gomock.Any()).
			Return(false, apperrors.NewStorageUnavailableError("Storage is not ready.", nil))

		w := postWaitlist(rs, `{"email":"ada@example.com"}`, nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("storage error is generic", func(t *testing.T) {
		mockRepo.EXPECT().
			RegisterEntry(gomock.Any(), gomock.Any()).
			Return(false, apperrors.NewDatabaseError("unable to register waitlist entry", nil))

		w := postWaitlist(rs, `{"email":"ada@example.com"}`, nil)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Server error.", body["error"])
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/waitlist", nil)
		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "POST", w.Header().Get("Allow"))
	})
}

package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/pdvsync/internal/connectivity"
	apperrors "github.com/allisson/pdvsync/internal/errors"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
	"github.com/allisson/pdvsync/internal/sync/http/dto"
	"github.com/allisson/pdvsync/internal/sync/usecase/mocks"
)

func setupTestSyncHandler(t *testing.T, initial connectivity.State) (*SyncHandler, *mocks.MockEngine, *connectivity.Bus) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockEngine := mocks.NewMockEngine(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := connectivity.NewBus(initial, logger)

	return NewSyncHandler(mockEngine, bus, logger), mockEngine, bus
}

func TestSyncHandler_PullHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockEngine, _ := setupTestSyncHandler(t, connectivity.State{Online: true, Authenticated: true})
		mockEngine.On("SyncFromCloud", mock.Anything).
			Return(syncDomain.SyncReport{Drained: 1, Applied: 4, Deleted: 1, Skipped: 2}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/sync/pull", "")
		handler.PullHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"drained":1,"applied":4,"deleted":1,"skipped":2,"pushed":0}`, w.Body.String())
	})

	t.Run("Error_PendingNotDrained", func(t *testing.T) {
		handler, mockEngine, _ := setupTestSyncHandler(t, connectivity.State{Online: true, Authenticated: true})
		mockEngine.On("SyncFromCloud", mock.Anything).
			Return(syncDomain.SyncReport{}, syncDomain.ErrPendingNotDrained).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/sync/pull", "")
		handler.PullHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestSyncHandler_PushHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockEngine, _ := setupTestSyncHandler(t, connectivity.State{Online: true, Authenticated: true})
		mockEngine.On("SyncToCloud", mock.Anything).Return(syncDomain.SyncReport{Pushed: 3}, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/sync/push", "")
		handler.PushHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.SyncReportResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 3, response.Pushed)
	})

	t.Run("Error_Offline", func(t *testing.T) {
		handler, mockEngine, _ := setupTestSyncHandler(t, connectivity.State{})
		mockEngine.On("SyncToCloud", mock.Anything).
			Return(syncDomain.SyncReport{}, syncDomain.ErrRemoteUnavailable).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/sync/push", "")
		handler.PushHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestSyncHandler_DrainHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockEngine, _ := setupTestSyncHandler(t, connectivity.State{Online: true, Authenticated: true})
		mockEngine.On("DrainPending", mock.Anything).Return(5, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/sync/drain", "")
		handler.DrainHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"drained":5}`, w.Body.String())
	})

	t.Run("Error_Internal", func(t *testing.T) {
		handler, mockEngine, _ := setupTestSyncHandler(t, connectivity.State{Online: true, Authenticated: true})
		mockEngine.On("DrainPending", mock.Anything).Return(0, apperrors.New("disk full")).Once()

		c, w := createTestContext(http.MethodPost, "/v1/sync/drain", "")
		handler.DrainHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "disk full")
	})
}

func TestSyncHandler_StatusHandler(t *testing.T) {
	handler, mockEngine, _ := setupTestSyncHandler(t, connectivity.State{Online: true})
	pulledAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mockEngine.On("Status", mock.Anything).Return(&syncDomain.Status{
		Online:            true,
		PendingOperations: 2,
		LastPullAt:        &pulledAt,
	}, nil).Once()

	c, w := createTestContext(http.MethodGet, "/v1/sync/status", "")
	handler.StatusHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"online":true,"authenticated":false,"pending_operations":2,"last_pull_at":"2026-03-10T12:00:00Z"}`,
		w.Body.String())
}

func TestSyncHandler_SessionHandler(t *testing.T) {
	t.Run("SignIn", func(t *testing.T) {
		handler, _, bus := setupTestSyncHandler(t, connectivity.State{Online: true})
		events, unsubscribe := bus.Subscribe(1)
		defer unsubscribe()

		c, w := createTestContext(http.MethodPut, "/v1/sync/session", `{"authenticated":true}`)
		handler.SessionHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"online":true,"authenticated":true,"reachable":true}`, w.Body.String())
		event := <-events
		assert.Equal(t, connectivity.EventSignedIn, event.Type)
	})

	t.Run("SignOut", func(t *testing.T) {
		handler, _, bus := setupTestSyncHandler(t, connectivity.State{Online: true, Authenticated: true})

		c, w := createTestContext(http.MethodPut, "/v1/sync/session", `{"authenticated":false}`)
		handler.SessionHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, bus.IsAuthenticated())
		assert.Contains(t, w.Body.String(), `"reachable":false`)
	})

	t.Run("Error_MissingField", func(t *testing.T) {
		handler, _, bus := setupTestSyncHandler(t, connectivity.State{Online: true, Authenticated: true})

		c, w := createTestContext(http.MethodPut, "/v1/sync/session", `{}`)
		handler.SessionHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.True(t, bus.IsAuthenticated())
	})

	t.Run("Error_MalformedJSON", func(t *testing.T) {
		handler, _, _ := setupTestSyncHandler(t, connectivity.State{})

		c, w := createTestContext(http.MethodPut, "/v1/sync/session", `{"authenticated":`)
		handler.SessionHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

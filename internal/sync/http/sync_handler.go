package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/pdvsync/internal/connectivity"
	"github.com/allisson/pdvsync/internal/httputil"
	"github.com/allisson/pdvsync/internal/sync/http/dto"
	syncUseCase "github.com/allisson/pdvsync/internal/sync/usecase"
	customValidation "github.com/allisson/pdvsync/internal/validation"
)

// SessionPublisher publishes operator session transitions.
type SessionPublisher interface {
	Publish(event connectivity.Event) bool
	State() connectivity.State
}

// SyncHandler exposes manual reconciliation and the operator session.
type SyncHandler struct {
	engine  syncUseCase.Engine
	session SessionPublisher
	logger  *slog.Logger
}

// NewSyncHandler creates a new sync handler with required dependencies.
func NewSyncHandler(engine syncUseCase.Engine, session SessionPublisher, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		engine:  engine,
		session: session,
		logger:  logger,
	}
}

// PullHandler drains pending operations and merges remote data into the cache.
// POST /v1/sync/pull
func (h *SyncHandler) PullHandler(c *gin.Context) {
	report, err := h.engine.SyncFromCloud(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSyncReportToResponse(report))
}

// PushHandler drains pending operations and pushes newer cached records.
// POST /v1/sync/push
func (h *SyncHandler) PushHandler(c *gin.Context) {
	report, err := h.engine.SyncToCloud(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSyncReportToResponse(report))
}

// DrainHandler replays pending operations in enqueue order.
// POST /v1/sync/drain
func (h *SyncHandler) DrainHandler(c *gin.Context) {
	drained, err := h.engine.DrainPending(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.DrainResponse{Drained: drained})
}

// StatusHandler reports connectivity, pending operations and last sync times.
// GET /v1/sync/status
func (h *SyncHandler) StatusHandler(c *gin.Context) {
	status, err := h.engine.Status(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatusToResponse(status))
}

// SessionHandler signs the operator in or out of the remote store. Signing in makes
// the engine drain and pull as soon as the remote store is also online.
// PUT /v1/sync/session
func (h *SyncHandler) SessionHandler(c *gin.Context) {
	var req dto.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	event := connectivity.Event{Type: connectivity.EventSignedOut}
	if *req.Authenticated {
		event.Type = connectivity.EventSignedIn
	}
	h.session.Publish(event)

	state := h.session.State()
	c.JSON(http.StatusOK, dto.SessionResponse{
		Online:        state.Online,
		Authenticated: state.Authenticated,
		Reachable:     state.Reachable(),
	})
}

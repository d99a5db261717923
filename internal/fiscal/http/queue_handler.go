// Package http provides HTTP handlers for the fiscal emission queue and the fiscal log.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
	"github.com/allisson/pdvsync/internal/fiscal/http/dto"
	fiscalUseCase "github.com/allisson/pdvsync/internal/fiscal/usecase"
	"github.com/allisson/pdvsync/internal/httputil"
	customValidation "github.com/allisson/pdvsync/internal/validation"
)

// QueueHandler handles HTTP requests for the fiscal emission queue. Every state change
// is an explicit call; nothing here runs in the background.
type QueueHandler struct {
	queueUseCase fiscalUseCase.QueueUseCase
	logger       *slog.Logger
}

// NewQueueHandler creates a new queue handler with required dependencies.
func NewQueueHandler(queueUseCase fiscalUseCase.QueueUseCase, logger *slog.Logger) *QueueHandler {
	return &QueueHandler{
		queueUseCase: queueUseCase,
		logger:       logger,
	}
}

// ListHandler lists queue items ordered by enqueue time.
// GET /v1/fiscal/queue?status=queued
func (h *QueueHandler) ListHandler(c *gin.Context) {
	var status *fiscalDomain.Status
	if raw := c.Query("status"); raw != "" {
		parsed, err := fiscalDomain.ParseStatus(raw)
		if err != nil {
			httputil.HandleValidationErrorGin(c, err, h.logger)
			return
		}
		status = &parsed
	}

	items, err := h.queueUseCase.GetQueue(c.Request.Context(), status)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQueueItemsToListResponse(items))
}

// StatusHandler returns per-status counts and gateway readiness.
// GET /v1/fiscal/queue/status
func (h *QueueHandler) StatusHandler(c *gin.Context) {
	status, err := h.queueUseCase.GetQueueStatus(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQueueStatusToResponse(status))
}

// GetHandler returns the queue item of an order.
// GET /v1/fiscal/queue/:orderId
func (h *QueueHandler) GetHandler(c *gin.Context) {
	item, err := h.queueUseCase.GetQueueItem(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQueueItemToResponse(item))
}

// EligibilityHandler reports whether an order can be emitted and every unmet condition.
// GET /v1/fiscal/orders/:orderId/eligibility
func (h *QueueHandler) EligibilityHandler(c *gin.Context) {
	result, err := h.queueUseCase.CanEmitFiscal(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEligibilityToResponse(result))
}

// SendHandler queues an eligible order. Returns 201 Created with the new item, or 422
// listing every unmet condition.
// POST /v1/fiscal/queue/:orderId
func (h *QueueHandler) SendHandler(c *gin.Context) {
	item, err := h.queueUseCase.SendToQueue(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapQueueItemToResponse(item))
}

// ProcessHandler runs one emission attempt. Gateway outcomes (authorized, denied, error,
// still processing) are reported in the item status with 200 OK.
// POST /v1/fiscal/queue/:orderId/process
func (h *QueueHandler) ProcessHandler(c *gin.Context) {
	item, err := h.queueUseCase.ProcessQueueItem(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQueueItemToResponse(item))
}

// PollHandler checks the gateway for the outcome of a PROCESSING item.
// POST /v1/fiscal/queue/:orderId/poll
func (h *QueueHandler) PollHandler(c *gin.Context) {
	item, err := h.queueUseCase.PollQueueItem(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQueueItemToResponse(item))
}

// ReprocessHandler returns a DENIED or ERROR item to the queue.
// POST /v1/fiscal/queue/:orderId/reprocess
func (h *QueueHandler) ReprocessHandler(c *gin.Context) {
	item, err := h.queueUseCase.ReprocessQueueItem(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQueueItemToResponse(item))
}

// CancelHandler abandons an item that was not authorized.
// POST /v1/fiscal/queue/:orderId/cancel
func (h *QueueHandler) CancelHandler(c *gin.Context) {
	var req dto.CancelQueueItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	item, err := h.queueUseCase.CancelQueueItem(c.Request.Context(), c.Param("orderId"), req.Reason)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQueueItemToResponse(item))
}

// RemoveHandler deletes a CANCELLED or ERROR item. Returns 204 No Content.
// DELETE /v1/fiscal/queue/:orderId
func (h *QueueHandler) RemoveHandler(c *gin.Context) {
	if err := h.queueUseCase.RemoveFromQueue(c.Request.Context(), c.Param("orderId")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// CancelDocumentHandler cancels the authorized document of an order at the gateway.
// POST /v1/fiscal/queue/:orderId/cancel-document
func (h *QueueHandler) CancelDocumentHandler(c *gin.Context) {
	var req dto.CancelDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	item, err := h.queueUseCase.CancelDocument(c.Request.Context(), c.Param("orderId"), req.Justification)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQueueItemToResponse(item))
}

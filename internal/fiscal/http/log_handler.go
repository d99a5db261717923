package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/pdvsync/internal/fiscal/http/dto"
	fiscalUseCase "github.com/allisson/pdvsync/internal/fiscal/usecase"
	"github.com/allisson/pdvsync/internal/httputil"
)

// LogHandler handles HTTP requests for the append-only fiscal log.
type LogHandler struct {
	logUseCase fiscalUseCase.LogUseCase
	logger     *slog.Logger
}

// NewLogHandler creates a new fiscal log handler with required dependencies.
func NewLogHandler(logUseCase fiscalUseCase.LogUseCase, logger *slog.Logger) *LogHandler {
	return &LogHandler{
		logUseCase: logUseCase,
		logger:     logger,
	}
}

// ListByOrderHandler returns the full audit trail of one order, oldest first.
// GET /v1/fiscal/logs/:orderId
func (h *LogHandler) ListByOrderHandler(c *gin.Context) {
	entries, err := h.logUseCase.ListByOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFiscalLogsToListResponse(entries))
}

// ListHandler retrieves fiscal log entries newest first with pagination.
// GET /v1/fiscal/logs?offset=0&limit=50&created_at_from=2026-03-01T00:00:00Z&created_at_to=2026-03-31T23:59:59Z
// Both boundaries are optional, RFC3339, converted to UTC and inclusive.
func (h *LogHandler) ListHandler(c *gin.Context) {
	page, err := httputil.ParsePage(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	createdAtFrom, err := parseTimeQuery(c, "created_at_from")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	createdAtTo, err := parseTimeQuery(c, "created_at_to")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if createdAtFrom != nil && createdAtTo != nil && createdAtFrom.After(*createdAtTo) {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("created_at_from must be before or equal to created_at_to"),
			h.logger)
		return
	}

	entries, err := h.logUseCase.List(c.Request.Context(), page.Offset, page.Limit, createdAtFrom, createdAtTo)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFiscalLogsToListResponse(entries))
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: must be RFC3339 (e.g., 2026-03-01T00:00:00Z)", name)
	}
	utc := parsed.UTC()
	return &utc, nil
}

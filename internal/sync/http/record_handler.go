// Package http provides HTTP handlers for collection records and for manual sync control.
package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	apperrors "github.com/allisson/pdvsync/internal/errors"
	"github.com/allisson/pdvsync/internal/httputil"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
	"github.com/allisson/pdvsync/internal/sync/http/dto"
	syncUseCase "github.com/allisson/pdvsync/internal/sync/usecase"
)

// changeBuffer is how many undelivered changes a slow stream client may hold.
const changeBuffer = 64

// RecordHandler exposes the collections held by the sync engine.
type RecordHandler struct {
	engine syncUseCase.Engine
	logger *slog.Logger
}

// NewRecordHandler creates a new record handler with required dependencies.
func NewRecordHandler(engine syncUseCase.Engine, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{
		engine: engine,
		logger: logger,
	}
}

func (h *RecordHandler) collection(c *gin.Context) (entityDomain.Collection, bool) {
	collection, err := entityDomain.ParseCollection(c.Param("collection"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return "", false
	}
	return collection, true
}

// ListHandler returns every record of a collection. Each query parameter is an
// equality filter on a top-level JSON field; values that parse as JSON literals are
// compared as such, so ?paid=true matches a boolean and ?taxId="123" a string.
// GET /v1/collections/:collection?status=open
func (h *RecordHandler) ListHandler(c *gin.Context) {
	collection, ok := h.collection(c)
	if !ok {
		return
	}

	filters, err := parseFilters(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	docs, err := h.engine.List(c.Request.Context(), collection, filters...)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentsToListResponse(docs))
}

// GetHandler returns one record.
// GET /v1/collections/:collection/:id
func (h *RecordHandler) GetHandler(c *gin.Context) {
	collection, ok := h.collection(c)
	if !ok {
		return
	}

	doc, err := h.engine.GetDocument(c.Request.Context(), collection, c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentToResponse(doc))
}

// CreateHandler saves a new record under a generated id. Returns 201 Created, or
// 202 Accepted when the write is pending replay to the remote store.
// POST /v1/collections/:collection
func (h *RecordHandler) CreateHandler(c *gin.Context) {
	h.save(c, "", http.StatusCreated)
}

// UpdateHandler saves a record under the id in the path, creating it if needed.
// Returns 200 OK, or 202 Accepted when the write is pending replay.
// PUT /v1/collections/:collection/:id
func (h *RecordHandler) UpdateHandler(c *gin.Context) {
	h.save(c, c.Param("id"), http.StatusOK)
}

func (h *RecordHandler) save(c *gin.Context, id string, status int) {
	collection, ok := h.collection(c)
	if !ok {
		return
	}

	record, err := entityDomain.NewRecord(collection)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if err := c.ShouldBindJSON(record); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	*record.RecordMeta() = entityDomain.Meta{ID: id}

	result, err := h.engine.Save(c.Request.Context(), collection, record)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if result.Pending {
		status = http.StatusAccepted
	}
	c.JSON(status, dto.MapWriteResultToResponse(result))
}

// DeleteHandler removes a record. Returns 200 OK, or 202 Accepted when the delete is
// pending replay.
// DELETE /v1/collections/:collection/:id
func (h *RecordHandler) DeleteHandler(c *gin.Context) {
	collection, ok := h.collection(c)
	if !ok {
		return
	}
	if collection == entityDomain.CollectionFiscalQueue {
		httputil.HandleErrorGin(c,
			apperrors.Wrap(apperrors.ErrForbidden, "fiscal queue items are removed through the fiscal queue"),
			h.logger)
		return
	}

	result, err := h.engine.Delete(c.Request.Context(), collection, c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	status := http.StatusOK
	if result.Pending {
		status = http.StatusAccepted
	}
	c.JSON(status, dto.MapWriteResultToResponse(result))
}

// ChangesHandler streams remote changes of a collection as server-sent events until
// the client disconnects. Events are named after the change kind (upsert, delete).
// GET /v1/collections/:collection/changes
func (h *RecordHandler) ChangesHandler(c *gin.Context) {
	collection, ok := h.collection(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	changes := make(chan syncDomain.Change, changeBuffer)
	sub := h.engine.Listen(ctx, collection, func(change syncDomain.Change) {
		select {
		case changes <- change:
		default:
			h.logger.Warn("change stream client is lagging, change dropped",
				slog.String("collection", string(collection)),
				slog.String("id", change.Document.ID),
			)
		}
	})
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	for {
		select {
		case change := <-changes:
			h.send(c, change)
		case <-ctx.Done():
			for {
				select {
				case change := <-changes:
					h.send(c, change)
				default:
					return
				}
			}
		}
	}
}

func (h *RecordHandler) send(c *gin.Context, change syncDomain.Change) {
	c.SSEvent(string(change.Kind), dto.MapChangeToResponse(change))
	c.Writer.Flush()
}

func parseFilters(c *gin.Context) ([]syncDomain.Filter, error) {
	query := c.Request.URL.Query()
	filters := make([]syncDomain.Filter, 0, len(query))
	for field, values := range query {
		if len(values) > 1 {
			return nil, fmt.Errorf("filter %q given more than once", field)
		}
		filters = append(filters, syncDomain.Filter{Field: field, Value: filterValue(values[0])})
	}
	slices.SortFunc(filters, func(a, b syncDomain.Filter) int {
		return strings.Compare(a.Field, b.Field)
	})
	return filters, nil
}

func filterValue(raw string) any {
	decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
	decoder.UseNumber()

	var v any
	if err := decoder.Decode(&v); err != nil || decoder.More() {
		return raw
	}
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return raw
	case bool, string:
		return val
	default:
		return raw
	}
}

package usecase

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	apperrors "github.com/allisson/pdvsync/internal/errors"
	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
	"github.com/allisson/pdvsync/internal/gateway"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

// Config holds the queue settings.
type Config struct {
	// MaxAttempts is the emission budget given to new items.
	MaxAttempts int
}

// Queue is the QueueUseCase implementation. A single mutex serializes every mutation,
// so one item is never driven by two callers at once.
type Queue struct {
	engine      Engine
	gateway     Gateway
	conn        Connectivity
	logRepo     LogRepository
	maxAttempts int
	logger      *slog.Logger
	now         func() time.Time

	mu sync.Mutex
}

// NewQueue creates the fiscal emission queue.
func NewQueue(
	engine Engine,
	gw Gateway,
	conn Connectivity,
	logRepo LogRepository,
	cfg Config,
	logger *slog.Logger,
) *Queue {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = fiscalDomain.DefaultMaxAttempts
	}
	return &Queue{
		engine:      engine,
		gateway:     gw,
		conn:        conn,
		logRepo:     logRepo,
		maxAttempts: maxAttempts,
		logger:      logger,
		now:         time.Now,
	}
}

// CanEmitFiscal evaluates the live order against every emission condition.
func (q *Queue) CanEmitFiscal(ctx context.Context, orderID string) (*fiscalDomain.Eligibility, error) {
	order, err := q.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	settings, err := q.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	result := fiscalDomain.CheckEligibility(order, settings, q.conn.Reachable())
	return &result, nil
}

// SendToQueue checks eligibility and stores a QUEUED item holding a snapshot of the
// order. An order can be queued only once.
func (q *Queue) SendToQueue(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	existing, err := q.loadItem(ctx, orderID)
	if err == nil {
		return nil, fmt.Errorf("%w: order %s is %s", fiscalDomain.ErrAlreadyQueued, orderID, existing.Status)
	}
	if !errors.Is(err, fiscalDomain.ErrQueueItemNotFound) {
		return nil, err
	}

	order, err := q.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	settings, err := q.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if err := fiscalDomain.CheckEligibility(order, settings, q.conn.Reachable()).Err(); err != nil {
		return nil, err
	}

	now := q.now()
	snapshot, err := fiscalDomain.NewSnapshot(order, now)
	if err != nil {
		return nil, err
	}
	item := fiscalDomain.NewQueueItem(snapshot, q.maxAttempts, now)
	if err := q.save(ctx, item); err != nil {
		return nil, err
	}

	q.appendLog(ctx, item, fiscalDomain.ActionQueueAdd, "order queued for fiscal emission", map[string]any{
		"total": item.Total.StringFixed(2),
	})
	q.logger.Info("order queued for fiscal emission",
		slog.String("order_id", item.OrderID),
		slog.Int("order_number", item.OrderNumber),
	)
	return item, nil
}

// ProcessQueueItem runs one emission attempt for a QUEUED or PENDING item. A PROCESSING
// item is polled instead of emitted again. When the attempt budget is spent the item
// moves to ERROR, a limit_exceeded entry is logged and ErrLimitExceeded is returned
// together with the item, without contacting the gateway.
func (q *Queue) ProcessQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, err := q.loadItem(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch {
	case item.Status.IsTerminal():
		return nil, fmt.Errorf("%w: item is %s", fiscalDomain.ErrInvalidTransition, item.Status)
	case item.Status == fiscalDomain.StatusProcessing:
		return q.poll(ctx, item)
	case item.AttemptsExhausted():
		return q.exceedLimit(ctx, item)
	case item.Status != fiscalDomain.StatusQueued && item.Status != fiscalDomain.StatusPending:
		return nil, fmt.Errorf("%w: %s items must be reprocessed first", fiscalDomain.ErrInvalidTransition, item.Status)
	}

	if !q.gateway.Ready() || !q.conn.Reachable() {
		return q.postpone(ctx, item)
	}
	return q.emit(ctx, item)
}

// PollQueueItem checks the gateway for the outcome of a PROCESSING item. It never
// emits again.
func (q *Queue) PollQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, err := q.loadItem(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if item.Status != fiscalDomain.StatusProcessing {
		return nil, fmt.Errorf("%w: only processing items can be polled, item is %s",
			fiscalDomain.ErrInvalidTransition, item.Status)
	}
	return q.poll(ctx, item)
}

// ReprocessQueueItem returns a DENIED or ERROR item to QUEUED while attempts remain.
func (q *Queue) ReprocessQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, err := q.loadItem(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if item.Status != fiscalDomain.StatusDenied && item.Status != fiscalDomain.StatusError {
		return nil, fmt.Errorf("%w: only denied or error items can be reprocessed, item is %s",
			fiscalDomain.ErrInvalidTransition, item.Status)
	}
	if item.AttemptsExhausted() {
		return nil, fmt.Errorf("%w: %d of %d attempts used, cancel the item instead",
			fiscalDomain.ErrLimitExceeded, item.Attempts, item.MaxAttempts)
	}

	if err := item.Transition(fiscalDomain.StatusQueued, "reprocess requested", q.now()); err != nil {
		return nil, err
	}
	if err := q.save(ctx, item); err != nil {
		return nil, err
	}

	q.appendLog(ctx, item, fiscalDomain.ActionQueueRetry, "item returned to the queue", map[string]any{
		"attempts":     item.Attempts,
		"max_attempts": item.MaxAttempts,
	})
	return item, nil
}

// CancelQueueItem abandons an item that has not been authorized. A reason is required.
func (q *Queue) CancelQueueItem(ctx context.Context, orderID, reason string) (*fiscalDomain.QueueItem, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fiscalDomain.ErrReasonRequired
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	item, err := q.loadItem(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := item.Transition(fiscalDomain.StatusCancelled, reason, q.now()); err != nil {
		return nil, err
	}
	item.CancelReason = reason
	if err := q.save(ctx, item); err != nil {
		return nil, err
	}

	q.appendLog(ctx, item, fiscalDomain.ActionCancelQueue, reason, nil)
	q.logger.Info("fiscal queue item cancelled", slog.String("order_id", item.OrderID))
	return item, nil
}

// RemoveFromQueue deletes a CANCELLED or ERROR item.
func (q *Queue) RemoveFromQueue(ctx context.Context, orderID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, err := q.loadItem(ctx, orderID)
	if err != nil {
		return err
	}
	if !item.Status.IsRemovable() {
		return fmt.Errorf("%w: only cancelled or error items can be removed, item is %s",
			fiscalDomain.ErrInvalidTransition, item.Status)
	}
	if _, err := q.engine.Delete(ctx, entityDomain.CollectionFiscalQueue, item.OrderID); err != nil {
		return apperrors.Wrap(err, "failed to remove fiscal queue item")
	}

	q.appendLog(ctx, item, fiscalDomain.ActionQueueRemove, "item removed from the queue", nil)
	return nil
}

// CancelDocument cancels the authorized document of an item at the gateway. The item
// stays AUTHORIZED and records the cancellation; the order is updated as well. The
// justification is checked before anything else.
func (q *Queue) CancelDocument(ctx context.Context, orderID, justification string) (*fiscalDomain.QueueItem, error) {
	if err := gateway.ValidateJustification(justification); err != nil {
		return nil, err
	}
	justification = strings.TrimSpace(justification)

	q.mu.Lock()
	defer q.mu.Unlock()

	item, err := q.loadItem(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if item.Status != fiscalDomain.StatusAuthorized || item.Document == nil {
		return nil, fmt.Errorf("%w: only authorized documents can be cancelled, item is %s",
			fiscalDomain.ErrInvalidTransition, item.Status)
	}
	if item.Cancellation != nil {
		return nil, apperrors.Wrap(apperrors.ErrConflict, "fiscal document already cancelled")
	}
	if err := q.gatewayReachable(); err != nil {
		return nil, err
	}

	result, err := q.gateway.CancelDocument(ctx, item.Document.Key, justification)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to cancel fiscal document")
	}

	persistCtx := context.WithoutCancel(ctx)
	if !result.Success {
		q.appendLog(persistCtx, item, fiscalDomain.ActionCancelDocument, "cancellation refused: "+result.ErrorMessage,
			map[string]any{
				"success":    false,
				"error_code": result.ErrorCode,
			})
		return nil, fmt.Errorf("%w: %s", fiscalDomain.ErrCancelRefused, result.ErrorMessage)
	}

	now := q.now().UTC()
	item.Cancellation = &fiscalDomain.Cancellation{
		Justification: justification,
		Protocol:      result.Protocol,
		CancelledAt:   now,
	}
	if err := q.save(persistCtx, item); err != nil {
		return nil, err
	}
	q.writeBack(persistCtx, item.OrderID, func(order *entityDomain.Order) {
		if order.Fiscal == nil {
			order.Fiscal = &entityDomain.OrderFiscal{DocumentKey: item.Document.Key}
		}
		order.Fiscal.Status = "cancelled"
		order.Fiscal.CancelledAt = &now
		order.Fiscal.CancelProtocol = result.Protocol
	})

	q.appendLog(persistCtx, item, fiscalDomain.ActionCancelDocument, justification, map[string]any{
		"success":      true,
		"document_key": item.Document.Key,
		"protocol":     result.Protocol,
	})
	q.logger.Info("fiscal document cancelled",
		slog.String("order_id", item.OrderID),
		slog.String("document_key", item.Document.Key),
	)
	return item, nil
}

// GetQueue lists items by enqueue time, optionally restricted to one status.
func (q *Queue) GetQueue(ctx context.Context, status *fiscalDomain.Status) ([]*fiscalDomain.QueueItem, error) {
	var filters []syncDomain.Filter
	if status != nil {
		filters = append(filters, syncDomain.Filter{Field: "status", Value: string(*status)})
	}

	docs, err := q.engine.List(ctx, entityDomain.CollectionFiscalQueue, filters...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list fiscal queue")
	}

	items := make([]*fiscalDomain.QueueItem, 0, len(docs))
	for _, doc := range docs {
		var item fiscalDomain.QueueItem
		if err := doc.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	slices.SortFunc(items, func(a, b *fiscalDomain.QueueItem) int {
		if c := a.QueuedAt.Compare(b.QueuedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.OrderID, b.OrderID)
	})
	return items, nil
}

// GetQueueItem returns the item of an order.
func (q *Queue) GetQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	return q.loadItem(ctx, orderID)
}

// GetQueueStatus counts items per status.
func (q *Queue) GetQueueStatus(ctx context.Context) (*fiscalDomain.QueueStatus, error) {
	items, err := q.GetQueue(ctx, nil)
	if err != nil {
		return nil, err
	}
	status := fiscalDomain.NewQueueStatus(items)
	status.GatewayReady = q.gateway.Ready()
	status.Online = q.conn.Reachable()
	status.Environment = string(q.gateway.Environment())
	return status, nil
}

// postpone parks a QUEUED item as PENDING without consuming an attempt.
func (q *Queue) postpone(ctx context.Context, item *fiscalDomain.QueueItem) (*fiscalDomain.QueueItem, error) {
	if item.Status == fiscalDomain.StatusPending {
		return item, nil
	}

	note := fiscalDomain.ReasonOffline
	if !q.gateway.Ready() {
		note = "fiscal gateway not configured"
	}
	if err := item.Transition(fiscalDomain.StatusPending, note, q.now()); err != nil {
		return nil, err
	}
	if err := q.save(ctx, item); err != nil {
		return nil, err
	}
	q.appendLog(ctx, item, fiscalDomain.ActionEmitPostponed, note, map[string]any{
		"gateway_ready": q.gateway.Ready(),
		"online":        q.conn.Reachable(),
	})
	q.logger.Info("fiscal emission postponed", slog.String("order_id", item.OrderID), slog.String("reason", note))
	return item, nil
}

// exceedLimit moves an item whose budget is spent to ERROR without any gateway call.
func (q *Queue) exceedLimit(ctx context.Context, item *fiscalDomain.QueueItem) (*fiscalDomain.QueueItem, error) {
	message := fmt.Sprintf("maximum attempts reached (%d/%d)", item.Attempts, item.MaxAttempts)
	if item.Status != fiscalDomain.StatusError {
		if err := item.Transition(fiscalDomain.StatusError, message, q.now()); err != nil {
			return nil, err
		}
	}
	item.LastError = message
	if err := q.save(ctx, item); err != nil {
		return nil, err
	}

	q.appendLog(ctx, item, fiscalDomain.ActionLimitExceeded, message, map[string]any{
		"attempts":     item.Attempts,
		"max_attempts": item.MaxAttempts,
	})
	q.logger.Warn("fiscal emission attempts exhausted", slog.String("order_id", item.OrderID))
	return item, fmt.Errorf("%w: %s", fiscalDomain.ErrLimitExceeded, message)
}

// emit consumes an attempt and sends the snapshot to the gateway.
func (q *Queue) emit(ctx context.Context, item *fiscalDomain.QueueItem) (*fiscalDomain.QueueItem, error) {
	now := q.now().UTC()
	item.Attempts++
	item.LastAttempt = &now
	item.StatusCheckFailures = 0
	note := fmt.Sprintf("attempt %d of %d", item.Attempts, item.MaxAttempts)
	if err := item.Transition(fiscalDomain.StatusProcessing, note, now); err != nil {
		return nil, err
	}
	if err := q.save(ctx, item); err != nil {
		return nil, err
	}

	// The attempt is recorded; its outcome must be stored even if the caller goes away.
	persistCtx := context.WithoutCancel(ctx)

	order, err := q.loadOrder(ctx, item.OrderID)
	if err != nil {
		return q.fail(persistCtx, item, err.Error())
	}
	settings, err := q.loadSettings(ctx)
	if err != nil {
		return q.fail(persistCtx, item, err.Error())
	}
	if err := fiscalDomain.CheckEligibility(order, settings, q.conn.Reachable()).Err(); err != nil {
		return q.fail(persistCtx, item, err.Error())
	}
	if err := item.Snapshot.Verify(); err != nil {
		return q.fail(persistCtx, item, err.Error())
	}

	result, err := q.gateway.EmitDocument(ctx, buildPayload(item, settings.Company, now))
	if err != nil {
		return q.fail(persistCtx, item, err.Error())
	}
	return q.apply(persistCtx, item, result)
}

// poll asks the gateway for the outcome of a PROCESSING item. The status lookup is keyed
// by the emission reference, which is the order id. A document unknown to the gateway
// moves the item to ERROR, and so do MaxStatusCheckFailures consecutive failed checks.
func (q *Queue) poll(ctx context.Context, item *fiscalDomain.QueueItem) (*fiscalDomain.QueueItem, error) {
	if err := q.gatewayReachable(); err != nil {
		return nil, err
	}

	persistCtx := context.WithoutCancel(ctx)
	result, err := q.gateway.CheckStatus(ctx, item.OrderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return q.fail(persistCtx, item, "document not found at the fiscal gateway")
		}
		if ctx.Err() != nil {
			return nil, apperrors.Wrap(apperrors.FromContext(ctx.Err()), "fiscal document status check")
		}
		item.StatusCheckFailures++
		if item.StatusCheckFailures >= fiscalDomain.MaxStatusCheckFailures {
			return q.fail(persistCtx, item, fmt.Sprintf("status check failed %d times: %v",
				item.StatusCheckFailures, err))
		}
		if saveErr := q.save(persistCtx, item); saveErr != nil {
			return nil, saveErr
		}
		return nil, apperrors.Wrap(err, "failed to check fiscal document status")
	}

	if item.StatusCheckFailures > 0 {
		item.StatusCheckFailures = 0
		if result.Status == gateway.ResultProcessing {
			if err := q.save(persistCtx, item); err != nil {
				return nil, err
			}
		}
	}
	return q.apply(persistCtx, item, result)
}

// apply maps a gateway result onto a PROCESSING item.
func (q *Queue) apply(
	ctx context.Context,
	item *fiscalDomain.QueueItem,
	result *gateway.EmissionResult,
) (*fiscalDomain.QueueItem, error) {
	now := q.now().UTC()

	switch result.Status {
	case gateway.ResultProcessing:
		return item, nil

	case gateway.ResultAuthorized:
		if err := item.Transition(fiscalDomain.StatusAuthorized, "authorized", now); err != nil {
			return nil, err
		}
		item.Document = &fiscalDomain.Document{
			Key:          result.DocumentKey,
			Protocol:     result.Protocol,
			Number:       result.Number,
			Series:       result.Series,
			XMLURL:       result.XMLURL,
			PDFURL:       result.PDFURL,
			AuthorizedAt: now,
		}
		item.ProcessedAt = &now
		item.LastError = ""
		item.ErrorCode = ""
		if err := q.save(ctx, item); err != nil {
			return nil, err
		}

		doc := item.Document
		q.writeBack(ctx, item.OrderID, func(order *entityDomain.Order) {
			order.Fiscal = &entityDomain.OrderFiscal{
				Status:      string(fiscalDomain.StatusAuthorized),
				DocumentKey: doc.Key,
				Protocol:    doc.Protocol,
				Number:      doc.Number,
				Series:      doc.Series,
				XMLURL:      doc.XMLURL,
				PDFURL:      doc.PDFURL,
				IssuedAt:    &now,
			}
		})
		q.appendLog(ctx, item, fiscalDomain.ActionEmitSuccess, "fiscal document authorized", map[string]any{
			"document_key": doc.Key,
			"protocol":     doc.Protocol,
			"attempt":      item.Attempts,
		})
		q.logger.Info("fiscal document authorized",
			slog.String("order_id", item.OrderID),
			slog.String("document_key", doc.Key),
		)
		return item, nil

	default:
		message := result.ErrorMessage
		if message == "" {
			message = "document rejected by the tax authority"
		}
		if err := item.Transition(fiscalDomain.StatusDenied, message, now); err != nil {
			return nil, err
		}
		item.LastError = message
		item.ErrorCode = result.ErrorCode
		item.ProcessedAt = &now
		if err := q.save(ctx, item); err != nil {
			return nil, err
		}

		q.appendLog(ctx, item, fiscalDomain.ActionEmitDenied, message, map[string]any{
			"error_code": result.ErrorCode,
			"attempt":    item.Attempts,
		})
		q.logger.Warn("fiscal document denied",
			slog.String("order_id", item.OrderID),
			slog.String("error_code", result.ErrorCode),
		)
		return item, nil
	}
}

// fail moves a PROCESSING item to ERROR.
func (q *Queue) fail(
	ctx context.Context,
	item *fiscalDomain.QueueItem,
	message string,
) (*fiscalDomain.QueueItem, error) {
	if err := item.Transition(fiscalDomain.StatusError, message, q.now()); err != nil {
		return nil, err
	}
	item.LastError = message
	item.ErrorCode = ""
	if err := q.save(ctx, item); err != nil {
		return nil, err
	}

	q.appendLog(ctx, item, fiscalDomain.ActionEmitError, message, map[string]any{
		"attempt": item.Attempts,
	})
	q.logger.Warn("fiscal emission failed",
		slog.String("order_id", item.OrderID),
		slog.String("error", message),
	)
	return item, nil
}

func (q *Queue) gatewayReachable() error {
	if !q.gateway.Ready() {
		return gateway.ErrNotConfigured
	}
	if !q.conn.Reachable() {
		return apperrors.Wrap(apperrors.ErrOffline, "fiscal gateway unreachable")
	}
	return nil
}

// writeBack updates the fiscal section of the live order. Failures are logged only:
// the queue item already holds the outcome.
func (q *Queue) writeBack(ctx context.Context, orderID string, mutate func(order *entityDomain.Order)) {
	var order entityDomain.Order
	if err := q.engine.Get(ctx, entityDomain.CollectionOrders, orderID, &order); err != nil {
		q.logger.Warn("failed to load order for fiscal write-back",
			slog.String("order_id", orderID),
			slog.Any("error", err),
		)
		return
	}
	mutate(&order)
	if _, err := q.engine.Save(ctx, entityDomain.CollectionOrders, &order); err != nil {
		q.logger.Warn("failed to write fiscal result to order",
			slog.String("order_id", orderID),
			slog.Any("error", err),
		)
	}
}

func (q *Queue) appendLog(
	ctx context.Context,
	item *fiscalDomain.QueueItem,
	action fiscalDomain.Action,
	message string,
	metadata map[string]any,
) {
	entry := fiscalDomain.NewLogEntry(item, action, message, metadata)
	if err := q.logRepo.Create(ctx, entry); err != nil {
		q.logger.Error("failed to append fiscal log entry",
			slog.String("order_id", item.OrderID),
			slog.String("action", string(action)),
			slog.Any("error", err),
		)
	}
}

func (q *Queue) save(ctx context.Context, item *fiscalDomain.QueueItem) error {
	if _, err := q.engine.Save(ctx, entityDomain.CollectionFiscalQueue, item); err != nil {
		return apperrors.Wrap(err, "failed to save fiscal queue item")
	}
	return nil
}

func (q *Queue) loadItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "order id is required")
	}
	var item fiscalDomain.QueueItem
	if err := q.engine.Get(ctx, entityDomain.CollectionFiscalQueue, orderID, &item); err != nil {
		if errors.Is(err, syncDomain.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", fiscalDomain.ErrQueueItemNotFound, orderID)
		}
		return nil, apperrors.Wrap(err, "failed to load fiscal queue item")
	}
	return &item, nil
}

func (q *Queue) loadOrder(ctx context.Context, orderID string) (*entityDomain.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "order id is required")
	}
	var order entityDomain.Order
	if err := q.engine.Get(ctx, entityDomain.CollectionOrders, orderID, &order); err != nil {
		if errors.Is(err, syncDomain.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", fiscalDomain.ErrOrderNotFound, orderID)
		}
		return nil, apperrors.Wrap(err, "failed to load order")
	}
	return &order, nil
}

// loadSettings returns nil when the store has not been configured.
func (q *Queue) loadSettings(ctx context.Context) (*entityDomain.Settings, error) {
	var settings entityDomain.Settings
	if err := q.engine.Get(ctx, entityDomain.CollectionSettings, entityDomain.SettingsID, &settings); err != nil {
		if errors.Is(err, syncDomain.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "failed to load settings")
	}
	return &settings, nil
}

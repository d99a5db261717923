package usecase

import (
	"context"
	"time"

	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
	"github.com/allisson/pdvsync/internal/metrics"
)

// queueWithMetrics decorates QueueUseCase with metrics instrumentation.
type queueWithMetrics struct {
	next    QueueUseCase
	metrics metrics.BusinessMetrics
}

// NewQueueWithMetrics wraps a QueueUseCase with metrics recording.
func NewQueueWithMetrics(queue QueueUseCase, m metrics.BusinessMetrics) QueueUseCase {
	return &queueWithMetrics{
		next:    queue,
		metrics: m,
	}
}

func (q *queueWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	q.metrics.RecordOperation(ctx, "fiscal", operation, status)
	q.metrics.RecordDuration(ctx, "fiscal", operation, time.Since(start), status)
}

// outcome counts the status an item ended in after an emission or poll.
func (q *queueWithMetrics) outcome(ctx context.Context, item *fiscalDomain.QueueItem, err error) {
	if err == nil && item != nil {
		q.metrics.RecordOperation(ctx, "fiscal", "fiscal_outcome", string(item.Status))
	}
}

// CanEmitFiscal is passed through; it is a read.
func (q *queueWithMetrics) CanEmitFiscal(ctx context.Context, orderID string) (*fiscalDomain.Eligibility, error) {
	return q.next.CanEmitFiscal(ctx, orderID)
}

// SendToQueue records metrics for enqueue operations.
func (q *queueWithMetrics) SendToQueue(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	start := time.Now()
	item, err := q.next.SendToQueue(ctx, orderID)
	q.record(ctx, "fiscal_send", start, err)
	return item, err
}

// ProcessQueueItem records metrics for emission attempts and their outcome.
func (q *queueWithMetrics) ProcessQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	start := time.Now()
	item, err := q.next.ProcessQueueItem(ctx, orderID)
	q.record(ctx, "fiscal_process", start, err)
	q.outcome(ctx, item, err)
	return item, err
}

// PollQueueItem records metrics for status checks and their outcome.
func (q *queueWithMetrics) PollQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	start := time.Now()
	item, err := q.next.PollQueueItem(ctx, orderID)
	q.record(ctx, "fiscal_poll", start, err)
	q.outcome(ctx, item, err)
	return item, err
}

// ReprocessQueueItem records metrics for retry requests.
func (q *queueWithMetrics) ReprocessQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	start := time.Now()
	item, err := q.next.ReprocessQueueItem(ctx, orderID)
	q.record(ctx, "fiscal_reprocess", start, err)
	return item, err
}

// CancelQueueItem records metrics for queue cancellations.
func (q *queueWithMetrics) CancelQueueItem(
	ctx context.Context,
	orderID, reason string,
) (*fiscalDomain.QueueItem, error) {
	start := time.Now()
	item, err := q.next.CancelQueueItem(ctx, orderID, reason)
	q.record(ctx, "fiscal_cancel", start, err)
	return item, err
}

// RemoveFromQueue records metrics for removals.
func (q *queueWithMetrics) RemoveFromQueue(ctx context.Context, orderID string) error {
	start := time.Now()
	err := q.next.RemoveFromQueue(ctx, orderID)
	q.record(ctx, "fiscal_remove", start, err)
	return err
}

// CancelDocument records metrics for document cancellations.
func (q *queueWithMetrics) CancelDocument(
	ctx context.Context,
	orderID, justification string,
) (*fiscalDomain.QueueItem, error) {
	start := time.Now()
	item, err := q.next.CancelDocument(ctx, orderID, justification)
	q.record(ctx, "fiscal_cancel_document", start, err)
	return item, err
}

// GetQueue is passed through.
func (q *queueWithMetrics) GetQueue(
	ctx context.Context,
	status *fiscalDomain.Status,
) ([]*fiscalDomain.QueueItem, error) {
	return q.next.GetQueue(ctx, status)
}

// GetQueueItem is passed through.
func (q *queueWithMetrics) GetQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	return q.next.GetQueueItem(ctx, orderID)
}

// GetQueueStatus is passed through.
func (q *queueWithMetrics) GetQueueStatus(ctx context.Context) (*fiscalDomain.QueueStatus, error) {
	return q.next.GetQueueStatus(ctx)
}

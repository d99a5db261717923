package usecase

import (
	"context"
	"time"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	"github.com/allisson/pdvsync/internal/metrics"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

// engineWithMetrics decorates Engine with metrics instrumentation.
type engineWithMetrics struct {
	next    Engine
	metrics metrics.BusinessMetrics
}

// NewEngineWithMetrics wraps an Engine with metrics recording.
func NewEngineWithMetrics(engine Engine, m metrics.BusinessMetrics) Engine {
	return &engineWithMetrics{
		next:    engine,
		metrics: m,
	}
}

func (e *engineWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "sync", operation, status)
	e.metrics.RecordDuration(ctx, "sync", operation, time.Since(start), status)
}

// Save records metrics for save operations. Deferred writes are counted separately.
func (e *engineWithMetrics) Save(
	ctx context.Context,
	collection entityDomain.Collection,
	record entityDomain.Record,
) (*syncDomain.WriteResult, error) {
	start := time.Now()
	result, err := e.next.Save(ctx, collection, record)
	e.record(ctx, "sync_save", start, err)
	if err == nil && result.Pending {
		e.metrics.RecordOperation(ctx, "sync", "sync_deferred", "success")
	}
	return result, err
}

// Get records metrics for typed reads.
func (e *engineWithMetrics) Get(
	ctx context.Context,
	collection entityDomain.Collection,
	id string,
	dst entityDomain.Record,
) error {
	start := time.Now()
	err := e.next.Get(ctx, collection, id, dst)
	e.record(ctx, "sync_get", start, err)
	return err
}

// GetDocument records metrics for document reads.
func (e *engineWithMetrics) GetDocument(
	ctx context.Context,
	collection entityDomain.Collection,
	id string,
) (*syncDomain.Document, error) {
	start := time.Now()
	doc, err := e.next.GetDocument(ctx, collection, id)
	e.record(ctx, "sync_get", start, err)
	return doc, err
}

// List records metrics for collection reads.
func (e *engineWithMetrics) List(
	ctx context.Context,
	collection entityDomain.Collection,
	filters ...syncDomain.Filter,
) ([]*syncDomain.Document, error) {
	start := time.Now()
	docs, err := e.next.List(ctx, collection, filters...)
	e.record(ctx, "sync_list", start, err)
	return docs, err
}

// Delete records metrics for delete operations.
func (e *engineWithMetrics) Delete(
	ctx context.Context,
	collection entityDomain.Collection,
	id string,
) (*syncDomain.WriteResult, error) {
	start := time.Now()
	result, err := e.next.Delete(ctx, collection, id)
	e.record(ctx, "sync_delete", start, err)
	if err == nil && result.Pending {
		e.metrics.RecordOperation(ctx, "sync", "sync_deferred", "success")
	}
	return result, err
}

// Listen is passed through; subscriptions are long-lived and not timed.
func (e *engineWithMetrics) Listen(
	ctx context.Context,
	collection entityDomain.Collection,
	fn ListenFunc,
) Subscription {
	e.metrics.RecordOperation(ctx, "sync", "sync_listen", "success")
	return e.next.Listen(ctx, collection, fn)
}

// SyncFromCloud records metrics for pull passes.
func (e *engineWithMetrics) SyncFromCloud(ctx context.Context) (syncDomain.SyncReport, error) {
	start := time.Now()
	report, err := e.next.SyncFromCloud(ctx)
	e.record(ctx, "sync_pull", start, err)
	return report, err
}

// SyncToCloud records metrics for push passes.
func (e *engineWithMetrics) SyncToCloud(ctx context.Context) (syncDomain.SyncReport, error) {
	start := time.Now()
	report, err := e.next.SyncToCloud(ctx)
	e.record(ctx, "sync_push", start, err)
	return report, err
}

// DrainPending records metrics for pending replays.
func (e *engineWithMetrics) DrainPending(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := e.next.DrainPending(ctx)
	e.record(ctx, "sync_drain", start, err)
	return n, err
}

// Status is passed through.
func (e *engineWithMetrics) Status(ctx context.Context) (*syncDomain.Status, error) {
	return e.next.Status(ctx)
}

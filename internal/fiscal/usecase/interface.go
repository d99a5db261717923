// Package usecase implements the fiscal emission queue and the fiscal log use cases.
package usecase

import (
	"context"
	"time"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
	"github.com/allisson/pdvsync/internal/gateway"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

// Engine is the subset of the sync engine used by the queue. Queue items and order
// write-backs go through it like any other record.
type Engine interface {
	Save(
		ctx context.Context,
		collection entityDomain.Collection,
		record entityDomain.Record,
	) (*syncDomain.WriteResult, error)
	Get(ctx context.Context, collection entityDomain.Collection, id string, dst entityDomain.Record) error
	List(
		ctx context.Context,
		collection entityDomain.Collection,
		filters ...syncDomain.Filter,
	) ([]*syncDomain.Document, error)
	Delete(ctx context.Context, collection entityDomain.Collection, id string) (*syncDomain.WriteResult, error)
}

// Gateway is the fiscal gateway adapter contract.
type Gateway interface {
	Ready() bool
	Environment() gateway.Environment
	EmitDocument(ctx context.Context, payload *gateway.EmissionPayload) (*gateway.EmissionResult, error)
	// CheckStatus looks a document up by its emission reference, the order id.
	CheckStatus(ctx context.Context, reference string) (*gateway.EmissionResult, error)
	CancelDocument(ctx context.Context, documentKey, justification string) (*gateway.CancelResult, error)
}

// Connectivity reports whether the remote side is reachable and signed in.
type Connectivity interface {
	Reachable() bool
}

// LogRepository persists fiscal log entries.
type LogRepository interface {
	Create(ctx context.Context, entry *fiscalDomain.LogEntry) error
	ListByOrder(ctx context.Context, orderID string) ([]*fiscalDomain.LogEntry, error)
	List(ctx context.Context, offset, limit int, createdAtFrom, createdAtTo *time.Time) ([]*fiscalDomain.LogEntry, error)
}

// QueueUseCase defines the fiscal emission queue operations. Transitions only happen
// through explicit calls; nothing emits in the background.
type QueueUseCase interface {
	// CanEmitFiscal evaluates the eligibility of an order without changing anything.
	CanEmitFiscal(ctx context.Context, orderID string) (*fiscalDomain.Eligibility, error)
	// SendToQueue freezes an eligible order into a QUEUED item.
	SendToQueue(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error)
	// ProcessQueueItem runs one emission attempt. Gateway outcomes are reported through
	// the returned item's status, not as errors.
	ProcessQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error)
	// PollQueueItem asks the gateway for the outcome of a PROCESSING item.
	PollQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error)
	// ReprocessQueueItem moves a DENIED or ERROR item back to QUEUED.
	ReprocessQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error)
	// CancelQueueItem abandons an item that was not authorized.
	CancelQueueItem(ctx context.Context, orderID, reason string) (*fiscalDomain.QueueItem, error)
	// RemoveFromQueue deletes a CANCELLED or ERROR item.
	RemoveFromQueue(ctx context.Context, orderID string) error
	// CancelDocument cancels the authorized document of an item at the gateway.
	CancelDocument(ctx context.Context, orderID, justification string) (*fiscalDomain.QueueItem, error)
	// GetQueue lists items ordered by enqueue time, optionally for one status.
	GetQueue(ctx context.Context, status *fiscalDomain.Status) ([]*fiscalDomain.QueueItem, error)
	// GetQueueItem returns the item of an order.
	GetQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error)
	// GetQueueStatus counts items per status and reports gateway readiness.
	GetQueueStatus(ctx context.Context) (*fiscalDomain.QueueStatus, error)
}

// LogUseCase defines the read side of the fiscal log store.
type LogUseCase interface {
	ListByOrder(ctx context.Context, orderID string) ([]*fiscalDomain.LogEntry, error)
	List(ctx context.Context, offset, limit int, createdAtFrom, createdAtTo *time.Time) ([]*fiscalDomain.LogEntry, error)
}

// Package usecase implements the sync engine, which mediates every read and write
// between the local cache and the remote authoritative store.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/pdvsync/internal/connectivity"
	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	"github.com/allisson/pdvsync/internal/remote"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

// CacheStore is the local cache contract.
type CacheStore interface {
	Get(ctx context.Context, collection entityDomain.Collection, id string) (*syncDomain.Document, error)
	GetAll(
		ctx context.Context,
		collection entityDomain.Collection,
		filters ...syncDomain.Filter,
	) ([]*syncDomain.Document, error)
	Put(ctx context.Context, doc *syncDomain.Document) error
	Delete(ctx context.Context, collection entityDomain.Collection, id string) error
}

// RemoteStore is the subset of the remote store used by the engine.
type RemoteStore interface {
	Read(ctx context.Context, path remote.Path) (*syncDomain.Document, error)
	ReadAll(ctx context.Context, collection entityDomain.Collection) ([]*syncDomain.Document, error)
	Write(ctx context.Context, path remote.Path, doc *syncDomain.Document) error
	Delete(ctx context.Context, path remote.Path, at time.Time) error
	ChangesSince(
		ctx context.Context,
		collection entityDomain.Collection,
		since time.Time,
	) ([]*syncDomain.Document, error)
	Subscribe(ctx context.Context, collection entityDomain.Collection, fn remote.ChangeFunc) *remote.Subscription
}

// PendingQueue holds remote writes deferred while the remote store was unreachable.
type PendingQueue interface {
	Append(ctx context.Context, op *syncDomain.PendingOperation) error
	List(ctx context.Context) ([]*syncDomain.PendingOperation, error)
	Remove(ctx context.Context, id uuid.UUID) error
	Len(ctx context.Context) (int, error)
}

// ConnectivityBus publishes online and auth transitions.
type ConnectivityBus interface {
	State() connectivity.State
	Reachable() bool
	Subscribe(buffer int) (<-chan connectivity.Event, func())
}

// Subscription is returned by Listen.
type Subscription interface {
	Close()
}

// ListenFunc receives changes applied to the cache from the remote feed.
type ListenFunc func(change syncDomain.Change)

// Engine defines the sync engine operations.
type Engine interface {
	// Save validates and stamps the record, then writes it to both stores or, when the
	// remote store is unreachable, to the cache with a pending operation.
	Save(
		ctx context.Context,
		collection entityDomain.Collection,
		record entityDomain.Record,
	) (*syncDomain.WriteResult, error)
	// Get decodes one record into dst, reading the cache first.
	Get(ctx context.Context, collection entityDomain.Collection, id string, dst entityDomain.Record) error
	// GetDocument returns one record in serialized form, reading the cache first.
	GetDocument(ctx context.Context, collection entityDomain.Collection, id string) (*syncDomain.Document, error)
	// List returns every record of a collection, optionally filtered, reading the cache first.
	List(
		ctx context.Context,
		collection entityDomain.Collection,
		filters ...syncDomain.Filter,
	) ([]*syncDomain.Document, error)
	// Delete mirrors Save's online and offline branches.
	Delete(ctx context.Context, collection entityDomain.Collection, id string) (*syncDomain.WriteResult, error)
	// Listen delivers remote changes after they have been applied to the cache.
	Listen(ctx context.Context, collection entityDomain.Collection, fn ListenFunc) Subscription
	// SyncFromCloud drains pending operations and then merges remote data into the cache.
	SyncFromCloud(ctx context.Context) (syncDomain.SyncReport, error)
	// SyncToCloud drains pending operations and then pushes newer cached records.
	SyncToCloud(ctx context.Context) (syncDomain.SyncReport, error)
	// DrainPending replays pending operations in enqueue order.
	DrainPending(ctx context.Context) (int, error)
	// Status reports connectivity, pending operations and last sync times.
	Status(ctx context.Context) (*syncDomain.Status, error)
}

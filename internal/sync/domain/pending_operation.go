package domain

import (
	"time"

	"github.com/google/uuid"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
)

// OperationKind is the kind of a deferred remote write.
type OperationKind string

const (
	OperationSave   OperationKind = "save"
	OperationDelete OperationKind = "delete"
)

// PendingOperation is a remote write that could not be performed when it was issued.
// The list of pending operations is replayed strictly in enqueue order.
type PendingOperation struct {
	ID         uuid.UUID
	Kind       OperationKind
	Collection entityDomain.Collection
	RecordID   string
	// Payload is the document to write for saves. For deletes it carries the
	// deletion instant in UpdatedAt.
	Payload    *Document
	EnqueuedAt time.Time
}

// NewPendingOperation builds a pending operation with a fresh UUIDv7 id.
func NewPendingOperation(kind OperationKind, doc *Document, at time.Time) *PendingOperation {
	return &PendingOperation{
		ID:         uuid.Must(uuid.NewV7()),
		Kind:       kind,
		Collection: doc.Collection,
		RecordID:   doc.ID,
		Payload:    doc.Clone(),
		EnqueuedAt: at,
	}
}

// WriteResult is returned by save and delete.
type WriteResult struct {
	Document *Document
	// Pending is true when the remote write was deferred to the pending list.
	Pending bool
	// TimedOut is true when a store call hit its time bound and the result degraded.
	TimedOut bool
}

// SyncReport summarizes a reconciliation pass.
type SyncReport struct {
	Drained int `json:"drained"`
	Applied int `json:"applied"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
	Pushed  int `json:"pushed"`
}

// Add accumulates another report.
func (r *SyncReport) Add(other SyncReport) {
	r.Drained += other.Drained
	r.Applied += other.Applied
	r.Deleted += other.Deleted
	r.Skipped += other.Skipped
	r.Pushed += other.Pushed
}

// Status is a point-in-time view of the engine.
type Status struct {
	Online            bool       `json:"online"`
	Authenticated     bool       `json:"authenticated"`
	PendingOperations int        `json:"pendingOperations"`
	LastPullAt        *time.Time `json:"lastPullAt,omitempty"`
	LastPushAt        *time.Time `json:"lastPushAt,omitempty"`
}

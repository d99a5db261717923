package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action names a significant step in a queue item's life.
type Action string

const (
	ActionQueueAdd       Action = "queue_add"
	ActionEmitSuccess    Action = "emit_success"
	ActionEmitDenied     Action = "emit_denied"
	ActionEmitError      Action = "emit_error"
	ActionEmitPostponed  Action = "emit_postponed"
	ActionLimitExceeded  Action = "limit_exceeded"
	ActionQueueRetry     Action = "queue_retry"
	ActionCancelQueue    Action = "cancel_queue"
	ActionCancelDocument Action = "cancel_document"
	ActionQueueRemove    Action = "queue_remove"
)

// LogEntry is an immutable audit record of the fiscal log store. Entries are only
// ever appended and are never read by the emission logic.
type LogEntry struct {
	ID          uuid.UUID
	OrderID     string
	OrderNumber int
	Action      Action
	Status      Status
	Message     string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// NewLogEntry creates an entry for the item's current state with a UUIDv7 id.
func NewLogEntry(item *QueueItem, action Action, message string, metadata map[string]any) *LogEntry {
	return &LogEntry{
		ID:          uuid.Must(uuid.NewV7()),
		OrderID:     item.OrderID,
		OrderNumber: item.OrderNumber,
		Action:      action,
		Status:      item.Status,
		Message:     message,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
}

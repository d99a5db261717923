// Package domain defines the fiscal emission queue: queue items, their state machine,
// the frozen order snapshot, the eligibility predicate and the audit log entries.
package domain

import (
	"fmt"
	"slices"
	"time"

	apperrors "github.com/allisson/pdvsync/internal/errors"
)

// Status is the state of a fiscal queue item.
type Status string

const (
	// StatusQueued is an item waiting to be processed.
	StatusQueued Status = "queued"
	// StatusPending is a queued item whose processing was requested while the gateway
	// was not ready. No attempt was consumed.
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusAuthorized Status = "authorized"
	StatusDenied     Status = "denied"
	StatusError      Status = "error"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusQueued,
	StatusPending,
	StatusProcessing,
	StatusAuthorized,
	StatusDenied,
	StatusError,
	StatusCancelled,
}

// transitions is the only place where legal status changes are defined.
var transitions = map[Status][]Status{
	StatusQueued:     {StatusPending, StatusProcessing, StatusError, StatusCancelled},
	StatusPending:    {StatusProcessing, StatusError, StatusCancelled},
	StatusProcessing: {StatusAuthorized, StatusDenied, StatusError},
	StatusDenied:     {StatusQueued, StatusError, StatusCancelled},
	StatusError:      {StatusQueued, StatusCancelled},
	StatusAuthorized: nil,
	StatusCancelled:  nil,
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := transitions[status]; !ok {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown fiscal status %q", s))
	}
	return status, nil
}

// CanTransition reports whether from -> to is a legal change.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

// IsTerminal reports whether no transition leaves the status.
func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// IsRemovable reports whether an item in this status may be deleted from the queue.
func (s Status) IsRemovable() bool {
	return s == StatusCancelled || s == StatusError
}

// HistoryEntry records one status change of a queue item.
type HistoryEntry struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	Note string    `json:"note,omitempty"`
	At   time.Time `json:"at"`
}

// Transition moves the item to a new status through the transition table and records
// it in the history. Illegal changes return ErrInvalidTransition and leave the item
// untouched.
func (q *QueueItem) Transition(to Status, note string, at time.Time) error {
	if !CanTransition(q.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, q.Status, to)
	}
	q.History = append(q.History, HistoryEntry{From: q.Status, To: to, Note: note, At: at.UTC()})
	q.Status = to
	return nil
}

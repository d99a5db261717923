package usecase

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

// MemoryPendingQueue keeps pending operations for the current process only.
type MemoryPendingQueue struct {
	mu  sync.Mutex
	ops []*syncDomain.PendingOperation
}

// NewMemoryPendingQueue creates an empty in-memory pending queue.
func NewMemoryPendingQueue() *MemoryPendingQueue {
	return &MemoryPendingQueue{}
}

// Append adds an operation at the tail.
func (q *MemoryPendingQueue) Append(_ context.Context, op *syncDomain.PendingOperation) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = append(q.ops, op)
	return nil
}

// List returns a copy of the queue in enqueue order.
func (q *MemoryPendingQueue) List(_ context.Context) ([]*syncDomain.PendingOperation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.ops), nil
}

// Remove drops the operation with the given id.
func (q *MemoryPendingQueue) Remove(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = slices.DeleteFunc(q.ops, func(op *syncDomain.PendingOperation) bool {
		return op.ID == id
	})
	return nil
}

// Len returns the number of operations waiting.
func (q *MemoryPendingQueue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops), nil
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/pdvsync/internal/database"
	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	apperrors "github.com/allisson/pdvsync/internal/errors"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

// PendingLog persists the pending operation list in the cache file so deferred
// writes survive a restart. Operations come back in enqueue order.
type PendingLog struct {
	store *Store
}

// NewPendingLog returns a durable pending list backed by the store.
func NewPendingLog(store *Store) *PendingLog {
	return &PendingLog{store: store}
}

// Append adds an operation at the tail.
func (p *PendingLog) Append(ctx context.Context, op *syncDomain.PendingOperation) error {
	ctx, cancel := p.store.bound(ctx)
	defer cancel()

	payload, err := json.Marshal(op.Payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal pending operation payload")
	}

	_, err = database.GetTx(ctx, p.store.db).ExecContext(ctx, `
		INSERT INTO pending_operations (id, kind, collection, record_id, payload, enqueued_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		op.ID.String(),
		string(op.Kind),
		string(op.Collection),
		op.RecordID,
		payload,
		op.EnqueuedAt.UTC().UnixNano(),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.FromContext(err), "failed to append pending operation")
	}
	return nil
}

// List returns every operation in enqueue order.
func (p *PendingLog) List(ctx context.Context) ([]*syncDomain.PendingOperation, error) {
	ctx, cancel := p.store.bound(ctx)
	defer cancel()

	rows, err := database.GetTx(ctx, p.store.db).QueryContext(ctx, `
		SELECT id, kind, collection, record_id, payload, enqueued_at
		FROM pending_operations
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.FromContext(err), "failed to list pending operations")
	}
	defer func() {
		_ = rows.Close()
	}()

	ops := make([]*syncDomain.PendingOperation, 0)
	for rows.Next() {
		var (
			id, kind, collection, recordID string
			payload                        []byte
			enqueuedAt                     int64
		)
		if err := rows.Scan(&id, &kind, &collection, &recordID, &payload, &enqueuedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan pending operation")
		}

		opID, err := uuid.Parse(id)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse pending operation id")
		}

		var doc syncDomain.Document
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal pending operation payload")
		}

		ops = append(ops, &syncDomain.PendingOperation{
			ID:         opID,
			Kind:       syncDomain.OperationKind(kind),
			Collection: entityDomain.Collection(collection),
			RecordID:   recordID,
			Payload:    &doc,
			EnqueuedAt: time.Unix(0, enqueuedAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.FromContext(err), "failed to iterate pending operations")
	}
	return ops, nil
}

// Remove deletes an operation once it reached the remote store.
func (p *PendingLog) Remove(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := p.store.bound(ctx)
	defer cancel()

	if _, err := database.GetTx(ctx, p.store.db).ExecContext(ctx, `DELETE FROM pending_operations WHERE id = ?`, id.String()); err != nil {
		return apperrors.Wrap(apperrors.FromContext(err), "failed to remove pending operation")
	}
	return nil
}

// Len returns the number of operations waiting.
func (p *PendingLog) Len(ctx context.Context) (int, error) {
	ctx, cancel := p.store.bound(ctx)
	defer cancel()

	var n int
	if err := database.GetTx(ctx, p.store.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_operations`).Scan(&n); err != nil {
		return 0, apperrors.Wrap(apperrors.FromContext(err), "failed to count pending operations")
	}
	return n, nil
}

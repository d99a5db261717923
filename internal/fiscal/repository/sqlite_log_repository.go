// Package repository provides persistence for the fiscal log store.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/pdvsync/internal/database"
	apperrors "github.com/allisson/pdvsync/internal/errors"
	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
)

// SQLiteLogRepository stores fiscal log entries in the fiscal_logs table of the local
// cache file. Entries are insert-only; there is no update or delete. Timestamps are
// stored as Unix nanoseconds.
type SQLiteLogRepository struct {
	db *sql.DB
}

// NewSQLiteLogRepository creates a fiscal log repository over the cache database.
func NewSQLiteLogRepository(db *sql.DB) *SQLiteLogRepository {
	return &SQLiteLogRepository{db: db}
}

// Create appends an entry. Nil metadata is stored as NULL.
func (r *SQLiteLogRepository) Create(ctx context.Context, entry *fiscalDomain.LogEntry) error {
	querier := database.GetTx(ctx, r.db)

	var metadataJSON []byte
	if entry.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal fiscal log metadata")
		}
	}

	query := `INSERT INTO fiscal_logs (id, order_id, order_number, action, status, message, metadata, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		entry.ID.String(),
		entry.OrderID,
		entry.OrderNumber,
		string(entry.Action),
		string(entry.Status),
		entry.Message,
		metadataJSON,
		entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperrors.Wrap(apperrors.ErrConflict, "fiscal log entry already exists")
		}
		return apperrors.Wrap(err, "failed to create fiscal log entry")
	}
	return nil
}

// ListByOrder returns every entry of an order, oldest first.
func (r *SQLiteLogRepository) ListByOrder(ctx context.Context, orderID string) ([]*fiscalDomain.LogEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, order_id, order_number, action, status, message, metadata, created_at
			  FROM fiscal_logs
			  WHERE order_id = ?
			  ORDER BY created_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list fiscal log entries")
	}
	return scanEntries(rows)
}

// List returns entries newest first with pagination. Both time bounds are optional and
// inclusive.
func (r *SQLiteLogRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*fiscalDomain.LogEntry, error) {
	querier := database.GetTx(ctx, r.db)

	var conditions []string
	var args []any
	if createdAtFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, createdAtFrom.UnixNano())
	}
	if createdAtTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, createdAtTo.UnixNano())
	}

	query := `SELECT id, order_id, order_number, action, status, message, metadata, created_at
			  FROM fiscal_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list fiscal log entries")
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]*fiscalDomain.LogEntry, error) {
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*fiscalDomain.LogEntry, 0)
	for rows.Next() {
		var (
			entry        fiscalDomain.LogEntry
			id           string
			action       string
			status       string
			metadataJSON []byte
			createdAt    int64
		)
		if err := rows.Scan(
			&id,
			&entry.OrderID,
			&entry.OrderNumber,
			&action,
			&status,
			&entry.Message,
			&metadataJSON,
			&createdAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan fiscal log entry")
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse fiscal log entry id")
		}
		entry.ID = parsed
		entry.Action = fiscalDomain.Action(action)
		entry.Status = fiscalDomain.Status(status)
		entry.CreatedAt = time.Unix(0, createdAt).UTC()

		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal fiscal log metadata")
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate fiscal log entries")
	}
	return entries, nil
}

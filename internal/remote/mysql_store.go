package remote

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/allisson/pdvsync/internal/database"
	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

// MySQLStore implements Store for MySQL. The DSN must set parseTime=true.
type MySQLStore struct {
	db           *sql.DB
	txManager    database.TxManager
	auth         AuthState
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewMySQLStore creates a new MySQL remote store.
func NewMySQLStore(
	db *sql.DB,
	txManager database.TxManager,
	auth AuthState,
	pollInterval time.Duration,
	logger *slog.Logger,
) *MySQLStore {
	return &MySQLStore{
		db:           db,
		txManager:    txManager,
		auth:         auth,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// IsAuthenticated reports the session state.
func (m *MySQLStore) IsAuthenticated() bool {
	return m.auth.IsAuthenticated()
}

// Ping checks the database connection.
func (m *MySQLStore) Ping(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return classify(err, "failed to ping remote store")
	}
	return nil
}

// Read retrieves a live document by path.
func (m *MySQLStore) Read(ctx context.Context, path Path) (*syncDomain.Document, error) {
	if !m.IsAuthenticated() {
		return nil, ErrSignedOut
	}
	querier := database.GetTx(ctx, m.db)

	query := `SELECT collection, id, data, created_at, updated_at, deleted_at
			  FROM documents
			  WHERE collection = ? AND id = ? AND deleted_at IS NULL`

	doc, err := scanRemoteDocument(querier.QueryRowContext(ctx, query, string(path.Collection), path.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, syncDomain.ErrRecordNotFound
		}
		return nil, classify(err, "failed to read remote document")
	}
	return doc, nil
}

// ReadAll retrieves the live documents of a collection.
func (m *MySQLStore) ReadAll(
	ctx context.Context,
	collection entityDomain.Collection,
) ([]*syncDomain.Document, error) {
	if !m.IsAuthenticated() {
		return nil, ErrSignedOut
	}
	querier := database.GetTx(ctx, m.db)

	query := `SELECT collection, id, data, created_at, updated_at, deleted_at
			  FROM documents
			  WHERE collection = ? AND deleted_at IS NULL
			  ORDER BY updated_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, string(collection))
	if err != nil {
		return nil, classify(err, "failed to read remote collection")
	}
	defer func() {
		_ = rows.Close()
	}()

	docs, err := scanRemoteDocuments(rows)
	if err != nil {
		return nil, classify(err, "failed to scan remote documents")
	}
	return docs, nil
}

// nextSeq takes the next feed position. LAST_INSERT_ID(expr) hands the new value back
// through the result of the same statement; the row stays locked until commit.
func (m *MySQLStore) nextSeq(ctx context.Context) (int64, error) {
	query := `UPDATE document_sequence SET value = LAST_INSERT_ID(value + 1) WHERE id = 1`
	result, err := database.GetTx(ctx, m.db).ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Write inserts or replaces the document and clears any tombstone.
func (m *MySQLStore) Write(ctx context.Context, path Path, doc *syncDomain.Document) error {
	if !m.IsAuthenticated() {
		return ErrSignedOut
	}

	query := `INSERT INTO documents (collection, id, data, created_at, updated_at, deleted_at, seq)
			  VALUES (?, ?, ?, ?, ?, NULL, ?)
			  ON DUPLICATE KEY UPDATE
			  	  data = VALUES(data),
				  created_at = VALUES(created_at),
				  updated_at = VALUES(updated_at),
				  deleted_at = NULL,
				  seq = VALUES(seq)`

	err := m.txManager.WithTx(ctx, func(ctx context.Context) error {
		seq, err := m.nextSeq(ctx)
		if err != nil {
			return err
		}
		_, err = database.GetTx(ctx, m.db).ExecContext(
			ctx,
			query,
			string(path.Collection),
			path.ID,
			[]byte(doc.Data),
			doc.CreatedAt.UTC(),
			doc.UpdatedAt.UTC(),
			seq,
		)
		return err
	})
	if err != nil {
		return classify(err, "failed to write remote document")
	}
	return nil
}

// Delete soft-deletes the document at path, leaving a tombstone when it is missing.
func (m *MySQLStore) Delete(ctx context.Context, path Path, at time.Time) error {
	if !m.IsAuthenticated() {
		return ErrSignedOut
	}

	query := `INSERT INTO documents (collection, id, data, created_at, updated_at, deleted_at, seq)
			  VALUES (?, ?, '{}', ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			  	  updated_at = VALUES(updated_at),
				  deleted_at = VALUES(deleted_at),
				  seq = VALUES(seq)`

	at = at.UTC()
	err := m.txManager.WithTx(ctx, func(ctx context.Context) error {
		seq, err := m.nextSeq(ctx)
		if err != nil {
			return err
		}
		_, err = database.GetTx(ctx, m.db).ExecContext(ctx, query, string(path.Collection), path.ID, at, at, at, seq)
		return err
	})
	if err != nil {
		return classify(err, "failed to delete remote document")
	}
	return nil
}

// ChangesSince returns documents and tombstones with updated_at >= since.
func (m *MySQLStore) ChangesSince(
	ctx context.Context,
	collection entityDomain.Collection,
	since time.Time,
) ([]*syncDomain.Document, error) {
	if !m.IsAuthenticated() {
		return nil, ErrSignedOut
	}
	querier := database.GetTx(ctx, m.db)

	query := `SELECT collection, id, data, created_at, updated_at, deleted_at
			  FROM documents
			  WHERE collection = ? AND updated_at >= ?
			  ORDER BY updated_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, string(collection), since.UTC())
	if err != nil {
		return nil, classify(err, "failed to list remote changes")
	}
	defer func() {
		_ = rows.Close()
	}()

	docs, err := scanRemoteDocuments(rows)
	if err != nil {
		return nil, classify(err, "failed to scan remote changes")
	}
	return docs, nil
}

// Head returns the highest seq of the collection.
func (m *MySQLStore) Head(ctx context.Context, collection entityDomain.Collection) (int64, error) {
	if !m.IsAuthenticated() {
		return 0, ErrSignedOut
	}

	var seq int64
	query := `SELECT COALESCE(MAX(seq), 0) FROM documents WHERE collection = ?`
	if err := database.GetTx(ctx, m.db).QueryRowContext(ctx, query, string(collection)).Scan(&seq); err != nil {
		return 0, classify(err, "failed to read remote feed head")
	}
	return seq, nil
}

// ChangesAfter returns up to limit documents and tombstones with seq > after.
func (m *MySQLStore) ChangesAfter(
	ctx context.Context,
	collection entityDomain.Collection,
	after int64,
	limit int,
) ([]Change, error) {
	if !m.IsAuthenticated() {
		return nil, ErrSignedOut
	}
	querier := database.GetTx(ctx, m.db)

	query := `SELECT seq, collection, id, data, created_at, updated_at, deleted_at
			  FROM documents
			  WHERE collection = ? AND seq > ?
			  ORDER BY seq ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, string(collection), after, limit)
	if err != nil {
		return nil, classify(err, "failed to read remote feed")
	}
	defer func() {
		_ = rows.Close()
	}()

	changes, err := scanChanges(rows)
	if err != nil {
		return nil, classify(err, "failed to scan remote feed")
	}
	return changes, nil
}

// Subscribe starts a polling change feed for the collection.
func (m *MySQLStore) Subscribe(
	ctx context.Context,
	collection entityDomain.Collection,
	fn ChangeFunc,
) *Subscription {
	return Poll(ctx, m, collection, m.pollInterval, m.logger, fn)
}

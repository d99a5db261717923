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

// PostgreSQLStore implements Store for PostgreSQL.
type PostgreSQLStore struct {
	db           *sql.DB
	txManager    database.TxManager
	auth         AuthState
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewPostgreSQLStore creates a new PostgreSQL remote store.
func NewPostgreSQLStore(
	db *sql.DB,
	txManager database.TxManager,
	auth AuthState,
	pollInterval time.Duration,
	logger *slog.Logger,
) *PostgreSQLStore {
	return &PostgreSQLStore{
		db:           db,
		txManager:    txManager,
		auth:         auth,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// IsAuthenticated reports the session state.
func (p *PostgreSQLStore) IsAuthenticated() bool {
	return p.auth.IsAuthenticated()
}

// Ping checks the database connection.
func (p *PostgreSQLStore) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return classify(err, "failed to ping remote store")
	}
	return nil
}

// Read retrieves a live document by path.
func (p *PostgreSQLStore) Read(ctx context.Context, path Path) (*syncDomain.Document, error) {
	if !p.IsAuthenticated() {
		return nil, ErrSignedOut
	}
	querier := database.GetTx(ctx, p.db)

	query := `SELECT collection, id, data, created_at, updated_at, deleted_at
			  FROM documents
			  WHERE collection = $1 AND id = $2 AND deleted_at IS NULL`

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
func (p *PostgreSQLStore) ReadAll(
	ctx context.Context,
	collection entityDomain.Collection,
) ([]*syncDomain.Document, error) {
	if !p.IsAuthenticated() {
		return nil, ErrSignedOut
	}
	querier := database.GetTx(ctx, p.db)

	query := `SELECT collection, id, data, created_at, updated_at, deleted_at
			  FROM documents
			  WHERE collection = $1 AND deleted_at IS NULL
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

// nextSeq takes the next feed position. The counter row stays locked until the
// enclosing transaction ends.
func (p *PostgreSQLStore) nextSeq(ctx context.Context) (int64, error) {
	var seq int64
	query := `UPDATE document_sequence SET value = value + 1 WHERE id = 1 RETURNING value`
	if err := database.GetTx(ctx, p.db).QueryRowContext(ctx, query).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// Write inserts or replaces the document and clears any tombstone.
func (p *PostgreSQLStore) Write(ctx context.Context, path Path, doc *syncDomain.Document) error {
	if !p.IsAuthenticated() {
		return ErrSignedOut
	}

	query := `INSERT INTO documents (collection, id, data, created_at, updated_at, deleted_at, seq)
			  VALUES ($1, $2, $3, $4, $5, NULL, $6)
			  ON CONFLICT (collection, id) DO UPDATE SET
			  	  data = EXCLUDED.data,
				  created_at = EXCLUDED.created_at,
				  updated_at = EXCLUDED.updated_at,
				  deleted_at = NULL,
				  seq = EXCLUDED.seq`

	err := p.txManager.WithTx(ctx, func(ctx context.Context) error {
		seq, err := p.nextSeq(ctx)
		if err != nil {
			return err
		}
		_, err = database.GetTx(ctx, p.db).ExecContext(
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

// Delete soft-deletes the document at path. Deleting a missing document leaves a
// tombstone so other caches still learn about it.
func (p *PostgreSQLStore) Delete(ctx context.Context, path Path, at time.Time) error {
	if !p.IsAuthenticated() {
		return ErrSignedOut
	}

	query := `INSERT INTO documents (collection, id, data, created_at, updated_at, deleted_at, seq)
			  VALUES ($1, $2, '{}', $3, $3, $3, $4)
			  ON CONFLICT (collection, id) DO UPDATE SET
			  	  updated_at = EXCLUDED.updated_at,
				  deleted_at = EXCLUDED.deleted_at,
				  seq = EXCLUDED.seq`

	err := p.txManager.WithTx(ctx, func(ctx context.Context) error {
		seq, err := p.nextSeq(ctx)
		if err != nil {
			return err
		}
		_, err = database.GetTx(ctx, p.db).ExecContext(ctx, query, string(path.Collection), path.ID, at.UTC(), seq)
		return err
	})
	if err != nil {
		return classify(err, "failed to delete remote document")
	}
	return nil
}

// ChangesSince returns documents and tombstones with updated_at >= since.
func (p *PostgreSQLStore) ChangesSince(
	ctx context.Context,
	collection entityDomain.Collection,
	since time.Time,
) ([]*syncDomain.Document, error) {
	if !p.IsAuthenticated() {
		return nil, ErrSignedOut
	}
	querier := database.GetTx(ctx, p.db)

	query := `SELECT collection, id, data, created_at, updated_at, deleted_at
			  FROM documents
			  WHERE collection = $1 AND updated_at >= $2
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
func (p *PostgreSQLStore) Head(ctx context.Context, collection entityDomain.Collection) (int64, error) {
	if !p.IsAuthenticated() {
		return 0, ErrSignedOut
	}

	var seq int64
	query := `SELECT COALESCE(MAX(seq), 0) FROM documents WHERE collection = $1`
	if err := database.GetTx(ctx, p.db).QueryRowContext(ctx, query, string(collection)).Scan(&seq); err != nil {
		return 0, classify(err, "failed to read remote feed head")
	}
	return seq, nil
}

// ChangesAfter returns up to limit documents and tombstones with seq > after.
func (p *PostgreSQLStore) ChangesAfter(
	ctx context.Context,
	collection entityDomain.Collection,
	after int64,
	limit int,
) ([]Change, error) {
	if !p.IsAuthenticated() {
		return nil, ErrSignedOut
	}
	querier := database.GetTx(ctx, p.db)

	query := `SELECT seq, collection, id, data, created_at, updated_at, deleted_at
			  FROM documents
			  WHERE collection = $1 AND seq > $2
			  ORDER BY seq ASC
			  LIMIT $3`

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
func (p *PostgreSQLStore) Subscribe(
	ctx context.Context,
	collection entityDomain.Collection,
	fn ChangeFunc,
) *Subscription {
	return Poll(ctx, p, collection, p.pollInterval, p.logger, fn)
}

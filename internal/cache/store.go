// Package cache implements the local cache store: an embedded SQLite database holding
// every collection for offline reads and writes, the durable pending operation list
// and the fiscal log table.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/allisson/pdvsync/internal/database"
	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	apperrors "github.com/allisson/pdvsync/internal/errors"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

var filterFieldRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Store is the SQLite-backed local cache. The pool holds a single connection, so every
// call made inside database.NewTxManager(s.DB()).WithTx runs on that transaction.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

type options struct {
	timeout    time.Duration
	migrations []Migration
	hooks      []UpgradeHook
}

// Option configures Open.
type Option func(*options)

// WithTimeout bounds every store operation. Defaults to 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithMigrations appends schema steps after the built-in ones.
func WithMigrations(migrations ...Migration) Option {
	return func(o *options) { o.migrations = append(o.migrations, migrations...) }
}

// WithUpgradeHook registers a callback run when Open upgrades the schema.
func WithUpgradeHook(hook UpgradeHook) Option {
	return func(o *options) { o.hooks = append(o.hooks, hook) }
}

// Open creates or opens the cache database at path and brings the schema up to date.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - a single connection, since SQLite allows one writer
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	o := options{timeout: 30 * time.Second, migrations: Migrations()}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	from, to, err := runMigrations(ctx, db, o.migrations)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}
	if to > from {
		for _, hook := range o.hooks {
			if err := hook(ctx, from, to); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("cache upgrade hook failed: %w", err)
			}
		}
	}

	return &Store{db: db, timeout: o.timeout}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying connection for repositories sharing the file.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SchemaVersion returns the applied schema version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := database.GetTx(ctx, s.db).QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// Ping verifies the database is usable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return apperrors.FromContext(s.db.PingContext(ctx))
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Get returns a single document or syncDomain.ErrRecordNotFound.
func (s *Store) Get(ctx context.Context, collection entityDomain.Collection, id string) (*syncDomain.Document, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	row := database.GetTx(ctx, s.db).QueryRowContext(ctx,
		`SELECT collection, id, data, created_at, updated_at FROM documents WHERE collection = ? AND id = ?`,
		string(collection), id,
	)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, syncDomain.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(apperrors.FromContext(err), "failed to get cached document")
	}
	return doc, nil
}

// GetAll returns the documents of a collection ordered by updatedAt, optionally
// restricted by JSON field equality filters.
func (s *Store) GetAll(
	ctx context.Context,
	collection entityDomain.Collection,
	filters ...syncDomain.Filter,
) ([]*syncDomain.Document, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var sb strings.Builder
	sb.WriteString(`SELECT collection, id, data, created_at, updated_at FROM documents WHERE collection = ?`)
	args := []any{string(collection)}
	for _, f := range filters {
		if !filterFieldRegex.MatchString(f.Field) {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("invalid filter field %q", f.Field))
		}
		sb.WriteString(` AND json_extract(data, ?) = ?`)
		args = append(args, "$."+f.Field, filterValue(f.Value))
	}
	sb.WriteString(` ORDER BY updated_at ASC, id ASC`)

	rows, err := database.GetTx(ctx, s.db).QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.FromContext(err), "failed to list cached documents")
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := make([]*syncDomain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan cached document")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.FromContext(err), "failed to iterate cached documents")
	}
	return docs, nil
}

// Put inserts or replaces a document.
func (s *Store) Put(ctx context.Context, doc *syncDomain.Document) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err := database.GetTx(ctx, s.db).ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`,
		string(doc.Collection),
		doc.ID,
		[]byte(doc.Data),
		doc.CreatedAt.UTC().UnixNano(),
		doc.UpdatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.FromContext(err), "failed to put cached document")
	}
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *Store) Delete(ctx context.Context, collection entityDomain.Collection, id string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err := database.GetTx(ctx, s.db).ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, string(collection), id)
	if err != nil {
		return apperrors.Wrap(apperrors.FromContext(err), "failed to delete cached document")
	}
	return nil
}

// Clear removes every document of a collection, or of all collections when collection is empty.
func (s *Store) Clear(ctx context.Context, collection entityDomain.Collection) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var err error
	if collection == "" {
		_, err = database.GetTx(ctx, s.db).ExecContext(ctx, `DELETE FROM documents`)
	} else {
		_, err = database.GetTx(ctx, s.db).ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, string(collection))
	}
	if err != nil {
		return apperrors.Wrap(apperrors.FromContext(err), "failed to clear cached documents")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*syncDomain.Document, error) {
	var (
		collection string
		doc        syncDomain.Document
		data       []byte
		createdAt  int64
		updatedAt  int64
	)
	if err := row.Scan(&collection, &doc.ID, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc.Collection = entityDomain.Collection(collection)
	doc.Data = data
	doc.CreatedAt = time.Unix(0, createdAt).UTC()
	doc.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &doc, nil
}

// filterValue converts Go values to what json_extract returns for them.
func filterValue(v any) any {
	switch val := v.(type) {
	case bool:
		if val {
			return 1
		}
		return 0
	case fmt.Stringer:
		return val.String()
	default:
		return v
	}
}

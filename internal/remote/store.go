// Package remote implements the remote authoritative store: a path-addressed document
// store on PostgreSQL or MySQL, reachable only while the session is authenticated.
//
// # Database Support
//
// Each store has two implementations following the same contract:
//   - PostgreSQL: JSONB documents and TIMESTAMPTZ columns
//   - MySQL: JSON documents and DATETIME(6) columns (requires parseTime=true)
//
// # Soft Deletion
//
// Deletes set deleted_at and bump updated_at instead of removing the row. Tombstones
// are hidden from Read and ReadAll but returned by ChangesSince, so a pull can carry
// remote deletions into the local cache under last-writer-wins.
//
// # Change Feed
//
// Every Write and Delete takes the next value of a single-row counter in the same
// transaction and stores it in the document's seq column. The counter row stays
// locked until commit, so seq order is commit order. Subscribe keeps its cursor on seq
// and never on updated_at: a replayed offline edit carrying an old timestamp, or a
// writer with a skewed clock, is still delivered.
//
// # Transaction Support
//
// Reads join a transaction opened by the caller via database.GetTx(). Writes open
// their own through the store's database.TxManager, or join the caller's.
package remote

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	apperrors "github.com/allisson/pdvsync/internal/errors"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

// ErrSignedOut is returned by every call while the session is not authenticated.
var ErrSignedOut = apperrors.Wrap(apperrors.ErrUnauthorized, "remote session signed out")

// ErrInvalidPath indicates a path that is not "collection/id".
var ErrInvalidPath = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid remote path")

// Path addresses one document as "collection/id".
type Path struct {
	Collection entityDomain.Collection
	ID         string
}

// NewPath builds a path from its parts.
func NewPath(collection entityDomain.Collection, id string) Path {
	return Path{Collection: collection, ID: id}
}

// ParsePath parses "collection/id".
func ParsePath(s string) (Path, error) {
	collection, id, ok := strings.Cut(strings.Trim(s, "/"), "/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	c, err := entityDomain.ParseCollection(collection)
	if err != nil {
		return Path{}, err
	}
	return Path{Collection: c, ID: id}, nil
}

// String returns "collection/id".
func (p Path) String() string {
	return string(p.Collection) + "/" + p.ID
}

// AuthState reports the externally managed authentication state.
type AuthState interface {
	IsAuthenticated() bool
}

// ChangeFunc receives documents changed on the remote side, tombstones included.
type ChangeFunc func(doc *syncDomain.Document)

// Change is one entry of the change feed.
type Change struct {
	// Seq is assigned by the store in commit order.
	Seq      int64
	Document *syncDomain.Document
}

// Store is the remote authoritative store contract.
type Store interface {
	// Read returns a live document or syncDomain.ErrRecordNotFound.
	Read(ctx context.Context, path Path) (*syncDomain.Document, error)
	// ReadAll returns the live documents of a collection ordered by updated_at.
	ReadAll(ctx context.Context, collection entityDomain.Collection) ([]*syncDomain.Document, error)
	// Write stores the document at path, reviving it if it was deleted.
	Write(ctx context.Context, path Path, doc *syncDomain.Document) error
	// Delete writes a tombstone stamped with at.
	Delete(ctx context.Context, path Path, at time.Time) error
	// ChangesSince returns documents and tombstones with updated_at >= since.
	ChangesSince(
		ctx context.Context,
		collection entityDomain.Collection,
		since time.Time,
	) ([]*syncDomain.Document, error)
	// Head returns the highest seq of the collection, or 0 when it is empty.
	Head(ctx context.Context, collection entityDomain.Collection) (int64, error)
	// ChangesAfter returns up to limit documents and tombstones with seq > after, in seq order.
	ChangesAfter(ctx context.Context, collection entityDomain.Collection, after int64, limit int) ([]Change, error)
	// Subscribe delivers changes committed after the call until ctx ends or the
	// subscription is closed.
	Subscribe(ctx context.Context, collection entityDomain.Collection, fn ChangeFunc) *Subscription
	// IsAuthenticated reports whether calls are currently allowed.
	IsAuthenticated() bool
	// Ping checks the connection.
	Ping(ctx context.Context) error
}

// classify converts driver failures into the domain taxonomy: deadlines become
// ErrTimeout and connection failures become ErrOffline.
func classify(err error, message string) error {
	err = apperrors.FromContext(err)
	if isConnectionError(err) && !errors.Is(err, apperrors.ErrOffline) {
		err = fmt.Errorf("%w: %w", apperrors.ErrOffline, err)
	}
	return apperrors.Wrap(err, message)
}

func isConnectionError(err error) bool {
	var netErr net.Error
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr)
}

// scanRemoteDocument reads the document columns. Leading destinations receive the
// columns selected before them.
func scanRemoteDocument(row interface{ Scan(dest ...any) error }, leading ...any) (*syncDomain.Document, error) {
	var (
		collection string
		doc        syncDomain.Document
		data       []byte
		deletedAt  sql.NullTime
	)
	dest := append(leading, &collection, &doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt, &deletedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	doc.Collection = entityDomain.Collection(collection)
	doc.Data = data
	doc.CreatedAt = doc.CreatedAt.UTC()
	doc.UpdatedAt = doc.UpdatedAt.UTC()
	if deletedAt.Valid {
		at := deletedAt.Time.UTC()
		doc.DeletedAt = &at
	}
	return &doc, nil
}

func scanRemoteDocuments(rows *sql.Rows) ([]*syncDomain.Document, error) {
	docs := make([]*syncDomain.Document, 0)
	for rows.Next() {
		doc, err := scanRemoteDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func scanChanges(rows *sql.Rows) ([]Change, error) {
	changes := make([]Change, 0)
	for rows.Next() {
		var seq int64
		doc, err := scanRemoteDocument(rows, &seq)
		if err != nil {
			return nil, err
		}
		changes = append(changes, Change{Seq: seq, Document: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

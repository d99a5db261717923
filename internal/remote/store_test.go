package remote

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/allisson/pdvsync/internal/database"
	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	apperrors "github.com/allisson/pdvsync/internal/errors"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type staticAuth bool

func (a staticAuth) IsAuthenticated() bool { return bool(a) }

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	documentColumns = []string{"collection", "id", "data", "created_at", "updated_at", "deleted_at"}
	changeColumns   = append([]string{"seq"}, documentColumns...)
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Path
		wantErr error
	}{
		{name: "valid", input: "orders/o-1", want: Path{Collection: entityDomain.CollectionOrders, ID: "o-1"}},
		{name: "leading slash", input: "/customers/c-9", want: Path{Collection: entityDomain.CollectionCustomers, ID: "c-9"}},
		{name: "missing id", input: "orders", wantErr: ErrInvalidPath},
		{name: "empty id", input: "orders/", wantErr: ErrInvalidPath},
		{name: "nested id", input: "orders/a/b", wantErr: ErrInvalidPath},
		{name: "unknown collection", input: "tables/1", wantErr: entityDomain.ErrUnknownCollection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, NewPath(got.Collection, got.ID))
		})
	}

	assert.Equal(t, "orders/o-1", NewPath(entityDomain.CollectionOrders, "o-1").String())
}

func TestClassify(t *testing.T) {
	t.Run("deadline becomes timeout", func(t *testing.T) {
		err := classify(context.DeadlineExceeded, "failed")
		assert.ErrorIs(t, err, apperrors.ErrTimeout)
		assert.True(t, apperrors.IsTransient(err))
	})

	t.Run("bad connection becomes offline", func(t *testing.T) {
		err := classify(driver.ErrBadConn, "failed")
		assert.ErrorIs(t, err, apperrors.ErrOffline)
	})

	t.Run("network error becomes offline", func(t *testing.T) {
		err := classify(&net.OpError{Op: "dial", Err: errors.New("connection refused")}, "failed")
		assert.ErrorIs(t, err, apperrors.ErrOffline)
	})

	t.Run("other errors are kept", func(t *testing.T) {
		cause := errors.New("syntax error")
		err := classify(cause, "failed")
		assert.ErrorIs(t, err, cause)
		assert.False(t, apperrors.IsTransient(err))
	})
}

func newMockPostgreSQLStore(t *testing.T, auth bool) (*PostgreSQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewPostgreSQLStore(db, database.NewTxManager(db), staticAuth(auth), 10*time.Millisecond, discardLogger), mock
}

func newMockMySQLStore(t *testing.T, auth bool) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewMySQLStore(db, database.NewTxManager(db), staticAuth(auth), 10*time.Millisecond, discardLogger), mock
}

const (
	postgresNextSeq = `UPDATE document_sequence SET value = value \+ 1 WHERE id = 1 RETURNING value`
	mysqlNextSeq    = `UPDATE document_sequence SET value = LAST_INSERT_ID\(value \+ 1\) WHERE id = 1`
)

func expectPostgresSeq(mock sqlmock.Sqlmock, seq int64) {
	mock.ExpectQuery(postgresNextSeq).WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(seq))
}

func TestPostgreSQLStore_Read(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		store, mock := newMockPostgreSQLStore(t, true)
		mock.ExpectQuery(`SELECT collection, id, data, created_at, updated_at, deleted_at\s+FROM documents\s+WHERE collection = \$1 AND id = \$2 AND deleted_at IS NULL`).
			WithArgs("orders", "o-1").
			WillReturnRows(sqlmock.NewRows(documentColumns).
				AddRow("orders", "o-1", []byte(`{"number":1}`), now, now.Add(time.Minute), nil))

		doc, err := store.Read(ctx, NewPath(entityDomain.CollectionOrders, "o-1"))
		require.NoError(t, err)
		assert.Equal(t, "o-1", doc.ID)
		assert.Equal(t, entityDomain.CollectionOrders, doc.Collection)
		assert.Equal(t, now.Add(time.Minute), doc.UpdatedAt)
		assert.False(t, doc.IsDeleted())
		assert.JSONEq(t, `{"number":1}`, string(doc.Data))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		store, mock := newMockPostgreSQLStore(t, true)
		mock.ExpectQuery(`SELECT collection, id, data`).
			WithArgs("orders", "missing").
			WillReturnRows(sqlmock.NewRows(documentColumns))

		_, err := store.Read(ctx, NewPath(entityDomain.CollectionOrders, "missing"))
		assert.ErrorIs(t, err, syncDomain.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_SignedOut", func(t *testing.T) {
		store, mock := newMockPostgreSQLStore(t, false)

		_, err := store.Read(ctx, NewPath(entityDomain.CollectionOrders, "o-1"))
		assert.ErrorIs(t, err, ErrSignedOut)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_ConnectionIsOffline", func(t *testing.T) {
		store, mock := newMockPostgreSQLStore(t, true)
		mock.ExpectQuery(`SELECT collection, id, data`).
			WillReturnError(&net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")})

		_, err := store.Read(ctx, NewPath(entityDomain.CollectionOrders, "o-1"))
		assert.ErrorIs(t, err, apperrors.ErrOffline)
		assert.True(t, apperrors.IsTransient(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLStore_Write(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	path := NewPath(entityDomain.CollectionOrders, "o-1")
	doc := &syncDomain.Document{
		Collection: entityDomain.CollectionOrders,
		ID:         "o-1",
		Data:       []byte(`{"number":1}`),
		CreatedAt:  now,
		UpdatedAt:  now.Add(time.Second),
	}

	t.Run("Success_StampsNextSeqInOneTransaction", func(t *testing.T) {
		store, mock := newMockPostgreSQLStore(t, true)
		mock.ExpectBegin()
		expectPostgresSeq(mock, 42)
		mock.ExpectExec(`INSERT INTO documents .* ON CONFLICT \(collection, id\) DO UPDATE SET .* seq = EXCLUDED.seq`).
			WithArgs("orders", "o-1", []byte(`{"number":1}`), now, now.Add(time.Second), int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, store.Write(ctx, path, doc))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_JoinsCallerTransaction", func(t *testing.T) {
		store, mock := newMockPostgreSQLStore(t, true)
		mock.ExpectBegin()
		expectPostgresSeq(mock, 7)
		mock.ExpectExec(`INSERT INTO documents`).WillReturnResult(sqlmock.NewResult(0, 1))
		expectPostgresSeq(mock, 8)
		mock.ExpectExec(`INSERT INTO documents`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.txManager.WithTx(ctx, func(ctx context.Context) error {
			if err := store.Write(ctx, path, doc); err != nil {
				return err
			}
			return store.Delete(ctx, NewPath(entityDomain.CollectionOrders, "o-2"), now)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_FailedUpsertRollsBackSeq", func(t *testing.T) {
		store, mock := newMockPostgreSQLStore(t, true)
		mock.ExpectBegin()
		expectPostgresSeq(mock, 43)
		mock.ExpectExec(`INSERT INTO documents`).WillReturnError(errors.New("check constraint violated"))
		mock.ExpectRollback()

		err := store.Write(ctx, path, doc)
		require.Error(t, err)
		assert.False(t, apperrors.IsTransient(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_SignedOut", func(t *testing.T) {
		store, mock := newMockPostgreSQLStore(t, false)
		err := store.Write(ctx, path, doc)
		assert.ErrorIs(t, err, ErrSignedOut)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_Timeout", func(t *testing.T) {
		store, mock := newMockPostgreSQLStore(t, true)
		mock.ExpectBegin()
		mock.ExpectQuery(postgresNextSeq).WillReturnError(context.DeadlineExceeded)
		mock.ExpectRollback()

		err := store.Write(ctx, path, doc)
		assert.ErrorIs(t, err, apperrors.ErrTimeout)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_BeginOfflineIsOffline", func(t *testing.T) {
		store, mock := newMockPostgreSQLStore(t, true)
		mock.ExpectBegin().WillReturnError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})

		err := store.Write(ctx, path, doc)
		assert.ErrorIs(t, err, apperrors.ErrOffline)
	})
}

func TestPostgreSQLStore_Delete(t *testing.T) {
	store, mock := newMockPostgreSQLStore(t, true)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	expectPostgresSeq(mock, 5)
	mock.ExpectExec(`INSERT INTO documents .* deleted_at = EXCLUDED.deleted_at,\s+seq = EXCLUDED.seq`).
		WithArgs("customers", "c-1", at, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Delete(context.Background(), NewPath(entityDomain.CollectionCustomers, "c-1"), at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLStore_ChangesSince(t *testing.T) {
	store, mock := newMockPostgreSQLStore(t, true)
	since := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deleted := since.Add(2 * time.Second)

	mock.ExpectQuery(`WHERE collection = \$1 AND updated_at >= \$2`).
		WithArgs("orders", since).
		WillReturnRows(sqlmock.NewRows(documentColumns).
			AddRow("orders", "a", []byte(`{}`), since, since.Add(time.Second), nil).
			AddRow("orders", "b", []byte(`{}`), since, deleted, deleted))

	docs, err := store.ChangesSince(context.Background(), entityDomain.CollectionOrders, since)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.False(t, docs[0].IsDeleted())
	require.True(t, docs[1].IsDeleted())
	assert.Equal(t, deleted, *docs[1].DeletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLStore_Feed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success_Head", func(t *testing.T) {
		store, mock := newMockPostgreSQLStore(t, true)
		mock.ExpectQuery(`SELECT COALESCE\(MAX\(seq\), 0\) FROM documents WHERE collection = \$1`).
			WithArgs("orders").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(12)))

		head, err := store.Head(ctx, entityDomain.CollectionOrders)
		require.NoError(t, err)
		assert.Equal(t, int64(12), head)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_ChangesAfterOrderedBySeq", func(t *testing.T) {
		store, mock := newMockPostgreSQLStore(t, true)
		mock.ExpectQuery(`WHERE collection = \$1 AND seq > \$2\s+ORDER BY seq ASC\s+LIMIT \$3`).
			WithArgs("orders", int64(12), 100).
			WillReturnRows(sqlmock.NewRows(changeColumns).
				AddRow(int64(13), "orders", "late", []byte(`{}`), now, now.Add(-time.Hour), nil).
				AddRow(int64(14), "orders", "gone", []byte(`{}`), now, now, now))

		changes, err := store.ChangesAfter(ctx, entityDomain.CollectionOrders, 12, 100)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		assert.Equal(t, int64(13), changes[0].Seq)
		assert.Equal(t, "late", changes[0].Document.ID)
		assert.Equal(t, now.Add(-time.Hour), changes[0].Document.UpdatedAt)
		assert.Equal(t, int64(14), changes[1].Seq)
		assert.True(t, changes[1].Document.IsDeleted())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_SignedOut", func(t *testing.T) {
		store, _ := newMockPostgreSQLStore(t, false)
		_, err := store.Head(ctx, entityDomain.CollectionOrders)
		assert.ErrorIs(t, err, ErrSignedOut)
		_, err = store.ChangesAfter(ctx, entityDomain.CollectionOrders, 0, 10)
		assert.ErrorIs(t, err, ErrSignedOut)
	})
}

func TestMySQLStore_ReadAll(t *testing.T) {
	store, mock := newMockMySQLStore(t, true)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE collection = \? AND deleted_at IS NULL\s+ORDER BY updated_at ASC, id ASC`).
		WithArgs("inventory").
		WillReturnRows(sqlmock.NewRows(documentColumns).
			AddRow("inventory", "i-1", []byte(`{"sku":"A"}`), now, now, nil))

	docs, err := store.ReadAll(context.Background(), entityDomain.CollectionInventory)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "i-1", docs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_Write(t *testing.T) {
	store, mock := newMockMySQLStore(t, true)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := &syncDomain.Document{
		Collection: entityDomain.CollectionOrders,
		ID:         "o-1",
		Data:       []byte(`{"number":1}`),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(mysqlNextSeq).WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(`INSERT INTO documents .* ON DUPLICATE KEY UPDATE .* seq = VALUES\(seq\)`).
		WithArgs("orders", "o-1", []byte(`{"number":1}`), now, now, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Write(context.Background(), NewPath(entityDomain.CollectionOrders, "o-1"), doc))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_Delete(t *testing.T) {
	store, mock := newMockMySQLStore(t, true)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(mysqlNextSeq).WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(`INSERT INTO documents .* ON DUPLICATE KEY UPDATE`).
		WithArgs("orders", "o-1", at, at, at, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Delete(context.Background(), NewPath(entityDomain.CollectionOrders, "o-1"), at))
	assert.NoError(t, mock.ExpectationsWereMet())

	signedOut, _ := newMockMySQLStore(t, false)
	assert.ErrorIs(t, signedOut.Delete(context.Background(), NewPath(entityDomain.CollectionOrders, "o-1"), at), ErrSignedOut)
}

func TestMySQLStore_Feed(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockMySQLStore(t, true)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(seq\), 0\) FROM documents WHERE collection = \?`).
		WithArgs("customers").
		WillReturnRows(sqlmock.NewRows([]string{"head"}).AddRow(int64(3)))
	mock.ExpectQuery(`WHERE collection = \? AND seq > \?\s+ORDER BY seq ASC\s+LIMIT \?`).
		WithArgs("customers", int64(3), feedBatchSize).
		WillReturnRows(sqlmock.NewRows(changeColumns).
			AddRow(int64(4), "customers", "c-1", []byte(`{}`), now, now, nil))

	head, err := store.Head(ctx, entityDomain.CollectionCustomers)
	require.NoError(t, err)
	assert.Equal(t, int64(3), head)

	changes, err := store.ChangesAfter(ctx, entityDomain.CollectionCustomers, head, feedBatchSize)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, int64(4), changes[0].Seq)
	assert.Equal(t, entityDomain.CollectionCustomers, changes[0].Document.Collection)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// fakeFeed is an in-memory commit log.
type fakeFeed struct {
	mu        sync.Mutex
	changes   []Change
	headFails int
	headCalls int
	pollFails int
	afters    []int64
}

func (f *fakeFeed) add(id string, updatedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, Change{
		Seq:      int64(len(f.changes) + 1),
		Document: &syncDomain.Document{ID: id, UpdatedAt: updatedAt},
	})
}

func (f *fakeFeed) Head(ctx context.Context, collection entityDomain.Collection) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headCalls++
	if f.headFails > 0 {
		f.headFails--
		return 0, errors.New("temporary failure")
	}
	return int64(len(f.changes)), nil
}

func (f *fakeFeed) ChangesAfter(
	ctx context.Context,
	collection entityDomain.Collection,
	after int64,
	limit int,
) ([]Change, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afters = append(f.afters, after)
	if f.pollFails > 0 {
		f.pollFails--
		return nil, errors.New("temporary failure")
	}
	out := make([]Change, 0)
	for _, c := range f.changes {
		if c.Seq > after && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeFeed) cursors() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.afters)
}

type collected struct {
	mu  sync.Mutex
	ids []string
}

func (c *collected) add(doc *syncDomain.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, doc.ID)
}

func (c *collected) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.ids)
}

func TestPoll(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success_DeliversInCommitOrderWhateverTheTimestamp", func(t *testing.T) {
		feed := &fakeFeed{}
		feed.add("before", base)

		var got collected
		sub := Poll(context.Background(), feed, entityDomain.CollectionOrders, time.Millisecond, discardLogger, got.add)
		defer sub.Close()

		feed.add("a", base.Add(time.Hour))
		// Committed later with an older timestamp, like a replayed offline edit.
		feed.add("b", base.Add(-time.Hour))
		feed.add("c", base.Add(-time.Hour))

		assert.Eventually(t, func() bool { return len(got.get()) == 3 }, time.Second, time.Millisecond)
		assert.Equal(t, []string{"a", "b", "c"}, got.get())
	})

	t.Run("Success_FailedPollKeepsCursor", func(t *testing.T) {
		feed := &fakeFeed{pollFails: 1}
		feed.add("before", base)

		var got collected
		sub := Poll(context.Background(), feed, entityDomain.CollectionOrders, time.Millisecond, discardLogger, got.add)
		defer sub.Close()
		feed.add("a", base)

		assert.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, time.Millisecond)
		cursors := feed.cursors()
		require.GreaterOrEqual(t, len(cursors), 2)
		assert.Equal(t, []int64{1, 1}, cursors[:2])
		assert.Equal(t, []string{"a"}, got.get())
	})

	t.Run("Success_HeadRetriedUntilAvailable", func(t *testing.T) {
		feed := &fakeFeed{headFails: 2}
		feed.add("before", base)

		var got collected
		sub := Poll(context.Background(), feed, entityDomain.CollectionOrders, time.Millisecond, discardLogger, got.add)
		defer sub.Close()

		assert.Eventually(t, func() bool {
			feed.mu.Lock()
			defer feed.mu.Unlock()
			return feed.headCalls >= 3
		}, time.Second, time.Millisecond)
		feed.add("a", base)

		assert.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, time.Millisecond)
		assert.Equal(t, []string{"a"}, got.get())
	})

	t.Run("Success_BacklogLargerThanBatch", func(t *testing.T) {
		feed := &fakeFeed{}

		var got collected
		sub := Poll(context.Background(), feed, entityDomain.CollectionOrders, time.Millisecond, discardLogger, got.add)
		defer sub.Close()

		total := feedBatchSize + 10
		for i := range total {
			feed.add(fmt.Sprintf("o-%d", i), base)
		}

		assert.Eventually(t, func() bool { return len(got.get()) == total }, 2*time.Second, time.Millisecond)
		ids := got.get()
		assert.Equal(t, "o-0", ids[0])
		assert.Equal(t, fmt.Sprintf("o-%d", total-1), ids[total-1])
	})

	t.Run("Success_CloseIsIdempotent", func(t *testing.T) {
		sub := Poll(context.Background(), &fakeFeed{}, entityDomain.CollectionOrders, time.Millisecond, discardLogger,
			func(*syncDomain.Document) {})
		sub.Close()
		sub.Close()
	})
}

func TestPoll_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sub := Poll(ctx, &fakeFeed{}, entityDomain.CollectionOrders, time.Millisecond, discardLogger,
		func(*syncDomain.Document) {})
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop")
	}
}

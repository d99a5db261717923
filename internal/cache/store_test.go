package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/pdvsync/internal/database"
	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	apperrors "github.com/allisson/pdvsync/internal/errors"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testDoc(collection entityDomain.Collection, id string, data string, updatedAt time.Time) *syncDomain.Document {
	return &syncDomain.Document{
		Collection: collection,
		ID:         id,
		Data:       json.RawMessage(data),
		CreatedAt:  updatedAt.Add(-time.Hour),
		UpdatedAt:  updatedAt,
	}
}

func TestOpen(t *testing.T) {
	t.Run("Success_AppliesAllMigrations", func(t *testing.T) {
		store := openTestStore(t)

		version, err := store.SchemaVersion(context.Background())
		require.NoError(t, err)
		assert.Equal(t, CurrentSchemaVersion(), version)
		assert.NoError(t, store.Ping(context.Background()))
	})

	t.Run("Success_UpgradeHookRunsOnceWithVersions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")
		var calls [][2]int
		hook := func(ctx context.Context, from, to int) error {
			calls = append(calls, [2]int{from, to})
			return nil
		}

		store, err := Open(context.Background(), path, WithUpgradeHook(hook))
		require.NoError(t, err)
		require.NoError(t, store.Close())

		// Reopening at the same version does not run the hook again.
		store, err = Open(context.Background(), path, WithUpgradeHook(hook))
		require.NoError(t, err)
		require.NoError(t, store.Close())

		// A new step upgrades from the previous version.
		extra := Migration{Version: CurrentSchemaVersion() + 1, Name: "add notes", Up: execAll(
			`CREATE TABLE notes (id TEXT PRIMARY KEY)`,
		)}
		store, err = Open(context.Background(), path, WithMigrations(extra), WithUpgradeHook(hook))
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.Len(t, calls, 2)
		assert.Equal(t, [2]int{0, CurrentSchemaVersion()}, calls[0])
		assert.Equal(t, [2]int{CurrentSchemaVersion(), CurrentSchemaVersion() + 1}, calls[1])
	})

	t.Run("Error_FailingMigrationLeavesPreviousVersion", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")
		broken := Migration{Version: CurrentSchemaVersion() + 1, Name: "broken", Up: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `THIS IS NOT SQL`)
			return err
		}}

		_, err := Open(context.Background(), path, WithMigrations(broken))
		require.Error(t, err)

		store, err := Open(context.Background(), path)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		version, err := store.SchemaVersion(context.Background())
		require.NoError(t, err)
		assert.Equal(t, CurrentSchemaVersion(), version)
	})
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC)

	t.Run("Error_MissingIsNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, entityDomain.CollectionOrders, "missing")
		assert.ErrorIs(t, err, syncDomain.ErrRecordNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Success_RoundTripKeepsTimestamps", func(t *testing.T) {
		doc := testDoc(entityDomain.CollectionOrders, "o-1", `{"number":1}`, now)
		require.NoError(t, store.Put(ctx, doc))

		got, err := store.Get(ctx, entityDomain.CollectionOrders, "o-1")
		require.NoError(t, err)
		assert.Equal(t, doc.UpdatedAt, got.UpdatedAt)
		assert.Equal(t, doc.CreatedAt, got.CreatedAt)
		assert.JSONEq(t, `{"number":1}`, string(got.Data))
	})

	t.Run("Success_PutReplaces", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, testDoc(entityDomain.CollectionOrders, "o-1", `{"number":2}`, now.Add(time.Minute))))

		got, err := store.Get(ctx, entityDomain.CollectionOrders, "o-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"number":2}`, string(got.Data))
		assert.Equal(t, now.Add(time.Minute), got.UpdatedAt)
	})

	t.Run("Success_CollectionsAreIsolated", func(t *testing.T) {
		_, err := store.Get(ctx, entityDomain.CollectionCustomers, "o-1")
		assert.ErrorIs(t, err, syncDomain.ErrRecordNotFound)
	})
}

func TestStore_GetAll(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, testDoc(entityDomain.CollectionOrders, "b", `{"status":"open","table":"4","fiscalEnabled":true}`, base.Add(2*time.Second))))
	require.NoError(t, store.Put(ctx, testDoc(entityDomain.CollectionOrders, "a", `{"status":"finalized","table":"4","fiscalEnabled":false}`, base.Add(time.Second))))
	require.NoError(t, store.Put(ctx, testDoc(entityDomain.CollectionOrders, "c", `{"status":"open","table":"9","fiscalEnabled":false}`, base.Add(3*time.Second))))
	require.NoError(t, store.Put(ctx, testDoc(entityDomain.CollectionCustomers, "x", `{"name":"Ana"}`, base)))

	t.Run("Success_OrderedByUpdatedAt", func(t *testing.T) {
		docs, err := store.GetAll(ctx, entityDomain.CollectionOrders)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
	})

	t.Run("Success_FilterByField", func(t *testing.T) {
		docs, err := store.GetAll(ctx, entityDomain.CollectionOrders, syncDomain.Filter{Field: "status", Value: "open"})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "b", docs[0].ID)
		assert.Equal(t, "c", docs[1].ID)
	})

	t.Run("Success_MultipleFilters", func(t *testing.T) {
		docs, err := store.GetAll(ctx, entityDomain.CollectionOrders,
			syncDomain.Filter{Field: "status", Value: "open"},
			syncDomain.Filter{Field: "table", Value: "4"},
		)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "b", docs[0].ID)
	})

	t.Run("Success_BooleanFilter", func(t *testing.T) {
		docs, err := store.GetAll(ctx, entityDomain.CollectionOrders, syncDomain.Filter{Field: "fiscalEnabled", Value: true})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "b", docs[0].ID)
	})

	t.Run("Success_EmptyCollection", func(t *testing.T) {
		docs, err := store.GetAll(ctx, entityDomain.CollectionInventory)
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	t.Run("Error_InvalidFilterField", func(t *testing.T) {
		_, err := store.GetAll(ctx, entityDomain.CollectionOrders, syncDomain.Filter{Field: "status') OR 1=1 --", Value: "x"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestStore_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.Put(ctx, testDoc(entityDomain.CollectionOrders, "o-1", `{}`, now)))
	require.NoError(t, store.Put(ctx, testDoc(entityDomain.CollectionOrders, "o-2", `{}`, now)))
	require.NoError(t, store.Put(ctx, testDoc(entityDomain.CollectionCustomers, "c-1", `{}`, now)))

	require.NoError(t, store.Delete(ctx, entityDomain.CollectionOrders, "o-1"))
	require.NoError(t, store.Delete(ctx, entityDomain.CollectionOrders, "o-1"), "deleting twice is idempotent")
	_, err := store.Get(ctx, entityDomain.CollectionOrders, "o-1")
	assert.ErrorIs(t, err, syncDomain.ErrRecordNotFound)

	require.NoError(t, store.Clear(ctx, entityDomain.CollectionOrders))
	docs, err := store.GetAll(ctx, entityDomain.CollectionOrders)
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = store.GetAll(ctx, entityDomain.CollectionCustomers)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, store.Clear(ctx, ""))
	docs, err = store.GetAll(ctx, entityDomain.CollectionCustomers)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStore_Timeout(t *testing.T) {
	store := openTestStore(t, WithTimeout(time.Nanosecond))
	time.Sleep(time.Millisecond)

	_, err := store.GetAll(context.Background(), entityDomain.CollectionOrders)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
}

func TestPendingLog(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	log := NewPendingLog(store)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := syncDomain.NewPendingOperation(syncDomain.OperationSave,
		testDoc(entityDomain.CollectionOrders, "o-1", `{"number":1}`, base), base)
	second := syncDomain.NewPendingOperation(syncDomain.OperationDelete,
		&syncDomain.Document{Collection: entityDomain.CollectionCustomers, ID: "c-1", UpdatedAt: base}, base.Add(time.Second))
	third := syncDomain.NewPendingOperation(syncDomain.OperationSave,
		testDoc(entityDomain.CollectionOrders, "o-1", `{"number":2}`, base.Add(2*time.Second)), base.Add(2*time.Second))

	for _, op := range []*syncDomain.PendingOperation{first, second, third} {
		require.NoError(t, log.Append(ctx, op))
	}

	n, err := log.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ops, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, first.ID, ops[0].ID)
	assert.Equal(t, second.ID, ops[1].ID)
	assert.Equal(t, third.ID, ops[2].ID)
	assert.Equal(t, syncDomain.OperationDelete, ops[1].Kind)
	assert.Equal(t, "c-1", ops[1].RecordID)
	assert.JSONEq(t, `{"number":2}`, string(ops[2].Payload.Data))
	assert.Equal(t, base.Add(2*time.Second), ops[2].Payload.UpdatedAt)

	require.NoError(t, log.Remove(ctx, first.ID))
	ops, err = log.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, second.ID, ops[0].ID)
}

func TestPendingLog_SharesCacheTransaction(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	log := NewPendingLog(store)
	txManager := database.NewTxManager(store.DB())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := testDoc(entityDomain.CollectionOrders, "o-1", `{"number":1}`, now)

	t.Run("Success_CommitsBoth", func(t *testing.T) {
		err := txManager.WithTx(ctx, func(ctx context.Context) error {
			if err := store.Put(ctx, doc); err != nil {
				return err
			}
			return log.Append(ctx, syncDomain.NewPendingOperation(syncDomain.OperationSave, doc, now))
		})
		require.NoError(t, err)

		_, err = store.Get(ctx, entityDomain.CollectionOrders, "o-1")
		require.NoError(t, err)
		n, err := log.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("Error_FailedAppendRollsBackDocument", func(t *testing.T) {
		other := testDoc(entityDomain.CollectionOrders, "o-2", `{"number":2}`, now)
		op := syncDomain.NewPendingOperation(syncDomain.OperationSave, other, now)
		require.NoError(t, log.Append(ctx, op))

		err := txManager.WithTx(ctx, func(ctx context.Context) error {
			if err := store.Put(ctx, other); err != nil {
				return err
			}
			// Reusing the operation id violates its unique constraint.
			return log.Append(ctx, op)
		})
		require.Error(t, err)

		_, err = store.Get(ctx, entityDomain.CollectionOrders, "o-2")
		assert.ErrorIs(t, err, syncDomain.ErrRecordNotFound)
		n, err := log.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_StoreCallsJoinTheTransaction", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE document_sequence").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := NewTxManager(db).WithTx(ctx, func(ctx context.Context) error {
			querier := GetTx(ctx, db)
			assert.IsType(t, &sql.Tx{}, querier)

			if _, err := querier.ExecContext(ctx, "UPDATE document_sequence SET value = value + 1"); err != nil {
				return err
			}
			_, err := querier.ExecContext(ctx, "INSERT INTO documents (collection, id) VALUES ('orders', 'o-1')")
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_NestedCallJoinsOuterTransaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		txManager := NewTxManager(db)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM pending_operations").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := txManager.WithTx(ctx, func(outer context.Context) error {
			return txManager.WithTx(outer, func(inner context.Context) error {
				assert.Same(t, GetTx(outer, db), GetTx(inner, db))
				_, err := GetTx(inner, db).ExecContext(inner, "DELETE FROM pending_operations")
				return err
			})
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_OtherPoolIsNotJoined", func(t *testing.T) {
		cacheDB, cacheMock := newMockDB(t)
		remoteDB, _ := newMockDB(t)

		cacheMock.ExpectBegin()
		cacheMock.ExpectCommit()

		err := NewTxManager(cacheDB).WithTx(ctx, func(ctx context.Context) error {
			assert.Same(t, remoteDB, GetTx(ctx, remoteDB))
			assert.IsType(t, &sql.Tx{}, GetTx(ctx, cacheDB))
			return nil
		})
		require.NoError(t, err)
		assert.NoError(t, cacheMock.ExpectationsWereMet())
	})

	t.Run("Error_RollsBackOnError", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := NewTxManager(db).WithTx(ctx, func(ctx context.Context) error {
			return assert.AnError
		})
		assert.Equal(t, assert.AnError, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_RollbackFailureKeepsCause", func(t *testing.T) {
		db, mock := newMockDB(t)

		rbErr := errors.New("rollback failed")
		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(rbErr)

		err := NewTxManager(db).WithTx(ctx, func(ctx context.Context) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.ErrorIs(t, err, rbErr)
	})

	t.Run("Error_BeginFails", func(t *testing.T) {
		db, mock := newMockDB(t)

		beginErr := errors.New("begin failed")
		mock.ExpectBegin().WillReturnError(beginErr)

		called := false
		err := NewTxManager(db).WithTx(ctx, func(ctx context.Context) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, beginErr)
		assert.False(t, called)
	})

	t.Run("Error_CommitFails", func(t *testing.T) {
		db, mock := newMockDB(t)

		commitErr := errors.New("commit failed")
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(commitErr)

		err := NewTxManager(db).WithTx(ctx, func(ctx context.Context) error { return nil })
		assert.ErrorIs(t, err, commitErr)
	})
}

func TestNopTxManager(t *testing.T) {
	db, mock := newMockDB(t)

	called := false
	err := NopTxManager().WithTx(context.Background(), func(ctx context.Context) error {
		called = true
		assert.Same(t, db, GetTx(ctx, db))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTx_WithoutTransaction(t *testing.T) {
	db, _ := newMockDB(t)
	assert.Same(t, db, GetTx(context.Background(), db))
}

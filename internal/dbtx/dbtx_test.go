package dbtx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithTx_NilTx(t *testing.T) {
	t.Parallel()

	ctx := ContextWithTx(context.Background(), nil)
	assert.Nil(t, TxFromContext(ctx))
}

func TestTxFromContext_NoTx(t *testing.T) {
	t.Parallel()

	assert.Nil(t, TxFromContext(context.Background()))
}

func TestGetExecutor_PrefersTxOverDB(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)

	ctx := ContextWithTx(context.Background(), tx)
	executor := GetExecutor(ctx, db)

	_, isTx := executor.(*sql.Tx)
	assert.True(t, isTx, "executor should be *sql.Tx when a tx is in context")

	mock.ExpectRollback()
	require.NoError(t, tx.Rollback())
}

func TestGetExecutor_FallsBackToDB(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	executor := GetExecutor(context.Background(), db)

	_, isDB := executor.(*sql.DB)
	assert.True(t, isDB)
}

func TestRunInTransaction_CommitsOnSuccess(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	called := false
	err = RunInTransaction(context.Background(), db, nil, func(ctx context.Context) error {
		called = true
		assert.NotNil(t, TxFromContext(ctx), "tx should be reachable from within fn")
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTransaction_RollsBackOnFunctionError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	wantErr := errors.New("insufficient funds")
	err = RunInTransaction(context.Background(), db, nil, func(ctx context.Context) error {
		return wantErr
	})

	assert.Same(t, wantErr, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTransaction_BeginError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	wantErr := errors.New("pool exhausted")
	mock.ExpectBegin().WillReturnError(wantErr)

	err = RunInTransaction(context.Background(), db, nil, func(ctx context.Context) error {
		t.Fatal("fn must not be called when BeginTx fails")
		return nil
	})

	assert.Same(t, wantErr, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTransaction_ReturnsCommitError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(false))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	wantErr := errors.New("commit error")
	// database/sql marks the transaction done as soon as Commit is
	// called, so the deferred Rollback after a failed Commit returns
	// sql.ErrTxDone without reaching the driver.
	mock.ExpectCommit().WillReturnError(wantErr)

	err = RunInTransaction(context.Background(), db, nil, func(ctx context.Context) error {
		return nil
	})

	assert.Same(t, wantErr, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTransaction_PanicStillRollsBack(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = RunInTransaction(context.Background(), db, nil, func(ctx context.Context) error {
			panic("boom")
		})
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

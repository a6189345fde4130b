package orchestrator

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountrepo "github.com/ironvault/walletledger/internal/adapters/postgres/account"
	assetrepo "github.com/ironvault/walletledger/internal/adapters/postgres/asset"
	"github.com/ironvault/walletledger/internal/adapters/postgres/audit"
	"github.com/ironvault/walletledger/internal/adapters/postgres/balance"
	"github.com/ironvault/walletledger/internal/adapters/postgres/idempotency"
	"github.com/ironvault/walletledger/internal/adapters/postgres/ledger"
	"github.com/ironvault/walletledger/internal/services/ledgerwriter"
	"github.com/ironvault/walletledger/internal/store"
	"github.com/ironvault/walletledger/internal/validation"
)

func newOrchestrator(t *testing.T) (*Orchestrator, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	s := store.NewForTest(db)
	writer := ledgerwriter.New(s, balance.NewRepository(db), ledger.NewRepository(db), idempotency.NewRepository(db), audit.NewRepository(db))

	v, err := validation.New()
	require.NoError(t, err)

	o := New(assetrepo.NewRepository(db), accountrepo.NewRepository(db), idempotency.NewRepository(db), nil, writer, v, 24*time.Hour)

	return o, mock, func() { db.Close() }
}

func TestTopUp_Success(t *testing.T) {
	t.Parallel()

	o, mock, closeFn := newOrchestrator(t)
	defer closeFn()

	assetID := uuid.New()
	userAccountID := uuid.New()
	treasuryID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM idempotency_log WHERE key = \$1`).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectQuery(`SELECT (.+) FROM asset_types WHERE code = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "decimals", "is_active", "created_at", "updated_at"}).
			AddRow(assetID.String(), "GOLD", "Gold", int32(2), true, now, now))

	mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE (.+)user_id(.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "user_id", "name", "metadata", "is_active", "created_at", "updated_at"}).
			AddRow(userAccountID.String(), "USER", "user-1", "Alice", []byte(`{}`), true, now, now))

	mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE is_active = \$1 AND type = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "user_id", "name", "metadata", "is_active", "created_at", "updated_at"}).
			AddRow(treasuryID.String(), "SYSTEM_TREASURY", nil, "Treasury", []byte(`{}`), true, now, now))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM balance_cache WHERE (.+) FOR UPDATE NOWAIT`).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "asset_type_id", "asset_code", "available", "last_transaction_id", "updated_at"}).
			AddRow(treasuryID.String(), assetID.String(), "GOLD", "10000", nil, now))
	mock.ExpectExec(`INSERT INTO transactions`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO ledger_entries`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO balance_cache`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO balance_cache`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO idempotency_log`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := o.TopUp(context.Background(), Request{
		UserID:         "user-1",
		AssetCode:      "GOLD",
		Amount:         decimal.NewFromInt(100),
		IdempotencyKey: "key-topup-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.UserID)
	assert.True(t, resp.Amount.Equal(decimal.NewFromInt(100)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopUp_IdempotentReplay_ReturnsStoredResponse(t *testing.T) {
	t.Parallel()

	o, mock, closeFn := newOrchestrator(t)
	defer closeFn()

	now := time.Now()
	stored := Response{
		TransactionID: uuid.New(),
		UserID:        "user-1",
		AssetCode:     "GOLD",
		Amount:        decimal.NewFromInt(100),
		NewBalance:    decimal.NewFromInt(600),
		CreatedAt:     now,
	}

	payload, err := json.Marshal(stored)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM idempotency_log WHERE key = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "request_hash", "response", "status", "created_at", "expires_at"}).
			AddRow("key-topup-1", "hash", payload, "completed", now, now.Add(time.Hour)))

	resp, err := o.TopUp(context.Background(), Request{
		UserID:         "user-1",
		AssetCode:      "GOLD",
		Amount:         decimal.NewFromInt(100),
		IdempotencyKey: "key-topup-1",
	})

	require.NoError(t, err)
	assert.True(t, resp.NewBalance.Equal(decimal.NewFromInt(600)), "expected the stored balance to replay, got %s", resp.NewBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopUp_ValidationFailure(t *testing.T) {
	t.Parallel()

	o, _, closeFn := newOrchestrator(t)
	defer closeFn()

	_, err := o.TopUp(context.Background(), Request{
		AssetCode:      "GOLD",
		Amount:         decimal.NewFromInt(100),
		IdempotencyKey: "key-topup-2",
	})

	require.Error(t, err)
}

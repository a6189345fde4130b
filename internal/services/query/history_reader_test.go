package query

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountrepo "github.com/ironvault/walletledger/internal/adapters/postgres/account"
	assetrepo "github.com/ironvault/walletledger/internal/adapters/postgres/asset"
	"github.com/ironvault/walletledger/internal/adapters/postgres/ledger"
)

func TestGetTransactionHistory_DefaultLimit(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reader := NewHistoryReader(assetrepo.NewRepository(db), accountrepo.NewRepository(db), ledger.NewRepository(db))

	assetID := uuid.New()
	accountID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM asset_types WHERE code = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "decimals", "is_active", "created_at", "updated_at"}).
			AddRow(assetID.String(), "GOLD", "Gold", int32(2), true, now, now))

	mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE (.+)user_id(.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "user_id", "name", "metadata", "is_active", "created_at", "updated_at"}).
			AddRow(accountID.String(), "USER", "user-1", "Alice", []byte(`{}`), true, now, now))

	mock.ExpectQuery(`SELECT (.+) FROM ledger_entries e JOIN transactions t ON t\.id = e\.transaction_id WHERE (.+) ORDER BY e\.created_at DESC LIMIT 50`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "transaction_id", "account_id", "asset_type_id", "entry_type", "amount", "running_balance", "description", "created_at",
			"type", "status", "idempotency_key",
		}))

	entries, err := reader.GetTransactionHistory(context.Background(), "user-1", "GOLD", 0, 0)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetTransactionHistory_NoAssetFilter(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reader := NewHistoryReader(assetrepo.NewRepository(db), accountrepo.NewRepository(db), ledger.NewRepository(db))

	accountID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE (.+)user_id(.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "user_id", "name", "metadata", "is_active", "created_at", "updated_at"}).
			AddRow(accountID.String(), "USER", "user-1", "Alice", []byte(`{}`), true, now, now))

	mock.ExpectQuery(`SELECT (.+) FROM ledger_entries e JOIN transactions t ON t\.id = e\.transaction_id WHERE (.+) ORDER BY e\.created_at DESC LIMIT 50`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "transaction_id", "account_id", "asset_type_id", "entry_type", "amount", "running_balance", "description", "created_at",
			"type", "status", "idempotency_key",
		}))

	entries, err := reader.GetTransactionHistory(context.Background(), "user-1", "", 0, 0)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetTransactionHistory_RejectsLimitOverCap(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reader := NewHistoryReader(assetrepo.NewRepository(db), accountrepo.NewRepository(db), ledger.NewRepository(db))

	_, err = reader.GetTransactionHistory(context.Background(), "user-1", "GOLD", 500, 0)
	assert.Error(t, err)
}

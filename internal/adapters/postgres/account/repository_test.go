package account

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironvault/walletledger/internal/mmodel"
)

func newRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "type", "user_id", "name", "metadata", "is_active", "created_at", "updated_at"})
}

func TestFindByID_Found(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	now := time.Now()

	rows := newRows().AddRow(id.String(), "USER", "user-42", "Alice", []byte(`{}`), true, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(rows)

	repo := NewRepository(db)
	got, err := repo.FindByID(context.Background(), id.String())

	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, mmodel.AccountTypeUser, got.Type)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "user-42", *got.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnError(sql.ErrNoRows)

	repo := NewRepository(db)
	_, err = repo.FindByID(context.Background(), id.String())

	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFindSystemAccount(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	now := time.Now()

	rows := newRows().AddRow(id.String(), "SYSTEM_TREASURY", nil, "Treasury", []byte(`{}`), true, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE is_active = \$1 AND type = \$2`).
		WillReturnRows(rows)

	repo := NewRepository(db)
	got, err := repo.FindSystemAccount(context.Background(), mmodel.AccountTypeSystemTreasury)

	require.NoError(t, err)
	assert.Nil(t, got.UserID)
	assert.True(t, got.IsSystem())
}

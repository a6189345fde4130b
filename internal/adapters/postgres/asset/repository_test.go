package asset

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindByCode_Found(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "code", "name", "decimals", "is_active", "created_at", "updated_at"}).
		AddRow(id.String(), "GOLD", "Gold Coins", int32(2), true, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM asset_types WHERE code = \$1`).
		WithArgs("GOLD").
		WillReturnRows(rows)

	repo := NewRepository(db)
	got, err := repo.FindByCode(context.Background(), "GOLD")

	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "GOLD", got.Code)
	assert.Equal(t, int32(2), got.Decimals)
	assert.True(t, got.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByCode_NotFound(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM asset_types WHERE code = \$1`).
		WithArgs("DOES_NOT_EXIST").
		WillReturnError(sql.ErrNoRows)

	repo := NewRepository(db)
	_, err = repo.FindByCode(context.Background(), "DOES_NOT_EXIST")

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActive(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "name", "decimals", "is_active", "created_at", "updated_at"}).
		AddRow(uuid.New().String(), "GOLD", "Gold Coins", int32(2), true, now, now).
		AddRow(uuid.New().String(), "GEMS", "Gems", int32(0), true, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM asset_types WHERE is_active = \$1 ORDER BY code ASC`).
		WillReturnRows(rows)

	repo := NewRepository(db)
	got, err := repo.ListActive(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

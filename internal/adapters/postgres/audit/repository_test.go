package audit

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironvault/walletledger/internal/mmodel"
)

func TestInsert(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnResult(sqlmock.NewResult(0, 1))

	actor := "system"
	entry := &mmodel.AuditLogEntry{
		ID:            uuid.New(),
		TransactionID: uuid.New(),
		Action:        mmodel.TransactionTypeTopUp,
		Actor:         &actor,
		Payload:       []byte(`{}`),
		CreatedAt:     time.Now(),
	}

	repo := NewRepository(db)
	err = repo.Insert(context.Background(), entry)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

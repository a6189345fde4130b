package account

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ironvault/walletledger/internal/mmodel"
)

// AccountPostgreSQLModel mirrors the accounts columns. Metadata is
// stored as jsonb; UserID is nullable since only AccountTypeUser rows
// populate it (spec.md §3).
type AccountPostgreSQLModel struct {
	ID        string
	Type      string
	UserID    sql.NullString
	Name      string
	Metadata  []byte
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *AccountPostgreSQLModel) FromEntity(a *mmodel.Account) error {
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return err
	}

	userID := sql.NullString{}
	if a.UserID != nil {
		userID = sql.NullString{String: *a.UserID, Valid: true}
	}

	*m = AccountPostgreSQLModel{
		ID:        a.ID.String(),
		Type:      string(a.Type),
		UserID:    userID,
		Name:      a.Name,
		Metadata:  metadata,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}

	return nil
}

func (m *AccountPostgreSQLModel) ToEntity() (*mmodel.Account, error) {
	var metadata map[string]any
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &metadata); err != nil {
			return nil, err
		}
	}

	var userID *string
	if m.UserID.Valid {
		userID = &m.UserID.String
	}

	return &mmodel.Account{
		ID:        uuid.MustParse(m.ID),
		Type:      mmodel.AccountType(m.Type),
		UserID:    userID,
		Name:      m.Name,
		Metadata:  metadata,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

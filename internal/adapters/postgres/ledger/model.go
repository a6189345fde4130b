// Package ledger is the Store Adapter's repository for the
// transactions and ledger_entries relations — the two tables the
// Ledger Writer appends to atomically inside one transaction (spec.md
// §4.3). Grounded on the teacher repo's components/ledger Transaction
// and Operation PostgreSQL models.
package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ironvault/walletledger/internal/mmodel"
)

// TransactionHeaderPostgreSQLModel mirrors the transactions columns.
type TransactionHeaderPostgreSQLModel struct {
	ID             string
	IdempotencyKey string
	Type           string
	AssetTypeID    string
	Amount         decimal.Decimal
	Description    string
	Metadata       []byte
	Status         string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

func (m *TransactionHeaderPostgreSQLModel) FromEntity(h *mmodel.TransactionHeader) error {
	metadata, err := json.Marshal(h.Metadata)
	if err != nil {
		return err
	}

	*m = TransactionHeaderPostgreSQLModel{
		ID:             h.ID.String(),
		IdempotencyKey: h.IdempotencyKey,
		Type:           string(h.Type),
		AssetTypeID:    h.AssetTypeID.String(),
		Amount:         h.Amount,
		Description:    h.Description,
		Metadata:       metadata,
		Status:         string(h.Status),
		CreatedAt:      h.CreatedAt,
		CompletedAt:    h.CompletedAt,
	}

	return nil
}

func (m *TransactionHeaderPostgreSQLModel) ToEntity() (*mmodel.TransactionHeader, error) {
	var metadata map[string]any
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &metadata); err != nil {
			return nil, err
		}
	}

	return &mmodel.TransactionHeader{
		ID:             uuid.MustParse(m.ID),
		IdempotencyKey: m.IdempotencyKey,
		Type:           mmodel.TransactionType(m.Type),
		AssetTypeID:    uuid.MustParse(m.AssetTypeID),
		Amount:         m.Amount,
		Description:    m.Description,
		Metadata:       metadata,
		Status:         mmodel.TransactionStatus(m.Status),
		CreatedAt:      m.CreatedAt,
		CompletedAt:    m.CompletedAt,
	}, nil
}

// LedgerEntryPostgreSQLModel mirrors the ledger_entries columns, plus
// the parent transactions columns a history read joins in.
type LedgerEntryPostgreSQLModel struct {
	ID             string
	TransactionID  string
	AccountID      string
	AssetTypeID    string
	EntryType      string
	Amount         decimal.Decimal
	RunningBalance decimal.Decimal
	Description    string
	CreatedAt      time.Time

	TransactionType           string
	TransactionStatus         string
	TransactionIdempotencyKey string
}

func (m *LedgerEntryPostgreSQLModel) FromEntity(e *mmodel.LedgerEntry) {
	*m = LedgerEntryPostgreSQLModel{
		ID:             e.ID.String(),
		TransactionID:  e.TransactionID.String(),
		AccountID:      e.AccountID.String(),
		AssetTypeID:    e.AssetTypeID.String(),
		EntryType:      string(e.EntryType),
		Amount:         e.Amount,
		RunningBalance: e.RunningBalance,
		Description:    e.Description,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *LedgerEntryPostgreSQLModel) ToEntity() *mmodel.LedgerEntry {
	return &mmodel.LedgerEntry{
		ID:                        uuid.MustParse(m.ID),
		TransactionID:             uuid.MustParse(m.TransactionID),
		AccountID:                 uuid.MustParse(m.AccountID),
		AssetTypeID:               uuid.MustParse(m.AssetTypeID),
		EntryType:                 mmodel.EntryType(m.EntryType),
		Amount:                    m.Amount,
		RunningBalance:            m.RunningBalance,
		Description:               m.Description,
		CreatedAt:                 m.CreatedAt,
		TransactionType:           mmodel.TransactionType(m.TransactionType),
		TransactionStatus:         mmodel.TransactionStatus(m.TransactionStatus),
		TransactionIdempotencyKey: m.TransactionIdempotencyKey,
	}
}

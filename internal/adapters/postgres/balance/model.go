// Package balance is the Store Adapter's repository for the
// balance_cache relation — the materialized (account, asset) holding
// the Ledger Writer locks, reads, and rewrites inside every movement
// (spec.md §4.3), and that the Balance Reader serves from directly
// (spec.md §4.6).
package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ironvault/walletledger/internal/mmodel"
)

// BalancePostgreSQLModel mirrors the balance_cache columns.
type BalancePostgreSQLModel struct {
	AccountID         string
	AssetTypeID       string
	AssetCode         string
	Available         decimal.Decimal
	LastTransactionID *string
	UpdatedAt         time.Time
}

func (m *BalancePostgreSQLModel) ToEntity() *mmodel.Balance {
	var lastTxID *uuid.UUID
	if m.LastTransactionID != nil {
		parsed := uuid.MustParse(*m.LastTransactionID)
		lastTxID = &parsed
	}

	return &mmodel.Balance{
		AccountID:         uuid.MustParse(m.AccountID),
		AssetTypeID:       uuid.MustParse(m.AssetTypeID),
		AssetCode:         m.AssetCode,
		Available:         m.Available,
		LastTransactionID: lastTxID,
		UpdatedAt:         m.UpdatedAt,
	}
}

package mmodel

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance is the materialized current holding of one (account, asset)
// pair (spec.md §3) — derived state, always reconstructible by summing
// ledger entries, but authoritative for reads and maintained
// synchronously with every Ledger Writer commit.
type Balance struct {
	AccountID         uuid.UUID
	AssetTypeID       uuid.UUID
	AssetCode         string
	Available         decimal.Decimal
	LastTransactionID *uuid.UUID
	UpdatedAt         time.Time
}

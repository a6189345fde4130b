package mmodel

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType is one signed side of a movement.
type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// LedgerEntry is an append-only record of a single-sided balance
// movement (spec.md §3). Every TransactionHeader has exactly two: one
// debit, one credit, of identical magnitude and asset.
type LedgerEntry struct {
	ID             uuid.UUID
	TransactionID  uuid.UUID
	AccountID      uuid.UUID
	AssetTypeID    uuid.UUID
	EntryType      EntryType
	Amount         decimal.Decimal
	RunningBalance decimal.Decimal
	Description    string
	CreatedAt      time.Time

	// TransactionType, TransactionStatus, and TransactionIdempotencyKey
	// come from the parent transaction header and are only populated
	// when an entry is read back joined with it (spec.md §4.6's history
	// listing); they are zero-value on an entry fresh off the Ledger
	// Writer's insert path.
	TransactionType           TransactionType
	TransactionStatus         TransactionStatus
	TransactionIdempotencyKey string
}

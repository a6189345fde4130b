package mmodel

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the tag on a TransactionHeader. spec.md §2 scopes
// the core to three: TOP_UP, BONUS, PURCHASE. Others are reserved by the
// schema for future operations the core does not implement (spec.md §1
// Non-goals: reversals are not a first-class operation yet).
type TransactionType string

const (
	TransactionTypeTopUp    TransactionType = "TOP_UP"
	TransactionTypeBonus    TransactionType = "BONUS"
	TransactionTypePurchase TransactionType = "PURCHASE"
	TransactionTypeReversal TransactionType = "REVERSAL"
)

// TransactionStatus is the lifecycle state of a TransactionHeader.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusReversed  TransactionStatus = "reversed"
)

// TransactionHeader is the immutable master record of one committed
// movement (spec.md §3). Once committed it is never mutated.
type TransactionHeader struct {
	ID              uuid.UUID
	IdempotencyKey  string
	Type            TransactionType
	AssetTypeID     uuid.UUID
	Amount          decimal.Decimal
	Description     string
	Metadata        map[string]any
	Status          TransactionStatus
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

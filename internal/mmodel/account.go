package mmodel

import (
	"time"

	"github.com/google/uuid"
)

// AccountType is the closed set of account roles spec.md §3 names.
type AccountType string

const (
	AccountTypeUser           AccountType = "USER"
	AccountTypeSystemTreasury AccountType = "SYSTEM_TREASURY"
	AccountTypeSystemRevenue  AccountType = "SYSTEM_REVENUE"
	AccountTypeSystemBonus    AccountType = "SYSTEM_BONUS"
	AccountTypeSystemReserve  AccountType = "SYSTEM_RESERVE"
)

// Account is a named bucket of asset holdings — a user wallet or a
// system pool (spec.md §3).
type Account struct {
	ID        uuid.UUID
	Type      AccountType
	UserID    *string // set only for AccountTypeUser
	Name      string
	Metadata  map[string]any
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsSystem reports whether this account is one of the system pools
// rather than an end-user wallet.
func (a Account) IsSystem() bool {
	return a.Type != AccountTypeUser
}

// Package mmodel holds the engine's domain entities — value records keyed
// by UUID, per spec.md §9: "the engine never walks a graph in memory,
// everything is a keyed lookup under a transaction."
package mmodel

import (
	"time"

	"github.com/google/uuid"
)

// AssetType is a virtual currency tracked by the ledger (spec.md §3).
// Code is immutable once created; Decimals declares the fixed-point
// scale every amount of this asset must respect.
type AssetType struct {
	ID          uuid.UUID
	Code        string
	Name        string
	Decimals    int32
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

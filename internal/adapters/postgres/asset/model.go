// Package asset is the Store Adapter's repository for spec.md §3's
// asset_types relation, grounded on the teacher repo's
// components/ledger AssetPostgreSQLModel convention: a row-shaped
// struct with FromEntity/ToEntity converting to and from the domain
// type in internal/mmodel.
package asset

import (
	"time"

	"github.com/google/uuid"

	"github.com/ironvault/walletledger/internal/mmodel"
)

// AssetTypePostgreSQLModel mirrors the asset_types columns exactly.
type AssetTypePostgreSQLModel struct {
	ID        string
	Code      string
	Name      string
	Decimals  int32
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FromEntity builds the row representation from a domain AssetType.
func (m *AssetTypePostgreSQLModel) FromEntity(a *mmodel.AssetType) {
	*m = AssetTypePostgreSQLModel{
		ID:        a.ID.String(),
		Code:      a.Code,
		Name:      a.Name,
		Decimals:  a.Decimals,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ToEntity builds the domain AssetType from the row representation.
func (m *AssetTypePostgreSQLModel) ToEntity() *mmodel.AssetType {
	return &mmodel.AssetType{
		ID:        uuid.MustParse(m.ID),
		Code:      m.Code,
		Name:      m.Name,
		Decimals:  m.Decimals,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

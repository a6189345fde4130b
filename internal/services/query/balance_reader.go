// Package query implements the two read-only auxiliaries of spec.md
// §4.6 — Balance Reader and History Reader. Neither participates in
// the locking protocol; both read through the Store Adapter's replica
// routing when configured (SPEC_FULL.md §C.2).
package query

import (
	"context"
	"database/sql"
	"errors"

	"go.opentelemetry.io/otel"

	accountrepo "github.com/ironvault/walletledger/internal/adapters/postgres/account"
	assetrepo "github.com/ironvault/walletledger/internal/adapters/postgres/asset"
	"github.com/ironvault/walletledger/internal/adapters/postgres/balance"
	"github.com/ironvault/walletledger/internal/apperrors"
	"github.com/ironvault/walletledger/internal/constant"
	"github.com/ironvault/walletledger/internal/mmodel"
	"github.com/ironvault/walletledger/internal/money"
)

var tracer = otel.Tracer("services/query")

// AssetBalance is one row of GetAllBalances' response (spec.md §4.6).
type AssetBalance struct {
	AssetCode string
	AssetName string
	Balance   mmodel.Balance
}

// BalanceReader implements spec.md §4.6's get_balance / get_all_balances.
type BalanceReader struct {
	assets   assetrepo.Repository
	accounts accountrepo.Repository
	balances balance.Repository
}

// NewBalanceReader wires a BalanceReader.
func NewBalanceReader(assets assetrepo.Repository, accounts accountrepo.Repository, balances balance.Repository) *BalanceReader {
	return &BalanceReader{assets: assets, accounts: accounts, balances: balances}
}

// GetBalance returns the user's balance of one asset, or zero if the
// user has a valid account but no balance-cache row for it yet (spec.md
// §4.6: "a missing row returns balance zero").
func (r *BalanceReader) GetBalance(ctx context.Context, userID, assetCode string) (*AssetBalance, error) {
	ctx, span := tracer.Start(ctx, "balance_reader.get_balance")
	defer span.End()

	asset, err := r.assets.FindByCode(ctx, assetCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(constant.ErrUnknownAssetCode, "asset", assetCode)
		}

		span.RecordError(err)

		return nil, err
	}

	account, err := r.accounts.FindByUserAndType(ctx, userID, mmodel.AccountTypeUser)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(constant.ErrAccountNotFound, "account")
		}

		span.RecordError(err)

		return nil, err
	}

	bal, err := r.balances.Get(ctx, account.ID.String(), asset.ID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &AssetBalance{
				AssetCode: asset.Code,
				AssetName: asset.Name,
				Balance: mmodel.Balance{
					AccountID:   account.ID,
					AssetTypeID: asset.ID,
					AssetCode:   asset.Code,
					Available:   money.Zero,
				},
			}, nil
		}

		span.RecordError(err)

		return nil, err
	}

	return &AssetBalance{AssetCode: asset.Code, AssetName: asset.Name, Balance: *bal}, nil
}

// GetAllBalances returns every active asset's balance for the user,
// defaulting to zero for assets with no cache row (spec.md §4.6).
func (r *BalanceReader) GetAllBalances(ctx context.Context, userID string) ([]AssetBalance, error) {
	ctx, span := tracer.Start(ctx, "balance_reader.get_all_balances")
	defer span.End()

	account, err := r.accounts.FindByUserAndType(ctx, userID, mmodel.AccountTypeUser)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(constant.ErrAccountNotFound, "account")
		}

		span.RecordError(err)

		return nil, err
	}

	assets, err := r.assets.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	existing, err := r.balances.GetAllForAccount(ctx, account.ID.String())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	byAsset := make(map[string]*mmodel.Balance, len(existing))
	for _, b := range existing {
		byAsset[b.AssetTypeID.String()] = b
	}

	result := make([]AssetBalance, 0, len(assets))

	for _, asset := range assets {
		if !asset.IsActive {
			continue
		}

		if b, ok := byAsset[asset.ID.String()]; ok {
			result = append(result, AssetBalance{AssetCode: asset.Code, AssetName: asset.Name, Balance: *b})
			continue
		}

		result = append(result, AssetBalance{
			AssetCode: asset.Code,
			AssetName: asset.Name,
			Balance: mmodel.Balance{
				AccountID:   account.ID,
				AssetTypeID: asset.ID,
				AssetCode:   asset.Code,
				Available:   money.Zero,
			},
		})
	}

	return result, nil
}

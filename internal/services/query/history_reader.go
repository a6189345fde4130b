package query

import (
	"context"
	"database/sql"
	"errors"

	accountrepo "github.com/ironvault/walletledger/internal/adapters/postgres/account"
	assetrepo "github.com/ironvault/walletledger/internal/adapters/postgres/asset"
	"github.com/ironvault/walletledger/internal/adapters/postgres/ledger"
	"github.com/ironvault/walletledger/internal/apperrors"
	"github.com/ironvault/walletledger/internal/constant"
	"github.com/ironvault/walletledger/internal/mmodel"
)

// HistoryReader implements spec.md §4.6's get_transaction_history.
type HistoryReader struct {
	assets   assetrepo.Repository
	accounts accountrepo.Repository
	entries  ledger.Repository
}

// NewHistoryReader wires a HistoryReader.
func NewHistoryReader(assets assetrepo.Repository, accounts accountrepo.Repository, entries ledger.Repository) *HistoryReader {
	return &HistoryReader{assets: assets, accounts: accounts, entries: entries}
}

// GetTransactionHistory returns the user's ledger entries, newest
// first, bounded by limit/offset (spec.md §4.6: "limit=50, offset=0"
// defaults; a limit of 0 takes the default, while a limit above 100 or
// below 0, or a negative offset, is rejected with a ValidationError
// rather than clamped; spec.md §6's getHistory takes no
// asset filter). assetCode narrows the listing to one asset when
// non-empty — SPEC_FULL.md's optional extension of the same call.
func (r *HistoryReader) GetTransactionHistory(ctx context.Context, userID, assetCode string, limit, offset int) ([]*mmodel.LedgerEntry, error) {
	ctx, span := tracer.Start(ctx, "history_reader.get_transaction_history")
	defer span.End()

	limit, offset, err := normalizePagination(limit, offset)
	if err != nil {
		return nil, err
	}

	var assetTypeID string

	if assetCode != "" {
		asset, err := r.assets.FindByCode(ctx, assetCode)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperrors.ValidateBusinessError(constant.ErrUnknownAssetCode, "asset", assetCode)
			}

			span.RecordError(err)

			return nil, err
		}

		assetTypeID = asset.ID.String()
	}

	account, err := r.accounts.FindByUserAndType(ctx, userID, mmodel.AccountTypeUser)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ValidateBusinessError(constant.ErrAccountNotFound, "account")
		}

		span.RecordError(err)

		return nil, err
	}

	entries, err := r.entries.ListByAccount(ctx, account.ID.String(), assetTypeID, limit, offset)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return entries, nil
}

func normalizePagination(limit, offset int) (int, int, error) {
	if limit == 0 {
		limit = constant.DefaultHistoryLimit
	}

	if limit < 0 || limit > constant.MaxHistoryLimit {
		return 0, 0, apperrors.ValidateBusinessError(constant.ErrInvalidPaginationLimit, "pagination")
	}

	if offset < 0 {
		return 0, 0, apperrors.ValidateBusinessError(constant.ErrInvalidPaginationOffset, "pagination")
	}

	return limit, offset, nil
}

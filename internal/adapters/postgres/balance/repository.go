package balance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/ironvault/walletledger/internal/dbtx"
	"github.com/ironvault/walletledger/internal/mmodel"
)

var tracer = otel.Tracer("adapters/postgres/balance")

const tableName = "balance_cache"

var columns = []string{"account_id", "asset_type_id", "asset_code", "available", "last_transaction_id", "updated_at"}

// Repository is the Store Adapter's view of the balance_cache relation.
type Repository interface {
	// LockForUpdate acquires row locks on the given (accountID, assetTypeID)
	// pairs with NOWAIT, in ascending account_id order, and returns their
	// current balances keyed by account ID. A pair with no balance_cache
	// row is neither locked nor present in the map. accountIDs must
	// already be sorted by the caller
	// (spec.md §4.3: "accounts are locked in a deterministic order,
	// smallest ID first, to prevent deadlock between concurrent
	// movements touching the same two accounts").
	LockForUpdate(ctx context.Context, accountIDs []string, assetTypeID string) (map[string]*mmodel.Balance, error)
	Upsert(ctx context.Context, b *mmodel.Balance) error
	Get(ctx context.Context, accountID, assetTypeID string) (*mmodel.Balance, error)
	GetAllForAccount(ctx context.Context, accountID string) ([]*mmodel.Balance, error)
}

type postgresRepository struct {
	db dbtx.Executor
}

func NewRepository(db dbtx.Executor) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) LockForUpdate(ctx context.Context, accountIDs []string, assetTypeID string) (map[string]*mmodel.Balance, error) {
	ctx, span := tracer.Start(ctx, "balance.lock_for_update")
	defer span.End()

	query, args, err := squirrel.
		Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"asset_type_id": assetTypeID}).
		Where(squirrel.Expr("account_id = ANY(?)", pq.Array(accountIDs))).
		OrderBy("account_id ASC").
		Suffix("FOR UPDATE NOWAIT").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build lock-for-update query: %w", err)
	}

	exec := dbtx.GetExecutor(ctx, r.db)

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer rows.Close()

	balances := make(map[string]*mmodel.Balance, len(accountIDs))

	for rows.Next() {
		model := &BalancePostgreSQLModel{}
		if err := rows.Scan(&model.AccountID, &model.AssetTypeID, &model.AssetCode, &model.Available, &model.LastTransactionID, &model.UpdatedAt); err != nil {
			span.RecordError(err)
			return nil, err
		}

		entity := model.ToEntity()
		balances[model.AccountID] = entity
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return balances, nil
}

// Upsert writes the post-movement balance for one (account, asset) pair
// (spec.md §4.3 step 6).
func (r *postgresRepository) Upsert(ctx context.Context, b *mmodel.Balance) error {
	ctx, span := tracer.Start(ctx, "balance.upsert")
	defer span.End()

	var lastTxID *string
	if b.LastTransactionID != nil {
		s := b.LastTransactionID.String()
		lastTxID = &s
	}

	query, args, err := squirrel.
		Insert(tableName).
		Columns(columns...).
		Values(b.AccountID.String(), b.AssetTypeID.String(), b.AssetCode, b.Available, lastTxID, b.UpdatedAt).
		Suffix("ON CONFLICT (account_id, asset_type_id) DO UPDATE SET available = EXCLUDED.available, last_transaction_id = EXCLUDED.last_transaction_id, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("build upsert query: %w", err)
	}

	exec := dbtx.GetExecutor(ctx, r.db)
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (r *postgresRepository) Get(ctx context.Context, accountID, assetTypeID string) (*mmodel.Balance, error) {
	ctx, span := tracer.Start(ctx, "balance.get")
	defer span.End()

	query, args, err := squirrel.
		Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"account_id": accountID, "asset_type_id": assetTypeID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build get query: %w", err)
	}

	exec := dbtx.GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, query, args...)

	model := &BalancePostgreSQLModel{}
	if err := row.Scan(&model.AccountID, &model.AssetTypeID, &model.AssetCode, &model.Available, &model.LastTransactionID, &model.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		span.RecordError(err)

		return nil, err
	}

	return model.ToEntity(), nil
}

func (r *postgresRepository) GetAllForAccount(ctx context.Context, accountID string) ([]*mmodel.Balance, error) {
	ctx, span := tracer.Start(ctx, "balance.get_all_for_account")
	defer span.End()

	query, args, err := squirrel.
		Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("asset_code ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build get-all-for-account query: %w", err)
	}

	exec := dbtx.GetExecutor(ctx, r.db)

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer rows.Close()

	var balances []*mmodel.Balance

	for rows.Next() {
		model := &BalancePostgreSQLModel{}
		if err := rows.Scan(&model.AccountID, &model.AssetTypeID, &model.AssetCode, &model.Available, &model.LastTransactionID, &model.UpdatedAt); err != nil {
			span.RecordError(err)
			return nil, err
		}

		balances = append(balances, model.ToEntity())
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return balances, nil
}

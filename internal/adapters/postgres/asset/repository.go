package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"

	"github.com/ironvault/walletledger/internal/dbtx"
	"github.com/ironvault/walletledger/internal/mmodel"
)

var tracer = otel.Tracer("adapters/postgres/asset")

const tableName = "asset_types"

var columns = []string{"id", "code", "name", "decimals", "is_active", "created_at", "updated_at"}

// Repository is the Store Adapter's view of the asset_types relation.
// Movement Orchestrator and the Ledger Writer both resolve asset codes
// through this before any balance math runs (spec.md §4.4).
type Repository interface {
	FindByCode(ctx context.Context, code string) (*mmodel.AssetType, error)
	ListActive(ctx context.Context) ([]*mmodel.AssetType, error)
}

type postgresRepository struct {
	db dbtx.Executor
}

// NewRepository wires a Repository against the given executor — either
// the pool directly or a transaction pulled off ctx by callers further
// up the stack.
func NewRepository(db dbtx.Executor) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) FindByCode(ctx context.Context, code string) (*mmodel.AssetType, error) {
	ctx, span := tracer.Start(ctx, "asset.find_by_code")
	defer span.End()

	exec := dbtx.GetExecutor(ctx, r.db)

	query, args, err := squirrel.
		Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"code": code}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build find-by-code query: %w", err)
	}

	row := exec.QueryRowContext(ctx, query, args...)

	model := &AssetTypePostgreSQLModel{}
	if err := row.Scan(&model.ID, &model.Code, &model.Name, &model.Decimals, &model.IsActive, &model.CreatedAt, &model.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		span.RecordError(err)

		return nil, fmt.Errorf("scan asset type %s: %w", code, err)
	}

	return model.ToEntity(), nil
}

// ListActive backs the Balance Reader's GetAllBalances (spec.md §4.6:
// "returns all active assets with balance zero" for untouched assets).
func (r *postgresRepository) ListActive(ctx context.Context) ([]*mmodel.AssetType, error) {
	ctx, span := tracer.Start(ctx, "asset.list_active")
	defer span.End()

	query, args, err := squirrel.
		Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("code ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build list-active query: %w", err)
	}

	exec := dbtx.GetExecutor(ctx, r.db)

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer rows.Close()

	var assets []*mmodel.AssetType

	for rows.Next() {
		model := &AssetTypePostgreSQLModel{}
		if err := rows.Scan(&model.ID, &model.Code, &model.Name, &model.Decimals, &model.IsActive, &model.CreatedAt, &model.UpdatedAt); err != nil {
			span.RecordError(err)
			return nil, err
		}

		assets = append(assets, model.ToEntity())
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return assets, nil
}

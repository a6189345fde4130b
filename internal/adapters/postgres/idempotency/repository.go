package idempotency

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

var tracer = otel.Tracer("adapters/postgres/idempotency")

const tableName = "idempotency_log"

var columns = []string{"key", "request_hash", "response", "status", "created_at", "expires_at"}

// Repository is the Store Adapter's view of the idempotency_log
// relation. Insert runs inside the same transaction as the movement it
// records (spec.md §4.3 step 8), so a duplicate key races the same
// serializable isolation as everything else in that transaction; a
// concurrent duplicate surfaces as a unique_violation the caller
// classifies via store.Classify.
type Repository interface {
	FindByKey(ctx context.Context, key string) (*mmodel.IdempotencyRecord, error)
	Insert(ctx context.Context, r *mmodel.IdempotencyRecord) error
}

type postgresRepository struct {
	db dbtx.Executor
}

func NewRepository(db dbtx.Executor) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) FindByKey(ctx context.Context, key string) (*mmodel.IdempotencyRecord, error) {
	ctx, span := tracer.Start(ctx, "idempotency.find_by_key")
	defer span.End()

	query, args, err := squirrel.
		Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"key": key}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build find-by-key query: %w", err)
	}

	exec := dbtx.GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, query, args...)

	model := &RecordPostgreSQLModel{}
	if err := row.Scan(&model.Key, &model.RequestHash, &model.Response, &model.Status, &model.CreatedAt, &model.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		span.RecordError(err)

		return nil, err
	}

	return model.ToEntity(), nil
}

func (r *postgresRepository) Insert(ctx context.Context, rec *mmodel.IdempotencyRecord) error {
	ctx, span := tracer.Start(ctx, "idempotency.insert")
	defer span.End()

	model := &RecordPostgreSQLModel{}
	model.FromEntity(rec)

	query, args, err := squirrel.
		Insert(tableName).
		Columns(columns...).
		Values(model.Key, model.RequestHash, model.Response, model.Status, model.CreatedAt, model.ExpiresAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("build insert query: %w", err)
	}

	exec := dbtx.GetExecutor(ctx, r.db)
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

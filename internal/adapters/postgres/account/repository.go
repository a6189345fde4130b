package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ironvault/walletledger/internal/dbtx"
	"github.com/ironvault/walletledger/internal/mmodel"
)

var tracer = otel.Tracer("adapters/postgres/account")

const tableName = "accounts"

var columns = []string{"id", "type", "user_id", "name", "metadata", "is_active", "created_at", "updated_at"}

// Repository is the Store Adapter's view of the accounts relation.
type Repository interface {
	FindByID(ctx context.Context, id string) (*mmodel.Account, error)
	FindByUserAndType(ctx context.Context, userID string, accountType mmodel.AccountType) (*mmodel.Account, error)
	FindSystemAccount(ctx context.Context, accountType mmodel.AccountType) (*mmodel.Account, error)
}

type postgresRepository struct {
	db dbtx.Executor
}

func NewRepository(db dbtx.Executor) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) FindByID(ctx context.Context, id string) (*mmodel.Account, error) {
	ctx, span := tracer.Start(ctx, "account.find_by_id")
	defer span.End()

	query, args, err := squirrel.
		Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build find-by-id query: %w", err)
	}

	return r.scanOne(ctx, span, query, args...)
}

func (r *postgresRepository) FindByUserAndType(ctx context.Context, userID string, accountType mmodel.AccountType) (*mmodel.Account, error) {
	ctx, span := tracer.Start(ctx, "account.find_by_user_and_type")
	defer span.End()

	query, args, err := squirrel.
		Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"user_id": userID, "type": string(accountType)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build find-by-user-and-type query: %w", err)
	}

	return r.scanOne(ctx, span, query, args...)
}

// FindSystemAccount resolves the single active system pool of a given
// type (spec.md §4.4: every operation's non-user counterparty is one of
// these). It returns the first active row of that type (LIMIT 1); the
// schema does not enforce a single active row per type, and which row is
// returned when several exist is not defined.
func (r *postgresRepository) FindSystemAccount(ctx context.Context, accountType mmodel.AccountType) (*mmodel.Account, error) {
	ctx, span := tracer.Start(ctx, "account.find_system_account")
	defer span.End()

	query, args, err := squirrel.
		Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"type": string(accountType), "is_active": true}).
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build find-system-account query: %w", err)
	}

	return r.scanOne(ctx, span, query, args...)
}

func (r *postgresRepository) scanOne(ctx context.Context, span trace.Span, query string, args ...any) (*mmodel.Account, error) {
	exec := dbtx.GetExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, query, args...)

	model := &AccountPostgreSQLModel{}
	if err := row.Scan(&model.ID, &model.Type, &model.UserID, &model.Name, &model.Metadata, &model.IsActive, &model.CreatedAt, &model.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		span.RecordError(err)

		return nil, fmt.Errorf("scan account: %w", err)
	}

	return model.ToEntity()
}

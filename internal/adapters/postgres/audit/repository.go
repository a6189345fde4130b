package audit

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"

	"github.com/ironvault/walletledger/internal/dbtx"
	"github.com/ironvault/walletledger/internal/mmodel"
)

var tracer = otel.Tracer("adapters/postgres/audit")

const tableName = "audit_log"

var columns = []string{"id", "transaction_id", "action", "actor", "payload", "created_at"}

// Repository is the Store Adapter's view of the audit_log relation.
type Repository interface {
	Insert(ctx context.Context, e *mmodel.AuditLogEntry) error
}

type postgresRepository struct {
	db dbtx.Executor
}

func NewRepository(db dbtx.Executor) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Insert(ctx context.Context, e *mmodel.AuditLogEntry) error {
	ctx, span := tracer.Start(ctx, "audit.insert")
	defer span.End()

	model := &LogEntryPostgreSQLModel{}
	model.FromEntity(e)

	query, args, err := squirrel.
		Insert(tableName).
		Columns(columns...).
		Values(model.ID, model.TransactionID, model.Action, model.Actor, model.Payload, model.CreatedAt).
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

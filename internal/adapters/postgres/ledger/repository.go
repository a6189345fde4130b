package ledger

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"

	"github.com/ironvault/walletledger/internal/dbtx"
	"github.com/ironvault/walletledger/internal/mmodel"
)

var tracer = otel.Tracer("adapters/postgres/ledger")

const (
	headerTable = "transactions"
	entryTable  = "ledger_entries"
)

var headerColumns = []string{
	"id", "idempotency_key", "type", "asset_type_id", "amount",
	"description", "metadata", "status", "created_at", "completed_at",
}

var entryColumns = []string{
	"id", "transaction_id", "account_id", "asset_type_id", "entry_type",
	"amount", "running_balance", "description", "created_at",
}

// entryColumnsJoined is entryColumns qualified for ListByAccount's join
// against transactions, plus the header columns spec.md §4.6 expects a
// history listing to carry ("joined with their parent transaction
// headers").
var entryColumnsJoined = []string{
	"e.id", "e.transaction_id", "e.account_id", "e.asset_type_id", "e.entry_type",
	"e.amount", "e.running_balance", "e.description", "e.created_at",
	"t.type", "t.status", "t.idempotency_key",
}

// Repository is the Store Adapter's view of the append-only
// transactions and ledger_entries relations. Every method here is
// called from within the single serializable transaction the Ledger
// Writer opens for one movement (spec.md §4.3); nothing here starts
// its own transaction.
type Repository interface {
	InsertHeader(ctx context.Context, h *mmodel.TransactionHeader) error
	InsertEntries(ctx context.Context, entries []*mmodel.LedgerEntry) error
	// ListByAccount returns one account's ledger entries joined with
	// their parent transaction headers, newest first. assetTypeID is an
	// optional filter (spec.md §6's getHistory takes no mandatory asset
	// filter; SPEC_FULL.md's History Reader exposes it as optional) — an
	// empty string lists every asset.
	ListByAccount(ctx context.Context, accountID string, assetTypeID string, limit, offset int) ([]*mmodel.LedgerEntry, error)
}

type postgresRepository struct {
	db dbtx.Executor
}

func NewRepository(db dbtx.Executor) Repository {
	return &postgresRepository{db: db}
}

// InsertHeader writes the immutable master record for one movement
// (spec.md §4.3 step 4).
func (r *postgresRepository) InsertHeader(ctx context.Context, h *mmodel.TransactionHeader) error {
	ctx, span := tracer.Start(ctx, "ledger.insert_header")
	defer span.End()

	model := &TransactionHeaderPostgreSQLModel{}
	if err := model.FromEntity(h); err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshal transaction header: %w", err)
	}

	query, args, err := squirrel.
		Insert(headerTable).
		Columns(headerColumns...).
		Values(
			model.ID, model.IdempotencyKey, model.Type, model.AssetTypeID, model.Amount,
			model.Description, model.Metadata, model.Status, model.CreatedAt, model.CompletedAt,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("build insert-header query: %w", err)
	}

	exec := dbtx.GetExecutor(ctx, r.db)
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

// InsertEntries writes both sides of a movement — exactly one debit
// and one credit, per spec.md §2's double-entry invariant. Callers are
// responsible for that invariant; this method only persists whatever
// slice it is given.
func (r *postgresRepository) InsertEntries(ctx context.Context, entries []*mmodel.LedgerEntry) error {
	ctx, span := tracer.Start(ctx, "ledger.insert_entries")
	defer span.End()

	exec := dbtx.GetExecutor(ctx, r.db)

	builder := squirrel.Insert(entryTable).Columns(entryColumns...)

	for _, e := range entries {
		model := &LedgerEntryPostgreSQLModel{}
		model.FromEntity(e)

		builder = builder.Values(
			model.ID, model.TransactionID, model.AccountID, model.AssetTypeID, model.EntryType,
			model.Amount, model.RunningBalance, model.Description, model.CreatedAt,
		)
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("build insert-entries query: %w", err)
	}

	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

// ListByAccount backs the History Reader (spec.md §4.6): entries for
// one account, optionally narrowed to one asset, newest first, joined
// with their parent transaction header and bounded by limit/offset.
func (r *postgresRepository) ListByAccount(ctx context.Context, accountID string, assetTypeID string, limit, offset int) ([]*mmodel.LedgerEntry, error) {
	ctx, span := tracer.Start(ctx, "ledger.list_by_account")
	defer span.End()

	where := squirrel.Eq{"e.account_id": accountID}
	if assetTypeID != "" {
		where["e.asset_type_id"] = assetTypeID
	}

	query, args, err := squirrel.
		Select(entryColumnsJoined...).
		From(entryTable + " e").
		Join(headerTable + " t ON t.id = e.transaction_id").
		Where(where).
		OrderBy("e.created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build list-by-account query: %w", err)
	}

	exec := dbtx.GetExecutor(ctx, r.db)

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer rows.Close()

	var entries []*mmodel.LedgerEntry

	for rows.Next() {
		model := &LedgerEntryPostgreSQLModel{}
		if err := rows.Scan(
			&model.ID, &model.TransactionID, &model.AccountID, &model.AssetTypeID, &model.EntryType,
			&model.Amount, &model.RunningBalance, &model.Description, &model.CreatedAt,
			&model.TransactionType, &model.TransactionStatus, &model.TransactionIdempotencyKey,
		); err != nil {
			span.RecordError(err)
			return nil, err
		}

		entries = append(entries, model.ToEntity())
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return entries, nil
}

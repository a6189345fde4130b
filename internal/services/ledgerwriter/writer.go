// Package ledgerwriter is the Ledger Writer of spec.md §4.3: the single
// place in the engine that appends a double-entry movement. Every step
// below runs inside one serializable transaction opened by the Store
// Adapter; nothing here is visible to a reader until that transaction
// commits. Grounded on the teacher repo's components/ledger operation
// creation flow (lock, validate, insert, update balance), generalized
// from its single-currency-per-call shape to the explicit debit/credit
// pair spec.md §4.3 names.
package ledgerwriter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/ironvault/walletledger/internal/adapters/postgres/audit"
	"github.com/ironvault/walletledger/internal/adapters/postgres/balance"
	"github.com/ironvault/walletledger/internal/adapters/postgres/idempotency"
	"github.com/ironvault/walletledger/internal/adapters/postgres/ledger"
	"github.com/ironvault/walletledger/internal/apperrors"
	"github.com/ironvault/walletledger/internal/constant"
	"github.com/ironvault/walletledger/internal/mmodel"
	"github.com/ironvault/walletledger/internal/money"
	"github.com/ironvault/walletledger/internal/store"
)

var tracer = otel.Tracer("services/ledgerwriter")

// Movement is everything the Ledger Writer needs to append one
// double-entry transaction (spec.md §3, §4.3). The Movement
// Orchestrator is responsible for resolving account/asset identities
// and choosing debit/credit sides before calling Append; the Ledger
// Writer itself never looks anything up by name.
type Movement struct {
	TransactionID   uuid.UUID
	IdempotencyKey  string
	Type            mmodel.TransactionType
	AssetTypeID     uuid.UUID
	AssetCode       string
	AssetDecimals   int32
	Amount          decimal.Decimal
	DebitAccountID  uuid.UUID
	CreditAccountID uuid.UUID
	Description     string
	Metadata        map[string]any
	Actor           *string
	RequestPayload  []byte // canonical JSON of the originating request, for the audit row
	IdempotencyTTL  time.Duration
	// ResponseBuilder builds the payload persisted as this movement's
	// idempotency response, given the just-written header and entries.
	// The Movement Orchestrator uses it to store its own complete
	// Response shape rather than the bare header, so a replayed lookup
	// returns exactly what the first call returned (spec.md §8 scenario
	// 1). A nil ResponseBuilder falls back to marshaling the header.
	ResponseBuilder func(header *mmodel.TransactionHeader, entries []*mmodel.LedgerEntry) ([]byte, error)
}

// Result is what Append returns on success.
type Result struct {
	Header  *mmodel.TransactionHeader
	Entries []*mmodel.LedgerEntry
}

// Writer implements spec.md §4.3's append(movement) primitive.
type Writer struct {
	store       *store.Store
	balances    balance.Repository
	ledger      ledger.Repository
	idempotency idempotency.Repository
	audit       audit.Repository
}

// New wires a Writer. Repositories are constructed against s.Primary()
// by the caller and passed in already bound to dbtx.Executor — Append
// relies on dbtx.GetExecutor inside each repository method to discover
// the transaction it opens via s.RunInTransaction.
func New(s *store.Store, balances balance.Repository, ledgerRepo ledger.Repository, idempotencyRepo idempotency.Repository, auditRepo audit.Repository) *Writer {
	return &Writer{store: s, balances: balances, ledger: ledgerRepo, idempotency: idempotencyRepo, audit: auditRepo}
}

// Append runs the eight ordered steps of spec.md §4.3 inside a single
// serializable transaction: lock both accounts in a deterministic
// order, read balances, check the precondition, write the header and
// both entries, upsert the balance cache, and record the audit and
// idempotency rows. Any failure at any step rolls the whole thing back;
// nothing it did is visible to any other transaction.
func (w *Writer) Append(ctx context.Context, m Movement) (*Result, error) {
	ctx, span := tracer.Start(ctx, "ledgerwriter.append")
	defer span.End()

	var result *Result

	err := w.store.RunInTransaction(ctx, func(ctx context.Context) error {
		r, err := w.appendLocked(ctx, m)
		if err != nil {
			return err
		}

		result = r

		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return result, nil
}

func (w *Writer) appendLocked(ctx context.Context, m Movement) (*Result, error) {
	// Step 1: lock both accounts, smallest ID first, to avoid deadlock
	// between concurrent movements touching the same two accounts
	// (spec.md §4.3).
	ids := []string{m.DebitAccountID.String(), m.CreditAccountID.String()}
	sort.Strings(ids)

	balances, err := w.balances.LockForUpdate(ctx, ids, m.AssetTypeID.String())
	if err != nil {
		return nil, err
	}

	// Step 2: read current balances (zero-value default for an account
	// that has never held this asset before).
	debitBalance := balanceFor(balances, m.DebitAccountID, m.AssetTypeID, m.AssetCode)
	creditBalance := balanceFor(balances, m.CreditAccountID, m.AssetTypeID, m.AssetCode)

	// Step 3: precondition — the debited account must carry enough to
	// cover this movement (spec.md §2, §7: InsufficientFundsError).
	if !money.Sufficient(debitBalance.Available, m.Amount) {
		return nil, apperrors.InsufficientFundsError{
			AccountID: m.DebitAccountID.String(),
			AssetCode: m.AssetCode,
		}
	}

	now := time.Now().UTC()

	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	header := &mmodel.TransactionHeader{
		ID:             m.TransactionID,
		IdempotencyKey: m.IdempotencyKey,
		Type:           m.Type,
		AssetTypeID:    m.AssetTypeID,
		Amount:         m.Amount,
		Description:    m.Description,
		Metadata:       metadata,
		Status:         mmodel.TransactionStatusCompleted,
		CreatedAt:      now,
		CompletedAt:    &now,
	}

	// Step 4: insert the immutable header.
	if err := w.ledger.InsertHeader(ctx, header); err != nil {
		return nil, err
	}

	newDebitAvailable := money.Debit(debitBalance.Available, m.Amount)
	newCreditAvailable := money.Credit(creditBalance.Available, m.Amount)

	debitEntry := &mmodel.LedgerEntry{
		ID:             uuid.New(),
		TransactionID:  header.ID,
		AccountID:      m.DebitAccountID,
		AssetTypeID:    m.AssetTypeID,
		EntryType:      mmodel.EntryTypeDebit,
		Amount:         m.Amount,
		RunningBalance: newDebitAvailable,
		Description:    m.Description,
		CreatedAt:      now,
	}

	creditEntry := &mmodel.LedgerEntry{
		ID:             uuid.New(),
		TransactionID:  header.ID,
		AccountID:      m.CreditAccountID,
		AssetTypeID:    m.AssetTypeID,
		EntryType:      mmodel.EntryTypeCredit,
		Amount:         m.Amount,
		RunningBalance: newCreditAvailable,
		Description:    m.Description,
		CreatedAt:      now,
	}

	// Step 5: insert both sides of the movement.
	if err := w.ledger.InsertEntries(ctx, []*mmodel.LedgerEntry{debitEntry, creditEntry}); err != nil {
		return nil, err
	}

	// Step 6: upsert the materialized balance cache for both accounts.
	if err := w.balances.Upsert(ctx, &mmodel.Balance{
		AccountID:         m.DebitAccountID,
		AssetTypeID:       m.AssetTypeID,
		AssetCode:         m.AssetCode,
		Available:         newDebitAvailable,
		LastTransactionID: &header.ID,
		UpdatedAt:         now,
	}); err != nil {
		return nil, err
	}

	if err := w.balances.Upsert(ctx, &mmodel.Balance{
		AccountID:         m.CreditAccountID,
		AssetTypeID:       m.AssetTypeID,
		AssetCode:         m.AssetCode,
		Available:         newCreditAvailable,
		LastTransactionID: &header.ID,
		UpdatedAt:         now,
	}); err != nil {
		return nil, err
	}

	// Step 7: audit log.
	if err := w.audit.Insert(ctx, &mmodel.AuditLogEntry{
		ID:            uuid.New(),
		TransactionID: header.ID,
		Action:        m.Type,
		Actor:         m.Actor,
		Payload:       m.RequestPayload,
		CreatedAt:     now,
	}); err != nil {
		return nil, err
	}

	// Step 8: idempotency record, so a retried request with this key
	// resolves to this outcome instead of re-running the movement
	// (spec.md §4.2).
	entries := []*mmodel.LedgerEntry{debitEntry, creditEntry}

	buildResponse := m.ResponseBuilder
	if buildResponse == nil {
		buildResponse = func(h *mmodel.TransactionHeader, _ []*mmodel.LedgerEntry) ([]byte, error) {
			return json.Marshal(h)
		}
	}

	response, err := buildResponse(header, entries)
	if err != nil {
		return nil, fmt.Errorf("marshal idempotency response: %w", err)
	}

	ttl := m.IdempotencyTTL
	if ttl <= 0 {
		ttl = constant.IdempotencyRetentionWindow
	}

	if err := w.idempotency.Insert(ctx, &mmodel.IdempotencyRecord{
		Key:         m.IdempotencyKey,
		RequestHash: requestHash(m.RequestPayload),
		Response:    response,
		Status:      mmodel.IdempotencyStatusCompleted,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}); err != nil {
		return nil, err
	}

	return &Result{Header: header, Entries: entries}, nil
}

func balanceFor(balances map[string]*mmodel.Balance, accountID, assetTypeID uuid.UUID, assetCode string) *mmodel.Balance {
	if b, ok := balances[accountID.String()]; ok {
		return b
	}

	return &mmodel.Balance{
		AccountID:   accountID,
		AssetTypeID: assetTypeID,
		AssetCode:   assetCode,
		Available:   money.Zero,
	}
}

func requestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

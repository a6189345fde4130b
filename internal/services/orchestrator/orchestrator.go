// Package orchestrator is the Movement Orchestrator of spec.md §4.4: a
// thin shell around the Ledger Writer that resolves identities,
// enforces per-operation preconditions, and assembles one movement per
// business operation (top-up, bonus, purchase). Grounded on the
// teacher repo's components/ledger transaction-creation use case shape
// (validate → resolve → delegate → respond), generalized to the three
// fixed operations spec.md §4.4's table names.
package orchestrator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	accountrepo "github.com/ironvault/walletledger/internal/adapters/postgres/account"
	assetrepo "github.com/ironvault/walletledger/internal/adapters/postgres/asset"
	"github.com/ironvault/walletledger/internal/adapters/postgres/idempotency"
	redisaccel "github.com/ironvault/walletledger/internal/adapters/redis"
	"github.com/ironvault/walletledger/internal/apperrors"
	"github.com/ironvault/walletledger/internal/constant"
	"github.com/ironvault/walletledger/internal/mlog"
	"github.com/ironvault/walletledger/internal/mmodel"
	"github.com/ironvault/walletledger/internal/money"
	"github.com/ironvault/walletledger/internal/services/ledgerwriter"
	"github.com/ironvault/walletledger/internal/store"
	"github.com/ironvault/walletledger/internal/validation"
)

var tracer = otel.Tracer("services/orchestrator")

// idempotencyClaimTTL bounds how long the Redis accelerator holds a
// claim before it expires on its own — long enough to cover one
// movement's write, short enough that a crashed holder doesn't wedge
// the key permanently (SPEC_FULL.md §B.2).
const idempotencyClaimTTL = 30 * time.Second

// Request is the common shape of all three movement requests (spec.md
// §4.4's "op, userId, assetCode, amount, idempotencyKey, metadata").
type Request struct {
	UserID         string          `validate:"required"`
	AssetCode      string          `validate:"required"`
	Amount         decimal.Decimal `validate:"required,gt=0"`
	IdempotencyKey string          `validate:"required"`
	Description    string
	Metadata       map[string]any
	Actor          *string
}

// Response is spec.md §4.4 step 5's response shape.
type Response struct {
	TransactionID uuid.UUID       `json:"transactionId"`
	UserID        string          `json:"userId"`
	AssetCode     string          `json:"assetCode"`
	Amount        decimal.Decimal `json:"amount"`
	NewBalance    decimal.Decimal `json:"newBalance"`
	Extras        map[string]any  `json:"extras,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// operation describes one row of spec.md §4.4's table: which system
// account plays source vs. destination, and which side is checked
// against the precondition.
type operation struct {
	name              mmodel.TransactionType
	systemAccountType mmodel.AccountType
	// userIsSource is true for Purchase (user debited), false for
	// Top-up and Bonus (user credited).
	userIsSource bool
}

var (
	topUp = operation{
		name:              mmodel.TransactionTypeTopUp,
		systemAccountType: mmodel.AccountTypeSystemTreasury,
		userIsSource:      false,
	}
	bonus = operation{
		name:              mmodel.TransactionTypeBonus,
		systemAccountType: mmodel.AccountTypeSystemBonus,
		userIsSource:      false,
	}
	purchase = operation{
		name:              mmodel.TransactionTypePurchase,
		systemAccountType: mmodel.AccountTypeSystemRevenue,
		userIsSource:      true,
	}
)

// Orchestrator wires the repositories and the Ledger Writer together.
type Orchestrator struct {
	assets         assetrepo.Repository
	accounts       accountrepo.Repository
	idempotency    idempotency.Repository
	cache          redisaccel.Cache
	writer         *ledgerwriter.Writer
	validator      *validation.Validator
	idempotencyTTL time.Duration
}

// New wires an Orchestrator. cache may be nil — the fast path then
// always falls through to Postgres, which remains correct (spec.md
// §B.2: "a Redis outage degrades to always fall through to Postgres").
func New(
	assets assetrepo.Repository,
	accounts accountrepo.Repository,
	idempotencyRepo idempotency.Repository,
	cache redisaccel.Cache,
	writer *ledgerwriter.Writer,
	validator *validation.Validator,
	idempotencyTTL time.Duration,
) *Orchestrator {
	return &Orchestrator{
		assets:         assets,
		accounts:       accounts,
		idempotency:    idempotencyRepo,
		cache:          cache,
		writer:         writer,
		validator:      validator,
		idempotencyTTL: idempotencyTTL,
	}
}

// TopUp credits a user's USER account from SYSTEM_TREASURY.
func (o *Orchestrator) TopUp(ctx context.Context, req Request) (*Response, error) {
	return o.execute(ctx, topUp, req)
}

// Bonus credits a user's USER account from SYSTEM_BONUS.
func (o *Orchestrator) Bonus(ctx context.Context, req Request) (*Response, error) {
	return o.execute(ctx, bonus, req)
}

// Purchase debits a user's USER account to SYSTEM_REVENUE.
func (o *Orchestrator) Purchase(ctx context.Context, req Request) (*Response, error) {
	return o.execute(ctx, purchase, req)
}

func (o *Orchestrator) execute(ctx context.Context, op operation, req Request) (resp *Response, err error) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("orchestrator.%s", op.name))
	defer span.End()

	logger := mlog.FromContext(ctx)

	// Step 1: validate inputs.
	if verr := o.validator.Struct(req); verr != nil {
		return nil, apperrors.ValidationError{
			EntityType: "movement_request",
			Code:       constant.ErrMissingFieldsInRequest.Error(),
			Message:    verr.Error(),
			Err:        verr,
		}
	}

	canonicalRequest, err := canonicalPayload(req)
	if err != nil {
		return nil, fmt.Errorf("marshal canonical request: %w", err)
	}

	// Step 2: fast-path idempotency lookup — no transaction opened if a
	// prior completed result exists (spec.md §4.4 step 2, §4.2).
	if cached, err := o.lookupIdempotent(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if cached != nil {
		logger.Infof("orchestrator: idempotency fast path hit for key %s", req.IdempotencyKey)
		return cached, nil
	}

	// Step 2b: claim the key in the Redis accelerator before opening a
	// transaction. A claim failure means another in-flight request
	// already holds this key; consult the authoritative Postgres lookup
	// first and return its result if one is recorded. When Postgres has
	// no completed record yet, the write proceeds and the unique
	// idempotency key settles the race (spec.md §8 scenario 5,
	// SPEC_FULL.md §B.2). Claiming successfully makes this call
	// responsible for releasing the key if it fails later on.
	claimed, alreadyHeld := o.claimIdempotencyKey(ctx, req.IdempotencyKey)
	if alreadyHeld {
		cached, lookupErr := o.postgresIdempotentLookup(ctx, req.IdempotencyKey)
		if lookupErr != nil {
			return nil, lookupErr
		}

		if cached != nil {
			return cached, nil
		}
	}

	if claimed {
		defer func() {
			if err != nil {
				o.releaseIdempotencyKey(ctx, req.IdempotencyKey)
			}
		}()
	}

	// Step 3: resolve asset, user account, system counterparty.
	asset, err := o.assets.FindByCode(ctx, req.AssetCode)
	if err != nil {
		return nil, translateLookupError(err, "asset", constant.ErrUnknownAssetCode)
	}

	if !asset.IsActive {
		return nil, apperrors.ValidateBusinessError(constant.ErrInactiveAsset, "asset")
	}

	userAccount, err := o.accounts.FindByUserAndType(ctx, req.UserID, mmodel.AccountTypeUser)
	if err != nil {
		return nil, translateLookupError(err, "account", constant.ErrAccountNotFound)
	}

	if !userAccount.IsActive {
		return nil, apperrors.ValidateBusinessError(constant.ErrInactiveAccount, "account")
	}

	systemAccount, err := o.accounts.FindSystemAccount(ctx, op.systemAccountType)
	if err != nil {
		return nil, translateLookupError(err, "system_account", constant.ErrSystemAccountNotFound)
	}

	if err := money.ValidatePositive(req.Amount, asset.Decimals); err != nil {
		return nil, apperrors.ValidateBusinessError(constant.ErrInvalidAmount, "amount")
	}

	var sourceAccountID, destinationAccountID uuid.UUID
	if op.userIsSource {
		sourceAccountID, destinationAccountID = userAccount.ID, systemAccount.ID
	} else {
		sourceAccountID, destinationAccountID = systemAccount.ID, userAccount.ID
	}

	// Step 4: assemble and append the movement. ResponseBuilder lets the
	// Ledger Writer persist the complete orchestrator Response as the
	// idempotency record's payload, in the same transaction as the
	// write, so a replayed lookup returns the real answer instead of a
	// bare transaction header (spec.md §8 scenario 1).
	result, err := o.writer.Append(ctx, ledgerwriter.Movement{
		TransactionID:   uuid.New(),
		IdempotencyKey:  req.IdempotencyKey,
		Type:            op.name,
		AssetTypeID:     asset.ID,
		AssetCode:       asset.Code,
		AssetDecimals:   asset.Decimals,
		Amount:          req.Amount,
		DebitAccountID:  sourceAccountID,
		CreditAccountID: destinationAccountID,
		Description:     req.Description,
		Metadata:        req.Metadata,
		Actor:           req.Actor,
		RequestPayload:  canonicalRequest,
		IdempotencyTTL:  o.idempotencyTTL,
		ResponseBuilder: func(header *mmodel.TransactionHeader, entries []*mmodel.LedgerEntry) ([]byte, error) {
			return json.Marshal(Response{
				TransactionID: header.ID,
				UserID:        req.UserID,
				AssetCode:     asset.Code,
				Amount:        req.Amount,
				NewBalance:    userSideBalance(entries, userAccount.ID),
				Extras:        operationExtras(op, req),
				CreatedAt:     header.CreatedAt,
			})
		},
	})
	if err != nil {
		if isUniqueViolationOnIdempotencyKey(err) {
			// Another worker won the insert race; re-read and return its
			// result instead of surfacing a conflict (spec.md §4.2).
			if cached, lookupErr := o.lookupIdempotent(ctx, req.IdempotencyKey); lookupErr == nil && cached != nil {
				return cached, nil
			}
		}

		return nil, err
	}

	// Step 5: assemble the response.
	resp = &Response{
		TransactionID: result.Header.ID,
		UserID:        req.UserID,
		AssetCode:     asset.Code,
		Amount:        req.Amount,
		NewBalance:    userSideBalance(result.Entries, userAccount.ID),
		Extras:        operationExtras(op, req),
		CreatedAt:     result.Header.CreatedAt,
	}

	logger.WithFields(
		"transactionId", resp.TransactionID.String(),
		"idempotencyKey", req.IdempotencyKey,
		"userId", req.UserID,
		"assetCode", req.AssetCode,
		"amount", req.Amount.String(),
	).Info("orchestrator: movement completed")

	return resp, nil
}

func userSideBalance(entries []*mmodel.LedgerEntry, userAccountID uuid.UUID) decimal.Decimal {
	for _, entry := range entries {
		if entry.AccountID == userAccountID {
			return entry.RunningBalance
		}
	}

	return money.Zero
}

func operationExtras(op operation, req Request) map[string]any {
	switch op.name {
	case mmodel.TransactionTypePurchase:
		extras := map[string]any{}

		if item, ok := req.Metadata["item"]; ok {
			extras["item"] = item
		}

		return extras
	case mmodel.TransactionTypeBonus:
		extras := map[string]any{}

		if reason, ok := req.Metadata["reason"]; ok {
			extras["reason"] = reason
		}

		return extras
	default:
		return nil
	}
}

// lookupIdempotent checks the Redis accelerator, falling through to the
// authoritative Postgres table on a miss (spec.md §4.2).
func (o *Orchestrator) lookupIdempotent(ctx context.Context, key string) (*Response, error) {
	if o.cache != nil {
		if cached, err := o.cache.Get(ctx, key); err == nil {
			var resp Response
			if unmarshalErr := json.Unmarshal([]byte(cached), &resp); unmarshalErr == nil {
				return &resp, nil
			}
		}
	}

	return o.postgresIdempotentLookup(ctx, key)
}

// postgresIdempotentLookup reads the authoritative idempotency_log
// table directly, bypassing the Redis accelerator. The stored payload
// is the complete Response the Ledger Writer persisted for the call
// that first completed this key, so a replay returns exactly what that
// call returned (spec.md §8 scenario 1).
func (o *Orchestrator) postgresIdempotentLookup(ctx context.Context, key string) (*Response, error) {
	record, err := o.idempotency.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	if !record.Usable(time.Now().UTC()) {
		return nil, nil
	}

	var resp Response
	if err := json.Unmarshal(record.Response, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal cached response: %w", err)
	}

	return &resp, nil
}

// claimIdempotencyKey attempts to claim key in the Redis accelerator
// before any database work happens. claimed reports whether this call
// now owns the claim and must release it on failure; alreadyHeld
// reports whether another in-flight call already holds it, in which
// case the caller consults Postgres directly before the write and goes
// on to the write only when no completed record is found
// (SPEC_FULL.md §B.2). Both are false when no
// cache is configured or the cache itself is unreachable — callers then
// proceed straight to the write path, Redis being strictly an
// accelerator and never a correctness dependency.
func (o *Orchestrator) claimIdempotencyKey(ctx context.Context, key string) (claimed, alreadyHeld bool) {
	if o.cache == nil {
		return false, false
	}

	err := o.cache.TrySet(ctx, key, "claimed", idempotencyClaimTTL)
	switch {
	case err == nil:
		return true, false
	case errors.Is(err, redisaccel.ErrKeyAlreadySet):
		return false, true
	default:
		mlog.FromContext(ctx).Warnf("orchestrator: idempotency claim unavailable, falling through to postgres: %v", err)
		return false, false
	}
}

func (o *Orchestrator) releaseIdempotencyKey(ctx context.Context, key string) {
	if o.cache == nil {
		return
	}

	if err := o.cache.Delete(ctx, key); err != nil {
		mlog.FromContext(ctx).Warnf("orchestrator: failed releasing idempotency claim for key %s: %v", key, err)
	}
}

func translateLookupError(err error, entityType string, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ValidateBusinessError(sentinel, entityType)
	}

	return err
}

// isUniqueViolationOnIdempotencyKey reports whether err is classified
// as a unique violation. It does not inspect which constraint fired;
// within a movement the unique constraints that can fire are the
// transactions idempotency_key index and the idempotency_log key, both
// meaning another worker completed this movement (spec.md §4.3 step 4,
// §4.2).
func isUniqueViolationOnIdempotencyKey(err error) bool {
	return store.Classify(err) == store.UniqueViolation
}

func canonicalPayload(req Request) ([]byte, error) {
	return json.Marshal(struct {
		UserID    string `json:"userId"`
		AssetCode string `json:"assetCode"`
		Amount    string `json:"amount"`
	}{
		UserID:    req.UserID,
		AssetCode: req.AssetCode,
		Amount:    req.Amount.String(),
	})
}

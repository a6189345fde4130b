package apperrors

import (
	"testing"

	"github.com/ironvault/walletledger/internal/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBusinessError_MapsKnownSentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want any
	}{
		{"missing fields", constant.ErrMissingFieldsInRequest, ValidationError{}},
		{"invalid amount", constant.ErrInvalidAmount, ValidationError{}},
		{"unknown asset", constant.ErrUnknownAssetCode, ValidationError{}},
		{"inactive asset", constant.ErrInactiveAsset, EntityNotFoundError{}},
		{"account not found", constant.ErrAccountNotFound, EntityNotFoundError{}},
		{"system account not found", constant.ErrSystemAccountNotFound, EntityNotFoundError{}},
		{"idempotency conflict", constant.ErrIdempotencyKeyConflict, EntityConflictError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ValidateBusinessError(tt.err, "Movement", tt.err)
			require.Error(t, got)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestValidateBusinessError_UnknownErrorPassesThrough(t *testing.T) {
	t.Parallel()

	original := assert.AnError
	got := ValidateBusinessError(original, "Movement")

	assert.Same(t, original, got)
}

func TestTransientError_IsRetryable(t *testing.T) {
	t.Parallel()

	err := TransientError{Kind: "SerializationFailure", Err: assert.AnError}
	assert.True(t, err.Retryable())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestInsufficientFundsError_Message(t *testing.T) {
	t.Parallel()

	err := InsufficientFundsError{AccountID: "acct-1", AssetCode: "GOLD_COIN"}
	assert.Contains(t, err.Error(), "acct-1")
	assert.Contains(t, err.Error(), "GOLD_COIN")
}

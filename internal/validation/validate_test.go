package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	UserID    string          `validate:"required"`
	AssetCode string          `validate:"required"`
	Amount    decimal.Decimal `validate:"required,gt=0"`
}

func TestStruct_Valid(t *testing.T) {
	t.Parallel()

	v, err := New()
	require.NoError(t, err)

	err = v.Struct(sampleRequest{UserID: "user-1", AssetCode: "GOLD", Amount: decimal.NewFromInt(10)})
	assert.NoError(t, err)
}

func TestStruct_MissingFields(t *testing.T) {
	t.Parallel()

	v, err := New()
	require.NoError(t, err)

	err = v.Struct(sampleRequest{Amount: decimal.NewFromInt(10)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UserID")
}

func TestStruct_NonPositiveAmount(t *testing.T) {
	t.Parallel()

	v, err := New()
	require.NoError(t, err)

	err = v.Struct(sampleRequest{UserID: "user-1", AssetCode: "GOLD", Amount: decimal.Zero})
	require.Error(t, err)
}

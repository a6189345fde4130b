package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// TestMockCache_TrySet_AlreadySet exercises the generated-style mock
// directly to pin down the contract consumers (the Idempotency
// Registry) are tested against: a claimed key surfaces ErrKeyAlreadySet.
func TestMockCache_TrySet_AlreadySet(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cache := NewMockCache(ctrl)

	cache.EXPECT().
		TrySet(gomock.Any(), "key-1", "in-flight", 30*time.Second).
		Return(ErrKeyAlreadySet)

	err := cache.TrySet(context.Background(), "key-1", "in-flight", 30*time.Second)
	assert.ErrorIs(t, err, ErrKeyAlreadySet)
}

func TestMockCache_Get_RoundTrip(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cache := NewMockCache(ctrl)

	cache.EXPECT().Get(gomock.Any(), "key-1").Return(`{"status":"completed"}`, nil)

	value, err := cache.Get(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"completed"}`, value)
}

func TestNamespacedKey(t *testing.T) {
	t.Parallel()

	c := &redisCache{prefix: "walletledger"}
	assert.Equal(t, "walletledger:idempotency:key-1", c.namespacedKey("key-1"))
}

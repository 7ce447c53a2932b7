package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore()

	_, found, err := store.Get(ctx, "primefit_customers")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "primefit_customers", "[]"))
	value, found, err := store.Get(ctx, "primefit_customers")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", value)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Set(ctx, "primefit_customers", "[{}]"))
	assert.Equal(t, 1, store.Len())
}

package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "roster.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewKVStore(db)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrate must be idempotent")

	_, found, err := store.Get(ctx, "primefit_customers")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "primefit_customers", `[{"id":"ADMIN001"}]`))
	require.NoError(t, store.Set(ctx, "primefit_customers", `[]`))

	value, found, err := store.Get(ctx, "primefit_customers")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", value)
}

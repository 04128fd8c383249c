package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pos-ledger/ledger"
	"github.com/warp/pos-ledger/store/postgres"
)

// Set LEDGER_TEST_POSTGRES_URL to a disposable database to run these tests.
func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	url := os.Getenv("LEDGER_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_POSTGRES_URL not set")
	}

	store, err := postgres.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_GetSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := "test-" + uuid.NewString()

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, key, "[]"))
	require.NoError(t, store.Set(ctx, key, `[{"id":"x"}]`))

	v, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"x"}]`, v)
}

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a, b := "test-"+uuid.NewString(), "test-"+uuid.NewString()
	require.NoError(t, store.Set(ctx, a, "before"))
	boom := errors.New("boom")

	err := store.WithTx(ctx, []string{a, b}, func(blob ledger.Blob) error {
		require.NoError(t, blob.Set(ctx, a, "after"))
		require.NoError(t, blob.Set(ctx, b, "new"))
		v, _, err := blob.Get(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, "after", v)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	v, _, _ := store.Get(ctx, a)
	assert.Equal(t, "before", v)
	_, ok, _ := store.Get(ctx, b)
	assert.False(t, ok)
}

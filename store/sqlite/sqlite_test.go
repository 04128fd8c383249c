package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/pos-ledger/ledger"
	"github.com/warp/pos-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

const plansJSON = `[{
	"id": "INST-001", "customer": {"name": "Ana Torres"},
	"total": 1000, "downPayment": 200, "status": "active",
	"payments": [
		{"paymentNumber": 1, "dueDate": "2025-01-15", "amount": 200, "status": "paid"},
		{"paymentNumber": 2, "dueDate": "2025-02-15", "amount": 400, "status": "pending"},
		{"paymentNumber": 3, "dueDate": "2025-03-15", "amount": 400, "status": "pending"}
	]
}]`

// =============================================================================
// BLOB STORE
// =============================================================================

func TestStore_GetSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, ledger.KeyPlans)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, ledger.KeyPlans, "[]"))
	require.NoError(t, store.Set(ctx, ledger.KeyPlans, `[{"id":"x"}]`))

	v, ok, err := store.Get(ctx, ledger.KeyPlans)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"x"}]`, v)
}

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A stored blob
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "a", "before"))
	boom := errors.New("boom")

	// WHEN: A transaction writes two keys and fails
	err := store.WithTx(ctx, []string{"a", "b"}, func(b ledger.Blob) error {
		require.NoError(t, b.Set(ctx, "a", "after"))
		require.NoError(t, b.Set(ctx, "b", "new"))

		v, _, err := b.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "after", v, "reads inside the transaction see its writes")
		return boom
	})

	// THEN: Neither write survives
	assert.ErrorIs(t, err, boom)
	v, _, _ := store.Get(ctx, "a")
	assert.Equal(t, "before", v)
	_, ok, _ := store.Get(ctx, "b")
	assert.False(t, ok)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, ledger.KeySales, `[{"id":"s1"}]`))
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	v, ok, err := reopened.Get(ctx, ledger.KeySales)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"s1"}]`, v)
}

// =============================================================================
// LEDGER OVER SQLITE
// =============================================================================

func TestStore_RecordPaymentEndToEnd(t *testing.T) {
	// GIVEN: Legacy plan records in SQLite
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, ledger.KeyPlans, plansJSON))

	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	svc := ledger.NewService(ledger.NewBlobRepository(store), zap.NewNop(),
		ledger.WithClock(func() time.Time { return now }))

	// WHEN: Both installments are paid
	for _, n := range []int{2, 3} {
		_, err := svc.RecordPayment(ctx, ledger.PaymentCommand{
			PlanID:        "INST-001",
			PaymentNumber: n,
			Amount:        ledger.MustParseMoney("400"),
			Method:        ledger.MethodTransfer,
		})
		require.NoError(t, err)
	}

	// THEN: The plan is completed and the log has both records
	plan, err := svc.Plan(ctx, "INST-001")
	require.NoError(t, err)
	assert.Equal(t, ledger.PlanCompleted, plan.Status)
	assert.Equal(t, "0.00", plan.RemainingBalance.String())
	assert.Equal(t, "2025-03-01", plan.Payments[2].PaidDate)

	txs, err := svc.Transactions(ctx, "")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "400.00", txs[0].RemainingBalanceAfter.String())
	assert.Equal(t, "0.00", txs[1].RemainingBalanceAfter.String())
}

func TestStore_FailedPaymentWritesNothing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, ledger.KeyPlans, plansJSON))
	svc := ledger.NewService(ledger.NewBlobRepository(store), zap.NewNop())

	_, err := svc.RecordPayment(ctx, ledger.PaymentCommand{
		PlanID:        "INST-001",
		PaymentNumber: 9,
		Amount:        ledger.MustParseMoney("400"),
		Method:        ledger.MethodCash,
	})
	assert.ErrorIs(t, err, ledger.ErrUnknownTarget)

	v, _, err := store.Get(ctx, ledger.KeyPlans)
	require.NoError(t, err)
	assert.Equal(t, plansJSON, v)
}

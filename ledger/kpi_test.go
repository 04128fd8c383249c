package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pos-ledger/ledger"
)

func TestComputeKpis_Empty(t *testing.T) {
	k := ledger.ComputeKpis(nil, testNow)

	assert.Equal(t, 0, k.ActiveCount)
	assert.Equal(t, 0, k.OverdueCount)
	assert.Equal(t, "0.00", k.TotalActiveBalance.String())
	assert.Equal(t, "0.00", k.TotalExpected.String())
	assert.True(t, k.CollectionRate.IsZero(), "no division by zero")
	assert.Equal(t, 0, k.TotalPlans)
}

func TestComputeKpis_ActivePlansOnly(t *testing.T) {
	// GIVEN: One active plan with 800 outstanding of 1000, one completed,
	// one defaulted
	plans := ledger.NormalizePlans([]byte(`[
		{"id": "a", "total": 1000, "remainingBalance": 800, "status": "active",
		 "payments": [{"paymentNumber": 2, "dueDate": "2025-02-15", "expectedAmount": 400, "status": "pending"}]},
		{"id": "b", "total": 500, "remainingBalance": 0, "status": "completed"},
		{"id": "c", "total": 700, "remainingBalance": 700, "status": "defaulted",
		 "payments": [{"paymentNumber": 1, "dueDate": "2024-01-01", "expectedAmount": 700, "status": "overdue"}]}
	]`))
	require.Len(t, plans, 3)

	// WHEN: Computing KPIs
	k := ledger.ComputeKpis(plans, testNow)

	// THEN: Only the active plan contributes
	assert.Equal(t, 1, k.ActiveCount)
	assert.Equal(t, 1, k.OverdueCount, "pending entry past due counts as overdue")
	assert.Equal(t, "800.00", k.TotalActiveBalance.String())
	assert.Equal(t, "1000.00", k.TotalExpected.String())
	assert.Equal(t, "20", k.CollectionRate.String())
	assert.Equal(t, 3, k.TotalPlans)
}

func TestComputeKpis_CollectionRateRounded(t *testing.T) {
	plans := ledger.NormalizePlans([]byte(`[{"id": "a", "total": 300, "remainingBalance": 200, "status": "active"}]`))

	k := ledger.ComputeKpis(plans, testNow)
	assert.Equal(t, "33.33", k.CollectionRate.String())
}

func TestIsOverdue(t *testing.T) {
	plans := ledger.NormalizePlans([]byte(`[
		{"id": "stored", "payments": [{"paymentNumber": 1, "dueDate": "2099-01-01", "status": "overdue"}]},
		{"id": "late", "payments": [{"paymentNumber": 1, "dueDate": "2025-03-19", "status": "pending"}]},
		{"id": "future", "payments": [{"paymentNumber": 1, "dueDate": "2025-04-01", "status": "pending"}]},
		{"id": "partial", "payments": [{"paymentNumber": 1, "dueDate": "2025-01-01", "status": "partial"}]},
		{"id": "nodate", "payments": [{"paymentNumber": 1, "dueDate": "soon", "status": "pending"}]}
	]`))
	require.Len(t, plans, 5)

	assert.True(t, ledger.IsOverdue(plans[0], testNow), "stored overdue status")
	assert.True(t, ledger.IsOverdue(plans[1], testNow), "pending and past due")
	assert.False(t, ledger.IsOverdue(plans[2], testNow), "not yet due")
	assert.False(t, ledger.IsOverdue(plans[3], testNow), "partial entries are not overdue")
	assert.False(t, ledger.IsOverdue(plans[4], testNow), "unparseable dates are never overdue")
}

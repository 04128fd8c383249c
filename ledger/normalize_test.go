package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pos-ledger/ledger"
)

// =============================================================================
// MALFORMED INPUT
// =============================================================================

func TestNormalizePlans_NonArrayInput_EmptySet(t *testing.T) {
	for _, raw := range []string{"", "null", "{}", `"plans"`, "garbage", "42"} {
		plans := ledger.NormalizePlans([]byte(raw))
		assert.NotNil(t, plans, "input %q", raw)
		assert.Empty(t, plans, "input %q", raw)
	}
}

func TestNormalizePlans_NonObjectElements_Skipped(t *testing.T) {
	// GIVEN: An array mixing garbage and one real plan
	raw := `[1, "x", null, [], {"id": "p1", "total": 100}, true]`

	// WHEN: Normalizing
	plans := ledger.NormalizePlans([]byte(raw))

	// THEN: Only the object survives
	require.Len(t, plans, 1)
	assert.Equal(t, "p1", plans[0].ID)
}

func TestNormalizePlans_MissingFields_Defaults(t *testing.T) {
	plans := ledger.NormalizePlans([]byte(`[{"id": "p1"}]`))
	require.Len(t, plans, 1)
	p := plans[0]

	assert.Equal(t, ledger.UnknownCustomer, p.Customer.Name)
	assert.Equal(t, ledger.PlanActive, p.Status)
	assert.Equal(t, "0.00", p.Total.String())
	assert.Equal(t, "0.00", p.RemainingBalance.String())
	assert.Equal(t, 0, p.Version)
	assert.NotNil(t, p.Payments)
	assert.Empty(t, p.Payments)
}

func TestNormalizePlans_NumericStringsAndGarbage(t *testing.T) {
	raw := `[{
		"id": 42,
		"customer": {"name": "Luis"},
		"total": "1000.50",
		"downPayment": "abc",
		"numberOfPayments": "4",
		"amountPerPayment": {"nested": true},
		"status": "weird"
	}]`

	plans := ledger.NormalizePlans([]byte(raw))
	require.Len(t, plans, 1)
	p := plans[0]

	assert.Equal(t, "42", p.ID)
	assert.Equal(t, "1000.50", p.Total.String())
	assert.Equal(t, "0.00", p.DownPayment.String())
	assert.Equal(t, 4, p.NumberOfPayments)
	assert.Equal(t, "0.00", p.AmountPerPayment.String())
	assert.Equal(t, ledger.PlanActive, p.Status, "unknown status falls back to active")
}

func TestNormalizePlans_NegativeAmounts_ClampedToZero(t *testing.T) {
	plans := ledger.NormalizePlans([]byte(`[{"id": "p1", "total": -50, "remainingBalance": -10}]`))
	require.Len(t, plans, 1)
	assert.Equal(t, "0.00", plans[0].Total.String())
	assert.Equal(t, "0.00", plans[0].RemainingBalance.String())
}

// =============================================================================
// REMAINING BALANCE
// =============================================================================

func TestNormalizePlans_MissingRemainingBalance_Derived(t *testing.T) {
	// GIVEN: A plan stored without remainingBalance
	plans := ledger.NormalizePlans([]byte(`[{"id": "p1", "total": 1000, "downPayment": 200}]`))

	// THEN: It is total minus down payment
	require.Len(t, plans, 1)
	assert.Equal(t, "800.00", plans[0].RemainingBalance.String())
}

func TestNormalizePlans_ZeroRemainingBalance_Kept(t *testing.T) {
	// GIVEN: A plan whose stored remainingBalance is explicitly 0
	plans := ledger.NormalizePlans([]byte(`[{"id": "p1", "total": 1000, "downPayment": 200, "remainingBalance": 0, "status": "completed"}]`))

	// THEN: The stored value wins; only a missing value is derived
	require.Len(t, plans, 1)
	assert.Equal(t, "0.00", plans[0].RemainingBalance.String())
	assert.Equal(t, ledger.PlanCompleted, plans[0].Status)
}

// =============================================================================
// SCHEDULE ENTRIES
// =============================================================================

func TestNormalizePlans_LegacyAmountEntries(t *testing.T) {
	// GIVEN: Entries written before expected/paid amounts existed
	raw := `[{
		"id": "p1", "total": 1000, "downPayment": 200,
		"payments": [
			{"paymentNumber": 1, "amount": 200, "status": "paid"},
			{"paymentNumber": 2, "amount": 400, "status": "pending"},
			{"paymentNumber": 3, "amount": 400, "paidAmount": 100, "status": "partial"}
		]
	}]`

	plans := ledger.NormalizePlans([]byte(raw))
	require.Len(t, plans, 1)
	pays := plans[0].Payments
	require.Len(t, pays, 3)

	// THEN: amount becomes expectedAmount; paid entries count as fully paid
	assert.Equal(t, "200.00", pays[0].ExpectedAmount.String())
	assert.Equal(t, "200.00", pays[0].PaidAmount.String())
	assert.Equal(t, "400.00", pays[1].ExpectedAmount.String())
	assert.Equal(t, "0.00", pays[1].PaidAmount.String())
	assert.Equal(t, "100.00", pays[2].PaidAmount.String())
	assert.Equal(t, ledger.PaymentPartial, pays[2].Status)
}

func TestNormalizePlans_ExpectedAmountWinsOverAmount(t *testing.T) {
	raw := `[{"id": "p1", "payments": [{"paymentNumber": 1, "amount": 999, "expectedAmount": 400}]}]`

	plans := ledger.NormalizePlans([]byte(raw))
	require.Len(t, plans, 1)
	require.Len(t, plans[0].Payments, 1)
	assert.Equal(t, "400.00", plans[0].Payments[0].ExpectedAmount.String())
}

func TestNormalizePlans_MissingExpectedAmount_UsesAmountPerPayment(t *testing.T) {
	raw := `[{"id": "p1", "amountPerPayment": 250, "payments": [{"paymentNumber": 2, "status": "pending"}]}]`

	plans := ledger.NormalizePlans([]byte(raw))
	require.Len(t, plans, 1)
	require.Len(t, plans[0].Payments, 1)
	assert.Equal(t, "250.00", plans[0].Payments[0].ExpectedAmount.String())
	assert.Equal(t, "0.00", plans[0].Payments[0].PaidAmount.String())
}

func TestNormalizePlans_EntryRecovery(t *testing.T) {
	raw := `[{
		"id": "p1", "downPayment": 100,
		"payments": [
			{"paymentNumber": 3, "expectedAmount": 50, "status": "late", "method": "bitcoin"},
			"junk",
			{"paymentNumber": 1, "expectedAmount": 100, "status": "paid", "paidAmount": 100},
			{"paymentNumber": 2, "expectedAmount": 50}
		]
	}]`

	plans := ledger.NormalizePlans([]byte(raw))
	require.Len(t, plans, 1)
	pays := plans[0].Payments
	require.Len(t, pays, 3)

	// THEN: Sorted by number, non-objects dropped, unknown values reset
	assert.Equal(t, 1, pays[0].PaymentNumber)
	assert.Equal(t, 2, pays[1].PaymentNumber)
	assert.Equal(t, 3, pays[2].PaymentNumber)
	assert.Equal(t, ledger.PaymentPending, pays[2].Status)
	assert.Equal(t, ledger.PaymentMethod(""), pays[2].Method)
}

func TestNormalizePlans_PaymentType_Derived(t *testing.T) {
	withDown := ledger.NormalizePlans([]byte(`[{"id": "a", "downPayment": 100, "payments": [{"paymentNumber": 1}, {"paymentNumber": 2}]}]`))
	noDown := ledger.NormalizePlans([]byte(`[{"id": "b", "downPayment": 0, "payments": [{"paymentNumber": 1}]}]`))

	require.Len(t, withDown, 1)
	require.Len(t, noDown, 1)
	assert.Equal(t, ledger.TypeDownPayment, withDown[0].Payments[0].Type)
	assert.Equal(t, ledger.TypeInstallment, withDown[0].Payments[1].Type)
	assert.Equal(t, ledger.TypeInstallment, noDown[0].Payments[0].Type)
}

// =============================================================================
// IDEMPOTENCE
// =============================================================================

func TestNormalizePlans_Idempotent(t *testing.T) {
	// GIVEN: A messy mix of legacy and canonical records
	raw := `[
		{"id": "p1", "total": "1000", "downPayment": 200,
		 "payments": [{"paymentNumber": 2, "amount": 400, "status": "paid"}, {"paymentNumber": 1, "amount": 200, "status": "paid"}]},
		{"id": "p2", "customer": {}, "status": "bogus", "remainingBalance": -3},
		7
	]`

	// WHEN: Normalizing, encoding, and normalizing again
	once := ledger.NormalizePlans([]byte(raw))
	first, err := ledger.MarshalPlans(once)
	require.NoError(t, err)
	second, err := ledger.MarshalPlans(ledger.NormalizePlans(first))
	require.NoError(t, err)

	// THEN: The second pass changes nothing
	assert.JSONEq(t, string(first), string(second))
}

func TestNormalizePlans_Scenario(t *testing.T) {
	plans := scenarioPlans(t)
	p := plans[0]

	assert.Equal(t, "Ana Torres", p.Customer.Name)
	assert.Equal(t, "800.00", p.RemainingBalance.String())
	assert.Equal(t, ledger.TypeDownPayment, p.Payments[0].Type)
	assert.Equal(t, ledger.MethodCash, p.Payments[0].Method)
}

// =============================================================================
// SALES
// =============================================================================

func TestNormalizeSales_SkipsUndecodableRecords(t *testing.T) {
	raw := `[
		{"id": "s1", "paymentMethod": "cash", "total": 100, "amountPaid": 100},
		5,
		{"id": "s2", "paymentMethod": "cash", "total": "abc"},
		{"id": "s3", "paymentMethod": "installment", "total": "300", "amountPaid": 100,
		 "installmentPlan": {"remainingBalance": 200}}
	]`

	sales := ledger.NormalizeSales([]byte(raw))
	require.Len(t, sales, 2)
	assert.Equal(t, "s1", sales[0].ID)
	assert.Equal(t, "s3", sales[1].ID)
	require.NotNil(t, sales[1].InstallmentPlan)
	assert.Equal(t, "200.00", sales[1].InstallmentPlan.RemainingBalance.String())
}

func TestNormalizeSales_NotAnArray(t *testing.T) {
	assert.Empty(t, ledger.NormalizeSales([]byte(`{"id": "s1"}`)))
}

func TestNormalizePlans_OutOfRangeNumbers_ReadAsUnset(t *testing.T) {
	// GIVEN: A stored plan with absurd exponents
	raw := `[{"id": "p1", "total": 1e200000000, "remainingBalance": "5e-900000000",
		"amountPerPayment": 100, "version": 1e300000000,
		"payments": [{"paymentNumber": 1, "dueDate": "2025-04-01", "expectedAmount": 1e200000000, "status": "pending"}]}]`

	// WHEN: Normalizing
	plans := ledger.NormalizePlans([]byte(raw))

	// THEN: The values fall back to their defaults
	require.Len(t, plans, 1)
	p := plans[0]
	assert.Equal(t, "0.00", p.Total.String())
	assert.Equal(t, "0.00", p.RemainingBalance.String())
	assert.Equal(t, 0, p.Version)
	require.Len(t, p.Payments, 1)
	assert.Equal(t, "100.00", p.Payments[0].ExpectedAmount.String())
}

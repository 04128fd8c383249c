package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/warp/pos-ledger/ledger"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2025, time.March, 20, 12, 0, 0, 0, time.UTC)

// scenarioJSON is a 1000 plan with a 200 down payment already paid and two
// pending installments of 400.
const scenarioJSON = `[{
	"id": "INST-001",
	"customer": {"name": "Ana Torres", "phone": "555-0100"},
	"total": 1000,
	"downPayment": 200,
	"remainingBalance": 800,
	"numberOfPayments": 2,
	"amountPerPayment": 400,
	"paymentFrequency": "monthly",
	"startDate": "2025-01-15",
	"status": "active",
	"payments": [
		{"paymentNumber": 1, "dueDate": "2025-01-15", "expectedAmount": 200, "paidAmount": 200, "status": "paid", "paidDate": "2025-01-15", "method": "cash"},
		{"paymentNumber": 2, "dueDate": "2025-02-15", "expectedAmount": 400, "paidAmount": 0, "status": "pending"},
		{"paymentNumber": 3, "dueDate": "2025-04-15", "expectedAmount": 400, "paidAmount": 0, "status": "pending"}
	]
}]`

func scenarioPlans(t *testing.T) []ledger.InstallmentPlan {
	t.Helper()
	plans := ledger.NormalizePlans([]byte(scenarioJSON))
	require.Len(t, plans, 1)
	return plans
}

func cmd(planID string, number int, amount string, method ledger.PaymentMethod) ledger.PaymentCommand {
	return ledger.PaymentCommand{
		PlanID:        planID,
		PaymentNumber: number,
		Amount:        ledger.MustParseMoney(amount),
		Method:        method,
	}
}

func intPtr(n int) *int { return &n }

package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pos-ledger/ledger"
)

func sale(id string, method ledger.SaleMethod, total, paid string) ledger.Transaction {
	return ledger.Transaction{
		ID:            id,
		PaymentMethod: method,
		Total:         ledger.MustParseMoney(total),
		AmountPaid:    ledger.MustParseMoney(paid),
	}
}

func withSnapshot(tx ledger.Transaction, remaining string) ledger.Transaction {
	tx.InstallmentPlan = &ledger.InstallmentSnapshot{RemainingBalance: ledger.MustParseMoney(remaining)}
	return tx
}

// =============================================================================
// IS SETTLED
// =============================================================================

func TestIsSettled(t *testing.T) {
	tests := []struct {
		name string
		tx   ledger.Transaction
		want bool
	}{
		{"credit is settled even when unpaid", sale("s", ledger.SaleCredit, "300", "0"), true},
		{"installment with balance owing", withSnapshot(sale("s", ledger.SaleInstallment, "1000", "200"), "800"), false},
		{"installment paid off", withSnapshot(sale("s", ledger.SaleInstallment, "1000", "200"), "0"), true},
		{"installment with negative snapshot balance", withSnapshot(sale("s", ledger.SaleInstallment, "1000", "200"), "-5"), true},
		{"installment without snapshot falls through to amounts", sale("s", ledger.SaleInstallment, "1000", "200"), false},
		{"cash is settled regardless of amounts", sale("s", ledger.SaleCash, "100", "50"), true},
		{"card", sale("s", ledger.SaleCard, "100", "0"), true},
		{"transfer", sale("s", ledger.SaleTransfer, "100", "0"), true},
		{"split", sale("s", ledger.SaleSplit, "100", "40"), true},
		{"unknown method paid in full", sale("s", "voucher", "100", "100"), true},
		{"unknown method short", sale("s", "voucher", "100", "99.99"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.IsSettled(tt.tx))
		})
	}
}

// =============================================================================
// FILTER AND SUMMARY
// =============================================================================

func salesFixture() []ledger.Transaction {
	owing := withSnapshot(sale("s2", ledger.SaleInstallment, "1000", "200"), "800")
	owing.Customer = &ledger.SaleCustomer{ID: "c1", Name: "Ana"}

	credit := sale("s3", ledger.SaleCredit, "300", "0")
	credit.Customer = &ledger.SaleCustomer{ID: "c1", Name: "Ana"}

	return []ledger.Transaction{
		sale("s1", ledger.SaleCash, "100", "100"),
		owing,
		credit,
		withSnapshot(sale("s4", ledger.SaleInstallment, "500", "500"), "0"),
		sale("s5", "voucher", "50", "20"),
	}
}

func TestFilterSales(t *testing.T) {
	sales := salesFixture()

	owing := ledger.FilterSales(sales, ledger.SalesFilter{OwingOnly: true})
	require.Len(t, owing, 2)
	assert.Equal(t, "s2", owing[0].ID)
	assert.Equal(t, "s5", owing[1].ID)

	byCustomer := ledger.FilterSales(sales, ledger.SalesFilter{CustomerID: "c1"})
	assert.Len(t, byCustomer, 2)

	byMethod := ledger.FilterSales(sales, ledger.SalesFilter{Method: ledger.SaleInstallment})
	assert.Len(t, byMethod, 2)

	assert.Len(t, ledger.FilterSales(sales, ledger.SalesFilter{}), 5)
}

func TestSummarizeSales(t *testing.T) {
	stats := ledger.SummarizeSales(salesFixture())

	assert.Equal(t, 5, stats.TotalOrders)
	assert.Equal(t, "1950.00", stats.TotalSalesValue.String())
	assert.Equal(t, "900.00", stats.TotalCompletedSales.String())
	assert.Equal(t, 2, stats.OwingTransactions)
	assert.Equal(t, 1, stats.CreditSales)
	assert.Equal(t, "300.00", stats.OutstandingCredit.String())
	assert.Equal(t, "800.00", stats.ActiveInstallments.String())
	assert.Equal(t, 1, stats.ActiveInstallmentPlans)
	assert.Equal(t, 1, stats.MethodBreakdown[ledger.SaleCash])
	assert.Equal(t, 2, stats.MethodBreakdown[ledger.SaleInstallment])
	assert.Equal(t, 0, stats.MethodBreakdown[ledger.SaleSplit])
	assert.Len(t, stats.MethodBreakdown, len(ledger.SaleMethods), "unknown methods are not counted")
}

func TestSummarizeSales_Empty(t *testing.T) {
	stats := ledger.SummarizeSales(nil)
	assert.Equal(t, 0, stats.TotalOrders)
	assert.Equal(t, "0.00", stats.TotalSalesValue.String())
	assert.Len(t, stats.MethodBreakdown, len(ledger.SaleMethods))
}

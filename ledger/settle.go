package ledger

// =============================================================================
// COMPLETION CLASSIFIER - Is a sale settled?
// =============================================================================

// IsSettled reports whether a sale counts as fully paid. Rules apply in order:
//
//  1. credit                     -> settled; the debt lives in the credit record
//  2. installment with a snapshot -> settled iff snapshot remainingBalance <= 0
//  3. cash, card, transfer, split -> settled
//  4. anything else               -> amountPaid >= total
//
// There is no partially-settled state at the transaction level.
func IsSettled(tx Transaction) bool {
	switch {
	case tx.PaymentMethod == SaleCredit:
		return true
	case tx.PaymentMethod == SaleInstallment && tx.InstallmentPlan != nil:
		return !tx.InstallmentPlan.RemainingBalance.IsPositive()
	case tx.PaymentMethod == SaleCash,
		tx.PaymentMethod == SaleCard,
		tx.PaymentMethod == SaleTransfer,
		tx.PaymentMethod == SaleSplit:
		return true
	}
	return tx.AmountPaid.GreaterThanOrEqual(tx.Total)
}

// SalesFilter selects sales for owing/outstanding views. Zero values match all.
type SalesFilter struct {
	OwingOnly  bool
	Method     SaleMethod
	CustomerID string
}

// FilterSales returns the sales matching f, preserving order.
func FilterSales(sales []Transaction, f SalesFilter) []Transaction {
	out := []Transaction{}
	for _, tx := range sales {
		if f.OwingOnly && IsSettled(tx) {
			continue
		}
		if f.Method != "" && tx.PaymentMethod != f.Method {
			continue
		}
		if f.CustomerID != "" && (tx.Customer == nil || tx.Customer.ID != f.CustomerID) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// SalesStats summarizes a customer's (or the whole shop's) sales.
type SalesStats struct {
	TotalOrders            int                `json:"totalOrders"`
	OutstandingCredit      Money              `json:"outstandingCredit"`
	ActiveInstallments     Money              `json:"activeInstallments"`
	CreditSales            int                `json:"creditSales"`
	ActiveInstallmentPlans int                `json:"activeInstallmentPlans"`
	TotalCompletedSales    Money              `json:"totalCompletedSales"`
	TotalSalesValue        Money              `json:"totalSalesValue"`
	OwingTransactions      int                `json:"owingTransactions"`
	MethodBreakdown        map[SaleMethod]int `json:"paymentMethodBreakdown"`
}

// SummarizeSales computes SalesStats. Outstanding credit is the total of
// credit sales; active installments is the sum of snapshot balances.
func SummarizeSales(sales []Transaction) SalesStats {
	stats := SalesStats{
		TotalOrders:         len(sales),
		OutstandingCredit:   NewMoney(0),
		ActiveInstallments:  NewMoney(0),
		TotalCompletedSales: NewMoney(0),
		TotalSalesValue:     NewMoney(0),
		MethodBreakdown:     make(map[SaleMethod]int, len(SaleMethods)),
	}
	for _, m := range SaleMethods {
		stats.MethodBreakdown[m] = 0
	}

	for _, tx := range sales {
		stats.TotalSalesValue = stats.TotalSalesValue.Add(tx.Total)
		if _, known := stats.MethodBreakdown[tx.PaymentMethod]; known {
			stats.MethodBreakdown[tx.PaymentMethod]++
		}

		if tx.PaymentMethod == SaleCredit {
			stats.CreditSales++
			stats.OutstandingCredit = stats.OutstandingCredit.Add(tx.Total)
		}
		if tx.PaymentMethod == SaleInstallment && tx.InstallmentPlan != nil {
			stats.ActiveInstallments = stats.ActiveInstallments.Add(tx.InstallmentPlan.RemainingBalance)
			if tx.InstallmentPlan.RemainingBalance.IsPositive() {
				stats.ActiveInstallmentPlans++
			}
		}

		if IsSettled(tx) {
			stats.TotalCompletedSales = stats.TotalCompletedSales.Add(tx.Total)
		} else {
			stats.OwingTransactions++
		}
	}
	return stats
}

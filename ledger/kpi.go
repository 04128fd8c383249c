package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// KPI AGGREGATOR - Portfolio metrics over the plan set
// =============================================================================

// Kpis are the portfolio metrics shown on the installments dashboard.
type Kpis struct {
	ActiveCount        int             `json:"activeCount"`
	OverdueCount       int             `json:"overdueCount"`
	TotalActiveBalance Money           `json:"totalActiveBalance"`
	TotalExpected      Money           `json:"totalExpected"`
	CollectionRate     decimal.Decimal `json:"collectionRate"`
	TotalPlans         int             `json:"totalInstallments"`
}

var hundred = decimal.NewFromInt(100)

// ComputeKpis aggregates over active plans only.
//
//	collectionRate = (totalExpected - totalActiveBalance) / totalExpected * 100
//
// and is 0 when totalExpected is 0.
func ComputeKpis(plans []InstallmentPlan, now time.Time) Kpis {
	k := Kpis{
		TotalActiveBalance: NewMoney(0),
		TotalExpected:      NewMoney(0),
		CollectionRate:     decimal.Zero,
		TotalPlans:         len(plans),
	}

	for _, p := range plans {
		if p.Status != PlanActive {
			continue
		}
		k.ActiveCount++
		k.TotalActiveBalance = k.TotalActiveBalance.Add(p.RemainingBalance)
		k.TotalExpected = k.TotalExpected.Add(p.Total)
		if IsOverdue(p, now) {
			k.OverdueCount++
		}
	}

	if k.TotalExpected.IsPositive() {
		collected := k.TotalExpected.Sub(k.TotalActiveBalance).Value
		k.CollectionRate = collected.Div(k.TotalExpected.Value).Mul(hundred).Round(2)
	}
	return k
}

// IsOverdue reports whether a plan has an overdue entry or a pending entry
// whose due date is before now.
func IsOverdue(p InstallmentPlan, now time.Time) bool {
	for _, pay := range p.Payments {
		if pay.Status == PaymentOverdue {
			return true
		}
		if pay.Status == PaymentPending && dueBefore(pay, now) {
			return true
		}
	}
	return false
}

func dueBefore(p Payment, now time.Time) bool {
	due, ok := ParseDate(p.DueDate)
	return ok && due.Before(now)
}

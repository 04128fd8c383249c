package ledger

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// PLAN QUERIES - Read-only views used by the back-office screens
// =============================================================================

// PlanFilter selects plans. Zero values match everything.
type PlanFilter struct {
	// Query matches case-insensitively against customer name or plan id.
	Query string
	// Status matches the plan status exactly.
	Status PlanStatus
	// StartedFrom keeps plans whose startDate sorts on or after it (YYYY-MM-DD).
	StartedFrom string
}

// FilterPlans returns the plans matching f, preserving order.
func FilterPlans(plans []InstallmentPlan, f PlanFilter) []InstallmentPlan {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := []InstallmentPlan{}
	for _, p := range plans {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Customer.Name), q) &&
			!strings.Contains(strings.ToLower(p.ID), q) {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.StartedFrom != "" && p.StartDate < f.StartedFrom {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FindPlan returns the plan with the given id.
func FindPlan(plans []InstallmentPlan, id string) (InstallmentPlan, error) {
	for _, p := range plans {
		if p.ID == id {
			return p, nil
		}
	}
	return InstallmentPlan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
}

// DuePlans returns plans with a pending or overdue entry due on or before
// now. limit <= 0 means no limit.
func DuePlans(plans []InstallmentPlan, now time.Time, limit int) []InstallmentPlan {
	out := []InstallmentPlan{}
	for _, p := range plans {
		if !hasDueEntry(p, now) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func hasDueEntry(p InstallmentPlan, now time.Time) bool {
	for _, pay := range p.Payments {
		if pay.Status != PaymentPending && pay.Status != PaymentOverdue {
			continue
		}
		if due, ok := ParseDate(pay.DueDate); ok && !due.After(now) {
			return true
		}
	}
	return false
}

// NextDueDate is the due date of the first overdue entry, else the first
// pending one. It reports false when nothing is outstanding.
func NextDueDate(p InstallmentPlan) (string, bool) {
	for _, pay := range p.Payments {
		if pay.Status == PaymentOverdue {
			return pay.DueDate, true
		}
	}
	for _, pay := range p.Payments {
		if pay.Status == PaymentPending {
			return pay.DueDate, true
		}
	}
	return "", false
}

// DisplayStatus is the status shown for an entry: a pending entry whose due
// date has passed shows as overdue. Stored status is not changed.
func DisplayStatus(p Payment, now time.Time) PaymentStatus {
	if p.Status == PaymentPending && dueBefore(p, now) {
		return PaymentOverdue
	}
	return p.Status
}

// FindPaymentTransaction returns the first audit record for a plan entry,
// used to reprint its receipt.
func FindPaymentTransaction(txs []InstallmentTransaction, planID string, number int) (InstallmentTransaction, error) {
	for _, tx := range txs {
		if tx.PlanID == planID && tx.PaymentNumber == number {
			return tx, nil
		}
	}
	return InstallmentTransaction{}, fmt.Errorf("%w: plan %s payment #%d", ErrReceiptNotFound, planID, number)
}

// PlanTransactions returns the audit records of one plan in log order.
func PlanTransactions(txs []InstallmentTransaction, planID string) []InstallmentTransaction {
	out := []InstallmentTransaction{}
	for _, tx := range txs {
		if planID == "" || tx.PlanID == planID {
			out = append(out, tx)
		}
	}
	return out
}

/*
allocate.go - PaymentAllocator: apply one payment to one schedule entry

ALLOCATION POLICY (single target, not a waterfall):
  The amount is applied only to the targeted entry. It is never spread over
  other pending or overdue entries, even when it exceeds what the target
  still owes. Overpaying leaves paidAmount > expectedAmount, which still
  counts as paid.

    entry.paidAmount += amount
    entry.status      = paid     if paidAmount >= expectedAmount
                        partial  otherwise
    entry.paidDate    = today    (stamped for paid and partial alike)
    entry.method      = command method

PLAN RECOMPUTATION:
  Uses every entry, not just the target:

    remainingBalance = max(total - sum(paidAmount), 0)
    status           = completed if remainingBalance == 0, else active

REJECTIONS (input plans untouched):
  amount <= 0            -> InvalidAmountError (ErrInvalidAmount)
  unknown method         -> ErrInvalidMethod
  unknown plan id        -> ErrPlanNotFound
  unknown payment number -> UnknownTargetError (ErrUnknownTarget)
  stale ExpectedVersion  -> VersionConflictError (ErrConcurrentModification)

Recording against an entry that is already paid is allowed.
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentCommand is a request to record a payment against one schedule entry.
type PaymentCommand struct {
	PlanID         string
	PaymentNumber  int
	Amount         Money
	Method         PaymentMethod
	IdempotencyKey string

	// ExpectedVersion, when set, must match the stored plan version.
	ExpectedVersion *int
}

// Validate checks the parts of the command that do not need the plan.
func (c PaymentCommand) Validate() error {
	if !c.Amount.IsPositive() {
		return &InvalidAmountError{Amount: c.Amount}
	}
	if !c.Method.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, c.Method)
	}
	return nil
}

// Allocation is the outcome of a recorded payment.
type Allocation struct {
	// Plans is the full updated plan set; the input slice is not modified.
	Plans []InstallmentPlan

	// Before and After are the addressed plan around the allocation.
	Before InstallmentPlan
	After  InstallmentPlan

	// Transaction is the audit record to append to the log.
	Transaction InstallmentTransaction

	// Receipt is the printable data handed to the receipt renderer.
	Receipt Receipt
}

// Allocate records cmd against plans as of now.
func Allocate(plans []InstallmentPlan, cmd PaymentCommand, now time.Time) (Allocation, error) {
	if err := cmd.Validate(); err != nil {
		return Allocation{}, err
	}

	planIdx := -1
	for i, p := range plans {
		if p.ID == cmd.PlanID {
			planIdx = i
			break
		}
	}
	if planIdx < 0 {
		return Allocation{}, fmt.Errorf("%w: %s", ErrPlanNotFound, cmd.PlanID)
	}

	before := plans[planIdx]
	if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != before.Version {
		return Allocation{}, &VersionConflictError{
			PlanID:   before.ID,
			Expected: *cmd.ExpectedVersion,
			Actual:   before.Version,
		}
	}

	entryIdx, ok := before.Payment(cmd.PaymentNumber)
	if !ok {
		return Allocation{}, &UnknownTargetError{PlanID: before.ID, PaymentNumber: cmd.PaymentNumber}
	}

	updated := clonePlans(plans)
	after := &updated[planIdx]

	entry := &after.Payments[entryIdx]
	entry.PaidAmount = entry.PaidAmount.Add(cmd.Amount)
	if entry.PaidAmount.GreaterThanOrEqual(entry.ExpectedAmount) {
		entry.Status = PaymentPaid
	} else {
		entry.Status = PaymentPartial
	}
	entry.PaidDate = FormatDate(now)
	entry.Method = cmd.Method

	after.Recompute()
	after.Version = before.Version + 1

	tx := InstallmentTransaction{
		ID:                    fmt.Sprintf("INST-%s-%d-%s", before.ID, cmd.PaymentNumber, uuid.NewString()),
		PlanID:                before.ID,
		PaymentNumber:         cmd.PaymentNumber,
		Customer:              before.Customer,
		AmountPaid:            cmd.Amount,
		PaymentMethod:         cmd.Method,
		PaymentFrequency:      before.PaymentFrequency,
		NumberOfPayments:      before.NumberOfPayments,
		AmountPerPayment:      before.AmountPerPayment,
		DownPayment:           before.DownPayment,
		RemainingBalanceAfter: after.RemainingBalance,
		Timestamp:             now.UTC(),
		IdempotencyKey:        cmd.IdempotencyKey,
	}

	return Allocation{
		Plans:       updated,
		Before:      before.Clone(),
		After:       after.Clone(),
		Transaction: tx,
		Receipt:     ReceiptFromTransaction(tx),
	}, nil
}

// Recompute derives remainingBalance and status from the schedule.
// Defaulted plans return to active or completed like any other.
func (p *InstallmentPlan) Recompute() {
	p.RemainingBalance = p.Total.Sub(p.TotalPaid()).NonNegative()
	if p.RemainingBalance.IsZero() {
		p.Status = PlanCompleted
	} else {
		p.Status = PlanActive
	}
}

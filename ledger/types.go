/*
Package ledger provides the installment ledger engine for the POS back office.

PURPOSE:
  The back office keeps installment plans, an append-only log of installment
  payments, and completed sale transactions in a string-keyed blob store.
  This package turns those blobs into canonical values and applies the
  business rules on top of them:

    - NormalizePlans:  legacy/loose plan records -> canonical InstallmentPlan
    - Allocate:        apply one payment to one schedule entry, recompute plan
    - IsSettled:       binary settlement classification of a sale
    - ComputeKpis:     portfolio metrics over the plan set

  Everything above is pure. I/O lives behind Repository/BlobStore (store.go,
  repository.go) and is orchestrated by Service (service.go).

KEY CONCEPTS IN THIS FILE (types.go):
  - InstallmentPlan: an agreement with a fixed schedule of payments
  - Payment:         one schedule entry owned by its plan
  - Transaction:     a completed sale, read-only for this package
  - InstallmentTransaction: immutable audit record of a recorded payment

INVARIANTS (after every allocation):
  remainingBalance = max(total - sum(paidAmount), 0)
  status = completed  <=>  remainingBalance = 0
  The engine never assigns "defaulted"; that is a manual classification.

SEE ALSO:
  - normalize.go: PlanNormalizer
  - allocate.go:  PaymentAllocator
  - settle.go:    CompletionClassifier
  - kpi.go:       KpiAggregator
*/
package ledger

import (
	"strings"
	"time"
)

// =============================================================================
// STATUSES AND ENUMS
// =============================================================================

type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanDefaulted PlanStatus = "defaulted"
)

func (s PlanStatus) Valid() bool {
	switch s {
	case PlanActive, PlanCompleted, PlanDefaulted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentOverdue PaymentStatus = "overdue"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentPartial, PaymentOverdue:
		return true
	}
	return false
}

// PaymentType is derived from the plan, never read from storage.
type PaymentType string

const (
	TypeDownPayment PaymentType = "down_payment"
	TypeInstallment PaymentType = "installment"
)

// PaymentMethod is the method used to pay a schedule entry.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer:
		return true
	}
	return false
}

// SaleMethod is the payment method of a POS sale.
type SaleMethod string

const (
	SaleCash        SaleMethod = "cash"
	SaleCard        SaleMethod = "card"
	SaleTransfer    SaleMethod = "transfer"
	SaleSplit       SaleMethod = "split"
	SaleCredit      SaleMethod = "credit"
	SaleInstallment SaleMethod = "installment"
)

// SaleMethods lists the known sale methods in display order.
var SaleMethods = []SaleMethod{SaleCash, SaleCard, SaleTransfer, SaleSplit, SaleCredit, SaleInstallment}

// =============================================================================
// INSTALLMENT PLAN
// =============================================================================

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type InstallmentPlan struct {
	ID               string     `json:"id"`
	Customer         Customer   `json:"customer"`
	Total            Money      `json:"total"`
	DownPayment      Money      `json:"downPayment"`
	RemainingBalance Money      `json:"remainingBalance"`
	NumberOfPayments int        `json:"numberOfPayments"`
	AmountPerPayment Money      `json:"amountPerPayment"`
	PaymentFrequency string     `json:"paymentFrequency"`
	StartDate        string     `json:"startDate"`
	Status           PlanStatus `json:"status"`
	Payments         []Payment  `json:"payments"`

	// Version is bumped on every write; used for optimistic concurrency.
	Version int `json:"version"`
}

type Payment struct {
	PaymentNumber  int           `json:"paymentNumber"`
	DueDate        string        `json:"dueDate"`
	ExpectedAmount Money         `json:"expectedAmount"`
	PaidAmount     Money         `json:"paidAmount"`
	Status         PaymentStatus `json:"status"`
	Type           PaymentType   `json:"type"`
	PaidDate       string        `json:"paidDate,omitempty"`
	Method         PaymentMethod `json:"method,omitempty"`
}

// Outstanding is what is still owed on this entry (never negative).
func (p Payment) Outstanding() Money {
	return p.ExpectedAmount.Sub(p.PaidAmount).NonNegative()
}

// TotalPaid sums paidAmount over every schedule entry.
func (p InstallmentPlan) TotalPaid() Money {
	total := NewMoney(0)
	for _, pay := range p.Payments {
		total = total.Add(pay.PaidAmount)
	}
	return total
}

// Payment returns the index of the schedule entry with the given number.
func (p InstallmentPlan) Payment(number int) (int, bool) {
	for i, pay := range p.Payments {
		if pay.PaymentNumber == number {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy; the schedule slice is not shared.
func (p InstallmentPlan) Clone() InstallmentPlan {
	c := p
	c.Payments = make([]Payment, len(p.Payments))
	copy(c.Payments, p.Payments)
	return c
}

func clonePlans(plans []InstallmentPlan) []InstallmentPlan {
	out := make([]InstallmentPlan, len(plans))
	for i, p := range plans {
		out[i] = p.Clone()
	}
	return out
}

// =============================================================================
// SALE TRANSACTION (read-only)
// =============================================================================

type SaleCustomer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type SplitPayment struct {
	Method string `json:"method"`
	Amount Money  `json:"amount"`
}

type CreditInfo struct {
	CreditBalance Money  `json:"creditBalance"`
	DueDate       string `json:"dueDate,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// InstallmentSnapshot is the plan summary embedded in a sale at checkout.
type InstallmentSnapshot struct {
	NumberOfPayments int    `json:"numberOfPayments"`
	AmountPerPayment Money  `json:"amountPerPayment"`
	PaymentFrequency string `json:"paymentFrequency"`
	StartDate        string `json:"startDate"`
	DownPayment      Money  `json:"downPayment"`
	RemainingBalance Money  `json:"remainingBalance"`
	Notes            string `json:"notes,omitempty"`
}

type Transaction struct {
	ID              string               `json:"id"`
	Timestamp       string               `json:"timestamp"`
	Customer        *SaleCustomer        `json:"customer,omitempty"`
	PaymentMethod   SaleMethod           `json:"paymentMethod"`
	Total           Money                `json:"total"`
	AmountPaid      Money                `json:"amountPaid"`
	SplitPayments   []SplitPayment       `json:"splitPayments,omitempty"`
	Credit          *CreditInfo          `json:"credit,omitempty"`
	InstallmentPlan *InstallmentSnapshot `json:"installmentPlan,omitempty"`
}

// =============================================================================
// INSTALLMENT TRANSACTION - Immutable audit record
// =============================================================================

// InstallmentTransaction is written once per recorded payment and never
// updated or deleted.
type InstallmentTransaction struct {
	ID                    string        `json:"id"`
	PlanID                string        `json:"planId"`
	PaymentNumber         int           `json:"paymentNumber"`
	Customer              Customer      `json:"customer"`
	AmountPaid            Money         `json:"amountPaid"`
	PaymentMethod         PaymentMethod `json:"paymentMethod"`
	PaymentFrequency      string        `json:"paymentFrequency"`
	NumberOfPayments      int           `json:"numberOfPayments"`
	AmountPerPayment      Money         `json:"amountPerPayment"`
	DownPayment           Money         `json:"downPayment"`
	RemainingBalanceAfter Money         `json:"remainingBalanceAfter"`
	Timestamp             time.Time     `json:"timestamp"`
	IdempotencyKey        string        `json:"idempotencyKey,omitempty"`
}

// =============================================================================
// DATES
// =============================================================================

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses the date strings found in stored records. Date-only values
// are UTC midnight. Unparseable input reports false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatDate renders the calendar date stamped on paid entries.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

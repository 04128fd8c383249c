/*
normalize.go - PlanNormalizer: stored blobs -> canonical values

PURPOSE:
  Plans reach the engine as JSON written by several generations of the POS
  checkout. Fields may be missing, numbers may be strings, and old schedule
  entries carry a single "amount" field instead of expected/paid amounts.
  NormalizePlans turns any of that into []InstallmentPlan and never fails.

RAW SHAPES:
  Schedule entries are a tagged union, one mapping function per shape:

    RawPaymentV1 (legacy)    {"paymentNumber":1, "amount":200, "status":"paid"}
    RawPaymentV2 (canonical) {"paymentNumber":1, "expectedAmount":200, "paidAmount":200, ...}

  An entry is V1 when it has a usable "amount" and no usable "expectedAmount".

RECOVERY RULES:
  - top level is not an array         -> empty plan set
  - array element is not an object    -> element skipped
  - number field is missing/garbage   -> 0 (or the documented fallback)
  - unknown plan status               -> active
  - unknown entry status              -> pending
  - missing customer name             -> "Unknown"

IDEMPOTENCE:
  NormalizePlans(json.Marshal(NormalizePlans(x))) == NormalizePlans(x)
*/
package ledger

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// UnknownCustomer is the name given to plans stored without one.
const UnknownCustomer = "Unknown"

// =============================================================================
// LOOSE SCALARS - Decoders that never fail
// =============================================================================

// looseNumber accepts a JSON number or numeric string. Anything else leaves
// it unset.
type looseNumber struct {
	value decimal.Decimal
	set   bool
}

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	*n = looseNumber{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	var text string
	switch data[0] {
	case '"':
		if err := json.Unmarshal(data, &text); err != nil {
			return nil
		}
		text = strings.TrimSpace(text)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		text = string(data)
	default:
		return nil
	}

	// Unparseable or out-of-range values read as unset.
	d, err := parseBoundedDecimal(text)
	if err != nil {
		return nil
	}
	n.value, n.set = d, true
	return nil
}

func (n looseNumber) money() Money {
	if !n.set {
		return NewMoney(0)
	}
	return MoneyFromDecimal(n.value).NonNegative()
}

func (n looseNumber) moneyOr(fallback Money) Money {
	if !n.set {
		return fallback
	}
	return n.money()
}

func (n looseNumber) int() int {
	if !n.set {
		return 0
	}
	return int(n.value.IntPart())
}

// looseString accepts a string, number or bool. Objects, arrays and null
// leave it unset.
type looseString struct {
	value string
	set   bool
}

func (s *looseString) UnmarshalJSON(data []byte) error {
	*s = looseString{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		if err := json.Unmarshal(data, &s.value); err == nil {
			s.set = true
		}
	case '{', '[', 'n':
	default:
		s.value, s.set = string(data), true
	}
	return nil
}

// =============================================================================
// RAW RECORDS
// =============================================================================

type rawCustomer struct {
	Name  looseString
	Email looseString
	Phone looseString
}

func (c *rawCustomer) UnmarshalJSON(data []byte) error {
	*c = rawCustomer{}
	var fields struct {
		Name  looseString `json:"name"`
		Email looseString `json:"email"`
		Phone looseString `json:"phone"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	c.Name, c.Email, c.Phone = fields.Name, fields.Email, fields.Phone
	return nil
}

// rawPaymentFields holds every field either schedule-entry shape may carry.
type rawPaymentFields struct {
	PaymentNumber  looseNumber `json:"paymentNumber"`
	DueDate        looseString `json:"dueDate"`
	ExpectedAmount looseNumber `json:"expectedAmount"`
	PaidAmount     looseNumber `json:"paidAmount"`
	Amount         looseNumber `json:"amount"`
	Status         looseString `json:"status"`
	PaidDate       looseString `json:"paidDate"`
	Method         looseString `json:"method"`
}

// RawPayment is one stored schedule entry in one of its historical shapes.
type RawPayment interface {
	canonical(plan planContext) Payment
}

// RawPaymentV1 is the legacy single-amount entry.
type RawPaymentV1 struct{ rawPaymentFields }

// RawPaymentV2 is the canonical expected/paid entry.
type RawPaymentV2 struct{ rawPaymentFields }

// planContext carries the plan-level values entry mapping depends on.
type planContext struct {
	amountPerPayment Money
	downPayment      Money
}

func (p RawPaymentV1) canonical(plan planContext) Payment {
	expected := p.Amount.money()
	paid := NewMoney(0)
	switch {
	case p.PaidAmount.set:
		paid = p.PaidAmount.money()
	case p.Status.value == string(PaymentPaid):
		paid = expected
	}
	return p.common(plan, expected, paid)
}

func (p RawPaymentV2) canonical(plan planContext) Payment {
	expected := p.ExpectedAmount.moneyOr(plan.amountPerPayment)
	return p.common(plan, expected, p.PaidAmount.money())
}

func (f rawPaymentFields) common(plan planContext, expected, paid Money) Payment {
	number := f.PaymentNumber.int()

	status := PaymentStatus(f.Status.value)
	if !status.Valid() {
		status = PaymentPending
	}

	method := PaymentMethod(f.Method.value)
	if !method.Valid() {
		method = ""
	}

	return Payment{
		PaymentNumber:  number,
		DueDate:        f.DueDate.value,
		ExpectedAmount: expected,
		PaidAmount:     paid,
		Status:         status,
		Type:           deriveType(number, plan.downPayment),
		PaidDate:       f.PaidDate.value,
		Method:         method,
	}
}

// deriveType classifies entry 1 as the down payment only when the plan has one.
func deriveType(number int, downPayment Money) PaymentType {
	if number == 1 && downPayment.IsPositive() {
		return TypeDownPayment
	}
	return TypeInstallment
}

func decodeRawPayment(data json.RawMessage) (RawPayment, bool) {
	if !isObject(data) {
		return nil, false
	}
	var f rawPaymentFields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, false
	}
	if f.Amount.set && !f.ExpectedAmount.set {
		return RawPaymentV1{f}, true
	}
	return RawPaymentV2{f}, true
}

// rawSchedule decodes the "payments" array, dropping entries that are not objects.
type rawSchedule []RawPayment

func (s *rawSchedule) UnmarshalJSON(data []byte) error {
	*s = nil
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil
	}
	for _, e := range elems {
		if p, ok := decodeRawPayment(e); ok {
			*s = append(*s, p)
		}
	}
	return nil
}

// RawPlan is a stored plan record before normalization.
type RawPlan struct {
	ID               looseString `json:"id"`
	Customer         rawCustomer `json:"customer"`
	Total            looseNumber `json:"total"`
	DownPayment      looseNumber `json:"downPayment"`
	RemainingBalance looseNumber `json:"remainingBalance"`
	NumberOfPayments looseNumber `json:"numberOfPayments"`
	AmountPerPayment looseNumber `json:"amountPerPayment"`
	PaymentFrequency looseString `json:"paymentFrequency"`
	StartDate        looseString `json:"startDate"`
	Status           looseString `json:"status"`
	Payments         rawSchedule `json:"payments"`
	Version          looseNumber `json:"version"`
}

// Canonical maps a raw record to an InstallmentPlan.
func (r RawPlan) Canonical() InstallmentPlan {
	total := r.Total.money()
	down := r.DownPayment.money()

	remaining := r.RemainingBalance.moneyOr(total.Sub(down).NonNegative())

	status := PlanStatus(r.Status.value)
	if !status.Valid() {
		status = PlanActive
	}

	name := r.Customer.Name.value
	if name == "" {
		name = UnknownCustomer
	}

	count := r.NumberOfPayments.int()
	if count < 0 {
		count = 0
	}
	version := r.Version.int()
	if version < 0 {
		version = 0
	}

	ctx := planContext{amountPerPayment: r.AmountPerPayment.money(), downPayment: down}
	payments := make([]Payment, 0, len(r.Payments))
	for _, rp := range r.Payments {
		payments = append(payments, rp.canonical(ctx))
	}
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].PaymentNumber < payments[j].PaymentNumber
	})

	return InstallmentPlan{
		ID: r.ID.value,
		Customer: Customer{
			Name:  name,
			Email: r.Customer.Email.value,
			Phone: r.Customer.Phone.value,
		},
		Total:            total,
		DownPayment:      down,
		RemainingBalance: remaining,
		NumberOfPayments: count,
		AmountPerPayment: ctx.amountPerPayment,
		PaymentFrequency: r.PaymentFrequency.value,
		StartDate:        r.StartDate.value,
		Status:           status,
		Payments:         payments,
		Version:          version,
	}
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// NormalizePlans parses the installment_plans blob. It never fails: input
// that is not a JSON array yields an empty set.
func NormalizePlans(raw []byte) []InstallmentPlan {
	plans := []InstallmentPlan{}
	for _, elem := range decodeArray(raw) {
		if !isObject(elem) {
			continue
		}
		var rp RawPlan
		if err := json.Unmarshal(elem, &rp); err != nil {
			continue
		}
		plans = append(plans, rp.Canonical())
	}
	return plans
}

// NormalizeSales parses the pos_transactions blob with the same recovery
// rules. Records that do not decode are skipped.
func NormalizeSales(raw []byte) []Transaction {
	sales := []Transaction{}
	for _, elem := range decodeArray(raw) {
		if !isObject(elem) {
			continue
		}
		var tx Transaction
		if err := json.Unmarshal(elem, &tx); err != nil {
			continue
		}
		sales = append(sales, tx)
	}
	return sales
}

// MarshalPlans encodes canonical plans for the installment_plans key.
func MarshalPlans(plans []InstallmentPlan) ([]byte, error) {
	if plans == nil {
		plans = []InstallmentPlan{}
	}
	return json.Marshal(plans)
}

func decodeArray(raw []byte) []json.RawMessage {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	return elems
}

func isObject(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

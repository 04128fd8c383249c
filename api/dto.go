/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Stored records keep
  the POS's camelCase field names; the API speaks snake_case and adds
  derived fields (display status, next due date, settled flag).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts are JSON numbers with two decimals (ledger.Money). The KPI
  collection rate is a plain number.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/warp/pos-ledger/ledger"
)

// =============================================================================
// PLANS
// =============================================================================

type CustomerDTO struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// PlanDTO represents an installment plan in API responses.
type PlanDTO struct {
	ID               string       `json:"id"`
	Customer         CustomerDTO  `json:"customer"`
	Total            ledger.Money `json:"total"`
	DownPayment      ledger.Money `json:"down_payment"`
	RemainingBalance ledger.Money `json:"remaining_balance"`
	NumberOfPayments int          `json:"number_of_payments"`
	AmountPerPayment ledger.Money `json:"amount_per_payment"`
	PaymentFrequency string       `json:"payment_frequency"`
	StartDate        string       `json:"start_date"`
	Status           string       `json:"status"`
	Version          int          `json:"version"`
	NextDueDate      string       `json:"next_due_date,omitempty"`
	Overdue          bool         `json:"overdue"`
	Payments         []PaymentDTO `json:"payments"`
}

// PaymentDTO is one schedule entry. DisplayStatus shows pending entries past
// their due date as overdue; Status is what is stored.
type PaymentDTO struct {
	PaymentNumber  int          `json:"payment_number"`
	DueDate        string       `json:"due_date"`
	ExpectedAmount ledger.Money `json:"expected_amount"`
	PaidAmount     ledger.Money `json:"paid_amount"`
	Outstanding    ledger.Money `json:"outstanding"`
	Status         string       `json:"status"`
	DisplayStatus  string       `json:"display_status"`
	Type           string       `json:"type"`
	PaidDate       string       `json:"paid_date,omitempty"`
	Method         string       `json:"method,omitempty"`
}

func toPlanDTO(p ledger.InstallmentPlan, now time.Time) PlanDTO {
	dto := PlanDTO{
		ID: p.ID,
		Customer: CustomerDTO{
			Name:  p.Customer.Name,
			Email: p.Customer.Email,
			Phone: p.Customer.Phone,
		},
		Total:            p.Total,
		DownPayment:      p.DownPayment,
		RemainingBalance: p.RemainingBalance,
		NumberOfPayments: p.NumberOfPayments,
		AmountPerPayment: p.AmountPerPayment,
		PaymentFrequency: p.PaymentFrequency,
		StartDate:        p.StartDate,
		Status:           string(p.Status),
		Version:          p.Version,
		Overdue:          p.Status == ledger.PlanActive && ledger.IsOverdue(p, now),
		Payments:         make([]PaymentDTO, len(p.Payments)),
	}
	if due, ok := ledger.NextDueDate(p); ok {
		dto.NextDueDate = due
	}
	for i, pay := range p.Payments {
		dto.Payments[i] = PaymentDTO{
			PaymentNumber:  pay.PaymentNumber,
			DueDate:        pay.DueDate,
			ExpectedAmount: pay.ExpectedAmount,
			PaidAmount:     pay.PaidAmount,
			Outstanding:    pay.Outstanding(),
			Status:         string(pay.Status),
			DisplayStatus:  string(ledger.DisplayStatus(pay, now)),
			Type:           string(pay.Type),
			PaidDate:       pay.PaidDate,
			Method:         string(pay.Method),
		}
	}
	return dto
}

func toPlanDTOs(plans []ledger.InstallmentPlan, now time.Time) []PlanDTO {
	dtos := make([]PlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toPlanDTO(p, now)
	}
	return dtos
}

// =============================================================================
// PAYMENTS
// =============================================================================

// RecordPaymentRequest is the body of POST /api/plans/{id}/payments.
// Amount accepts a number or a numeric string.
type RecordPaymentRequest struct {
	PaymentNumber   int          `json:"payment_number"`
	Amount          ledger.Money `json:"amount"`
	Method          string       `json:"method"`
	IdempotencyKey  string       `json:"idempotency_key,omitempty"`
	ExpectedVersion *int         `json:"expected_version,omitempty"`
}

type InstallmentTransactionDTO struct {
	ID                    string       `json:"id"`
	PlanID                string       `json:"plan_id"`
	PaymentNumber         int          `json:"payment_number"`
	CustomerName          string       `json:"customer_name"`
	AmountPaid            ledger.Money `json:"amount_paid"`
	PaymentMethod         string       `json:"payment_method"`
	RemainingBalanceAfter ledger.Money `json:"remaining_balance_after"`
	Timestamp             string       `json:"timestamp"`
	IdempotencyKey        string       `json:"idempotency_key,omitempty"`
}

func toTransactionDTO(tx ledger.InstallmentTransaction) InstallmentTransactionDTO {
	return InstallmentTransactionDTO{
		ID:                    tx.ID,
		PlanID:                tx.PlanID,
		PaymentNumber:         tx.PaymentNumber,
		CustomerName:          tx.Customer.Name,
		AmountPaid:            tx.AmountPaid,
		PaymentMethod:         string(tx.PaymentMethod),
		RemainingBalanceAfter: tx.RemainingBalanceAfter,
		Timestamp:             tx.Timestamp.Format(time.RFC3339),
		IdempotencyKey:        tx.IdempotencyKey,
	}
}

// RecordPaymentResponse is returned after a payment is recorded.
type RecordPaymentResponse struct {
	Plan        PlanDTO                   `json:"plan"`
	Transaction InstallmentTransactionDTO `json:"transaction"`
	Receipt     ledger.Receipt            `json:"receipt"`
	ReceiptText string                    `json:"receipt_text,omitempty"`
}

// =============================================================================
// KPIS
// =============================================================================

type KpisDTO struct {
	ActiveCount        int          `json:"active_count"`
	OverdueCount       int          `json:"overdue_count"`
	TotalActiveBalance ledger.Money `json:"total_active_balance"`
	TotalExpected      ledger.Money `json:"total_expected"`
	CollectionRate     float64      `json:"collection_rate"`
	TotalPlans         int          `json:"total_plans"`
}

func toKpisDTO(k ledger.Kpis) KpisDTO {
	rate, _ := k.CollectionRate.Float64()
	return KpisDTO{
		ActiveCount:        k.ActiveCount,
		OverdueCount:       k.OverdueCount,
		TotalActiveBalance: k.TotalActiveBalance,
		TotalExpected:      k.TotalExpected,
		CollectionRate:     rate,
		TotalPlans:         k.TotalPlans,
	}
}

// =============================================================================
// SALES
// =============================================================================

// SaleDTO is a POS sale with its settled classification.
type SaleDTO struct {
	ID               string        `json:"id"`
	Timestamp        string        `json:"timestamp"`
	CustomerID       string        `json:"customer_id,omitempty"`
	CustomerName     string        `json:"customer_name,omitempty"`
	PaymentMethod    string        `json:"payment_method"`
	Total            ledger.Money  `json:"total"`
	AmountPaid       ledger.Money  `json:"amount_paid"`
	Settled          bool          `json:"settled"`
	RemainingBalance *ledger.Money `json:"remaining_balance,omitempty"`
	CreditBalance    *ledger.Money `json:"credit_balance,omitempty"`
}

func toSaleDTO(tx ledger.Transaction) SaleDTO {
	dto := SaleDTO{
		ID:            tx.ID,
		Timestamp:     tx.Timestamp,
		PaymentMethod: string(tx.PaymentMethod),
		Total:         tx.Total,
		AmountPaid:    tx.AmountPaid,
		Settled:       ledger.IsSettled(tx),
	}
	if tx.Customer != nil {
		dto.CustomerID = tx.Customer.ID
		dto.CustomerName = tx.Customer.Name
	}
	if tx.InstallmentPlan != nil {
		rb := tx.InstallmentPlan.RemainingBalance
		dto.RemainingBalance = &rb
	}
	if tx.Credit != nil {
		cb := tx.Credit.CreditBalance
		dto.CreditBalance = &cb
	}
	return dto
}

type SalesStatsDTO struct {
	TotalOrders            int            `json:"total_orders"`
	TotalSalesValue        ledger.Money   `json:"total_sales_value"`
	TotalCompletedSales    ledger.Money   `json:"total_completed_sales"`
	OwingTransactions      int            `json:"owing_transactions"`
	OutstandingCredit      ledger.Money   `json:"outstanding_credit"`
	CreditSales            int            `json:"credit_sales"`
	ActiveInstallments     ledger.Money   `json:"active_installments"`
	ActiveInstallmentPlans int            `json:"active_installment_plans"`
	MethodBreakdown        map[string]int `json:"payment_method_breakdown"`
}

func toSalesStatsDTO(s ledger.SalesStats) SalesStatsDTO {
	breakdown := make(map[string]int, len(s.MethodBreakdown))
	for m, n := range s.MethodBreakdown {
		breakdown[string(m)] = n
	}
	return SalesStatsDTO{
		TotalOrders:            s.TotalOrders,
		TotalSalesValue:        s.TotalSalesValue,
		TotalCompletedSales:    s.TotalCompletedSales,
		OwingTransactions:      s.OwingTransactions,
		OutstandingCredit:      s.OutstandingCredit,
		CreditSales:            s.CreditSales,
		ActiveInstallments:     s.ActiveInstallments,
		ActiveInstallmentPlans: s.ActiveInstallmentPlans,
		MethodBreakdown:        breakdown,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

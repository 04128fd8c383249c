package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// RECEIPT HAND-OFF - Engine supplies data, the renderer supplies markup
// =============================================================================

// Receipt is the printable data for one recorded installment payment.
type Receipt struct {
	TransactionID string        `json:"transactionId"`
	IssuedAt      time.Time     `json:"issuedAt"`
	Customer      Customer      `json:"customer"`
	Items         []ReceiptItem `json:"items"`
	Subtotal      Money         `json:"subtotal"`
	Tax           Money         `json:"tax"`
	Total         Money         `json:"total"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	AmountPaid    Money         `json:"amountPaid"`
	Change        Money         `json:"change"`
	Plan          ReceiptPlan   `json:"installmentPlan"`
}

type ReceiptItem struct {
	ID          string `json:"id"`
	ProductID   string `json:"productId"`
	Description string `json:"productName"`
	Variant     string `json:"variantName"`
	SKU         string `json:"sku"`
	Price       Money  `json:"price"`
	Quantity    int    `json:"quantity"`
}

// ReceiptPlan is the plan summary printed under the line items.
type ReceiptPlan struct {
	NumberOfPayments int    `json:"numberOfPayments"`
	AmountPerPayment Money  `json:"amountPerPayment"`
	PaymentFrequency string `json:"paymentFrequency"`
	DownPayment      Money  `json:"downPayment"`
	RemainingBalance Money  `json:"remainingBalance"`
}

// Renderer turns receipt data into a printable document. Implementations
// live outside the engine and must not reach back into it.
type Renderer interface {
	Render(r Receipt) ([]byte, error)
}

// RendererFunc adapts a plain function to Renderer.
type RendererFunc func(r Receipt) ([]byte, error)

func (f RendererFunc) Render(r Receipt) ([]byte, error) { return f(r) }

// ReceiptFromTransaction builds receipt data from an audit record. It serves
// both the receipt printed at recording time and later reprints.
func ReceiptFromTransaction(tx InstallmentTransaction) Receipt {
	return Receipt{
		TransactionID: tx.ID,
		IssuedAt:      tx.Timestamp,
		Customer:      tx.Customer,
		Items: []ReceiptItem{{
			ID:          tx.ID,
			ProductID:   tx.PlanID,
			Description: fmt.Sprintf("Installment Payment #%d", tx.PaymentNumber),
			Variant:     tx.PaymentFrequency,
			SKU:         fmt.Sprintf("INST-%d", tx.PaymentNumber),
			Price:       tx.AmountPaid,
			Quantity:    1,
		}},
		Subtotal:      tx.AmountPaid,
		Tax:           NewMoney(0),
		Total:         tx.AmountPaid,
		PaymentMethod: tx.PaymentMethod,
		AmountPaid:    tx.AmountPaid,
		Change:        NewMoney(0),
		Plan: ReceiptPlan{
			NumberOfPayments: tx.NumberOfPayments,
			AmountPerPayment: tx.AmountPerPayment,
			PaymentFrequency: tx.PaymentFrequency,
			DownPayment:      tx.DownPayment,
			RemainingBalance: tx.RemainingBalanceAfter,
		},
	}
}

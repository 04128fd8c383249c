// Package receipt renders ledger receipts for the POS printer.
package receipt

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/warp/pos-ledger/ledger"
)

// TextRenderer prints a fixed-width plain-text receipt.
type TextRenderer struct {
	ShopName string
}

func NewTextRenderer(shopName string) *TextRenderer {
	return &TextRenderer{ShopName: shopName}
}

func (t *TextRenderer) Render(r ledger.Receipt) ([]byte, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)

	if t.ShopName != "" {
		fmt.Fprintf(&buf, "%s\n", t.ShopName)
	}
	fmt.Fprintf(&buf, "Receipt %s\n", r.TransactionID)
	fmt.Fprintf(&buf, "%s\n", r.IssuedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&buf, "Customer: %s\n\n", r.Customer.Name)

	for _, item := range r.Items {
		fmt.Fprintf(w, "%s\t%d x\t%s\t\n", item.Description, item.Quantity, item.Price)
	}
	fmt.Fprintf(w, "Subtotal\t\t%s\t\n", r.Subtotal)
	fmt.Fprintf(w, "Tax\t\t%s\t\n", r.Tax)
	fmt.Fprintf(w, "Total\t\t%s\t\n", r.Total)
	fmt.Fprintf(w, "Paid (%s)\t\t%s\t\n", r.PaymentMethod, r.AmountPaid)
	fmt.Fprintf(w, "Change\t\t%s\t\n", r.Change)
	if err := w.Flush(); err != nil {
		return nil, err
	}

	fmt.Fprintf(&buf, "\nInstallment plan: %d %s payments of %s\n",
		r.Plan.NumberOfPayments, r.Plan.PaymentFrequency, r.Plan.AmountPerPayment)
	fmt.Fprintf(&buf, "Down payment: %s\n", r.Plan.DownPayment)
	fmt.Fprintf(&buf, "Remaining balance: %s\n", r.Plan.RemainingBalance)
	return buf.Bytes(), nil
}

var _ ledger.Renderer = (*TextRenderer)(nil)

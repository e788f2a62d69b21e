package receipt

import "strings"

// Line is one order line as supplied by the order source.
type Line struct {
	ID int64 `json:"id"`
	// Name is the display name; long names are split across printer
	// lines.
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	// SubtotalInclTax is the tax-inclusive line subtotal, printed on
	// non-fiscal receipts.
	SubtotalInclTax float64 `json:"subtotal_incl_tax"`
	// TaxID identifies the line's tax for VAT class mapping; empty maps
	// to the configured default class.
	TaxID string `json:"tax_id,omitempty"`
	// Refund marks a storno (correction) line.
	Refund bool `json:"refund,omitempty"`
}

// Payment is one registered payment on the order.
type Payment struct {
	Amount float64 `json:"amount"`
	// Cash is true for cash-journal payments (device payment type 0);
	// everything else goes to payment type 1.
	Cash bool `json:"cash"`
}

// Order is one point-of-sale transaction to fiscalize. The outcome
// fields are the mutable slot the workflow persists into; a non-empty
// ReceiptNumber is the durable already-printed guard.
type Order struct {
	Reference string    `json:"reference"`
	Total     float64   `json:"total"`
	Lines     []Line    `json:"lines"`
	Payments  []Payment `json:"payments"`

	ReceiptNumber string    `json:"receipt_number,omitempty"`
	Before        *Counters `json:"before,omitempty"`
	After         *Counters `json:"after,omitempty"`
}

// Counters is a snapshot of the device receipt counters, kept before and
// after the print for audit.
type Counters struct {
	LastReceiptNum      int `json:"last_receipt_num"`
	TotalReceiptCounter int `json:"total_receipt_counter"`
}

// Outcome is the durable result of a successful print.
type Outcome struct {
	ReceiptNumber string
	Before        Counters
	After         Counters
}

// barcodeData is the printable reference: the last whitespace-separated
// field of the order reference.
func (o *Order) barcodeData() string {
	fields := strings.Fields(o.Reference)
	if len(fields) == 0 {
		return o.Reference
	}
	return fields[len(fields)-1]
}

// saleLines returns the non-refund lines in their original order.
func (o *Order) saleLines() []Line {
	var out []Line
	for _, l := range o.Lines {
		if !l.Refund {
			out = append(out, l)
		}
	}
	return out
}

// refundLines returns the storno lines in their original order.
func (o *Order) refundLines() []Line {
	var out []Line
	for _, l := range o.Lines {
		if l.Refund {
			out = append(out, l)
		}
	}
	return out
}

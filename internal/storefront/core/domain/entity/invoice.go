package entity

import "github.com/shopspring/decimal"

// PaymentMethod is the tag attached to an invoice. The backend wire format
// uses "stripe" where the domain says card; the backend adapter translates.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

// Valid reports whether the method is one of the closed set.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentCash
}

// InvoiceItem is one invoice line. Unit prices go over the wire formatted to
// two decimal places, see WireUnitPrice.
type InvoiceItem struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// WireUnitPrice is the unit price as the backend expects it: a string fixed
// to two decimal places.
func (it InvoiceItem) WireUnitPrice() string {
	return it.UnitPrice.StringFixed(2)
}

// InvoiceDraft is the order this layer constructs, once, per successful
// checkout. It is never mutated after creation; the backend owns the invoice
// from then on.
type InvoiceDraft struct {
	ClientID        int64
	SellerDPI       string
	ClientDPI       string
	PaymentMethod   PaymentMethod
	PaymentIntentID string
	Items           []InvoiceItem
}

// Total is the draft's amount, derived from its items.
func (d InvoiceDraft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range d.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// InvoiceItemsFromCart snapshots the cart's lines as invoice items, in
// display order.
func InvoiceItemsFromCart(c *Cart) []InvoiceItem {
	lines := c.Lines()
	items := make([]InvoiceItem, len(lines))
	for i, l := range lines {
		items[i] = InvoiceItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.Price,
		}
	}
	return items
}

// PaymentIntent is the backend's answer to a create-payment-intent call.
// The client secret is opaque and authorises confirmation of exactly one
// charge.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

// CardDetails is the tokenisable card input collected during checkout. It is
// passed straight to the payment processor and never persisted or logged.
type CardDetails struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	CVC      string `json:"cvc"`
}

// PaymentResult is the processor's verdict for one confirmation attempt.
// Message carries the processor's error text verbatim when Succeeded is
// false; there are no retries, recovery is user-initiated resubmission.
type PaymentResult struct {
	Succeeded bool
	IntentID  string
	Message   string
}

package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Column names of the payments sheet after header normalization.
const (
	ColProformaCode = "proforma_code"
	ColAmountPaid   = "amount_paid"
	ColClient       = "client"
	ColUnit         = "unit"
	ColItemType     = "item_type"
	ColItemCode     = "item_code"
	ColPaymentDate  = "payment_date"
)

// RequiredColumns must be present in the payments sheet.
var RequiredColumns = []string{ColProformaCode, ColAmountPaid}

// Payment is one payment event read from the sheet.
type Payment struct {
	ProformaCode string
	Client       string
	Unit         string
	ItemType     string
	ItemCode     string
	Amount       decimal.NullDecimal
	Date         *time.Time
}

// Batch is every payment of one sheet. HasItemColumns records whether the sheet
// carried both item_type and item_code.
type Batch struct {
	Payments       []Payment
	HasItemColumns bool
}

// Aggregate sums payments sharing a key.
type Aggregate struct {
	TotalPaid   decimal.Decimal
	Count       int
	LastPayment *time.Time
}

type ItemKey struct {
	ProformaCode string
	ItemType     string
	ItemCode     string
}

func (a Aggregate) add(p Payment) Aggregate {
	if p.Amount.Valid {
		a.TotalPaid = a.TotalPaid.Add(p.Amount.Decimal)
		a.Count++
	}

	if p.Date != nil && (a.LastPayment == nil || p.Date.After(*a.LastPayment)) {
		a.LastPayment = p.Date
	}

	return a
}

package cobranza

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cobranzas/internal/payment"
	"github.com/MrJamesThe3rd/cobranzas/internal/sale"
)

// Item types as they appear, lowercased, in the payments sheet.
const (
	ItemDepartment = "departamento"
	ItemParking    = "estacionamiento"
	ItemStorage    = "deposito"
)

// ItemRow is one sub-item of a sale with the payments tagged to it.
type ItemRow struct {
	ProformaCode string
	ItemType     string
	ItemCode     string
	ItemPrice    decimal.Decimal
	Client       string
	Project      string
	Advisor      string

	TotalPaid    decimal.Decimal
	PaymentCount int
	LastPayment  *time.Time
	Debt         decimal.Decimal
	Progress     float64
}

// ExpandItems splits every sale into its department plus, when coded, its parking
// and storage, and attaches item-level payments to each.
func ExpandItems(sales []sale.Sale, items map[payment.ItemKey]payment.Aggregate) []ItemRow {
	rows := make([]ItemRow, 0, len(sales))

	for _, s := range sales {
		rows = append(rows, newItemRow(s, ItemDepartment, s.UnitCode, s.UnitPrice, items))

		if s.ParkingCode != "" {
			rows = append(rows, newItemRow(s, ItemParking, s.ParkingCode, s.ParkingPrice, items))
		}

		if s.StorageCode != "" {
			rows = append(rows, newItemRow(s, ItemStorage, s.StorageCode, s.StoragePrice, items))
		}
	}

	return rows
}

func newItemRow(s sale.Sale, itemType, code string, price decimal.Decimal, items map[payment.ItemKey]payment.Aggregate) ItemRow {
	agg := items[payment.ItemKey{ProformaCode: s.ProformaCode, ItemType: itemType, ItemCode: code}]

	return ItemRow{
		ProformaCode: s.ProformaCode,
		ItemType:     itemType,
		ItemCode:     code,
		ItemPrice:    price,
		Client:       s.Client,
		Project:      s.Project,
		Advisor:      s.Advisor,
		TotalPaid:    agg.TotalPaid,
		PaymentCount: agg.Count,
		LastPayment:  agg.LastPayment,
		Debt:         Debt(price, agg.TotalPaid),
		Progress:     Progress(price, agg.TotalPaid),
	}
}

package sale

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cobranzas/internal/tabular"
)

// Column names produced by the bundled warehouse query.
const (
	ColProformaCode = "proforma_code"
	ColClient       = "client"
	ColProject      = "project"
	ColAdvisor      = "advisor"
	ColUnitCode     = "unit_code"
	ColPurchaseType = "purchase_type"
	ColTotalPrice   = "total_price"
	ColUnitPrice    = "unit_price"
	ColParkingCode  = "parking_code"
	ColParkingPrice = "parking_price"
	ColStorageCode  = "storage_code"
	ColStoragePrice = "storage_price"
)

// RequiredColumns are checked before any arithmetic so a renamed column fails
// loudly instead of turning every price into zero.
var RequiredColumns = []string{ColProformaCode, ColTotalPrice}

// Sale is one signed sale (minuta). Raw keeps the warehouse row as extracted.
type Sale struct {
	ProformaCode string
	Client       string
	Project      string
	Advisor      string
	UnitCode     string
	PurchaseType string
	TotalPrice   decimal.Decimal
	UnitPrice    decimal.Decimal
	ParkingCode  string
	ParkingPrice decimal.Decimal
	StorageCode  string
	StoragePrice decimal.Decimal

	Raw []string
}

// FromTable converts warehouse rows. Prices that are blank or non-numeric are zero.
func FromTable(t *tabular.Table) ([]Sale, error) {
	if err := t.Require("warehouse sales", RequiredColumns...); err != nil {
		return nil, err
	}

	sales := make([]Sale, 0, t.Len())

	for i, row := range t.Rows {
		sales = append(sales, Sale{
			ProformaCode: t.Cell(i, ColProformaCode),
			Client:       t.Cell(i, ColClient),
			Project:      t.Cell(i, ColProject),
			Advisor:      t.Cell(i, ColAdvisor),
			UnitCode:     t.Cell(i, ColUnitCode),
			PurchaseType: t.Cell(i, ColPurchaseType),
			TotalPrice:   tabular.AmountOrZero(t.Cell(i, ColTotalPrice)),
			UnitPrice:    tabular.AmountOrZero(t.Cell(i, ColUnitPrice)),
			ParkingCode:  t.Cell(i, ColParkingCode),
			ParkingPrice: tabular.AmountOrZero(t.Cell(i, ColParkingPrice)),
			StorageCode:  t.Cell(i, ColStorageCode),
			StoragePrice: tabular.AmountOrZero(t.Cell(i, ColStoragePrice)),
			Raw:          row,
		})
	}

	return sales, nil
}

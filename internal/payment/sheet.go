package payment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/cobranzas/internal/tabular"
)

// DefaultSheet is the worksheet holding payments.
const DefaultSheet = "pagos"

// SheetReader reads payment sheets from .xlsx workbooks.
type SheetReader struct{}

func NewSheetReader() *SheetReader {
	return &SheetReader{}
}

// ReadSheet returns the named sheet as a table. The first row is the header and
// its names are trimmed and lowercased. Cells are read raw, so dates arrive as
// Excel serial numbers and amounts without display formatting.
func (SheetReader) ReadSheet(path, sheet string) (*tabular.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook %s has no sheet %q", path, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	if len(rows) == 0 {
		return tabular.New(nil, nil), nil
	}

	t := tabular.New(tabular.NormalizeHeader(rows[0]), nil)

	for _, row := range rows[1:] {
		if isRowEmpty(row) {
			continue
		}

		t.Append(row)
	}

	return t, nil
}

func isRowEmpty(row []string) bool {
	for _, c := range row {
		if !tabular.Blank(c) {
			return false
		}
	}

	return true
}

// FromTable converts sheet rows into payments. Blank amounts are kept as nulls
// and do not count as payments; non-numeric amounts are an error. Dates that
// cannot be parsed become null.
func FromTable(t *tabular.Table) (Batch, error) {
	if err := t.Require("payments sheet", RequiredColumns...); err != nil {
		return Batch{}, err
	}

	b := Batch{
		Payments:       make([]Payment, 0, t.Len()),
		HasItemColumns: t.Has(ColItemType) && t.Has(ColItemCode),
	}

	for i := range t.Rows {
		amount, ok, err := tabular.ParseAmount(t.Cell(i, ColAmountPaid))
		if err != nil {
			// +2: 1-based, plus the header row.
			return Batch{}, fmt.Errorf("row %d: invalid %s %q", i+2, ColAmountPaid, t.Cell(i, ColAmountPaid))
		}

		b.Payments = append(b.Payments, Payment{
			ProformaCode: t.Cell(i, ColProformaCode),
			Client:       t.Cell(i, ColClient),
			Unit:         t.Cell(i, ColUnit),
			ItemType:     t.Cell(i, ColItemType),
			ItemCode:     t.Cell(i, ColItemCode),
			Amount:       decimal.NullDecimal{Decimal: amount, Valid: ok},
			Date:         parseDate(t.Cell(i, ColPaymentDate)),
		})
	}

	return b, nil
}

// parseDate accepts text dates and Excel serial numbers.
func parseDate(s string) *time.Time {
	if d, ok := tabular.ParseDate(s); ok {
		return &d
	}

	serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || serial <= 0 {
		return nil
	}

	d, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return nil
	}

	return &d
}

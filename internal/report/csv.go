package report

import (
	"encoding/csv"
	"io"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cobranzas/internal/cobranza"
	"github.com/MrJamesThe3rd/cobranzas/internal/sale"
	"github.com/MrJamesThe3rd/cobranzas/internal/tabular"
)

var reportColumns = []string{"total_paid", "payment_count", "last_payment_date", "pending_debt", "progress", "priority"}

var itemColumns = []string{
	"proforma_code", "item_type", "item_code", "item_price", "client", "project", "advisor",
	"total_paid", "payment_count", "last_payment_date", "item_debt", "item_progress",
}

// WriteReportCSV writes every sale column as extracted, with total_price replaced by
// its numeric value, followed by the reconciliation columns.
func WriteReportCSV(w io.Writer, saleColumns []string, rows []cobranza.ReportRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(append(slices.Clone(saleColumns), reportColumns...)); err != nil {
		return err
	}

	priceIdx := slices.Index(saleColumns, sale.ColTotalPrice)

	for _, r := range rows {
		record := make([]string, len(saleColumns), len(saleColumns)+len(reportColumns))
		copy(record, r.Raw)

		if priceIdx >= 0 {
			record[priceIdx] = money(r.TotalPrice)
		}

		record = append(record,
			money(r.TotalPaid),
			strconv.Itoa(r.PaymentCount),
			tabular.FormatDate(r.LastPayment),
			money(r.PendingDebt),
			ratio(r.Progress),
			string(r.Priority),
		)

		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

func WriteItemsCSV(w io.Writer, rows []cobranza.ItemRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(itemColumns); err != nil {
		return err
	}

	for _, r := range rows {
		if err := cw.Write([]string{
			r.ProformaCode,
			r.ItemType,
			r.ItemCode,
			money(r.ItemPrice),
			r.Client,
			r.Project,
			r.Advisor,
			money(r.TotalPaid),
			strconv.Itoa(r.PaymentCount),
			tabular.FormatDate(r.LastPayment),
			money(r.Debt),
			ratio(r.Progress),
		}); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func ratio(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

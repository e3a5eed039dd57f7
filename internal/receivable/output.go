package receivable

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cobranzas/internal/tabular"
)

var outputColumns = []string{"client_anon", "unit_anon", "item_type", "total_receivable", "due_date"}

// KPIs is the content of resumen_kpis.json.
type KPIs struct {
	Rows            int     `json:"rows"`
	DistinctClients int     `json:"distinct_clients"`
	TotalReceivable float64 `json:"total_receivable"`
	MaxDueDate      *string `json:"max_due_date"`
}

// ComputeKPIs summarizes the aggregated accounts. MaxDueDate is nil when no
// account has a due date.
func ComputeKPIs(accounts []Account) KPIs {
	var (
		total   decimal.Decimal
		maxDue  *time.Time
		clients = make(map[string]struct{})
	)

	for _, a := range accounts {
		clients[a.ClientToken] = struct{}{}
		total = total.Add(a.TotalReceivable)
		maxDue = tabular.MaxDate(maxDue, a.DueDate)
	}

	k := KPIs{
		Rows:            len(accounts),
		DistinctClients: len(clients),
		TotalReceivable: total.InexactFloat64(),
	}

	if maxDue != nil {
		d := tabular.FormatDate(maxDue)
		k.MaxDueDate = &d
	}

	return k
}

func WriteCSV(w io.Writer, accounts []Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(outputColumns); err != nil {
		return err
	}

	for _, a := range accounts {
		if err := cw.Write([]string{
			a.ClientToken,
			a.UnitToken,
			a.ItemType,
			a.TotalReceivable.StringFixed(2),
			tabular.FormatDate(a.DueDate),
		}); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

type parquetRow struct {
	ClientAnon      string  `parquet:"client_anon"`
	UnitAnon        string  `parquet:"unit_anon"`
	ItemType        string  `parquet:"item_type"`
	TotalReceivable float64 `parquet:"total_receivable"`
	DueDate         *string `parquet:"due_date"`
}

// WriteParquet writes the columnar copy of the accounts.
func WriteParquet(path string, accounts []Account) error {
	rows := make([]parquetRow, 0, len(accounts))

	for _, a := range accounts {
		row := parquetRow{
			ClientAnon:      a.ClientToken,
			UnitAnon:        a.UnitToken,
			ItemType:        a.ItemType,
			TotalReceivable: a.TotalReceivable.InexactFloat64(),
		}

		if a.DueDate != nil {
			d := tabular.FormatDate(a.DueDate)
			row.DueDate = &d
		}

		rows = append(rows, row)
	}

	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("writing parquet: %w", err)
	}

	return nil
}

package receivable

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cobranzas/internal/anonymize"
	"github.com/MrJamesThe3rd/cobranzas/internal/encoding"
	"github.com/MrJamesThe3rd/cobranzas/internal/tabular"
)

// Input columns of the receivables export.
const (
	ColStatus          = "status"
	ColFirstNames      = "client_first_names"
	ColLastNames       = "client_last_names"
	ColDocument        = "client_document"
	ColProformaCode    = "proforma_code"
	ColItemType        = "item_type"
	ColScheduledAmount = "scheduled_amount"
	ColDueDate         = "due_date"
)

var RequiredColumns = []string{ColStatus, ColProformaCode, ColItemType, ColScheduledAmount}

// openStatuses are the installment states still owed. The Spanish labels come
// from older exports.
var openStatuses = map[string]bool{
	"pending":    true,
	"receivable": true,
	"pendiente":  true,
	"por_cobrar": true,
}

// Record is one scheduled installment, still carrying client PII.
type Record struct {
	Status          string
	FirstNames      string
	LastNames       string
	Document        *string
	ProformaCode    string
	ItemType        string
	ScheduledAmount decimal.Decimal
	DueDate         *time.Time
}

// Anonymized is a Record whose identities have been replaced by tokens.
type Anonymized struct {
	ClientToken string
	UnitToken   string
	ItemType    string
	Amount      decimal.Decimal
	DueDate     *time.Time
}

// Account is the amount receivable per client, unit and item type.
type Account struct {
	ClientToken     string
	UnitToken       string
	ItemType        string
	TotalReceivable decimal.Decimal
	DueDate         *time.Time
}

// Load reads the receivables CSV in whatever charset it was saved with. It returns
// the records and the detected charset.
func Load(r io.Reader) ([]Record, string, error) {
	utf8r, charset, err := encoding.Detect(r)
	if err != nil {
		return nil, "", fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, charset, fmt.Errorf("read csv: %w", err)
	}

	if len(rows) == 0 {
		return nil, charset, &tabular.ValidationError{Source: "receivables csv", Missing: slices.Sorted(slices.Values(RequiredColumns))}
	}

	t := tabular.New(tabular.NormalizeHeader(rows[0]), rows[1:])
	if err := t.Require("receivables csv", RequiredColumns...); err != nil {
		return nil, charset, err
	}

	records := make([]Record, 0, t.Len())

	for i := range t.Rows {
		amount, _, err := tabular.ParseAmount(t.Cell(i, ColScheduledAmount))
		if err != nil {
			return nil, charset, fmt.Errorf("row %d: invalid %s %q", i+2, ColScheduledAmount, t.Cell(i, ColScheduledAmount))
		}

		rec := Record{
			Status:          t.Cell(i, ColStatus),
			FirstNames:      t.Cell(i, ColFirstNames),
			LastNames:       t.Cell(i, ColLastNames),
			ProformaCode:    t.Cell(i, ColProformaCode),
			ItemType:        t.Cell(i, ColItemType),
			ScheduledAmount: amount,
		}

		if doc := t.Cell(i, ColDocument); doc != "" {
			rec.Document = &doc
		}

		if d, ok := tabular.ParseDate(t.Cell(i, ColDueDate)); ok {
			rec.DueDate = &d
		}

		records = append(records, rec)
	}

	return records, charset, nil
}

// Filter keeps installments whose status is still open.
func Filter(records []Record) []Record {
	out := make([]Record, 0, len(records))

	for _, r := range records {
		if openStatuses[strings.ToLower(strings.TrimSpace(r.Status))] {
			out = append(out, r)
		}
	}

	return out
}

// Anonymize drops names, documents and proforma codes in favour of salted tokens.
func Anonymize(records []Record, salt string) []Anonymized {
	out := make([]Anonymized, 0, len(records))

	for _, r := range records {
		out = append(out, Anonymized{
			ClientToken: anonymize.Client(r.FirstNames, r.LastNames, r.Document, salt),
			UnitToken:   anonymize.Unit(r.ProformaCode, salt),
			ItemType:    anonymize.ItemType(r.ItemType),
			Amount:      r.ScheduledAmount,
			DueDate:     r.DueDate,
		})
	}

	return out
}

// Aggregate groups by client, unit and item type, summing amounts and keeping the
// latest due date. Accounts come back sorted by that key.
func Aggregate(rows []Anonymized) []Account {
	type key struct{ client, unit, item string }

	index := make(map[key]int)

	var accounts []Account

	for _, r := range rows {
		k := key{r.ClientToken, r.UnitToken, r.ItemType}

		i, ok := index[k]
		if !ok {
			i = len(accounts)
			index[k] = i
			accounts = append(accounts, Account{ClientToken: r.ClientToken, UnitToken: r.UnitToken, ItemType: r.ItemType})
		}

		accounts[i].TotalReceivable = accounts[i].TotalReceivable.Add(r.Amount)
		accounts[i].DueDate = tabular.MaxDate(accounts[i].DueDate, r.DueDate)
	}

	slices.SortFunc(accounts, func(a, b Account) int {
		return cmp.Or(
			strings.Compare(a.ClientToken, b.ClientToken),
			strings.Compare(a.UnitToken, b.UnitToken),
			strings.Compare(a.ItemType, b.ItemType),
		)
	})

	return accounts
}

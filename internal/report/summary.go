package report

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MrJamesThe3rd/cobranzas/internal/cobranza"
)

// TopN is how many debtors the summary lists.
const TopN = 10

var printer = message.NewPrinter(language.English)

// TopDebts returns up to n rows with the highest pending debt. Ties keep their
// input order.
func TopDebts(rows []cobranza.ReportRow, n int) []cobranza.ReportRow {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b cobranza.ReportRow) int {
		return b.PendingDebt.Cmp(a.PendingDebt)
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	return sorted
}

// BuildSummary renders the collections summary as Markdown.
func BuildSummary(rows []cobranza.ReportRow) string {
	m := cobranza.Summarize(rows)

	lines := []string{
		printer.Sprintf("- **Total pending debt (proxy):** %.2f", m.TotalDebt.InexactFloat64()),
		printer.Sprintf("- **Sales with debt:** %d", m.SalesWithDebt),
		"",
		"**Top 10 debts (proxy):**",
		"",
		"| Proforma | Project | Client | Advisor | Debt | Paid | Total Price | Progress | Purchase Type |",
		"|---|---|---|---|---:|---:|---:|---:|---|",
	}

	for _, r := range TopDebts(rows, TopN) {
		lines = append(lines, printer.Sprintf("| %s | %s | %s | %s | %.2f | %.2f | %.2f | %.1f%% | %s |",
			cell(r.ProformaCode),
			cell(r.Project),
			cell(r.Client),
			cell(r.Advisor),
			r.PendingDebt.InexactFloat64(),
			r.TotalPaid.InexactFloat64(),
			r.TotalPrice.InexactFloat64(),
			r.Progress*100,
			cell(r.PurchaseType),
		))
	}

	return strings.Join(lines, "\n")
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

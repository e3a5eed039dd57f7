// Package cobranza reconciles sales against the payments received for them.
package cobranza

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cobranzas/internal/payment"
	"github.com/MrJamesThe3rd/cobranzas/internal/sale"
)

// Priority buckets pending debt for collection follow-up.
type Priority string

const (
	PriorityNoDebt Priority = "no_debt"
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var (
	lowCeiling    = decimal.NewFromInt(5000)
	mediumCeiling = decimal.NewFromInt(20000)
)

// PriorityFor bands are closed on the upper side: exactly 5000 is low and exactly
// 20000 is medium.
func PriorityFor(debt decimal.Decimal) Priority {
	switch {
	case debt.LessThanOrEqual(decimal.Zero):
		return PriorityNoDebt
	case debt.LessThanOrEqual(lowCeiling):
		return PriorityLow
	case debt.LessThanOrEqual(mediumCeiling):
		return PriorityMedium
	default:
		return PriorityHigh
	}
}

// Debt is price minus paid, never below zero.
func Debt(price, paid decimal.Decimal) decimal.Decimal {
	return decimal.Max(price.Sub(paid), decimal.Zero)
}

// Progress is the paid fraction of price. A zero price yields 0.
func Progress(price, paid decimal.Decimal) float64 {
	if price.IsZero() {
		return 0
	}

	return paid.Div(price).InexactFloat64()
}

// ReportRow is a sale with its proforma-level payments applied.
type ReportRow struct {
	sale.Sale

	TotalPaid    decimal.Decimal
	PaymentCount int
	LastPayment  *time.Time
	PendingDebt  decimal.Decimal
	Progress     float64
	Priority     Priority
}

// Reconcile left-joins sales with proforma-level aggregates, preserving sale order.
// Sales without payments get zero paid and zero count.
func Reconcile(sales []sale.Sale, proforma map[string]payment.Aggregate) []ReportRow {
	rows := make([]ReportRow, 0, len(sales))

	for _, s := range sales {
		agg := proforma[s.ProformaCode]
		debt := Debt(s.TotalPrice, agg.TotalPaid)

		rows = append(rows, ReportRow{
			Sale:         s,
			TotalPaid:    agg.TotalPaid,
			PaymentCount: agg.Count,
			LastPayment:  agg.LastPayment,
			PendingDebt:  debt,
			Progress:     Progress(s.TotalPrice, agg.TotalPaid),
			Priority:     PriorityFor(debt),
		})
	}

	return rows
}

// Metrics summarizes a reconciled report.
type Metrics struct {
	Rows          int
	TotalDebt     decimal.Decimal
	SalesWithDebt int
	MaxDebt       decimal.Decimal
}

func Summarize(rows []ReportRow) Metrics {
	m := Metrics{Rows: len(rows)}

	for _, r := range rows {
		m.TotalDebt = m.TotalDebt.Add(r.PendingDebt)

		if r.PendingDebt.IsPositive() {
			m.SalesWithDebt++
		}

		if r.PendingDebt.GreaterThan(m.MaxDebt) {
			m.MaxDebt = r.PendingDebt
		}
	}

	return m
}

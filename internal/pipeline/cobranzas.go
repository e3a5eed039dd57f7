package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrJamesThe3rd/cobranzas/internal/cobranza"
	"github.com/MrJamesThe3rd/cobranzas/internal/payment"
	"github.com/MrJamesThe3rd/cobranzas/internal/report"
	"github.com/MrJamesThe3rd/cobranzas/internal/sale"
	"github.com/MrJamesThe3rd/cobranzas/internal/stage"
	"github.com/MrJamesThe3rd/cobranzas/internal/tabular"
	"github.com/MrJamesThe3rd/cobranzas/internal/warehouse"
)

// Stage names, also used in artifact file names.
const (
	StageExtractSales    = "extract_warehouse_sales"
	StageExtractPayments = "extract_excel_payments"
	StageTransform       = "transform_cobranzas"
	StageSummary         = "report_summary"
)

// Output files of the cobranzas pipeline.
const (
	SalesExtractFile    = "extract_ventas.csv"
	PaymentsExtractFile = "extract_pagos.csv"
	ReportFile          = "cobranzas_report.csv"
	ItemsReportFile     = "cobranzas_items_report.csv"
	SummaryFile         = "cobranzas_summary.md"
	SnapshotDir         = "snapshots"
	SnapshotPrefix      = "cobranzas"
)

type CobranzasOptions struct {
	ExcelPath string
	OutDir    string
	// SQLPath overrides the bundled sales query when set.
	SQLPath  string
	Sheet    string
	Snapshot bool
}

type CobranzasResult struct {
	Rows         []cobranza.ReportRow
	Items        []cobranza.ItemRow
	Metrics      cobranza.Metrics
	SummaryPath  string
	SnapshotPath string
}

type Cobranzas struct {
	sales    SalesSource
	payments PaymentSource
	settings settings
}

func NewCobranzas(sales SalesSource, payments PaymentSource, opts ...Option) *Cobranzas {
	return &Cobranzas{
		sales:    sales,
		payments: payments,
		settings: newSettings(opts),
	}
}

// Run extracts sales and payments, reconciles them and writes the reports. Each
// stage writes its metrics artifact before its data output. Any failure stops the
// run; artifacts of the stages already finished stay on disk.
func (c *Cobranzas) Run(ctx context.Context, opts CobranzasOptions) (*CobranzasResult, error) {
	if opts.Sheet == "" {
		opts.Sheet = payment.DefaultSheet
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	salesTable, err := c.extractSales(ctx, opts)
	if err != nil {
		return nil, err
	}

	sales, err := sale.FromTable(salesTable)
	if err != nil {
		return nil, err
	}

	paymentsTable, err := c.extractPayments(opts)
	if err != nil {
		return nil, err
	}

	batch, err := payment.FromTable(paymentsTable)
	if err != nil {
		return nil, fmt.Errorf("parsing payments: %w", err)
	}

	res, err := c.transform(opts.OutDir, salesTable.Columns, sales, batch)
	if err != nil {
		return nil, err
	}

	if res.SummaryPath, err = c.summarize(opts.OutDir, res.Rows); err != nil {
		return nil, err
	}

	if opts.Snapshot {
		day := c.settings.now()

		res.SnapshotPath, err = stage.SaveSnapshot(filepath.Join(opts.OutDir, SnapshotDir), SnapshotPrefix, day, func(w io.Writer) error {
			return report.WriteReportCSV(w, salesTable.Columns, res.Rows)
		})
		if err != nil {
			return nil, fmt.Errorf("saving snapshot: %w", err)
		}

		slog.Info("snapshot saved", "path", res.SnapshotPath)
	}

	return res, nil
}

func (c *Cobranzas) extractSales(ctx context.Context, opts CobranzasOptions) (*tabular.Table, error) {
	started := c.settings.now()

	query, label, err := resolveQuery(opts.SQLPath)
	if err != nil {
		return nil, err
	}

	slog.Debug("querying warehouse", "sql_path", label)

	t, err := c.sales.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	metrics := stage.Metrics{}.
		With("rows", t.Len()).
		With("columns", t.Columns).
		With("sql_path", label)

	if err := c.settings.finish(opts.OutDir, StageExtractSales, started, metrics); err != nil {
		return nil, err
	}

	if err := stage.WriteFile(filepath.Join(opts.OutDir, SalesExtractFile), t.WriteCSV); err != nil {
		return nil, err
	}

	return t, nil
}

func resolveQuery(path string) (string, string, error) {
	if path == "" {
		return warehouse.BaseQuery(), warehouse.BaseQueryName, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading sql file: %w", err)
	}

	query := strings.TrimSpace(string(raw))
	if query == "" {
		return "", "", fmt.Errorf("sql file %s is empty", path)
	}

	return query, path, nil
}

// extractPayments writes the stage artifact and the raw extract before checking
// required columns, so a rejected sheet still leaves its diagnostics behind.
func (c *Cobranzas) extractPayments(opts CobranzasOptions) (*tabular.Table, error) {
	started := c.settings.now()

	t, err := c.payments.ReadSheet(opts.ExcelPath, opts.Sheet)
	if err != nil {
		return nil, fmt.Errorf("reading payments: %w", err)
	}

	missing := t.Missing(payment.RequiredColumns...)

	metrics := stage.Metrics{}.
		With("rows", t.Len()).
		With("missing_required_columns", missing).
		With("excel_path", opts.ExcelPath).
		With("sheet", opts.Sheet)

	if err := c.settings.finish(opts.OutDir, StageExtractPayments, started, metrics); err != nil {
		return nil, err
	}

	if err := stage.WriteFile(filepath.Join(opts.OutDir, PaymentsExtractFile), t.WriteCSV); err != nil {
		return nil, err
	}

	if len(missing) > 0 {
		return nil, &tabular.ValidationError{Source: "payments sheet", Missing: missing}
	}

	return t, nil
}

func (c *Cobranzas) transform(dir string, saleColumns []string, sales []sale.Sale, batch payment.Batch) (*CobranzasResult, error) {
	started := c.settings.now()

	res := &CobranzasResult{
		Rows: cobranza.Reconcile(sales, payment.ProformaLevel(batch)),
	}

	items, hasItems := payment.ItemLevel(batch)
	if hasItems {
		res.Items = cobranza.ExpandItems(sales, items)
	}

	res.Metrics = cobranza.Summarize(res.Rows)

	metrics := stage.Metrics{}.
		With("rows_out", res.Metrics.Rows).
		With("total_debt", res.Metrics.TotalDebt.InexactFloat64()).
		With("sales_with_debt", res.Metrics.SalesWithDebt).
		With("max_debt", res.Metrics.MaxDebt.InexactFloat64()).
		With("item_report_generated", hasItems)

	if err := c.settings.finish(dir, StageTransform, started, metrics); err != nil {
		return nil, err
	}

	if hasItems {
		err := stage.WriteFile(filepath.Join(dir, ItemsReportFile), func(w io.Writer) error {
			return report.WriteItemsCSV(w, res.Items)
		})
		if err != nil {
			return nil, err
		}
	} else {
		slog.Debug("payments carry no item detail, skipping item report")
	}

	err := stage.WriteFile(filepath.Join(dir, ReportFile), func(w io.Writer) error {
		return report.WriteReportCSV(w, saleColumns, res.Rows)
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (c *Cobranzas) summarize(dir string, rows []cobranza.ReportRow) (string, error) {
	started := c.settings.now()
	path := filepath.Join(dir, SummaryFile)

	summary := report.BuildSummary(rows)

	if err := c.settings.finish(dir, StageSummary, started, stage.Metrics{}.With("summary_path", path)); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(summary), 0o644); err != nil {
		return "", fmt.Errorf("writing summary: %w", err)
	}

	return path, nil
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/cobranzas/internal/config"
	"github.com/MrJamesThe3rd/cobranzas/internal/logging"
	"github.com/MrJamesThe3rd/cobranzas/internal/payment"
	"github.com/MrJamesThe3rd/cobranzas/internal/pipeline"
	"github.com/MrJamesThe3rd/cobranzas/internal/warehouse"
)

type runFunc func(ctx context.Context, opts pipeline.CobranzasOptions, verbose bool) error

func newCommand(run runFunc) *cobra.Command {
	var (
		opts    pipeline.CobranzasOptions
		verbose bool
	)

	cmd := &cobra.Command{
		Use:           "cobranzas",
		Short:         "Reconcile warehouse sales with the payments sheet and report pending debt",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, verbose)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.ExcelPath, "excel", "", "Path to the payments workbook")
	flags.StringVar(&opts.OutDir, "out", "", "Directory for reports and stage artifacts")
	flags.StringVar(&opts.SQLPath, "sql", "", "SQL file to run instead of the bundled sales query")
	flags.StringVar(&opts.Sheet, "sheet", payment.DefaultSheet, "Worksheet holding the payments")
	flags.BoolVar(&opts.Snapshot, "snapshot", false, "Also write a dated copy of the report under <out>/snapshots")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	_ = cmd.MarkFlagRequired("excel")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func run(ctx context.Context, opts pipeline.CobranzasOptions, verbose bool) error {
	logging.Setup(os.Stderr, verbose)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svc := pipeline.NewCobranzas(warehouse.New(cfg.Warehouse), payment.NewSheetReader())

	res, err := svc.Run(ctx, opts)
	if err != nil {
		return err
	}

	slog.Info("pipeline complete",
		"out", opts.OutDir,
		"rows", res.Metrics.Rows,
		"sales_with_debt", res.Metrics.SalesWithDebt,
		"total_debt", res.Metrics.TotalDebt.StringFixed(2),
	)

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := newCommand(run).ExecuteContext(ctx)
	stop()

	if err != nil {
		slog.Error("cobranzas failed", "error", err)
		os.Exit(1)
	}
}

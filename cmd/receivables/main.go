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
	"github.com/MrJamesThe3rd/cobranzas/internal/pipeline"
)

type runFunc func(ctx context.Context, opts pipeline.ReceivablesOptions, verbose bool) error

func newCommand(run runFunc) *cobra.Command {
	var (
		opts    pipeline.ReceivablesOptions
		verbose bool
	)

	cmd := &cobra.Command{
		Use:           "receivables",
		Short:         "Anonymize and aggregate the receivables export",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, verbose)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.CSVPath, "csv", "", "Path to the receivables CSV export")
	flags.StringVar(&opts.OutDir, "out", pipeline.DefaultReceivablesOut, "Directory for the anonymized outputs")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

func run(ctx context.Context, opts pipeline.ReceivablesOptions, verbose bool) error {
	logging.Setup(os.Stderr, verbose)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	res, err := pipeline.NewReceivables(cfg.Anon).Run(ctx, opts)
	if err != nil {
		return err
	}

	slog.Info("receivables complete",
		"out", opts.OutDir,
		"rows", res.KPIs.Rows,
		"run_id", res.Meta.RunID,
	)

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := newCommand(run).ExecuteContext(ctx)
	stop()

	if err != nil {
		slog.Error("receivables failed", "error", err)
		os.Exit(1)
	}
}

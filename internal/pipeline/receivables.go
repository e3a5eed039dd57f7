package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MrJamesThe3rd/cobranzas/internal/config"
	"github.com/MrJamesThe3rd/cobranzas/internal/receivable"
	"github.com/MrJamesThe3rd/cobranzas/internal/stage"
)

const StageAnonymize = "anonymize_receivables"

// Output files of the receivables pipeline.
const (
	DefaultReceivablesOut = "artifacts/latest"
	AccountsFile          = "cuentas_por_cobrar_anon.csv"
	AccountsParquetFile   = "cuentas_por_cobrar_anon.parquet"
	KPIsFile              = "resumen_kpis.json"
	RunMetaFile           = "run_meta.json"
)

type ReceivablesOptions struct {
	CSVPath string
	OutDir  string
}

// RunMeta is the content of run_meta.json.
type RunMeta struct {
	Started       string `json:"started"`
	Finished      string `json:"finished"`
	InputCSV      string `json:"input_csv"`
	InputEncoding string `json:"input_encoding"`
	ArtifactsDir  string `json:"artifacts_dir"`
	RunID         string `json:"run_id"`
}

type ReceivablesResult struct {
	Accounts []receivable.Account
	KPIs     receivable.KPIs
	Meta     RunMeta
	// Parquet is false when the columnar copy could not be written.
	Parquet bool
}

type Receivables struct {
	anon     config.Anon
	settings settings
}

func NewReceivables(anon config.Anon, opts ...Option) *Receivables {
	return &Receivables{
		anon:     anon,
		settings: newSettings(opts),
	}
}

// Run anonymizes and aggregates the receivables CSV. The salt is checked before
// the input is opened.
func (r *Receivables) Run(ctx context.Context, opts ReceivablesOptions) (*ReceivablesResult, error) {
	salt, err := r.anon.RequireSalt()
	if err != nil {
		return nil, err
	}

	if opts.OutDir == "" {
		opts.OutDir = DefaultReceivablesOut
	}

	started := r.settings.now()

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	records, charset, err := loadReceivables(opts.CSVPath)
	if err != nil {
		return nil, err
	}

	slog.Debug("receivables loaded", "rows", len(records), "encoding", charset)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept := receivable.Filter(records)
	anon := receivable.Anonymize(kept, salt)

	res := &ReceivablesResult{
		Accounts: receivable.Aggregate(anon),
	}
	res.KPIs = receivable.ComputeKPIs(res.Accounts)

	metrics := stage.Metrics{}.
		With("rows_in", len(records)).
		With("rows_kept", len(kept)).
		With("rows_out", len(res.Accounts))

	if err := r.settings.finish(opts.OutDir, StageAnonymize, started, metrics); err != nil {
		return nil, err
	}

	err = stage.WriteFile(filepath.Join(opts.OutDir, AccountsFile), func(w io.Writer) error {
		return receivable.WriteCSV(w, res.Accounts)
	})
	if err != nil {
		return nil, err
	}

	if err := receivable.WriteParquet(filepath.Join(opts.OutDir, AccountsParquetFile), res.Accounts); err != nil {
		slog.Warn("skipping parquet output", "error", err)
	} else {
		res.Parquet = true
	}

	if err := stage.WriteJSON(filepath.Join(opts.OutDir, KPIsFile), res.KPIs); err != nil {
		return nil, err
	}

	res.Meta = RunMeta{
		Started:       started.UTC().Format(stage.TimestampLayout),
		Finished:      r.settings.now().UTC().Format(stage.TimestampLayout),
		InputCSV:      opts.CSVPath,
		InputEncoding: charset,
		ArtifactsDir:  opts.OutDir,
		RunID:         r.settings.newRunID(),
	}

	if err := stage.WriteJSON(filepath.Join(opts.OutDir, RunMetaFile), res.Meta); err != nil {
		return nil, err
	}

	return res, nil
}

func loadReceivables(path string) ([]receivable.Record, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening receivables csv: %w", err)
	}
	defer f.Close()

	return receivable.Load(f)
}

package pipeline_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/cobranzas/internal/anonymize"
	"github.com/MrJamesThe3rd/cobranzas/internal/config"
	"github.com/MrJamesThe3rd/cobranzas/internal/pipeline"
)

const receivablesCSV = `status,client_first_names,client_last_names,client_document,proforma_code,item_type,scheduled_amount,due_date
pendiente,Ana,Lopez,12345678,PF-1,Departamento,1000,2025-03-01
por_cobrar,Ana,Lopez,12345678,PF-1,departamento,500.5,2025-05-01
pending,Ana,Lopez,12345678,PF-1,estacionamiento,200,
paid,Luis,Diaz,,PF-2,departamento,9000,2025-01-01
`

func writeInput(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cuentas.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestReceivables_Run(t *testing.T) {
	out := filepath.Join(t.TempDir(), "latest")
	input := writeInput(t, receivablesCSV)

	svc := pipeline.NewReceivables(
		config.Anon{Salt: "s3cret"},
		pipeline.WithClock(clock),
		pipeline.WithRunID(func() string { return "run-1" }),
	)

	res, err := svc.Run(context.Background(), pipeline.ReceivablesOptions{CSVPath: input, OutDir: out})
	require.NoError(t, err)

	client := anonymize.StableHash("12345678", "s3cret")
	unit := anonymize.StableHash("PF-1", "s3cret")

	require.Len(t, res.Accounts, 2)
	assert.True(t, res.Parquet)
	assert.FileExists(t, filepath.Join(out, pipeline.AccountsParquetFile))

	csv := readFile(t, filepath.Join(out, pipeline.AccountsFile))
	assert.Contains(t, csv, client+","+unit+",DEPTO,1500.50,2025-05-01\n")
	assert.Contains(t, csv, client+","+unit+",EST,200.00,\n")
	assert.NotContains(t, csv, "Ana")
	assert.NotContains(t, csv, "12345678")

	var kpis map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(out, pipeline.KPIsFile))), &kpis))
	assert.Equal(t, map[string]any{
		"rows":             float64(2),
		"distinct_clients": float64(1),
		"total_receivable": 1700.5,
		"max_due_date":     "2025-05-01",
	}, kpis)

	var meta pipeline.RunMeta
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(out, pipeline.RunMetaFile))), &meta))
	assert.Equal(t, pipeline.RunMeta{
		Started:       "2025-08-14T10:30:00Z",
		Finished:      "2025-08-14T10:30:00Z",
		InputCSV:      input,
		InputEncoding: "UTF-8",
		ArtifactsDir:  out,
		RunID:         "run-1",
	}, meta)

	metrics := readMetrics(t, out, pipeline.StageAnonymize)
	assert.Equal(t, float64(4), metrics["rows_in"])
	assert.Equal(t, float64(3), metrics["rows_kept"])
	assert.Equal(t, float64(2), metrics["rows_out"])
}

func TestReceivables_Run_NullDueDates(t *testing.T) {
	out := t.TempDir()
	input := writeInput(t, "status,client_first_names,client_last_names,proforma_code,item_type,scheduled_amount\n"+
		"pending,Eva,Ruiz,PF-9,deposito,75\n")

	res, err := pipeline.NewReceivables(config.Anon{Salt: "x"}).
		Run(context.Background(), pipeline.ReceivablesOptions{CSVPath: input, OutDir: out})
	require.NoError(t, err)

	assert.Nil(t, res.KPIs.MaxDueDate)
	assert.Contains(t, readFile(t, filepath.Join(out, pipeline.KPIsFile)), `"max_due_date": null`)
	assert.Equal(t, anonymize.StableHash("Eva Ruiz", "x"), res.Accounts[0].ClientToken)
	assert.Equal(t, anonymize.ItemStorage, res.Accounts[0].ItemType)
	assert.NotEmpty(t, res.Meta.RunID)
}

func TestReceivables_Run_Errors(t *testing.T) {
	type testCase struct {
		name    string
		salt    string
		input   string
		wantErr error
		wantOut bool
	}

	tests := []testCase{
		{
			name:    "MissingSalt",
			salt:    "  ",
			input:   receivablesCSV,
			wantErr: config.ErrMissingSalt,
		},
		{
			name:    "MissingColumns",
			salt:    "x",
			input:   "status,proforma_code\npending,PF-1\n",
			wantOut: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out")
			input := writeInput(t, tt.input)

			_, err := pipeline.NewReceivables(config.Anon{Salt: tt.salt}).
				Run(context.Background(), pipeline.ReceivablesOptions{CSVPath: input, OutDir: out})
			require.Error(t, err)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			if tt.wantOut {
				assert.DirExists(t, out)
			} else {
				assert.NoDirExists(t, out)
			}

			assert.NoFileExists(t, filepath.Join(out, pipeline.AccountsFile))
			assert.NoFileExists(t, filepath.Join(out, pipeline.RunMetaFile))
		})
	}
}

func TestReceivables_Run_ParquetFailureIsNotFatal(t *testing.T) {
	out := t.TempDir()
	input := writeInput(t, receivablesCSV)

	// A directory in the way makes the columnar write fail.
	require.NoError(t, os.Mkdir(filepath.Join(out, pipeline.AccountsParquetFile), 0o755))

	res, err := pipeline.NewReceivables(config.Anon{Salt: "x"}).
		Run(context.Background(), pipeline.ReceivablesOptions{CSVPath: input, OutDir: out})
	require.NoError(t, err)

	assert.False(t, res.Parquet)
	assert.Len(t, res.Accounts, 2)
	assert.FileExists(t, filepath.Join(out, pipeline.AccountsFile))
	assert.FileExists(t, filepath.Join(out, pipeline.KPIsFile))
	assert.FileExists(t, filepath.Join(out, pipeline.RunMetaFile))
	assert.FileExists(t, filepath.Join(out, "stage_"+pipeline.StageAnonymize+".json"))
}

func TestReceivables_Run_StageArtifactPrecedesOutputs(t *testing.T) {
	out := t.TempDir()
	input := writeInput(t, receivablesCSV)

	require.NoError(t, os.Mkdir(filepath.Join(out, pipeline.AccountsFile), 0o755))

	_, err := pipeline.NewReceivables(config.Anon{Salt: "x"}).
		Run(context.Background(), pipeline.ReceivablesOptions{CSVPath: input, OutDir: out})
	require.Error(t, err)

	metrics := readMetrics(t, out, pipeline.StageAnonymize)
	assert.Equal(t, float64(2), metrics["rows_out"])
	assert.NoFileExists(t, filepath.Join(out, pipeline.KPIsFile))
	assert.NoFileExists(t, filepath.Join(out, pipeline.RunMetaFile))
}

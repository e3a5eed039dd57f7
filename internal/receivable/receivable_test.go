package receivable_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/cobranzas/internal/anonymize"
	"github.com/MrJamesThe3rd/cobranzas/internal/receivable"
	"github.com/MrJamesThe3rd/cobranzas/internal/tabular"
)

const sampleCSV = `status,client_first_names,client_last_names,client_document,proforma_code,item_type,scheduled_amount,due_date
pending,Ana,Lopez,12345678,PF-1,departamento,1000.50,2025-03-01
receivable,Ana,Lopez, 12345678 ,PF-1,Departamento,500,2025-04-01
pending,Ana,Lopez,12345678,PF-1,Estacionamiento,300,
paid,Luis,Diaz,87654321,PF-2,departamento,9999,2025-01-01
Pendiente,Luis,Diaz,,PF-2,depósito,200,2025-02-15
`

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestLoad(t *testing.T) {
	records, charset, err := receivable.Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, "UTF-8", charset)
	require.Len(t, records, 5)

	assert.Equal(t, "pending", records[0].Status)
	require.NotNil(t, records[0].Document)
	assert.Equal(t, "12345678", *records[0].Document)
	assert.True(t, decimal.RequireFromString("1000.5").Equal(records[0].ScheduledAmount))
	assert.True(t, date(2025, 3, 1).Equal(*records[0].DueDate))

	assert.Nil(t, records[2].DueDate)
	assert.Nil(t, records[4].Document)
	assert.Equal(t, "depósito", records[4].ItemType)
}

func TestLoad_Windows1252(t *testing.T) {
	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte(sampleCSV))
	require.NoError(t, err)

	records, _, err := receivable.Load(bytes.NewReader(latin1))
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "depósito", records[4].ItemType)
}

func TestLoad_MissingColumns(t *testing.T) {
	_, _, err := receivable.Load(strings.NewReader("status,proforma_code\npending,PF-1\n"))
	require.Error(t, err)

	var vErr *tabular.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, []string{"item_type", "scheduled_amount"}, vErr.Missing)
}

func TestLoad_InvalidAmount(t *testing.T) {
	_, _, err := receivable.Load(strings.NewReader("status,proforma_code,item_type,scheduled_amount\npending,PF-1,depto,lots\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestFilter(t *testing.T) {
	records, _, err := receivable.Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	kept := receivable.Filter(records)
	require.Len(t, kept, 4)

	for _, r := range kept {
		assert.NotEqual(t, "paid", r.Status)
	}
}

func TestAnonymizeAndAggregate(t *testing.T) {
	records, _, err := receivable.Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	anon := receivable.Anonymize(receivable.Filter(records), "salt")
	require.Len(t, anon, 4)

	ana := anonymize.StableHash("12345678", "salt")
	luis := anonymize.StableHash("Luis Diaz", "salt")

	assert.Equal(t, ana, anon[0].ClientToken)
	assert.Equal(t, ana, anon[1].ClientToken)
	assert.Equal(t, luis, anon[3].ClientToken)
	assert.Equal(t, anonymize.StableHash("PF-1", "salt"), anon[0].UnitToken)

	accounts := receivable.Aggregate(anon)
	require.Len(t, accounts, 3)

	byType := map[string]receivable.Account{}
	for _, a := range accounts {
		byType[a.ClientToken+"/"+a.ItemType] = a
	}

	depto := byType[ana+"/DEPTO"]
	assert.True(t, decimal.RequireFromString("1500.5").Equal(depto.TotalReceivable))
	assert.True(t, date(2025, 4, 1).Equal(*depto.DueDate))

	est := byType[ana+"/EST"]
	assert.True(t, decimal.NewFromInt(300).Equal(est.TotalReceivable))
	assert.Nil(t, est.DueDate)

	dep := byType[luis+"/DEP"]
	assert.True(t, decimal.NewFromInt(200).Equal(dep.TotalReceivable))

	for i := 1; i < len(accounts); i++ {
		prev, cur := accounts[i-1], accounts[i]
		assert.LessOrEqual(t, prev.ClientToken+prev.UnitToken+prev.ItemType, cur.ClientToken+cur.UnitToken+cur.ItemType)
	}
}

func TestComputeKPIs(t *testing.T) {
	d1, d2 := date(2025, 1, 1), date(2025, 6, 1)

	k := receivable.ComputeKPIs([]receivable.Account{
		{ClientToken: "a", UnitToken: "u1", ItemType: "DEPTO", TotalReceivable: decimal.NewFromInt(100), DueDate: &d1},
		{ClientToken: "a", UnitToken: "u1", ItemType: "EST", TotalReceivable: decimal.RequireFromString("50.25"), DueDate: &d2},
		{ClientToken: "b", UnitToken: "u2", ItemType: "DEPTO", TotalReceivable: decimal.NewFromInt(10)},
	})

	assert.Equal(t, 3, k.Rows)
	assert.Equal(t, 2, k.DistinctClients)
	assert.Equal(t, 160.25, k.TotalReceivable)
	require.NotNil(t, k.MaxDueDate)
	assert.Equal(t, "2025-06-01", *k.MaxDueDate)

	none := receivable.ComputeKPIs([]receivable.Account{{ClientToken: "a"}})
	assert.Nil(t, none.MaxDueDate)
}

func TestWriteCSV(t *testing.T) {
	d := date(2025, 6, 1)

	var buf bytes.Buffer
	require.NoError(t, receivable.WriteCSV(&buf, []receivable.Account{
		{ClientToken: "c1", UnitToken: "u1", ItemType: "DEP", TotalReceivable: decimal.NewFromInt(200), DueDate: &d},
		{ClientToken: "c2", UnitToken: "u2", ItemType: "EST", TotalReceivable: decimal.NewFromInt(5)},
	}))

	assert.Equal(t, "client_anon,unit_anon,item_type,total_receivable,due_date\n"+
		"c1,u1,DEP,200.00,2025-06-01\n"+
		"c2,u2,EST,5.00,\n", buf.String())
}

func TestWriteParquet(t *testing.T) {
	d := date(2025, 6, 1)
	path := filepath.Join(t.TempDir(), "cuentas_por_cobrar_anon.parquet")

	require.NoError(t, receivable.WriteParquet(path, []receivable.Account{
		{ClientToken: "c1", UnitToken: "u1", ItemType: "DEP", TotalReceivable: decimal.NewFromInt(200), DueDate: &d},
		{ClientToken: "c2", UnitToken: "u2", ItemType: "EST", TotalReceivable: decimal.NewFromInt(5)},
	}))

	type row struct {
		ClientAnon      string  `parquet:"client_anon"`
		UnitAnon        string  `parquet:"unit_anon"`
		ItemType        string  `parquet:"item_type"`
		TotalReceivable float64 `parquet:"total_receivable"`
		DueDate         *string `parquet:"due_date"`
	}

	rows, err := parquet.ReadFile[row](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "c1", rows[0].ClientAnon)
	assert.Equal(t, "DEP", rows[0].ItemType)
	assert.Equal(t, 200.0, rows[0].TotalReceivable)
	require.NotNil(t, rows[0].DueDate)
	assert.Equal(t, "2025-06-01", *rows[0].DueDate)
	assert.Nil(t, rows[1].DueDate)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/yape-insights/internal/domain/insights/alerts"
	"github.com/FACorreiaa/yape-insights/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/yape-insights/internal/domain/statement/sniffer"
	"github.com/FACorreiaa/yape-insights/internal/domain/statement/table"
)

var header = []any{"Tipo de Transacción", "Origen", "Destino", "Monto", "Mensaje", "Fecha de operación"}

func newTestService() *StatementService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStatementService(Config{Location: time.UTC}, logger)
}

// buildStatement writes a Yape-style export: seven title rows then the header.
func buildStatement(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	all := [][]any{
		{"Reporte de movimientos Yape"},
		{},
		{"Titular", "Juan Perez"},
		{"Celular", "999 999 999"},
		{},
		{"Periodo", "01/03/2024 - 31/03/2024"},
		{},
		header,
	}
	all = append(all, rows...)

	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func sampleRows() [][]any {
	return [][]any{
		{"Te yapearon", "Maria", "Juan", "S/ 25.00", "almuerzo", "01/03/2024 12:30:00"},
		{"Yapeaste", "Juan", "Bodega Don Pepe", "S/ 8.50", "", "01/03/2024 19:05:00"},
		{},
		{"Pago de servicios", "Juan", "Luz del Sur", "S/ 1,200.00", "recibo", "02/03/2024 09:00:00"},
		{"Recarga", "Juan", "Claro", "abc", "", "03/03/2024 22:10:00"},
		{"Te yapearon", "Pedro", "Juan", "S/ 40.00", "", "no es fecha"},
		{"Recibiste", "Ana", "Juan", 15, "", 45354.25}, // numeric amount and Excel serial date
	}
}

func TestLoadStatement_HeaderAfterTitleBlock(t *testing.T) {
	svc := newTestService()
	data := buildStatement(t, sampleRows())

	tbl, stats, err := svc.LoadStatement(context.Background(), "movimientos.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, 7, stats.HeaderRow)
	assert.Equal(t, 1, stats.BlankRows)
	assert.Equal(t, 1, stats.InvalidDates)
	assert.Equal(t, 1, stats.MissingAmounts)
	assert.Equal(t, 5, stats.RowsLoaded)
	assert.Equal(t, sniffer.Fingerprint(stats.Columns), stats.Fingerprint)
	require.Equal(t, 5, tbl.Len())

	first := tbl.At(0)
	assert.Equal(t, table.CategoryIngreso, first.Category)
	assert.Equal(t, "Maria", first.Origin)
	assert.Equal(t, 12, first.Hour)
	assert.Equal(t, table.TimeRangeTarde, first.TimeRange)
	assert.Equal(t, 9, first.SourceRow)
	assert.True(t, first.Amount.Decimal.Equal(decimal.NewFromInt(25)))

	assert.Equal(t, table.CategoryEgreso, tbl.At(1).Category)
	assert.Equal(t, table.CategoryEgreso, tbl.At(2).Category)
	assert.True(t, tbl.At(2).Amount.Decimal.Equal(decimal.NewFromInt(1200)))

	recarga := tbl.At(3)
	assert.Equal(t, table.CategoryOtro, recarga.Category)
	assert.False(t, recarga.Amount.Valid)

	serial := tbl.At(4)
	assert.Equal(t, time.Date(2024, time.March, 3, 6, 0, 0, 0, time.UTC), serial.Timestamp)
	assert.True(t, serial.Amount.Decimal.Equal(decimal.NewFromInt(15)))
}

func TestLoadStatement_CSV(t *testing.T) {
	data := strings.Join([]string{
		"Reporte Yape",
		"Tipo de Transacción;Monto;Fecha de operación",
		"Yapeaste;S/ 10.00;05/03/2024 08:00:00",
		"Te yapearon;S/ 30.00;06/03/2024 14:00:00",
	}, "\n")

	tbl, stats, err := newTestService().LoadStatement(context.Background(), "movimientos.csv", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.HeaderRow)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "", tbl.At(0).Origin)
}

func TestLoadStatement_CSVIgnoresNumericDates(t *testing.T) {
	data := strings.Join([]string{
		"Tipo de Transacción;Monto;Fecha de operación",
		"Yapeaste;S/ 10.00;45352.5",
		"Te yapearon;S/ 30.00;06/03/2024 14:00:00",
	}, "\n")

	tbl, stats, err := newTestService().LoadStatement(context.Background(), "movimientos.csv", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.InvalidDates)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, 14, tbl.At(0).Hour)
}

func TestLoadStatement_XLS(t *testing.T) {
	data, err := os.ReadFile("testdata/movimientos.xls")
	require.NoError(t, err)

	lima, err := time.LoadLocation("America/Lima")
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewStatementService(Config{Location: lima}, logger)

	tbl, stats, err := svc.LoadStatement(context.Background(), "movimientos.xls", data)
	require.NoError(t, err)

	assert.Equal(t, "xls", string(stats.Format))
	assert.Equal(t, 2, stats.HeaderRow)
	assert.Equal(t, 1, stats.InvalidDates) // month-only "2024.01"
	assert.Equal(t, 3, stats.RowsLoaded)
	require.Equal(t, 3, tbl.Len())

	tests := []struct {
		hour      int
		minute    int
		timeRange table.TimeRange
		category  table.Category
	}{
		{12, 0, table.TimeRangeTarde, table.CategoryIngreso},
		{3, 0, table.TimeRangeMadrugada, table.CategoryEgreso},
		{10, 30, table.TimeRangeManana, table.CategoryIngreso},
	}
	for i, tc := range tests {
		r := tbl.At(i)
		want := time.Date(2024, time.January, 5, tc.hour, tc.minute, 0, 0, lima)
		assert.True(t, want.Equal(r.Timestamp), "row %d: got %s", i, r.Timestamp)
		assert.Equal(t, tc.hour, r.Hour, "row %d", i)
		assert.Equal(t, tc.timeRange, r.TimeRange, "row %d", i)
		assert.Equal(t, tc.category, r.Category, "row %d", i)
		assert.Equal(t, "2024-01-05", r.Date.Format(time.DateOnly), "row %d", i)
		assert.Equal(t, time.Friday, r.DayOfWeek, "row %d", i)
	}

	first := tbl.At(0)
	assert.Equal(t, "María", first.Origin)
	assert.Equal(t, 4, first.SourceRow)
	assert.True(t, first.Amount.Decimal.Equal(decimal.NewFromInt(25)))
}

func TestLoadStatement_HeaderNotFound(t *testing.T) {
	rows := make([]string, 0, 30)
	for i := 0; i < 25; i++ {
		rows = append(rows, fmt.Sprintf("linea %d,texto", i))
	}

	_, _, err := newTestService().LoadStatement(context.Background(), "movimientos.csv", []byte(strings.Join(rows, "\n")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, sniffer.ErrHeaderNotFound))
}

func TestLoadStatement_SchemaValidation(t *testing.T) {
	data := "Tipo de Transacción,Fecha de operación,Importe\nYapeaste,01/03/2024,10\n"

	_, _, err := newTestService().LoadStatement(context.Background(), "movimientos.csv", []byte(data))
	var schemaErr *normalizer.SchemaValidationError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{normalizer.ColumnAmount}, schemaErr.Missing)
}

func TestLoadStatement_EmptyFile(t *testing.T) {
	_, _, err := newTestService().LoadStatement(context.Background(), "movimientos.xlsx", nil)
	assert.Error(t, err)
}

func TestLoadStatement_ConcurrentLoadsAreIndependent(t *testing.T) {
	svc := newTestService()
	data := buildStatement(t, sampleRows())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl, _, err := svc.LoadStatement(context.Background(), "movimientos.xlsx", data)
			if err != nil {
				errs <- err
				return
			}
			if tbl.Len() != 5 {
				errs <- fmt.Errorf("expected 5 rows, got %d", tbl.Len())
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestLoadStatement_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newTestService().LoadStatement(ctx, "movimientos.xlsx", buildStatement(t, sampleRows()))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDescribe(t *testing.T) {
	d, err := newTestService().Describe(context.Background(), "movimientos.xlsx", buildStatement(t, sampleRows()))
	require.NoError(t, err)

	require.NotNil(t, d.MinDate)
	require.NotNil(t, d.MaxDate)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), *d.MinDate)
	assert.Equal(t, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC), *d.MaxDate)
	assert.Equal(t, 2, d.Categories[table.CategoryIngreso])
	assert.Equal(t, 2, d.Categories[table.CategoryEgreso])
	assert.Equal(t, 1, d.Categories[table.CategoryOtro])
}

func loadSample(t *testing.T) (*StatementService, *table.Table) {
	t.Helper()
	svc := newTestService()
	tbl, _, err := svc.LoadStatement(context.Background(), "movimientos.xlsx", buildStatement(t, sampleRows()))
	require.NoError(t, err)
	return svc, tbl
}

func TestAnalyze_FullRange(t *testing.T) {
	svc, tbl := loadSample(t)

	report, err := svc.Analyze(context.Background(), tbl, AnalyzeOptions{})
	require.NoError(t, err)

	require.NotNil(t, report.Period)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), report.Period.Start)
	assert.Equal(t, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC), report.Period.End)

	// Received 25 + 15, sent 8.50 + 1200.
	assert.True(t, report.KPIs.TotalReceived.Equal(decimal.NewFromInt(40)))
	assert.True(t, report.KPIs.TotalSent.Equal(decimal.RequireFromString("1208.50")))
	assert.True(t, report.KPIs.Balance.Equal(decimal.RequireFromString("-1168.50")))
	assert.Equal(t, 5, report.KPIs.TxCount)
	assert.Equal(t, 5, len(report.Operations))
	assert.Nil(t, report.Operations[3].Amount)
	assert.Len(t, report.Series.Hourly, 24)

	// (25 + 8.50 + 1200 + 15) / 4 = 312.125, shown in cents.
	assert.True(t, report.AmountStats.Mean.Equal(decimal.RequireFromString("312.13")), "mean %s", report.AmountStats.Mean)

	require.Len(t, report.Alerts, 1)
	assert.Equal(t, alerts.KindHighAmount, report.Alerts[0].Kind)
	require.Len(t, report.Alerts[0].Rows, 1)
	assert.Equal(t, 12, report.Alerts[0].Rows[0].SourceRow)
}

func TestAnalyze_FilterDoesNotMutateSource(t *testing.T) {
	svc, tbl := loadSample(t)
	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	report, err := svc.Analyze(context.Background(), tbl, AnalyzeOptions{Start: &day, End: &day})
	require.NoError(t, err)

	assert.Equal(t, 2, report.KPIs.TxCount)
	assert.Equal(t, 5, tbl.Len())
}

func TestAnalyze_ThresholdOverride(t *testing.T) {
	svc, tbl := loadSample(t)
	threshold := decimal.NewFromInt(10)

	report, err := svc.Analyze(context.Background(), tbl, AnalyzeOptions{AlertThreshold: &threshold})
	require.NoError(t, err)

	assert.True(t, report.AlertThreshold.Equal(threshold))
	require.NotEmpty(t, report.Alerts)
	assert.Len(t, report.Alerts[0].Rows, 3)
}

func TestAnalyze_InvalidRange(t *testing.T) {
	svc, tbl := loadSample(t)
	early := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Analyze(context.Background(), tbl, AnalyzeOptions{Start: &early})
	assert.True(t, errors.Is(err, ErrInvalidDateRange))

	_, err = svc.Analyze(context.Background(), tbl, AnalyzeOptions{Start: &start, End: &end})
	assert.True(t, errors.Is(err, ErrInvalidDateRange))
}

func TestAnalyze_EmptyTable(t *testing.T) {
	report, err := newTestService().Analyze(context.Background(), table.New(nil), AnalyzeOptions{})
	require.NoError(t, err)

	assert.Nil(t, report.Period)
	assert.Equal(t, 0, report.KPIs.TxCount)
	assert.True(t, report.KPIs.Balance.IsZero())
	assert.Equal(t, 0, report.BusiestHour.Hour)
	assert.Equal(t, 0, report.BusiestHour.Count)
	assert.Empty(t, report.Alerts)
}

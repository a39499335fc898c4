// Package service loads statement exports into a transaction table and builds
// dashboard reports over it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/yape-insights/internal/domain/statement/classifier"
	"github.com/FACorreiaa/yape-insights/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/yape-insights/internal/domain/statement/sheet"
	"github.com/FACorreiaa/yape-insights/internal/domain/statement/sniffer"
	"github.com/FACorreiaa/yape-insights/internal/domain/statement/table"
	"github.com/FACorreiaa/yape-insights/pkg/observability"
)

// ErrUnreadable wraps every failure to decode the uploaded workbook.
var ErrUnreadable = errors.New("statement file could not be read")

// Config tunes the loader and report defaults.
type Config struct {
	HeaderScanRows int
	DefaultTopN    int
	Location       *time.Location
}

// LoadStats counts what happened to the rows of one statement.
type LoadStats struct {
	FileName       string       `json:"file_name"`
	Format         sheet.Format `json:"format"`
	SheetName      string       `json:"sheet_name"`
	HeaderRow      int          `json:"header_row"` // 0-based
	Columns        []string     `json:"columns"`
	Fingerprint    string       `json:"fingerprint"`
	DataRows       int          `json:"data_rows"`
	BlankRows      int          `json:"blank_rows"`
	InvalidDates   int          `json:"invalid_dates"`
	MissingAmounts int          `json:"missing_amounts"`
	RowsLoaded     int          `json:"rows_loaded"`
}

// StatementService orchestrates loading and analysis. It holds no per-request
// state and is safe for concurrent use.
type StatementService struct {
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
}

// NewStatementService creates a new statement service
func NewStatementService(cfg Config, logger *slog.Logger) *StatementService {
	if cfg.HeaderScanRows < sniffer.DefaultScanRows {
		cfg.HeaderScanRows = sniffer.DefaultScanRows
	}
	if cfg.DefaultTopN <= 0 {
		cfg.DefaultTopN = 5
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatementService{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("yape-insights/statement"),
	}
}

// LoadStatement reads the workbook, locates the header, validates the schema and
// returns the typed, classified table. Rows with an unparseable date are dropped
// and counted; unparseable amounts are kept as missing.
func (s *StatementService) LoadStatement(ctx context.Context, fileName string, data []byte) (*table.Table, *LoadStats, error) {
	ctx, span := s.tracer.Start(ctx, "statement.Load", trace.WithAttributes(
		attribute.String("file.name", fileName),
		attribute.Int("file.size", len(data)),
	))
	defer span.End()

	tbl, stats, err := s.load(ctx, fileName, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.LoadFailures.WithLabelValues(failureReason(err)).Inc()
		s.logger.WarnContext(ctx, "statement load failed", "file", fileName, "error", err)
		return nil, nil, err
	}

	span.SetAttributes(
		attribute.Int("statement.rows_loaded", stats.RowsLoaded),
		attribute.Int("statement.invalid_dates", stats.InvalidDates),
	)
	observability.RowsLoaded.Add(float64(stats.RowsLoaded))
	observability.RowsDropped.WithLabelValues(observability.ReasonBlankRow).Add(float64(stats.BlankRows))
	observability.RowsDropped.WithLabelValues(observability.ReasonInvalidDate).Add(float64(stats.InvalidDates))
	observability.AmountsMissing.Add(float64(stats.MissingAmounts))

	s.logger.InfoContext(ctx, "statement loaded",
		"file", fileName,
		"format", stats.Format,
		"header_row", stats.HeaderRow,
		"rows_loaded", stats.RowsLoaded,
		"blank_rows", stats.BlankRows,
		"invalid_dates", stats.InvalidDates,
		"missing_amounts", stats.MissingAmounts,
	)
	return tbl, stats, nil
}

func (s *StatementService) load(ctx context.Context, fileName string, data []byte) (*table.Table, *LoadStats, error) {
	raw, err := sheet.Read(fileName, data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	headerRow, err := sniffer.FindHeaderRow(raw.Rows, s.cfg.HeaderScanRows)
	if err != nil {
		return nil, nil, err
	}

	frame, err := normalizer.NewFrame(raw.Rows, headerRow)
	if err != nil {
		return nil, nil, err
	}

	stats := &LoadStats{
		FileName:    fileName,
		Format:      raw.Format,
		SheetName:   raw.Name,
		HeaderRow:   headerRow,
		Columns:     frame.Columns,
		Fingerprint: sniffer.Fingerprint(frame.Columns),
		DataRows:    len(frame.Rows) + frame.BlankRows,
		BlankRows:   frame.BlankRows,
	}

	results, err := s.parseRows(ctx, frame, timeParserFor(raw.Format))
	if err != nil {
		return nil, nil, err
	}

	records := make([]table.Record, 0, len(results))
	for _, res := range results {
		if res.err != nil {
			stats.InvalidDates++
			s.logger.DebugContext(ctx, "dropping row", "row", res.sourceRow, "error", res.err)
			continue
		}
		if !res.record.Amount.Valid {
			stats.MissingAmounts++
		}
		records = append(records, res.record)
	}
	stats.RowsLoaded = len(records)

	return table.New(records), stats, nil
}

type parseJob struct {
	index int
	row   normalizer.Row
}

type parseResult struct {
	sourceRow int
	record    table.Record
	err       error
}

// timeParser turns the operation date cell into a timestamp in loc.
type timeParser func(raw string, loc *time.Location) (time.Time, error)

// timeParserFor reads bare numbers as Excel serials only for workbooks; CSV
// text never carries a serial date.
func timeParserFor(format sheet.Format) timeParser {
	if format == sheet.FormatCSV {
		return normalizer.ParseOperationTime
	}
	return normalizer.ParseCellTime
}

// parseRows coerces frame rows on a worker pool. Results keep frame order.
func (s *StatementService) parseRows(ctx context.Context, frame *normalizer.Frame, parseTime timeParser) ([]parseResult, error) {
	results := make([]parseResult, len(frame.Rows))
	if len(frame.Rows) == 0 {
		return results, nil
	}

	workerCount := runtime.GOMAXPROCS(0)
	if workerCount > len(frame.Rows) {
		workerCount = len(frame.Rows)
	}

	jobs := make(chan parseJob, workerCount*4)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				rec, err := s.parseRow(frame, job.row, parseTime)
				results[job.index] = parseResult{sourceRow: job.row.SourceRow, record: rec, err: err}
			}
		}()
	}

	var cancelled error
	for i, row := range frame.Rows {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		jobs <- parseJob{index: i, row: row}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}
	return results, nil
}

// parseRow turns one frame row into a record. Only a bad date is an error.
func (s *StatementService) parseRow(frame *normalizer.Frame, row normalizer.Row, parseTime timeParser) (table.Record, error) {
	rawDate := frame.Value(row, normalizer.ColumnOperationDate)
	ts, err := parseTime(rawDate, s.cfg.Location)
	if err != nil {
		return table.Record{}, fmt.Errorf("invalid date '%s': %w", rawDate, err)
	}

	// A bad amount stays missing.
	amount, _ := normalizer.ParseAmount(frame.Value(row, normalizer.ColumnAmount))

	rawType := frame.Value(row, normalizer.ColumnMovementType)
	rec := table.NewRecord(ts, rawType, classifier.Classify(rawType), amount)
	rec.Origin = normalizer.CleanText(frame.Value(row, normalizer.ColumnOrigin))
	rec.Destination = normalizer.CleanText(frame.Value(row, normalizer.ColumnDestination))
	rec.Message = normalizer.CleanText(frame.Value(row, normalizer.ColumnMessage))
	rec.SourceRow = row.SourceRow
	return rec, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, sniffer.ErrHeaderNotFound):
		return observability.ReasonHeaderNotFound
	case errors.Is(err, normalizer.ErrSchemaValidation):
		return observability.ReasonSchema
	default:
		return observability.ReasonUnreadable
	}
}

// Description is a cheap summary of a statement without computing metrics.
type Description struct {
	Stats      *LoadStats             `json:"stats"`
	MinDate    *time.Time             `json:"min_date,omitempty"`
	MaxDate    *time.Time             `json:"max_date,omitempty"`
	Categories map[table.Category]int `json:"categories"`
}

// Describe loads the statement and reports its shape and date bounds.
func (s *StatementService) Describe(ctx context.Context, fileName string, data []byte) (*Description, error) {
	tbl, stats, err := s.LoadStatement(ctx, fileName, data)
	if err != nil {
		return nil, err
	}

	d := &Description{
		Stats:      stats,
		Categories: make(map[table.Category]int),
	}
	if minDate, ok := tbl.MinDate(); ok {
		d.MinDate = &minDate
	}
	if maxDate, ok := tbl.MaxDate(); ok {
		d.MaxDate = &maxDate
	}
	for _, r := range tbl.Records() {
		d.Categories[r.Category]++
	}
	return d, nil
}

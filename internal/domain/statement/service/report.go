package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/yape-insights/internal/domain/insights/alerts"
	"github.com/FACorreiaa/yape-insights/internal/domain/insights/metrics"
	"github.com/FACorreiaa/yape-insights/internal/domain/statement/table"
	"github.com/FACorreiaa/yape-insights/pkg/observability"
)

var ErrInvalidDateRange = errors.New("invalid date range")

// AnalyzeOptions narrows and tunes a report. Nil dates default to the table's
// own bounds; a nil threshold uses the computed high-amount threshold.
type AnalyzeOptions struct {
	Start          *time.Time
	End            *time.Time
	AlertThreshold *decimal.Decimal
	TopN           int
}

// Period is the inclusive date range a report covers.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Series holds chart data.
type Series struct {
	Hourly             []metrics.HourCount      `json:"hourly"`
	Weekday            []metrics.WeekdayCount   `json:"weekday"`
	TimeRanges         []metrics.TimeRangeCount `json:"time_ranges"`
	Daily              []metrics.DailyPoint     `json:"daily"`
	CategoryTotals     []metrics.CategoryTotal  `json:"category_totals"`
	AmountDistribution []metrics.AmountBox      `json:"amount_distribution"`
}

// Operation is one row of the detailed operations table.
type Operation struct {
	Date            time.Time        `json:"date"`
	Time            string           `json:"time"`
	Category        table.Category   `json:"category"`
	RawMovementType string           `json:"raw_movement_type"`
	Origin          string           `json:"origin"`
	Destination     string           `json:"destination"`
	Amount          *decimal.Decimal `json:"amount"` // nil when missing
	Message         string           `json:"message"`
	SourceRow       int              `json:"source_row"`
}

// Report is everything the dashboard renders for one statement.
type Report struct {
	ID             uuid.UUID             `json:"id"`
	Period         *Period               `json:"period,omitempty"`
	KPIs           metrics.KPIs          `json:"kpis"`
	BusiestHour    metrics.HourCount     `json:"busiest_hour"`
	BusiestDay     metrics.DayCount      `json:"busiest_day"`
	AmountStats    metrics.AmountSummary `json:"amount_stats"`
	TopDays        []metrics.DayTotal    `json:"top_days"`
	TopReceived    []metrics.Movement    `json:"top_received"`
	TopSent        []metrics.Movement    `json:"top_sent"`
	Ratios         metrics.Ratios        `json:"ratios"`
	AlertThreshold decimal.Decimal       `json:"alert_threshold"`
	Alerts         []alerts.Alert        `json:"alerts"`
	Series         Series                `json:"series"`
	Operations     []Operation           `json:"operations"`
}

// Analyze filters the table to the requested period and computes every report
// section. The source table is never modified.
func (s *StatementService) Analyze(ctx context.Context, tbl *table.Table, opts AnalyzeOptions) (*Report, error) {
	ctx, span := s.tracer.Start(ctx, "statement.Analyze")
	defer span.End()

	period, err := resolvePeriod(tbl, opts.Start, opts.End)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	view := tbl
	if period != nil {
		view = tbl.FilterByDateRange(period.Start, period.End)
	}
	span.SetAttributes(attribute.Int("statement.rows_analyzed", view.Len()))

	topN := opts.TopN
	if topN <= 0 {
		topN = s.cfg.DefaultTopN
	}

	report := &Report{ID: uuid.New(), Period: period}

	// Sections write disjoint fields over a read-only table.
	g, gctx := errgroup.WithContext(ctx)
	section := func(fn func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}

	section(func() {
		report.KPIs = metrics.CalculateKPIs(view)
		report.Ratios = metrics.CalculateRatios(report.KPIs)
	})
	section(func() {
		report.BusiestHour = metrics.BusiestHour(view)
		report.BusiestDay = metrics.BusiestDay(view)
		report.AmountStats = metrics.AmountStats(view)
		report.AmountStats.Mean = report.AmountStats.Mean.Round(2)
	})
	section(func() {
		report.TopDays = metrics.TopDaysByAmount(view, topN)
		report.TopReceived = metrics.TopMovements(view, table.CategoryIngreso, topN)
		report.TopSent = metrics.TopMovements(view, table.CategoryEgreso, topN)
	})
	section(func() {
		report.AlertThreshold = alerts.HighAmountThreshold(view, opts.AlertThreshold)
		report.Alerts = alerts.Evaluate(view, opts.AlertThreshold)
	})
	section(func() {
		report.Series = Series{
			Hourly:             metrics.HourlyDistribution(view),
			Weekday:            metrics.WeekdayDistribution(view),
			TimeRanges:         metrics.TimeRangeDistribution(view),
			Daily:              metrics.DailyEvolution(view),
			CategoryTotals:     metrics.CategoryTotals(view),
			AmountDistribution: metrics.AmountDistribution(view),
		}
	})
	section(func() {
		report.Operations = operations(view)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, a := range report.Alerts {
		observability.AlertsRaised.WithLabelValues(string(a.Kind)).Inc()
	}

	s.logger.InfoContext(ctx, "statement analyzed",
		"report_id", report.ID,
		"rows", view.Len(),
		"alerts", len(report.Alerts),
	)
	return report, nil
}

// resolvePeriod defaults missing bounds to the table's own and rejects ranges
// that are inverted or fall outside the data. An empty table has no period.
func resolvePeriod(tbl *table.Table, start, end *time.Time) (*Period, error) {
	minDate, ok := tbl.MinDate()
	if !ok {
		if start != nil || end != nil {
			return nil, fmt.Errorf("%w: statement has no dated rows", ErrInvalidDateRange)
		}
		return nil, nil
	}
	maxDate, _ := tbl.MaxDate()

	// Only the calendar date of each bound matters.
	loc := minDate.Location()
	p := &Period{Start: minDate, End: maxDate}
	if start != nil {
		y, m, d := start.Date()
		p.Start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	if end != nil {
		y, m, d := end.Date()
		p.End = time.Date(y, m, d, 0, 0, 0, 0, loc)
	}

	switch {
	case p.Start.After(p.End):
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidDateRange,
			p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
	case p.Start.Before(minDate) || p.End.After(maxDate):
		return nil, fmt.Errorf("%w: data covers %s to %s", ErrInvalidDateRange,
			minDate.Format(time.DateOnly), maxDate.Format(time.DateOnly))
	}
	return p, nil
}

func operations(t *table.Table) []Operation {
	out := make([]Operation, 0, t.Len())
	for _, r := range t.Records() {
		op := Operation{
			Date:            r.Date,
			Time:            r.Timestamp.Format(time.TimeOnly),
			Category:        r.Category,
			RawMovementType: r.RawMovementType,
			Origin:          r.Origin,
			Destination:     r.Destination,
			Message:         r.Message,
			SourceRow:       r.SourceRow,
		}
		if r.Amount.Valid {
			amount := r.Amount.Decimal
			op.Amount = &amount
		}
		out = append(out, op)
	}
	return out
}

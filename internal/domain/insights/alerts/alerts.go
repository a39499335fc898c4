// Package alerts applies rule-based anomaly checks to a transaction table.
package alerts

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/yape-insights/internal/domain/insights/metrics"
	"github.com/FACorreiaa/yape-insights/internal/domain/statement/table"
)

// Kind identifies the rule that produced an alert.
type Kind string

const (
	KindHighAmount    Kind = "high_amount"
	KindFrequencyPeak Kind = "frequency_peak"
)

const (
	// PeakThreshold is the number of transactions in one hour that must be
	// exceeded for the hour to count as a peak.
	PeakThreshold = 5

	highAmountPercentile = 0.95
)

// MinimumThreshold floors the computed high-amount threshold.
var MinimumThreshold = decimal.NewFromInt(50)

// Alert is a surfaced anomaly. Exactly one of Rows or Peaks is set, depending on Kind.
type Alert struct {
	Kind    Kind       `json:"kind"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Rows    []AlertRow `json:"rows,omitempty"`
	Peaks   []Peak     `json:"peaks,omitempty"`
}

// AlertRow is the projection of a flagged transaction.
type AlertRow struct {
	Date         time.Time       `json:"date"`
	Hour         int             `json:"hour"`
	Category     table.Category  `json:"category"`
	Amount       decimal.Decimal `json:"amount"`
	Origin       string          `json:"origin"`
	Destination  string          `json:"destination"`
	SourceRow    int             `json:"source_row"`
	MovementType string          `json:"movement_type"`
}

// Peak is an hour of a given date with unusually many transactions.
type Peak struct {
	Date  time.Time `json:"date"`
	Hour  int       `json:"hour"`
	Count int       `json:"count"`
}

// Evaluate runs every rule. The high-amount alert, when present, always comes
// before the frequency-peak alert. A nil override uses the computed threshold.
func Evaluate(t *table.Table, override *decimal.Decimal) []Alert {
	out := []Alert{}
	if t.Len() == 0 {
		return out
	}
	if a, ok := HighAmount(t, override); ok {
		out = append(out, a)
	}
	if a, ok := FrequencyPeak(t); ok {
		out = append(out, a)
	}
	return out
}

// HighAmountThreshold returns the override when given, otherwise the 95th
// percentile of the non-missing amounts floored at MinimumThreshold.
func HighAmountThreshold(t *table.Table, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	p95 := metrics.Percentile(metrics.Amounts(t), highAmountPercentile)
	return decimal.Max(p95, MinimumThreshold)
}

// HighAmount flags every row whose amount is strictly above the threshold,
// largest first.
func HighAmount(t *table.Table, override *decimal.Decimal) (Alert, bool) {
	threshold := HighAmountThreshold(t, override)

	var flagged []table.Record
	for _, r := range t.Records() {
		if r.Amount.Valid && r.Amount.Decimal.GreaterThan(threshold) {
			flagged = append(flagged, r)
		}
	}
	if len(flagged) == 0 {
		return Alert{}, false
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].Amount.Decimal.GreaterThan(flagged[j].Amount.Decimal)
	})

	rows := make([]AlertRow, 0, len(flagged))
	for _, r := range flagged {
		rows = append(rows, AlertRow{
			Date:         r.Date,
			Hour:         r.Hour,
			Category:     r.Category,
			Amount:       r.Amount.Decimal,
			Origin:       r.Origin,
			Destination:  r.Destination,
			SourceRow:    r.SourceRow,
			MovementType: r.RawMovementType,
		})
	}

	return Alert{
		Kind:    KindHighAmount,
		Title:   "🚨 Operaciones de Alto Valor",
		Message: fmt.Sprintf("Se detectaron %d operaciones por encima de S/ %s", len(rows), threshold.StringFixed(2)),
		Rows:    rows,
	}, true
}

// FrequencyPeak flags every (date, hour) with more than PeakThreshold
// transactions, busiest first. Equal counts are ordered chronologically.
func FrequencyPeak(t *table.Table) (Alert, bool) {
	type slot struct {
		date time.Time
		hour int
	}
	counts := make(map[slot]int)
	for _, r := range t.Records() {
		counts[slot{r.Date, r.Hour}]++
	}

	var peaks []Peak
	for s, c := range counts {
		if c > PeakThreshold {
			peaks = append(peaks, Peak{Date: s.date, Hour: s.hour, Count: c})
		}
	}
	if len(peaks) == 0 {
		return Alert{}, false
	}

	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].Count != peaks[j].Count {
			return peaks[i].Count > peaks[j].Count
		}
		if !peaks[i].Date.Equal(peaks[j].Date) {
			return peaks[i].Date.Before(peaks[j].Date)
		}
		return peaks[i].Hour < peaks[j].Hour
	})

	return Alert{
		Kind:    KindFrequencyPeak,
		Title:   "⚠️ Picos de Actividad Inusual",
		Message: fmt.Sprintf("Hubo %d momentos con alto tráfico (> %d transacciones/hora).", len(peaks), PeakThreshold),
		Peaks:   peaks,
	}, true
}

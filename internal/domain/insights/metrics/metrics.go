// Package metrics computes aggregate figures, rankings and ratios over a
// transaction table. Every function is pure: the table is only read.
//
// Missing amounts are excluded from sums, means and maxima. They still count as
// transactions for counts and distributions.
package metrics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/yape-insights/internal/domain/statement/table"
)

var hundred = decimal.NewFromInt(100)

// KPIs are the headline totals of a statement.
type KPIs struct {
	TotalReceived decimal.Decimal `json:"total_received"`
	TotalSent     decimal.Decimal `json:"total_sent"`
	Balance       decimal.Decimal `json:"balance"`
	TxCount       int             `json:"tx_count"`
}

// CalculateKPIs sums Ingreso and Egreso amounts. Otro rows only add to TxCount.
func CalculateKPIs(t *table.Table) KPIs {
	received := sumAmounts(t.Category(table.CategoryIngreso))
	sent := sumAmounts(t.Category(table.CategoryEgreso))
	return KPIs{
		TotalReceived: received,
		TotalSent:     sent,
		Balance:       received.Sub(sent),
		TxCount:       t.Len(),
	}
}

// HourCount is the number of transactions in one hour of the day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// BusiestHour returns the hour with most transactions. Ties go to the lowest
// hour; an empty table yields {0, 0}.
func BusiestHour(t *table.Table) HourCount {
	var best HourCount
	for _, hc := range HourlyDistribution(t) {
		if hc.Count > best.Count {
			best = hc
		}
	}
	return best
}

// DayCount is the number of transactions on one calendar date.
type DayCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// Label renders the date, or "N/A" when there were no transactions.
func (d DayCount) Label() string {
	if d.Count == 0 {
		return "N/A"
	}
	return d.Date.Format(time.DateOnly)
}

// BusiestDay returns the date with most transactions. Ties go to the earliest
// date; an empty table yields a zero date and count.
func BusiestDay(t *table.Table) DayCount {
	var best DayCount
	for _, d := range dailyCounts(t) {
		if d.Count > best.Count {
			best = d
		}
	}
	return best
}

// AmountSummary holds the largest single movements and the mean amount.
type AmountSummary struct {
	MaxReceived decimal.Decimal `json:"max_received"`
	MaxSent     decimal.Decimal `json:"max_sent"`
	Mean        decimal.Decimal `json:"mean"`
}

// AmountStats returns per-direction maxima (0 when a direction has no amounts)
// and the unrounded mean over every non-missing amount (0 when there is none).
func AmountStats(t *table.Table) AmountSummary {
	s := AmountSummary{
		MaxReceived: maxAmount(t.Category(table.CategoryIngreso)),
		MaxSent:     maxAmount(t.Category(table.CategoryEgreso)),
		Mean:        decimal.Zero,
	}

	values := Amounts(t)
	if len(values) > 0 {
		s.Mean = decimal.Sum(values[0], values[1:]...).Div(decimal.NewFromInt(int64(len(values))))
	}
	return s
}

// DayTotal is the summed amount of one calendar date.
type DayTotal struct {
	Date  time.Time       `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// TopDaysByAmount groups by date, sums the amounts and returns at most n days
// ordered by total descending. Equal totals keep the earlier date first.
func TopDaysByAmount(t *table.Table, n int) []DayTotal {
	if n <= 0 {
		return []DayTotal{}
	}

	totals := make(map[time.Time]decimal.Decimal)
	var dates []time.Time
	for _, r := range t.Records() {
		key := r.Date
		if _, seen := totals[key]; !seen {
			totals[key] = decimal.Zero
			dates = append(dates, key)
		}
		if r.Amount.Valid {
			totals[key] = totals[key].Add(r.Amount.Decimal)
		}
	}

	days := make([]DayTotal, 0, len(dates))
	for _, d := range dates {
		days = append(days, DayTotal{Date: d, Total: totals[d]})
	}
	sort.SliceStable(days, func(i, j int) bool {
		if c := days[i].Total.Cmp(days[j].Total); c != 0 {
			return c > 0
		}
		return days[i].Date.Before(days[j].Date)
	})

	if len(days) > n {
		days = days[:n]
	}
	return days
}

// Movement is the projection used by movement rankings.
type Movement struct {
	Date        time.Time       `json:"date"`
	Hour        int             `json:"hour"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Amount      decimal.Decimal `json:"amount"`
}

// TopMovements returns the n largest movements of a category. Rows with a missing
// amount are skipped and equal amounts keep table order.
func TopMovements(t *table.Table, category table.Category, n int) []Movement {
	if n <= 0 {
		return []Movement{}
	}

	var rows []table.Record
	for _, r := range t.Category(category).Records() {
		if r.Amount.Valid {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount.Decimal.GreaterThan(rows[j].Amount.Decimal)
	})
	if len(rows) > n {
		rows = rows[:n]
	}

	out := make([]Movement, 0, len(rows))
	for _, r := range rows {
		out = append(out, Movement{
			Date:        r.Date,
			Hour:        r.Hour,
			Origin:      r.Origin,
			Destination: r.Destination,
			Amount:      r.Amount.Decimal,
		})
	}
	return out
}

// Ratios compares money in against money out.
type Ratios struct {
	PctIngreso decimal.Decimal `json:"pct_ingreso"`
	PctEgreso  decimal.Decimal `json:"pct_egreso"`
	Ratio      decimal.Decimal `json:"ratio"`
	TotalMoved decimal.Decimal `json:"total_moved"`
	Band       RatioBand       `json:"band"`
}

// RatioBand classifies the sent/received ratio.
type RatioBand string

const (
	BandHealthy RatioBand = "saludable" // ratio <= 0.8
	BandCaution RatioBand = "cuidado"   // 0.8 < ratio <= 1
	BandDeficit RatioBand = "deficit"   // ratio > 1
)

var (
	cautionRatio = decimal.RequireFromString("0.8")
	deficitRatio = decimal.NewFromInt(1)
)

// BandFor maps a sent/received ratio to its band.
func BandFor(ratio decimal.Decimal) RatioBand {
	switch {
	case ratio.GreaterThan(deficitRatio):
		return BandDeficit
	case ratio.GreaterThan(cautionRatio):
		return BandCaution
	default:
		return BandHealthy
	}
}

// CalculateRatios derives percentages from the KPIs. When nothing moved both
// percentages are 0; otherwise they add up to exactly 100. Ratio is 0 when
// nothing was received.
func CalculateRatios(k KPIs) Ratios {
	r := Ratios{
		PctIngreso: decimal.Zero,
		PctEgreso:  decimal.Zero,
		Ratio:      decimal.Zero,
		TotalMoved: k.TotalReceived.Add(k.TotalSent),
	}

	if r.TotalMoved.IsPositive() {
		r.PctIngreso = k.TotalReceived.Mul(hundred).DivRound(r.TotalMoved, 4)
		r.PctEgreso = hundred.Sub(r.PctIngreso)
	}
	if k.TotalReceived.IsPositive() {
		r.Ratio = k.TotalSent.DivRound(k.TotalReceived, 4)
	}
	r.Band = BandFor(r.Ratio)
	return r
}

// Amounts returns every non-missing amount in table order.
func Amounts(t *table.Table) []decimal.Decimal {
	var out []decimal.Decimal
	for _, r := range t.Records() {
		if r.Amount.Valid {
			out = append(out, r.Amount.Decimal)
		}
	}
	return out
}

// Percentile returns the p-th quantile (0..1) of values using linear
// interpolation between closest ranks. values need not be sorted.
func Percentile(values []decimal.Decimal, p float64) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := sortedCopy(values)
	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []decimal.Decimal, p float64) decimal.Decimal {
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[len(sorted)-1]
	}

	rank := decimal.NewFromFloat(p).Mul(decimal.NewFromInt(int64(len(sorted) - 1)))
	lo := rank.Floor()
	i := int(lo.IntPart())
	if i+1 >= len(sorted) {
		return sorted[i]
	}
	frac := rank.Sub(lo)
	return sorted[i].Add(sorted[i+1].Sub(sorted[i]).Mul(frac))
}

func sortedCopy(values []decimal.Decimal) []decimal.Decimal {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	return sorted
}

func sumAmounts(t *table.Table) decimal.Decimal {
	total := decimal.Zero
	for _, r := range t.Records() {
		if r.Amount.Valid {
			total = total.Add(r.Amount.Decimal)
		}
	}
	return total
}

func maxAmount(t *table.Table) decimal.Decimal {
	best := decimal.Zero
	for _, r := range t.Records() {
		if r.Amount.Valid && r.Amount.Decimal.GreaterThan(best) {
			best = r.Amount.Decimal
		}
	}
	return best
}

// dailyCounts returns transaction counts per date in ascending date order.
func dailyCounts(t *table.Table) []DayCount {
	counts := make(map[time.Time]int)
	for _, r := range t.Records() {
		counts[r.Date]++
	}
	out := make([]DayCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, DayCount{Date: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

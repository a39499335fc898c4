package metrics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/yape-insights/internal/domain/statement/table"
)

// Series feeding the dashboard charts.

// HourlyDistribution returns 24 buckets, one per hour, including empty hours.
func HourlyDistribution(t *table.Table) []HourCount {
	out := make([]HourCount, 24)
	for h := range out {
		out[h].Hour = h
	}
	for _, r := range t.Records() {
		out[r.Hour].Count++
	}
	return out
}

// WeekdayCount is the number of transactions on one day of the week.
type WeekdayCount struct {
	Day   time.Weekday `json:"day"`
	Label string       `json:"label"`
	Count int          `json:"count"`
}

var mondayFirst = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayDistribution returns seven buckets from Monday to Sunday with Spanish labels.
func WeekdayDistribution(t *table.Table) []WeekdayCount {
	counts := make(map[time.Weekday]int)
	for _, r := range t.Records() {
		counts[r.DayOfWeek]++
	}

	out := make([]WeekdayCount, 0, len(mondayFirst))
	for _, d := range mondayFirst {
		out = append(out, WeekdayCount{Day: d, Label: table.SpanishWeekday(d), Count: counts[d]})
	}
	return out
}

// TimeRangeCount is the number of transactions in one time-of-day bucket.
type TimeRangeCount struct {
	Range table.TimeRange `json:"range"`
	Count int             `json:"count"`
}

// TimeRangeDistribution returns the four buckets in hour order.
func TimeRangeDistribution(t *table.Table) []TimeRangeCount {
	counts := make(map[table.TimeRange]int)
	for _, r := range t.Records() {
		counts[r.TimeRange]++
	}

	out := make([]TimeRangeCount, 0, len(table.TimeRanges))
	for _, tr := range table.TimeRanges {
		out = append(out, TimeRangeCount{Range: tr, Count: counts[tr]})
	}
	return out
}

// DailyPoint is the summed amount of one category on one date.
type DailyPoint struct {
	Date     time.Time       `json:"date"`
	Category table.Category  `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

var categoryOrder = map[table.Category]int{
	table.CategoryIngreso: 0,
	table.CategoryEgreso:  1,
	table.CategoryOtro:    2,
}

// DailyEvolution sums amounts per (date, category) for every pair present in
// the table, ordered by date and then Ingreso, Egreso, Otro.
func DailyEvolution(t *table.Table) []DailyPoint {
	type key struct {
		date     time.Time
		category table.Category
	}
	totals := make(map[key]decimal.Decimal)
	for _, r := range t.Records() {
		k := key{r.Date, r.Category}
		sum, ok := totals[k]
		if !ok {
			sum = decimal.Zero
		}
		if r.Amount.Valid {
			sum = sum.Add(r.Amount.Decimal)
		}
		totals[k] = sum
	}

	out := make([]DailyPoint, 0, len(totals))
	for k, v := range totals {
		out = append(out, DailyPoint{Date: k.date, Category: k.category, Total: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return categoryOrder[out[i].Category] < categoryOrder[out[j].Category]
	})
	return out
}

// CategoryTotal is the income or expense side of the comparison chart.
type CategoryTotal struct {
	Category table.Category  `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// CategoryTotals compares Ingreso against Egreso.
func CategoryTotals(t *table.Table) []CategoryTotal {
	out := make([]CategoryTotal, 0, 2)
	for _, c := range []table.Category{table.CategoryIngreso, table.CategoryEgreso} {
		sub := t.Category(c)
		out = append(out, CategoryTotal{Category: c, Total: sumAmounts(sub), Count: sub.Len()})
	}
	return out
}

// AmountBox summarizes the amount distribution of one category.
type AmountBox struct {
	Category table.Category  `json:"category"`
	Count    int             `json:"count"`
	Min      decimal.Decimal `json:"min"`
	Q1       decimal.Decimal `json:"q1"`
	Median   decimal.Decimal `json:"median"`
	Q3       decimal.Decimal `json:"q3"`
	Max      decimal.Decimal `json:"max"`
}

// AmountDistribution returns one box per category that has at least one
// non-missing amount, in Ingreso, Egreso, Otro order.
func AmountDistribution(t *table.Table) []AmountBox {
	var out []AmountBox
	for _, c := range []table.Category{table.CategoryIngreso, table.CategoryEgreso, table.CategoryOtro} {
		values := Amounts(t.Category(c))
		if len(values) == 0 {
			continue
		}
		sorted := sortedCopy(values)
		out = append(out, AmountBox{
			Category: c,
			Count:    len(sorted),
			Min:      sorted[0],
			Q1:       percentileSorted(sorted, 0.25),
			Median:   percentileSorted(sorted, 0.5),
			Q3:       percentileSorted(sorted, 0.75),
			Max:      sorted[len(sorted)-1],
		})
	}
	return out
}

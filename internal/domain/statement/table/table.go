// Package table holds the normalized transaction table produced by the statement loader.
// A Table is immutable once built: every accessor returns copies and every filter
// returns a new Table.
package table

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the direction of a movement relative to the account holder.
type Category string

const (
	CategoryIngreso Category = "Ingreso" // money received
	CategoryEgreso  Category = "Egreso"  // money sent
	CategoryOtro    Category = "Otro"    // matched neither keyword set
)

// TimeRange is one of the four fixed hour-of-day buckets.
type TimeRange string

const (
	TimeRangeMadrugada TimeRange = "Madrugada" // [0,6)
	TimeRangeManana    TimeRange = "Mañana"    // [6,12)
	TimeRangeTarde     TimeRange = "Tarde"     // [12,18)
	TimeRangeNoche     TimeRange = "Noche"     // [18,24)
)

// TimeRanges lists the buckets in hour order.
var TimeRanges = []TimeRange{TimeRangeMadrugada, TimeRangeManana, TimeRangeTarde, TimeRangeNoche}

// TimeRangeForHour maps an hour 0-23 to its bucket.
func TimeRangeForHour(hour int) TimeRange {
	switch {
	case hour < 6:
		return TimeRangeMadrugada
	case hour < 12:
		return TimeRangeManana
	case hour < 18:
		return TimeRangeTarde
	default:
		return TimeRangeNoche
	}
}

var spanishWeekdays = [...]string{
	time.Sunday:    "Domingo",
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
}

// SpanishWeekday returns the Spanish display name of a weekday.
func SpanishWeekday(d time.Weekday) string {
	return spanishWeekdays[d]
}

// DateOf truncates a timestamp to midnight in its own location.
func DateOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}

// Record is one normalized transaction.
type Record struct {
	Timestamp       time.Time
	Date            time.Time
	Hour            int
	DayOfWeek       time.Weekday
	TimeRange       TimeRange
	RawMovementType string
	Category        Category
	Amount          decimal.NullDecimal // Valid=false means the amount could not be parsed
	Origin          string
	Destination     string
	Message         string
	SourceRow       int // 1-based row in the source sheet
}

// NewRecord builds a record and derives every time-based field from ts.
func NewRecord(ts time.Time, rawMovementType string, category Category, amount decimal.NullDecimal) Record {
	return Record{
		Timestamp:       ts,
		Date:            DateOf(ts),
		Hour:            ts.Hour(),
		DayOfWeek:       ts.Weekday(),
		TimeRange:       TimeRangeForHour(ts.Hour()),
		RawMovementType: rawMovementType,
		Category:        category,
		Amount:          amount,
	}
}

// DayName returns the English weekday name, as exported by most spreadsheet tools.
func (r Record) DayName() string {
	return r.DayOfWeek.String()
}

// Table is an ordered, read-only collection of records.
type Table struct {
	records []Record
}

// New copies records into a new table.
func New(records []Record) *Table {
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Table{records: cp}
}

// Len returns the number of records. A nil table is empty.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// At returns the i-th record by value.
func (t *Table) At(i int) Record {
	return t.records[i]
}

// Records returns a copy of the underlying records.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	cp := make([]Record, len(t.records))
	copy(cp, t.records)
	return cp
}

// Filter returns a new table with the records for which keep returns true.
func (t *Table) Filter(keep func(Record) bool) *Table {
	out := make([]Record, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if keep(t.records[i]) {
			out = append(out, t.records[i])
		}
	}
	return &Table{records: out}
}

// Category returns the records of a single movement category.
func (t *Table) Category(c Category) *Table {
	return t.Filter(func(r Record) bool { return r.Category == c })
}

// FilterByDateRange keeps records whose Date lies in [start, end], both inclusive.
// Only the calendar date of start and end is considered.
func (t *Table) FilterByDateRange(start, end time.Time) *Table {
	start, end = civil(start), civil(end)
	return t.Filter(func(r Record) bool {
		d := civil(r.Date)
		return !d.Before(start) && !d.After(end)
	})
}

// MinDate returns the earliest record date; ok is false for an empty table.
func (t *Table) MinDate() (time.Time, bool) {
	return t.dateBound(func(a, b time.Time) bool { return a.Before(b) })
}

// MaxDate returns the latest record date; ok is false for an empty table.
func (t *Table) MaxDate() (time.Time, bool) {
	return t.dateBound(func(a, b time.Time) bool { return a.After(b) })
}

func (t *Table) dateBound(better func(a, b time.Time) bool) (time.Time, bool) {
	if t.Len() == 0 {
		return time.Time{}, false
	}
	bound := t.records[0].Date
	for _, r := range t.records[1:] {
		if better(r.Date, bound) {
			bound = r.Date
		}
	}
	return bound, true
}

// civil drops the location so dates from different zones compare by calendar day.
func civil(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

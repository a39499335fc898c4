// Package normalizer re-reads a located statement sheet and coerces its cells into
// typed values: day-first timestamps and currency amounts.
package normalizer

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	ErrInvalidAmount = errors.New("invalid amount format")
	ErrInvalidDate   = errors.New("invalid date format")
)

// Only the sol marker and thousands separators are stripped; anything else
// left in the text makes the amount missing.
var amountNoise = strings.NewReplacer(
	"S/", "",
	",", "",
)

// ParseAmount converts a currency string such as "S/ 1,234.50" into a non-negative
// decimal. Text that cannot be parsed yields a missing value (Valid=false) and
// ErrInvalidAmount; it is never turned into zero.
func ParseAmount(raw string) (decimal.NullDecimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}, ErrInvalidAmount
	}

	// Numeric cells keep their digits; only the sign is dropped.
	if d, err := decimal.NewFromString(raw); err == nil {
		return decimal.NewNullDecimal(d.Abs()), nil
	}

	cleaned := strings.TrimSpace(amountNoise.Replace(raw))
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}, ErrInvalidAmount
	}
	return decimal.NewNullDecimal(d.Abs()), nil
}

// Day-first layouts, most specific first.
var dateFormats = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"02/01/2006 03:04:05 PM",
	"02/01/2006 03:04 PM",
	"2/1/2006 3:04:05 PM",
	"2/1/2006 3:04 PM",
	"02/01/2006",
	"2/1/2006",

	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006",

	"02.01.2006 15:04:05",
	"02.01.2006",

	// ISO
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Spanish locales write the meridiem as "a. m." / "p. m.".
var meridiemPattern = regexp.MustCompile(`(?i)\s*\b([ap])\.?\s?m\.?$`)

// Largest serial Excel can represent (31/12/9999).
const maxExcelSerial = 2958465

// extrame/xls prints cells in built-in date formats as year.month only.
var monthOnlyPattern = regexp.MustCompile(`^\d{4}\.\d{2}$`)

// ParseOperationTime parses a textual operation timestamp as day-first. Naive
// timestamps are interpreted in loc; zoned RFC3339 input is converted to loc.
func ParseOperationTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	if loc == nil {
		loc = time.UTC
	}

	raw = meridiemPattern.ReplaceAllStringFunc(raw, func(m string) string {
		if strings.ContainsAny(strings.ToLower(m), "p") {
			return " PM"
		}
		return " AM"
	})

	for _, format := range dateFormats {
		if t, err := time.ParseInLocation(format, raw, loc); err == nil {
			return t, nil
		}
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}

	return time.Time{}, ErrInvalidDate
}

// ParseCellTime parses a timestamp read from a workbook cell. Besides the
// textual layouts it accepts bare numbers as Excel serial dates, kept as wall
// clock in loc. Month-only renderings carry no day and are rejected.
func ParseCellTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if monthOnlyPattern.MatchString(raw) {
		return time.Time{}, ErrInvalidDate
	}
	if loc == nil {
		loc = time.UTC
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return fromExcelSerial(serial, loc)
	}
	return ParseOperationTime(raw, loc)
}

func fromExcelSerial(serial float64, loc *time.Location) (time.Time, error) {
	if serial <= 0 || serial > maxExcelSerial || math.IsNaN(serial) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	t = t.Round(time.Second)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}

var spacePattern = regexp.MustCompile(`\s+`)

// CleanText trims and collapses whitespace in free-text cells.
func CleanText(raw string) string {
	return spacePattern.ReplaceAllString(strings.TrimSpace(raw), " ")
}

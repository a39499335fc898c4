package normalizer

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"S/ 1,234.50", "1234.50"},
		{"S/25", "25"},
		{"S/\u00a012.50", "12.50"},
		{"1,000,000.00", "1000000"},
		{"0.99", "0.99"},
		{"  12.99  ", "12.99"},
		{"-29.99", "29.99"}, // sign dropped
		{"S/ -29.99", "29.99"},
		{"S/ 10.00", "10"},
		{"150", "150"},
	}

	for _, tc := range tests {
		got, err := ParseAmount(tc.input)
		if err != nil {
			t.Errorf("ParseAmount(%q) error: %v", tc.input, err)
			continue
		}
		if !got.Valid {
			t.Errorf("ParseAmount(%q) returned missing", tc.input)
			continue
		}
		if want := decimal.RequireFromString(tc.expected); !got.Decimal.Equal(want) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tc.input, got.Decimal, want)
		}
	}
}

func TestParseAmount_Missing(t *testing.T) {
	inputs := []string{"abc", "", "   ", "S/", "12.3.4", "nan", "S/ 1 234", "$45.23", "S/. 45.23", "US$ 10"}

	for _, input := range inputs {
		got, err := ParseAmount(input)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParseAmount(%q) expected ErrInvalidAmount, got %v", input, err)
		}
		if got.Valid {
			t.Errorf("ParseAmount(%q) = %s, want missing", input, got.Decimal)
		}
	}
}

func TestParseOperationTime(t *testing.T) {
	lima, err := time.LoadLocation("America/Lima")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		input    string
		expected time.Time
	}{
		{"01/03/2024 12:30:00", time.Date(2024, 3, 1, 12, 30, 0, 0, lima)},
		{"13/03/2024 09:05", time.Date(2024, 3, 13, 9, 5, 0, 0, lima)},
		{"5/3/2024 7:05:09", time.Date(2024, 3, 5, 7, 5, 9, 0, lima)},
		{"02/03/2024", time.Date(2024, 3, 2, 0, 0, 0, 0, lima)},
		{"02-03-2024 18:00", time.Date(2024, 3, 2, 18, 0, 0, 0, lima)},
		{"2024-03-02 18:00:00", time.Date(2024, 3, 2, 18, 0, 0, 0, lima)},
		{"02/03/2024 02:30 p. m.", time.Date(2024, 3, 2, 14, 30, 0, 0, lima)},
		{"02/03/2024 9:15:00 a.m.", time.Date(2024, 3, 2, 9, 15, 0, 0, lima)},
		{"02/03/2024 12:10 AM", time.Date(2024, 3, 2, 0, 10, 0, 0, lima)},
		{"2024-01-05T10:30:00-05:00", time.Date(2024, 1, 5, 10, 30, 0, 0, lima)},
	}

	for _, tc := range tests {
		got, err := ParseOperationTime(tc.input, lima)
		if err != nil {
			t.Errorf("ParseOperationTime(%q) error: %v", tc.input, err)
			continue
		}
		if !got.Equal(tc.expected) {
			t.Errorf("ParseOperationTime(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestParseOperationTime_DayFirst(t *testing.T) {
	got, err := ParseOperationTime("04/05/2024 10:00:00", time.UTC)
	if err != nil {
		t.Fatalf("ParseOperationTime error: %v", err)
	}
	if got.Day() != 4 || got.Month() != time.May {
		t.Errorf("Expected 4 May, got %v", got)
	}
}

func TestParseOperationTime_Invalid(t *testing.T) {
	inputs := []string{"", "not a date", "31/02/2024", "-5", "2024/13/45", "45352.5", "2024.01"}

	for _, input := range inputs {
		if _, err := ParseOperationTime(input, time.UTC); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseOperationTime(%q) expected ErrInvalidDate, got %v", input, err)
		}
	}
}

func TestParseCellTime(t *testing.T) {
	lima, err := time.LoadLocation("America/Lima")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		input    string
		expected time.Time
	}{
		{"45352.5", time.Date(2024, 3, 1, 12, 0, 0, 0, lima)},
		{"45296.125", time.Date(2024, 1, 5, 3, 0, 0, 0, lima)},
		{"45296.4375", time.Date(2024, 1, 5, 10, 30, 0, 0, lima)},
		{"2024-01-05 03:00:00", time.Date(2024, 1, 5, 3, 0, 0, 0, lima)},
		{"05/01/2024 10:30", time.Date(2024, 1, 5, 10, 30, 0, 0, lima)},
	}

	for _, tc := range tests {
		got, err := ParseCellTime(tc.input, lima)
		if err != nil {
			t.Errorf("ParseCellTime(%q) error: %v", tc.input, err)
			continue
		}
		if !got.Equal(tc.expected) || got.Hour() != tc.expected.Hour() || got.Day() != tc.expected.Day() {
			t.Errorf("ParseCellTime(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestParseCellTime_Invalid(t *testing.T) {
	inputs := []string{"", "2024.01", "1999.12", "0", "-1", "2958466", "no es fecha"}

	for _, input := range inputs {
		if _, err := ParseCellTime(input, time.UTC); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseCellTime(%q) expected ErrInvalidDate, got %v", input, err)
		}
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Juan   Perez  ", "Juan Perez"},
		{"pago\tdel\nalmuerzo", "pago del almuerzo"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := CleanText(tc.input); got != tc.expected {
			t.Errorf("CleanText(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

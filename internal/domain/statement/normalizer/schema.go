package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Column names as they appear in the statement export.
const (
	ColumnMovementType  = "Tipo de Transacción"
	ColumnOperationDate = "Fecha de operación"
	ColumnAmount        = "Monto"
	ColumnOrigin        = "Origen"
	ColumnDestination   = "Destino"
	ColumnMessage       = "Mensaje"
)

// RequiredColumns must be present, matched literally, for a statement to load.
var RequiredColumns = []string{ColumnMovementType, ColumnOperationDate, ColumnAmount}

var ErrSchemaValidation = errors.New("statement is missing required columns")

// SchemaValidationError lists the required columns absent from the header row.
type SchemaValidationError struct {
	Missing []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSchemaValidation, strings.Join(e.Missing, ", "))
}

func (e *SchemaValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// Row is a data row below the header, still untyped.
type Row struct {
	Cells     []string
	SourceRow int // 1-based row in the sheet
}

// Frame is the sheet re-read with the located header row as column names.
type Frame struct {
	Columns     []string
	Rows        []Row
	BlankRows   int // rows dropped because every cell was empty
	index       map[string]int
	headerIndex int
}

// NewFrame uses rows[headerRow] as column names and everything below it as data.
// Blank rows are dropped and the required columns are validated before any row is
// returned.
func NewFrame(rows [][]string, headerRow int) (*Frame, error) {
	if headerRow < 0 || headerRow >= len(rows) {
		return nil, fmt.Errorf("header row %d out of range (sheet has %d rows)", headerRow, len(rows))
	}

	f := &Frame{
		index:       make(map[string]int),
		headerIndex: headerRow,
	}
	for i, name := range rows[headerRow] {
		name = norm.NFC.String(strings.TrimSpace(name))
		f.Columns = append(f.Columns, name)
		if name == "" {
			continue
		}
		if _, dup := f.index[name]; !dup {
			f.index[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !f.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaValidationError{Missing: missing}
	}

	for i := headerRow + 1; i < len(rows); i++ {
		if isBlank(rows[i]) {
			f.BlankRows++
			continue
		}
		f.Rows = append(f.Rows, Row{Cells: rows[i], SourceRow: i + 1})
	}

	return f, nil
}

// HeaderRow returns the 0-based index of the row used as column names.
func (f *Frame) HeaderRow() int {
	return f.headerIndex
}

// Has reports whether the header row carries the column.
func (f *Frame) Has(column string) bool {
	_, ok := f.index[column]
	return ok
}

// Value returns the trimmed cell of row under column, or "" when either is absent.
func (f *Frame) Value(r Row, column string) string {
	i, ok := f.index[column]
	if !ok || i >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[i])
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

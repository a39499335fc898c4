package normalizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titledSheet() [][]string {
	return [][]string{
		{"Reporte de movimientos Yape"},
		{},
		{"Titular", "Juan Perez"},
		{"Periodo", "Marzo 2024"},
		{"", "", ""},
		{"Generado", "01/04/2024"},
		{},
		{"Tipo de Transacción", "Origen", "Destino", "Monto", "Mensaje", "Fecha de operación"},
		{"Te yapearon", "Maria", "Juan", "S/ 25.00", "almuerzo", "01/03/2024 12:30:00"},
		{"  ", "", ""},
		{"Yapeaste", "Juan", "Bodega", "S/ 8.50", "", "02/03/2024 09:00:00"},
	}
}

func TestNewFrame_HeaderAfterTitleBlock(t *testing.T) {
	f, err := NewFrame(titledSheet(), 7)
	require.NoError(t, err)

	assert.Equal(t, 7, f.HeaderRow())
	assert.Len(t, f.Rows, 2)
	assert.Equal(t, 1, f.BlankRows)
	assert.Equal(t, 9, f.Rows[0].SourceRow)
	assert.Equal(t, 11, f.Rows[1].SourceRow)

	assert.Equal(t, "Te yapearon", f.Value(f.Rows[0], ColumnMovementType))
	assert.Equal(t, "S/ 8.50", f.Value(f.Rows[1], ColumnAmount))
	assert.Equal(t, "", f.Value(f.Rows[1], ColumnMessage))
}

func TestNewFrame_MissingColumns(t *testing.T) {
	rows := [][]string{
		{"Tipo de Transacción", "Importe", "Fecha"},
		{"Te yapearon", "10", "01/03/2024"},
	}

	_, err := NewFrame(rows, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaValidation))

	var schemaErr *SchemaValidationError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{ColumnOperationDate, ColumnAmount}, schemaErr.Missing)
}

func TestNewFrame_LiteralColumnMatch(t *testing.T) {
	// Lower-cased names do not satisfy the literal check.
	rows := [][]string{{"tipo de transacción", "fecha de operación", "monto"}}

	_, err := NewFrame(rows, 0)
	var schemaErr *SchemaValidationError
	require.True(t, errors.As(err, &schemaErr))
	assert.Len(t, schemaErr.Missing, 3)
}

func TestNewFrame_TrimmedAndDuplicateHeaders(t *testing.T) {
	rows := [][]string{
		{" Tipo de Transacción ", "Fecha de operación", "Monto", "Monto"},
		{"Yapeaste", "01/03/2024", "1", "2"},
	}

	f, err := NewFrame(rows, 0)
	require.NoError(t, err)
	assert.Equal(t, "1", f.Value(f.Rows[0], ColumnAmount))
	assert.Equal(t, "Yapeaste", f.Value(f.Rows[0], ColumnMovementType))
}

func TestNewFrame_ShortRows(t *testing.T) {
	rows := [][]string{
		{"Tipo de Transacción", "Fecha de operación", "Monto", "Origen"},
		{"Yapeaste", "01/03/2024"},
	}

	f, err := NewFrame(rows, 0)
	require.NoError(t, err)
	require.Len(t, f.Rows, 1)
	assert.Equal(t, "", f.Value(f.Rows[0], ColumnAmount))
	assert.Equal(t, "", f.Value(f.Rows[0], ColumnOrigin))
}

func TestNewFrame_HeaderOutOfRange(t *testing.T) {
	_, err := NewFrame([][]string{{"a"}}, 3)
	assert.Error(t, err)
}

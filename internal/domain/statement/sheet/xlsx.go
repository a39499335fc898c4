package sheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX keeps raw cell values so date cells come back as Excel serials instead
// of locale-formatted text.
func readXLSX(data []byte) (*RawSheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{
		RawCellValue: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	name := sheets[0]

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	return &RawSheet{Name: name, Rows: rows}, nil
}

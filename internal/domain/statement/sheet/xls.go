package sheet

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/extrame/xls"
)

// wallClockLayout is how xls date cells are handed to the normalizer.
const wallClockLayout = "2006-01-02 15:04:05"

func readXLS(data []byte) (*RawSheet, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open XLS file: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, ErrEmptyFile
	}

	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, fmt.Errorf("could not read first sheet")
	}

	s := &RawSheet{Name: ws.Name}
	// A single-row sheet cannot hold a header and data; ReadAllCells also
	// skips sheets whose MaxRow is 0 and would spill into the next sheet.
	if ws.MaxRow == 0 {
		return s, nil
	}

	// ReadAllCells walks the rows that exist; WorkSheet.Row panics on gaps.
	rows := wb.ReadAllCells(int(ws.MaxRow) + 1)
	for _, row := range rows {
		for i, cell := range row {
			row[i] = wallClock(cell)
		}
		s.Rows = append(s.Rows, row)
	}

	return s, nil
}

// wallClock undoes extrame/xls rendering of custom date formats, which prints
// the cell's wall-clock time as RFC3339 with a Z offset. The cell never carried
// a zone, so the Z is dropped and the time is kept as written.
func wallClock(cell string) string {
	if !strings.HasSuffix(cell, "Z") {
		return cell
	}
	t, err := time.Parse(time.RFC3339, cell)
	if err != nil {
		return cell
	}
	return t.Format(wallClockLayout)
}

package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// readCSV reads a delimited text export. The delimiter is whichever candidate
// appears most often across the first lines.
func readCSV(data []byte) (*RawSheet, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(data)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	s := &RawSheet{Name: "csv"}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		s.Rows = append(s.Rows, record)
	}
	return s, nil
}

func detectDelimiter(data []byte) rune {
	counts := make(map[rune]int)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for lines := 0; scanner.Scan() && lines < 20; lines++ {
		line := scanner.Text()
		for _, d := range candidateDelimiters {
			counts[d] += strings.Count(line, string(d))
		}
	}

	best := ','
	for _, d := range candidateDelimiters {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// Package sheet reads an uploaded workbook into an untyped grid of cells.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyFile         = errors.New("file contains no rows")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Format identifies the container a statement was exported in.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

var (
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// RawSheet is a header-less grid of cell text. Rows may have different lengths.
type RawSheet struct {
	Name   string
	Format Format
	Rows   [][]string
}

// DetectFormat picks the reader from the file extension, falling back to the
// leading bytes when the extension is missing or unknown.
func DetectFormat(fileName string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	}

	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(data, ole2Magic):
		return FormatXLS, nil
	case isText(data):
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
}

// Read decodes the first sheet of the workbook.
func Read(fileName string, data []byte) (*RawSheet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	format, err := DetectFormat(fileName, data)
	if err != nil {
		return nil, err
	}

	var s *RawSheet
	switch format {
	case FormatXLSX:
		s, err = readXLSX(data)
	case FormatXLS:
		s, err = readXLS(data)
	default:
		s, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}

	s.Format = format
	if len(s.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return s, nil
}

// isText reports whether the sample has no NUL bytes, which rules out binary
// containers we do not know how to read.
func isText(data []byte) bool {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	return bytes.IndexByte(sample, 0) == -1
}

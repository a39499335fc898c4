// Package sniffer locates the header row of a payment statement export.
// Exports usually carry a title block (account holder, period, totals) above the
// real column headers, so the header position varies from file to file.
package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultScanRows is the minimum number of leading rows inspected for a header.
const DefaultScanRows = 20

// headerAnchors are matched as lower-cased substrings of any cell in a row.
var headerAnchors = []string{
	"fecha de operación",
	"tipo de transacción",
}

var ErrHeaderNotFound = errors.New("could not find header row")

// HeaderNotFoundError reports that no anchor matched within the scanned window.
type HeaderNotFoundError struct {
	ScannedRows int
}

func (e *HeaderNotFoundError) Error() string {
	return fmt.Sprintf("%s in the first %d rows", ErrHeaderNotFound, e.ScannedRows)
}

func (e *HeaderNotFoundError) Unwrap() error {
	return ErrHeaderNotFound
}

// FindHeaderRow returns the index of the first row, among the first maxRows, that
// contains a header anchor. maxRows below DefaultScanRows is raised to it.
//
// The heuristic is deliberately simple: a title row that happens to mention
// "fecha de operación" before the real header will be picked instead.
func FindHeaderRow(rows [][]string, maxRows int) (int, error) {
	if maxRows < DefaultScanRows {
		maxRows = DefaultScanRows
	}

	scanned := 0
	for i, row := range rows {
		if i >= maxRows {
			break
		}
		scanned++

		for _, cell := range row {
			if cell == "" {
				continue
			}
			cellLower := strings.ToLower(norm.NFC.String(cell))
			for _, anchor := range headerAnchors {
				if strings.Contains(cellLower, anchor) {
					return i, nil
				}
			}
		}
	}

	return -1, &HeaderNotFoundError{ScannedRows: scanned}
}

// Fingerprint creates a stable hash from header names so the same export layout
// can be recognised across uploads.
func Fingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, norm.NFC.String(h))
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	joined := strings.Join(normalized, "|")
	hash := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(hash[:])
}

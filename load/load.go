package load

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dnldd/vwapchart/shared"
)

var (
	// ErrUnsupportedFormat is returned for uploads that are neither csv nor xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .xlsx")
	// ErrEmptyFile is returned when an upload contains no records.
	ErrEmptyFile = errors.New("file contains no records")
	// ErrMalformedRecord is returned when a record does not have the expected field count.
	ErrMalformedRecord = errors.New("malformed record")
)

// Load parses the provided upload into positional records, dispatching on the
// file extension.
func Load(filename string, data []byte) ([]shared.Record, error) {
	var records []shared.Record
	var err error

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		records, err = ParseCSV(bytes.NewReader(data))
	case ".xlsx":
		records, err = ParseXLSX(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%s: %w", filename, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filename, err)
	}

	return records, nil
}

// toRecord converts the provided fields into a record. Rows shorter than the record
// width only lose their trailing fields, which spreadsheets drop when empty.
func toRecord(row int, fields []string, pad bool) (shared.Record, error) {
	var rec shared.Record

	n := len(fields)
	switch {
	case n > shared.RecordFields:
		return rec, fmt.Errorf("row %d has %d fields, expected %d: %w",
			row, n, shared.RecordFields, ErrMalformedRecord)
	case n < shared.RecordFields && !pad:
		return rec, fmt.Errorf("row %d has %d fields, expected %d: %w",
			row, n, shared.RecordFields, ErrMalformedRecord)
	}

	for idx := range fields {
		rec[idx] = strings.TrimSpace(fields[idx])
	}

	return rec, nil
}

// isBlank checks whether all of the provided fields are empty.
func isBlank(fields []string) bool {
	for idx := range fields {
		if strings.TrimSpace(fields[idx]) != "" {
			return false
		}
	}

	return true
}

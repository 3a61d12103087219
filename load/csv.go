package load

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dnldd/vwapchart/shared"
)

const (
	// utf8BOM is the byte order mark some spreadsheet exports prefix csv files with.
	utf8BOM = "\ufeff"
)

// ParseCSV parses headerless csv data into positional records.
func ParseCSV(r io.Reader) ([]shared.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records := make([]shared.Record, 0, 512)
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %w", row, err)
		}

		if row == 1 && len(fields) > 0 {
			fields[0] = strings.TrimPrefix(fields[0], utf8BOM)
		}

		if isBlank(fields) {
			continue
		}

		rec, err := toRecord(row, fields, false)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	return records, nil
}

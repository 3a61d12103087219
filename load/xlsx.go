package load

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dnldd/vwapchart/shared"
	"github.com/xuri/excelize/v2"
)

const (
	// maxDateSerial is the serial of the last date excel can represent, 9999-12-31.
	maxDateSerial = 2958465
)

// ParseXLSX parses the first sheet of headerless xlsx data into positional records.
func ParseXLSX(r io.Reader) ([]shared.Record, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}

	records := make([]shared.Record, 0, len(rows))
	for idx := range rows {
		fields := rows[idx]
		if isBlank(fields) {
			continue
		}

		rec, err := toRecord(idx+1, fields, true)
		if err != nil {
			return nil, err
		}

		rec[shared.DateField] = serialDate(rec[shared.DateField])
		rec[shared.TimeField] = serialTime(rec[shared.TimeField])
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	return records, nil
}

// serialDate converts an excel date serial into a date string. Values that are not
// serials are returned unchanged.
func serialDate(value string) string {
	serial, ok := parseSerial(value)
	if !ok || serial < 1 || serial > maxDateSerial {
		return value
	}

	dt, err := excelize.ExcelDateToTime(math.Floor(serial), false)
	if err != nil {
		return value
	}

	return dt.Format(shared.DateLayout)
}

// serialTime converts the fractional day component of an excel serial into a time
// string. Values that are not serials are returned unchanged.
func serialTime(value string) string {
	serial, ok := parseSerial(value)
	if !ok || (serial >= 1 && !strings.Contains(value, ".")) {
		return value
	}

	_, frac := math.Modf(serial)
	seconds := math.Round(frac * 24 * 60 * 60)
	clock := time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seconds) * time.Second)

	return clock.Format("15:04:05")
}

// parseSerial parses a plain numeric cell value.
func parseSerial(value string) (float64, bool) {
	if value == "" || strings.ContainsAny(value, "-/:") {
		return 0, false
	}

	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 {
		return 0, false
	}

	return serial, true
}

package series

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dnldd/vwapchart/shared"
)

var (
	// ErrNoValidDates is returned when no record carries a parseable date time.
	ErrNoValidDates = errors.New("no valid dates found in the file")
	// ErrNoDataForDate is returned when the selected trading date has no rows.
	ErrNoDataForDate = errors.New("no data for the selected date")
)

// dateTimeLayouts are the accepted layouts for a combined date and time, in
// order of preference.
var dateTimeLayouts = []string{
	"2006-1-2 15:04:05.999999999",
	"2006-1-2 15:04",
	"2006/1/2 15:04:05.999999999",
	"2006/1/2 15:04",
	"1/2/2006 15:04:05.999999999",
	"1/2/2006 15:04",
	"20060102 15:04:05.999999999",
	"20060102 15:04",
	"20060102 150405",
	"2006-1-2 150405",
	"2006-01-02T15:04:05.999999999",
}

// ParseDateTime parses the provided date and time fields joined by a single space.
func ParseDateTime(date string, clock string) (time.Time, error) {
	value := strings.TrimSpace(strings.TrimSpace(date) + " " + strings.TrimSpace(clock))
	for _, layout := range dateTimeLayouts {
		dt, err := time.Parse(layout, value)
		if err == nil {
			return dt, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date time %q", value)
}

// parsePrice parses a finite price value.
func parsePrice(value string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("price %q is not finite", value)
	}

	return price, nil
}

// parseVolume parses a volume value, coercing missing or malformed values to zero.
func parseVolume(value string) float64 {
	volume, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(volume) || math.IsInf(volume, 0) {
		return 0
	}

	return volume
}

// Normalize maps the provided records to price rows ordered by time. Records with an
// unparseable date time or price are skipped and counted.
func Normalize(records []shared.Record) ([]shared.PriceRow, int, error) {
	rows := make([]shared.PriceRow, 0, len(records))

	var skipped int
	for idx := range records {
		rec := records[idx]

		dt, err := ParseDateTime(rec[shared.DateField], rec[shared.TimeField])
		if err != nil {
			skipped++
			continue
		}

		var prices [4]float64
		var invalid bool
		for i, field := range []int{shared.OpenField, shared.HighField, shared.LowField, shared.CloseField} {
			prices[i], err = parsePrice(rec[field])
			if err != nil {
				invalid = true
				break
			}
		}
		if invalid {
			skipped++
			continue
		}

		rows = append(rows, shared.PriceRow{
			Date:   dt,
			Open:   prices[0],
			High:   prices[1],
			Low:    prices[2],
			Close:  prices[3],
			Volume: parseVolume(rec[shared.VolumeField]),
		})
	}

	if len(rows) == 0 {
		return nil, skipped, ErrNoValidDates
	}

	slices.SortStableFunc(rows, func(a, b shared.PriceRow) int {
		return a.Date.Compare(b.Date)
	})

	return rows, skipped, nil
}

// truncateDay returns the midnight of the provided time's calendar date.
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// TradingDates returns the distinct calendar dates of the provided rows in
// ascending order.
func TradingDates(rows []shared.PriceRow) []time.Time {
	dates := make([]time.Time, 0, 8)
	for idx := range rows {
		day := truncateDay(rows[idx].Date)
		if !slices.ContainsFunc(dates, day.Equal) {
			dates = append(dates, day)
		}
	}

	slices.SortFunc(dates, func(a, b time.Time) int {
		return a.Compare(b)
	})

	return dates
}

// FilterDate returns the rows that fall on the provided date's calendar day.
func FilterDate(rows []shared.PriceRow, date time.Time) ([]shared.PriceRow, error) {
	year, month, day := date.Date()

	filtered := make([]shared.PriceRow, 0, len(rows))
	for idx := range rows {
		y, m, d := rows[idx].Date.Date()
		if y == year && m == month && d == day {
			filtered = append(filtered, rows[idx])
		}
	}

	if len(filtered) == 0 {
		return nil, fmt.Errorf("%s: %w", date.Format(shared.DateLayout), ErrNoDataForDate)
	}

	return filtered, nil
}

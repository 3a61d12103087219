package series

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/dnldd/vwapchart/shared"
)

// bucketStart returns the start of the fixed width bucket containing the provided
// time. Buckets are aligned to the time's midnight.
func bucketStart(t time.Time, width time.Duration) time.Time {
	midnight := truncateDay(t)
	return midnight.Add(t.Sub(midnight).Truncate(width))
}

// Resample aggregates the provided rows into bars of the provided timeframe. Buckets
// without rows are omitted. Rows sharing a timestamp keep their input order.
func Resample(rows []shared.PriceRow, timeframe shared.Timeframe) ([]shared.Candlestick, error) {
	width, err := timeframe.Duration()
	if err != nil {
		return nil, fmt.Errorf("resampling: %w", err)
	}

	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b shared.PriceRow) int {
		return a.Date.Compare(b.Date)
	})

	bars := make([]shared.Candlestick, 0, len(sorted))
	for idx := range sorted {
		row := sorted[idx]
		start := bucketStart(row.Date, width)

		last := len(bars) - 1
		if last >= 0 && bars[last].Date.Equal(start) {
			bar := &bars[last]
			bar.High = math.Max(bar.High, row.High)
			bar.Low = math.Min(bar.Low, row.Low)
			bar.Close = row.Close
			bar.Volume += row.Volume
			continue
		}

		bars = append(bars, shared.Candlestick{
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
			Date:      start,
			Timeframe: timeframe,
		})
	}

	return bars, nil
}

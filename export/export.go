package export

import (
	"io"
	"math"
	"strings"
	"time"

	"github.com/dnldd/vwapchart/shared"
)

// Exporter defines the requirements for serializing bars for download.
type Exporter interface {
	// Write serializes the provided bars to the writer.
	Write(w io.Writer, bars []shared.Candlestick) error
	// Extension returns the file extension of the exported format.
	Extension() string
	// ContentType returns the media type of the exported format.
	ContentType() string
}

// Bar is the exported representation of a candlestick. VWAP is nil where it is
// not a number.
type Bar struct {
	Date   string   `json:"date" parquet:"date"`
	Open   float64  `json:"open" parquet:"open"`
	High   float64  `json:"high" parquet:"high"`
	Low    float64  `json:"low" parquet:"low"`
	Close  float64  `json:"close" parquet:"close"`
	Volume float64  `json:"volume" parquet:"volume"`
	VWAP   *float64 `json:"vwap" parquet:"vwap,optional"`
}

// NewBars converts the provided candlesticks to exported bars.
func NewBars(candles []shared.Candlestick) []Bar {
	bars := make([]Bar, 0, len(candles))
	for idx := range candles {
		candle := &candles[idx]

		bar := Bar{
			Date:   candle.Date.Format(time.RFC3339),
			Open:   candle.Open,
			High:   candle.High,
			Low:    candle.Low,
			Close:  candle.Close,
			Volume: candle.Volume,
		}
		if !math.IsNaN(candle.VWAP) && !math.IsInf(candle.VWAP, 0) {
			vwap := candle.VWAP
			bar.VWAP = &vwap
		}

		bars = append(bars, bar)
	}

	return bars
}

// NewExporter creates the exporter for the provided format (csv, json or parquet).
// Nil is returned for unsupported formats.
func NewExporter(format string) Exporter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVExporter{}
	case "json":
		return JSONExporter{}
	case "parquet":
		return ParquetExporter{}
	default:
		return nil
	}
}

package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/dnldd/vwapchart/shared"
)

// CSVExporter writes bars as csv with a header row.
type CSVExporter struct{}

func (CSVExporter) Extension() string { return "csv" }

func (CSVExporter) ContentType() string { return "text/csv" }

func (CSVExporter) Write(w io.Writer, candles []shared.Candlestick) error {
	cw := csv.NewWriter(w)

	err := cw.Write([]string{"date", "open", "high", "low", "close", "volume", "vwap"})
	if err != nil {
		return err
	}

	bars := NewBars(candles)
	for _, b := range bars {
		vwap := ""
		if b.VWAP != nil {
			vwap = floatStr(*b.VWAP)
		}

		err := cw.Write([]string{
			b.Date,
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			floatStr(b.Volume),
			vwap,
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

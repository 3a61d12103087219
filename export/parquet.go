package export

import (
	"io"

	"github.com/dnldd/vwapchart/shared"
	"github.com/parquet-go/parquet-go"
)

// ParquetExporter writes bars as a parquet file.
type ParquetExporter struct{}

func (ParquetExporter) Extension() string { return "parquet" }

func (ParquetExporter) ContentType() string { return "application/vnd.apache.parquet" }

func (ParquetExporter) Write(w io.Writer, candles []shared.Candlestick) error {
	return parquet.Write(w, NewBars(candles))
}

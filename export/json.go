package export

import (
	"encoding/json"
	"io"

	"github.com/dnldd/vwapchart/shared"
)

// JSONExporter writes bars as an indented json array.
type JSONExporter struct{}

func (JSONExporter) Extension() string { return "json" }

func (JSONExporter) ContentType() string { return "application/json" }

func (JSONExporter) Write(w io.Writer, candles []shared.Candlestick) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewBars(candles))
}

package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/dnldd/vwapchart/indicator"
	"github.com/dnldd/vwapchart/load"
	"github.com/dnldd/vwapchart/series"
	"github.com/dnldd/vwapchart/shared"
)

// ErrNoFile is returned when a run is requested without an upload.
var ErrNoFile = errors.New("upload a csv or excel file (no headers needed) to view the chart")

// Severity represents how a failed run is reported.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

// String stringifies the provided severity.
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Classify returns the severity the provided run error is reported with.
func Classify(err error) Severity {
	switch {
	case errors.Is(err, ErrNoFile):
		return Info
	case errors.Is(err, series.ErrNoDataForDate):
		return Warning
	default:
		return Error
	}
}

// Request represents a single chart computation.
type Request struct {
	// Filename is the name of the uploaded file.
	Filename string
	// Data is the uploaded file content.
	Data []byte
	// Timeframe is the width bars are resampled to.
	Timeframe shared.Timeframe
	// Date is the selected trading date, the zero value selects the first
	// available date.
	Date time.Time
}

// Result represents the outcome of a chart computation.
type Result struct {
	// Dates are the distinct trading dates of the upload.
	Dates []time.Time
	// Date is the trading date that was charted.
	Date time.Time
	// Timeframe is the width of the charted bars.
	Timeframe shared.Timeframe
	// Rows is the number of valid rows on the charted date.
	Rows int
	// Skipped is the number of records dropped for unparseable fields.
	Skipped int
	// Bars are the resampled bars with their vwap set.
	Bars []shared.Candlestick
}

// Run loads, normalizes, filters, resamples and computes the vwap for the provided
// request. When the selected date has no rows the partial result carrying the
// available dates is returned alongside the error.
func Run(req *Request) (*Result, error) {
	if req.Filename == "" && len(req.Data) == 0 {
		return nil, ErrNoFile
	}

	records, err := load.Load(req.Filename, req.Data)
	if err != nil {
		return nil, err
	}

	rows, skipped, err := series.Normalize(records)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Dates:     series.TradingDates(rows),
		Timeframe: req.Timeframe,
		Skipped:   skipped,
	}

	res.Date = req.Date
	if res.Date.IsZero() {
		res.Date = res.Dates[0]
	}

	rows, err = series.FilterDate(rows, res.Date)
	if err != nil {
		return res, err
	}
	res.Rows = len(rows)

	bars, err := series.Resample(rows, req.Timeframe)
	if err != nil {
		return nil, err
	}

	res.Bars, err = indicator.ApplyVWAP(bars)
	if err != nil {
		return nil, fmt.Errorf("computing vwap: %w", err)
	}

	return res, nil
}

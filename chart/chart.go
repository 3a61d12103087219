package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/dnldd/vwapchart/shared"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	// DefaultHeight is the default chart height.
	DefaultHeight = "750px"
	// DefaultTickSpacing is the default time between labelled x-axis ticks.
	DefaultTickSpacing = time.Minute * 15

	// PriceSeries, VWAPSeries and VolumeSeries are the rendered series names.
	PriceSeries  = "Price"
	VWAPSeries   = "VWAP (HLC)"
	VolumeSeries = "Volume"

	bullishColor = "#26a69a"
	bearishColor = "#ef5350"
	neutralColor = "#9e9e9e"

	// volumeAxisIndex is the index of the secondary y-axis volume bars are drawn on.
	volumeAxisIndex = 1
	// missingValue marks a gap in an echarts series.
	missingValue = "-"
)

// ErrNoBars is returned when a chart is requested for an empty bar sequence.
var ErrNoBars = errors.New("no bars to chart")

// Options represents the chart rendering options.
type Options struct {
	// Title is the chart title.
	Title string
	// Timeframe is the timeframe of the charted bars.
	Timeframe shared.Timeframe
	// TickSpacing is the time between labelled x-axis ticks.
	TickSpacing time.Duration
	// ShowVolume toggles the volume bars on the secondary axis.
	ShowVolume bool
	// Height is the chart height as a css length.
	Height string
	// AssetsHost is the host the echarts assets are served from.
	AssetsHost string
}

// series represents the chart series data derived from bars.
type series struct {
	times  []string
	prices []opts.KlineData
	vwap   []opts.LineData
	volume []opts.BarData
}

// LabelInterval returns the number of categories skipped between labelled x-axis
// ticks for the provided tick spacing and timeframe.
func LabelInterval(tickSpacing time.Duration, timeframe shared.Timeframe) (int, error) {
	width, err := timeframe.Duration()
	if err != nil {
		return 0, err
	}

	if tickSpacing <= width {
		return 0, nil
	}

	return int(tickSpacing/width) - 1, nil
}

// sentimentColor returns the volume bar color of the provided candle.
func sentimentColor(candle *shared.Candlestick) string {
	switch candle.FetchSentiment() {
	case shared.Bullish:
		return bullishColor
	case shared.Bearish:
		return bearishColor
	default:
		return neutralColor
	}
}

// buildSeries derives the chart series from the provided bars.
func buildSeries(bars []shared.Candlestick) *series {
	s := &series{
		times:  make([]string, 0, len(bars)),
		prices: make([]opts.KlineData, 0, len(bars)),
		vwap:   make([]opts.LineData, 0, len(bars)),
		volume: make([]opts.BarData, 0, len(bars)),
	}

	for idx := range bars {
		bar := &bars[idx]

		s.times = append(s.times, bar.Date.Format(shared.TickLayout))

		// Echarts candlestick values are ordered open, close, low, high.
		s.prices = append(s.prices, opts.KlineData{
			Value: [4]float64{bar.Open, bar.Close, bar.Low, bar.High},
		})

		var vwap interface{} = bar.VWAP
		if math.IsNaN(bar.VWAP) || math.IsInf(bar.VWAP, 0) {
			vwap = missingValue
		}
		s.vwap = append(s.vwap, opts.LineData{Value: vwap})

		s.volume = append(s.volume, opts.BarData{
			Value:     bar.Volume,
			ItemStyle: &opts.ItemStyle{Color: sentimentColor(bar)},
		})
	}

	return s
}

// Render writes an interactive candlestick chart of the provided bars with a vwap
// overlay and, optionally, volume bars.
func Render(w io.Writer, bars []shared.Candlestick, cfg *Options) error {
	if len(bars) == 0 {
		return ErrNoBars
	}

	tickSpacing := cfg.TickSpacing
	if tickSpacing == 0 {
		tickSpacing = DefaultTickSpacing
	}

	interval, err := LabelInterval(tickSpacing, cfg.Timeframe)
	if err != nil {
		return fmt.Errorf("calculating label interval: %w", err)
	}

	height := cfg.Height
	if height == "" {
		height = DefaultHeight
	}

	s := buildSeries(bars)

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  cfg.Title,
			Width:      "100%",
			Height:     height,
			AssetsHost: cfg.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    cfg.Title,
			Subtitle: cfg.Timeframe.Label(),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:        opts.Bool(true),
			Trigger:     "axis",
			AxisPointer: &opts.AxisPointer{Type: "cross"},
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Orient: "horizontal",
			Right:  "0",
			Top:    "0",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Time",
			AxisLabel: &opts.AxisLabel{
				Show:     opts.Bool(true),
				Interval: strconv.Itoa(interval),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  "Price",
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:  "inside",
			Start: 0,
			End:   100,
		}),
	)

	kline.SetXAxis(s.times).AddSeries(PriceSeries, s.prices,
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        bullishColor,
			Color0:       bearishColor,
			BorderColor:  bullishColor,
			BorderColor0: bearishColor,
		}))

	line := charts.NewLine()
	line.SetXAxis(s.times).AddSeries(VWAPSeries, s.vwap,
		charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))

	kline.Overlap(line)

	if cfg.ShowVolume {
		kline.ExtendYAxis(opts.YAxis{
			Name:  VolumeSeries,
			Scale: opts.Bool(true),
		})

		bar := charts.NewBar()
		bar.SetXAxis(s.times).AddSeries(VolumeSeries, s.volume,
			charts.WithBarChartOpts(opts.BarChart{YAxisIndex: volumeAxisIndex}))

		kline.Overlap(bar)
	}

	err = kline.Render(w)
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	return nil
}

package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/dnldd/vwapchart/shared"
	"go.uber.org/atomic"
)

// VWAP represents a unit VWAP entry.
type VWAP struct {
	Value float64
	Date  time.Time
}

// VWAPGenerator represents the Volume Weighted Average Price Indicator.
type VWAPGenerator struct {
	TypicalPriceVolume atomic.Float64
	Volume             atomic.Float64
	Timeframe          shared.Timeframe
	LastUpdateTime     atomic.Time
}

// NewVWAPGenerator initializes a VWAP indicator for the provided timeframe.
func NewVWAPGenerator(timeframe shared.Timeframe) *VWAPGenerator {
	return &VWAPGenerator{
		Timeframe: timeframe,
	}
}

// Update cummulatively updates the VWAP indicator with the provided candlestick data.
// The value is NaN while the cumulative volume is zero.
func (v *VWAPGenerator) Update(candle *shared.Candlestick) (*VWAP, error) {
	if candle.Timeframe != v.Timeframe {
		return nil, fmt.Errorf("expected candles with timeframe %s, got %s",
			v.Timeframe.String(), candle.Timeframe.String())
	}

	v.TypicalPriceVolume.Add(candle.TypicalPrice() * candle.Volume)
	v.Volume.Add(candle.Volume)
	v.LastUpdateTime.Store(candle.Date)

	vwap := &VWAP{
		Value: math.NaN(),
		Date:  candle.Date,
	}

	volume := v.Volume.Load()
	if volume == 0 {
		return vwap, nil
	}

	vwap.Value = v.TypicalPriceVolume.Load() / volume

	return vwap, nil
}

// Reset resets the VWAP indicator.
func (v *VWAPGenerator) Reset() {
	v.TypicalPriceVolume.Store(0)
	v.Volume.Store(0)
	v.LastUpdateTime.Store(time.Time{})
}

// ApplyVWAP returns a copy of the provided candles with their cumulative VWAP set.
// All candles must share a timeframe.
func ApplyVWAP(candles []shared.Candlestick) ([]shared.Candlestick, error) {
	out := make([]shared.Candlestick, len(candles))
	if len(candles) == 0 {
		return out, nil
	}

	gen := NewVWAPGenerator(candles[0].Timeframe)
	for idx := range candles {
		out[idx] = candles[idx]

		vwap, err := gen.Update(&out[idx])
		if err != nil {
			return nil, fmt.Errorf("updating vwap at %s: %w",
				candles[idx].Date.Format(shared.DateTimeLayout), err)
		}

		out[idx].VWAP = vwap.Value
	}

	return out, nil
}

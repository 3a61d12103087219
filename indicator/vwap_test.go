package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/dnldd/vwapchart/shared"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/peterldowns/testy/assert"
)

func TestVWAPGenerator(t *testing.T) {
	// Ensure vwap can be created.
	timeframe := shared.FiveMinute
	vwap := NewVWAPGenerator(timeframe)

	// Ensure vwap generator rejects update candles that are not of the expected timeframe.
	ignoredCandle := &shared.Candlestick{
		Open:   float64(5),
		Close:  float64(8),
		High:   float64(9),
		Low:    float64(3),
		Volume: float64(2),

		Timeframe: shared.OneHour,
	}

	_, err := vwap.Update(ignoredCandle)
	assert.Error(t, err)

	// Ensure vwap is not a number while there is no volume.
	candle := &shared.Candlestick{
		Open:   float64(5),
		Close:  float64(8),
		High:   float64(9),
		Low:    float64(3),
		Volume: float64(0),

		Timeframe: timeframe,
	}

	vwp, err := vwap.Update(candle)
	assert.NoError(t, err)
	assert.True(t, math.IsNaN(vwp.Value))

	// Ensure vwap can be updated.
	now := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	candle = &shared.Candlestick{
		Open:   float64(5),
		Close:  float64(8),
		High:   float64(9),
		Low:    float64(3),
		Volume: float64(2),
		Date:   now,

		Timeframe: timeframe,
	}

	vwp, err = vwap.Update(candle)
	assert.NoError(t, err)
	assert.Equal(t, vwp.Value, float64(20)/3)
	assert.Equal(t, vwp.Date, now)
	assert.GreaterThan(t, vwap.TypicalPriceVolume.Load(), 0)
	assert.GreaterThan(t, vwap.Volume.Load(), 0)
	assert.Equal(t, vwap.LastUpdateTime.Load(), now)

	// Ensure vwap indicator can be reset.
	vwap.Reset()
	assert.Equal(t, vwap.Volume.Load(), float64(0))
	assert.Equal(t, vwap.TypicalPriceVolume.Load(), float64(0))
	assert.True(t, vwap.LastUpdateTime.Load().IsZero())
}

// flatCandle creates a candle whose typical price equals the provided price.
func flatCandle(price float64, volume float64, date time.Time) shared.Candlestick {
	return shared.Candlestick{
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    volume,
		Date:      date,
		Timeframe: shared.OneMinute,
	}
}

func TestApplyVWAP(t *testing.T) {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		candles []shared.Candlestick
		want    []float64
	}{
		{
			"weighted typical price",
			[]shared.Candlestick{
				flatCandle(100, 1, start),
				flatCandle(102, 1, start.Add(time.Minute)),
				flatCandle(98, 2, start.Add(time.Minute*2)),
			},
			[]float64{100, 101, 99.5},
		},
		{
			"first vwap is the typical price",
			[]shared.Candlestick{
				{High: 12, Low: 6, Close: 9, Volume: 7, Date: start},
			},
			[]float64{9},
		},
		{
			"zero volume prefix is not a number",
			[]shared.Candlestick{
				flatCandle(100, 0, start),
				flatCandle(104, 0, start.Add(time.Minute)),
				flatCandle(98, 3, start.Add(time.Minute*2)),
				flatCandle(102, 1, start.Add(time.Minute*3)),
			},
			[]float64{math.NaN(), math.NaN(), 98, 99},
		},
		{
			"all zero volume",
			[]shared.Candlestick{
				flatCandle(100, 0, start),
			},
			[]float64{math.NaN()},
		},
		{
			"no candles",
			nil,
			[]float64{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := ApplyVWAP(test.candles)
			assert.NoError(t, err)

			got := make([]float64, 0, len(out))
			for idx := range out {
				got = append(got, out[idx].VWAP)
			}

			if diff := cmp.Diff(test.want, got, cmpopts.EquateNaNs()); diff != "" {
				t.Errorf("unexpected vwap (-want +got):\n%s", diff)
			}

			// Ensure the input candles are left untouched.
			for idx := range test.candles {
				assert.Equal(t, test.candles[idx].VWAP, float64(0))
			}
		})
	}

	// Ensure mixed timeframes are rejected.
	mixed := []shared.Candlestick{
		flatCandle(100, 1, start),
		{High: 1, Low: 1, Close: 1, Volume: 1, Timeframe: shared.OneHour},
	}
	_, err := ApplyVWAP(mixed)
	assert.Error(t, err)
}

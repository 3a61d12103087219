package shared

import (
	"fmt"
	"strings"
	"time"
)

const (
	// TickLayout is the format layout for chart axis ticks.
	TickLayout = "15:04"
	// DateLayout is the format layout for trading dates.
	DateLayout = "2006-01-02"
	// DateTimeLayout is the canonical format layout for combined date times.
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Timeframe represents the width of a resampled bar.
type Timeframe int

const (
	OneMinute Timeframe = iota
	FiveMinute
	TenMinute
	FifteenMinute
	OneHour
)

// Timeframes returns all supported timeframes in ascending width.
func Timeframes() []Timeframe {
	return []Timeframe{OneMinute, FiveMinute, TenMinute, FifteenMinute, OneHour}
}

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	switch t {
	case OneMinute:
		return "1m"
	case FiveMinute:
		return "5m"
	case TenMinute:
		return "10m"
	case FifteenMinute:
		return "15m"
	case OneHour:
		return "1H"
	default:
		return "unknown"
	}
}

// Label returns the display label of the provided timeframe.
func (t Timeframe) Label() string {
	switch t {
	case OneMinute:
		return "1 min"
	case FiveMinute:
		return "5 min"
	case TenMinute:
		return "10 min"
	case FifteenMinute:
		return "15 min"
	case OneHour:
		return "1 hour"
	default:
		return "unknown"
	}
}

// Duration returns the bucket width of the provided timeframe.
func (t Timeframe) Duration() (time.Duration, error) {
	switch t {
	case OneMinute:
		return time.Minute, nil
	case FiveMinute:
		return time.Minute * 5, nil
	case TenMinute:
		return time.Minute * 10, nil
	case FifteenMinute:
		return time.Minute * 15, nil
	case OneHour:
		return time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown timeframe provided: %d", int(t))
	}
}

// ParseTimeframe parses a timeframe from either its string or its display label.
func ParseTimeframe(s string) (Timeframe, error) {
	s = strings.TrimSpace(s)
	for _, tf := range Timeframes() {
		if s == tf.String() || strings.EqualFold(s, tf.Label()) {
			return tf, nil
		}
	}

	return 0, fmt.Errorf("unknown timeframe: %q", s)
}

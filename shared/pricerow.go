package shared

import "time"

// RecordFields is the number of positional fields in an input record.
const RecordFields = 8

// Positional indices of the input record fields.
const (
	DateField = iota
	TimeField
	OpenField
	HighField
	LowField
	CloseField
	VolumeField
	OtherField
)

// Record is a headerless input row: date, time, open, high, low, close, volume
// and an unused trailing field.
type Record [RecordFields]string

// PriceRow represents a single normalized price observation.
type PriceRow struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

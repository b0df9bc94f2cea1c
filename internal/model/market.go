package model

import "time"

// OHLCV represents a single end-of-day bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// DateLayout is the calendar date format used for evaluation dates and store rows.
const DateLayout = "2006-01-02"

// Date returns the bar's calendar date in DateLayout.
func (b OHLCV) Date() string {
	return b.Time.Format(DateLayout)
}

// Ticker is one member of the scan universe.
type Ticker struct {
	Symbol string
	Name   string
}

// IndicatorSeries holds indicator values aligned index-for-index with a bar series.
// Undefined lead-in values are math.NaN().
type IndicatorSeries struct {
	RSI    []float64
	RSISMA []float64
	MA     map[int][]float64 // keyed by MA length
}

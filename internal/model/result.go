package model

// ScreenResult is a qualifying breakout event for one ticker.
type ScreenResult struct {
	Ticker string
	Name   string
	Date   string // evaluation date (last bar), DateLayout
}

// OutcomeStatus classifies how a single ticker's evaluation ended.
type OutcomeStatus string

const (
	StatusSignal   OutcomeStatus = "SIGNAL"
	StatusNoSignal OutcomeStatus = "NO_SIGNAL"
	StatusFailed   OutcomeStatus = "FAILED"
)

// Outcome is the per-ticker result of a scan.
type Outcome struct {
	Ticker Ticker
	Status OutcomeStatus
	Result *ScreenResult
	Err    error
}

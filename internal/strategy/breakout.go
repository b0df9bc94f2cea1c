package strategy

import "math"

// Snapshot is a single bar's close together with its indicator values.
type Snapshot struct {
	Close  float64
	RSI    float64
	RSISMA float64
	MAs    []float64
}

func (s Snapshot) defined() bool {
	if math.IsNaN(s.RSI) || math.IsNaN(s.RSISMA) || len(s.MAs) == 0 {
		return false
	}
	for _, ma := range s.MAs {
		if math.IsNaN(ma) {
			return false
		}
	}
	return true
}

// AboveAll reports whether the close exceeds every moving average. An undefined
// average never counts as exceeded.
func AboveAll(s Snapshot) bool {
	if len(s.MAs) == 0 {
		return false
	}
	for _, ma := range s.MAs {
		if !(s.Close > ma) {
			return false
		}
	}
	return true
}

// FirstDayBreakout is true only on the transition from not-above-all to above-all.
// A stock that stays above all averages does not trigger again.
func FirstDayBreakout(prev, today Snapshot) bool {
	return AboveAll(today) && !AboveAll(prev)
}

// MomentumConfirmed reports RSI above its own moving average.
func MomentumConfirmed(s Snapshot) bool {
	return s.RSI > s.RSISMA
}

// Qualifies combines the breakout transition with momentum confirmation.
func Qualifies(prev, today Snapshot) bool {
	return FirstDayBreakout(prev, today) && MomentumConfirmed(today)
}

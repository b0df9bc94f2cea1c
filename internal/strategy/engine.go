package strategy

import (
	"errors"
	"fmt"
	"math"

	"BreakoutScreener/internal/calculator"
	"BreakoutScreener/internal/model"
)

// ErrBadSeries marks a bar series that cannot be evaluated (as opposed to one that
// simply produced no signal).
var ErrBadSeries = errors.New("malformed bar series")

// Params holds the screening thresholds and indicator windows.
type Params struct {
	MinPrice  float64 `yaml:"min_price"`
	MinVolume float64 `yaml:"min_volume"`
	MinBars   int     `yaml:"min_bars"`

	calculator.Lengths `yaml:",inline"`
}

// DefaultParams returns the stock screen: price > 5, volume > 200k shares, 300 bars of history.
func DefaultParams() Params {
	return Params{
		MinPrice:  5.0,
		MinVolume: 200000,
		MinBars:   300,
		Lengths:   calculator.DefaultLengths(),
	}
}

// Evaluate screens one ticker's ascending daily bars. It returns (nil, nil) when the
// ticker does not qualify, and a non-nil error only when evaluation itself failed.
func Evaluate(p Params, ticker, name string, bars []model.OHLCV) (*model.ScreenResult, error) {
	if len(bars) < p.MinBars || len(bars) < 2 {
		return nil, nil
	}
	today := bars[len(bars)-1]
	if !(today.Close > p.MinPrice) {
		return nil, nil
	}
	if !(today.Volume > p.MinVolume) {
		return nil, nil
	}

	if err := validateSeries(bars); err != nil {
		return nil, err
	}
	ind, err := calculator.Compute(bars, p.Lengths)
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}

	last := len(bars) - 1
	prevSnap := snapshotAt(bars, ind, p.MA, last-1)
	todaySnap := snapshotAt(bars, ind, p.MA, last)
	if !todaySnap.defined() {
		return nil, fmt.Errorf("%w: indicators undefined on %s", ErrBadSeries, today.Date())
	}

	if !Qualifies(prevSnap, todaySnap) {
		return nil, nil
	}
	return &model.ScreenResult{Ticker: ticker, Name: name, Date: today.Date()}, nil
}

func validateSeries(bars []model.OHLCV) error {
	for i, b := range bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			return fmt.Errorf("%w: non-finite close at %s", ErrBadSeries, b.Date())
		}
		if i > 0 && !bars[i-1].Time.Before(b.Time) {
			return fmt.Errorf("%w: dates not ascending at %s", ErrBadSeries, b.Date())
		}
	}
	return nil
}

func snapshotAt(bars []model.OHLCV, ind *model.IndicatorSeries, maLengths []int, i int) Snapshot {
	s := Snapshot{
		Close:  bars[i].Close,
		RSI:    ind.RSI[i],
		RSISMA: ind.RSISMA[i],
		MAs:    make([]float64, len(maLengths)),
	}
	for j, n := range maLengths {
		s.MAs[j] = ind.MA[n][i]
	}
	return s
}

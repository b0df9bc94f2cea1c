package calculator

import (
	"fmt"

	"BreakoutScreener/internal/model"
)

// Lengths configures the indicator windows.
type Lengths struct {
	RSI    int   `yaml:"rsi_length"`
	RSISMA int   `yaml:"rsi_sma_length"`
	MA     []int `yaml:"ma_lengths"`
}

// DefaultLengths returns RSI(100), its SMA(200) and the 20/60/120/240 close MAs.
func DefaultLengths() Lengths {
	return Lengths{RSI: 100, RSISMA: 200, MA: []int{20, 60, 120, 240}}
}

// Longest returns the largest lead-in any configured indicator needs.
func (l Lengths) Longest() int {
	longest := l.RSISMA + 1 // RSI is undefined on the first bar
	for _, n := range l.MA {
		if n > longest {
			longest = n
		}
	}
	return longest
}

// Compute derives the full indicator series for bars.
func Compute(bars []model.OHLCV, lengths Lengths) (*model.IndicatorSeries, error) {
	closes := extractCloses(bars)

	rsi, err := RSI(closes, lengths.RSI)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	rsiSMA, err := SMA(rsi, lengths.RSISMA)
	if err != nil {
		return nil, fmt.Errorf("rsi sma: %w", err)
	}

	ind := &model.IndicatorSeries{
		RSI:    rsi,
		RSISMA: rsiSMA,
		MA:     make(map[int][]float64, len(lengths.MA)),
	}
	for _, n := range lengths.MA {
		ma, err := SMA(closes, n)
		if err != nil {
			return nil, fmt.Errorf("ma%d: %w", n, err)
		}
		ind.MA[n] = ma
	}
	return ind, nil
}

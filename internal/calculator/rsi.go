package calculator

import (
	"errors"
	"math"
)

// RSI computes the Relative Strength Index of closes using Wilder smoothing
// (exponential average with alpha = 1/length, seeded from the first change).
// The first index has no change and is NaN. A zero average loss yields 100.
func RSI(closes []float64, length int) ([]float64, error) {
	if length <= 0 {
		return nil, errors.New("length must be positive")
	}
	out := nanSeries(len(closes))
	if len(closes) < 2 {
		return out, nil
	}

	alpha := 1.0 / float64(length)
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		if i == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = alpha*gain + (1-alpha)*avgGain
			avgLoss = alpha*loss + (1-alpha)*avgLoss
		}
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

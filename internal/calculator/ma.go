package calculator

import (
	"errors"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"BreakoutScreener/internal/model"
)

// SMA computes the simple moving average of series over length, aligned index-for-index
// with the input. Indexes without a full trailing window are NaN. Leading NaN values in
// series (e.g. an RSI's undefined first bar) are skipped before the window starts.
func SMA(series []float64, length int) ([]float64, error) {
	if length <= 0 {
		return nil, errors.New("length must be positive")
	}
	out := nanSeries(len(series))
	start := firstDefined(series)
	if start < 0 || len(series)-start < length {
		return out, nil
	}

	sma := trend.NewSmaWithPeriod[float64](length)
	values := helper.ChanToSlice(sma.Compute(helper.SliceToChan(series[start:])))
	copy(out[start+length-1:], values)
	return out, nil
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstDefined(series []float64) int {
	for i, v := range series {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

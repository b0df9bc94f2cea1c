package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"BreakoutScreener/internal/model"
)

// Fetcher retrieves end-of-day price history.
type Fetcher interface {
	// FetchDailyBars returns up to days bars in ascending date order. A short or
	// empty result is not an error.
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func trimToLast(bars []model.OHLCV, n int) []model.OHLCV {
	if n > 0 && len(bars) > n {
		return bars[len(bars)-n:]
	}
	return bars
}

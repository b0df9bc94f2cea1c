package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"BreakoutScreener/internal/model"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageFetcher implements Fetcher using the TIME_SERIES_DAILY endpoint.
type AlphaVantageFetcher struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewAlphaVantageFetcher(apiKey, proxyURL string) *AlphaVantageFetcher {
	return &AlphaVantageFetcher{
		APIKey:  apiKey,
		BaseURL: alphaVantageBaseURL,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

type avDailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type avDailyResponse struct {
	TimeSeries   map[string]avDailyBar `json:"Time Series (Daily)"`
	ErrorMessage string                `json:"Error Message"`
	Note         string                `json:"Note"`
	Information  string                `json:"Information"`
}

func (f *AlphaVantageFetcher) buildRequestPath(symbol, outputSize string) string {
	query := url.Values{}
	query.Set("function", "TIME_SERIES_DAILY")
	query.Set("symbol", symbol)
	query.Set("outputsize", outputSize)
	query.Set("datatype", "json")
	query.Set("apikey", f.APIKey)
	return f.BaseURL + "/query?" + query.Encode()
}

func (f *AlphaVantageFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	outputSize := "full"
	if days > 0 && days <= 100 {
		outputSize = "compact"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.buildRequestPath(symbol, outputSize), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alphavantage read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alphavantage: status %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed avDailyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w", err)
	}
	switch {
	case parsed.ErrorMessage != "":
		return nil, fmt.Errorf("alphavantage api error: %s", parsed.ErrorMessage)
	case parsed.Note != "":
		return nil, fmt.Errorf("alphavantage rate limited: %s", parsed.Note)
	case parsed.TimeSeries == nil && parsed.Information != "":
		return nil, fmt.Errorf("alphavantage: %s", parsed.Information)
	}

	bars := make([]model.OHLCV, 0, len(parsed.TimeSeries))
	for date, raw := range parsed.TimeSeries {
		bar, err := parseAVBar(date, raw)
		if err != nil {
			return nil, fmt.Errorf("alphavantage %s %s: %w", symbol, date, err)
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return trimToLast(bars, days), nil
}

func parseAVBar(date string, raw avDailyBar) (model.OHLCV, error) {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return model.OHLCV{}, err
	}
	fields := []string{raw.Open, raw.High, raw.Low, raw.Close, raw.Volume}
	values := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.OHLCV{}, err
		}
		values[i] = v
	}
	return model.OHLCV{
		Time:   t,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

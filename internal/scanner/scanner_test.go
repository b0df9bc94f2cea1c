package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutScreener/internal/collector"
	"BreakoutScreener/internal/metrics"
	"BreakoutScreener/internal/model"
	"BreakoutScreener/internal/store"
	"BreakoutScreener/internal/strategy"
	"BreakoutScreener/internal/universe"
)

var barsStart = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

func breakoutBars() []model.OHLCV {
	const n = 300
	step := 4.9 / float64(n-2)
	return collector.GenerateMockBars(barsStart, n, 500000, func(i int) float64 {
		if i == n-1 {
			return 10.0
		}
		return 9.9 - float64(i)*step
	})
}

func flatBars(n int) []model.OHLCV {
	return collector.GenerateMockBars(barsStart, n, 500000, func(int) float64 { return 20 })
}

type panicFetcher struct {
	collector.Fetcher
	symbol string
}

func (p panicFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if symbol == p.symbol {
		panic("provider schema changed")
	}
	return p.Fetcher.FetchDailyBars(ctx, symbol, days)
}

func newScanner(tickers []model.Ticker, fetcher collector.Fetcher, backend store.Backend) *Scanner {
	return &Scanner{
		Universe: &universe.StaticProvider{List: tickers},
		Fetcher:  fetcher,
		Store:    store.NewManager(backend, 3),
		Params:   strategy.DefaultParams(),
		Lookback: 500,
		Location: time.UTC,
		Metrics:  metrics.New(),
		now:      func() time.Time { return time.Date(2024, 1, 4, 22, 0, 0, 0, time.UTC) },
	}
}

func TestRun_IsolatesFailuresAndPersistsBatch(t *testing.T) {
	mock := &collector.MockFetcher{
		Bars: map[string][]model.OHLCV{
			"ACME":  breakoutBars(),
			"FLAT":  flatBars(300),
			"SHORT": breakoutBars()[:120],
		},
		Errs: map[string]error{"DOWN": errors.New("503 from provider")},
	}
	tickers := []model.Ticker{
		{Symbol: "DOWN", Name: "Down Co"},
		{Symbol: "BOOM", Name: "Boom Co"},
		{Symbol: "ACME", Name: "Acme Corp"},
		{Symbol: "FLAT", Name: "Flat Co"},
		{Symbol: "SHORT", Name: "Short Co"},
		{Symbol: "EMPTY", Name: "Empty Co"},
	}
	backend := store.NewMemoryBackend(
		store.Row{Date: "2024-01-01", Ticker: "OLD", Name: "Old"},
		store.Row{Date: "2024-01-02", Ticker: "B", Name: "B"},
		store.Row{Date: "2024-01-03", Ticker: "C", Name: "C"},
	)
	s := newScanner(tickers, panicFetcher{Fetcher: mock, symbol: "BOOM"}, backend)

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, "ACME", report.Results[0].Ticker)
	assert.Equal(t, "Acme Corp", report.Results[0].Name)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 3, report.NoSignal)
	assert.Equal(t, 6, report.Universe)
	assert.Equal(t, "2024-01-04", report.Date)

	rows, err := backend.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-04", "2024-01-03", "2024-01-02"}, store.Dates(rows))
	assert.Contains(t, rows, store.Row{Date: "2024-01-04", Ticker: "ACME", Name: "Acme Corp"})
	assert.Equal(t, len(rows), report.StoreRows)
}

func TestRun_EmptyBatchLeavesStoreUntouched(t *testing.T) {
	mock := &collector.MockFetcher{Bars: map[string][]model.OHLCV{"FLAT": flatBars(300)}}
	existing := store.Row{Date: "2024-01-04", Ticker: "EARLIER", Name: "Earlier Run"}
	backend := store.NewMemoryBackend(existing)
	s := newScanner([]model.Ticker{{Symbol: "FLAT", Name: "Flat Co"}}, mock, backend)

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, -1, report.StoreRows)

	rows, _ := backend.ReadAll(context.Background())
	assert.Equal(t, []store.Row{existing}, rows)
}

func TestRun_UniverseFailureAbortsScan(t *testing.T) {
	mock := &collector.MockFetcher{}
	s := newScanner(nil, mock, store.NewMemoryBackend())

	_, err := s.Run(context.Background())
	require.ErrorIs(t, err, universe.ErrEmptyUniverse)
	assert.Empty(t, mock.Calls, "no ticker may be fetched without a universe")
}

func TestRun_CancelledScanDoesNotPersist(t *testing.T) {
	mock := &collector.MockFetcher{Bars: map[string][]model.OHLCV{"ACME": breakoutBars()}}
	backend := store.NewMemoryBackend()
	s := newScanner([]model.Ticker{{Symbol: "ACME"}, {Symbol: "LATER"}}, mock, backend)
	s.Delay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	rows, _ := backend.ReadAll(context.Background())
	assert.Empty(t, rows)
	assert.Equal(t, []string{"ACME"}, mock.Calls)
}

type brokenStore struct{ *store.MemoryBackend }

func (brokenStore) ReplaceAll(context.Context, []store.Row) error {
	return errors.New("sheet locked")
}

func TestRun_StoreFailureKeepsResults(t *testing.T) {
	mock := &collector.MockFetcher{Bars: map[string][]model.OHLCV{"ACME": breakoutBars()}}
	s := newScanner([]model.Ticker{{Symbol: "ACME", Name: "Acme Corp"}}, mock, brokenStore{store.NewMemoryBackend()})

	report, err := s.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Len(t, report.Results, 1)
	assert.Error(t, report.StoreErr)
	assert.Equal(t, -1, report.StoreRows)
}

func TestToday_UsesLocation(t *testing.T) {
	s := &Scanner{
		Location: time.FixedZone("EST", -5*3600),
		now:      func() time.Time { return time.Date(2024, 1, 5, 2, 0, 0, 0, time.UTC) },
	}
	assert.Equal(t, "2024-01-04", s.today())
}

// Package scanner runs one screening pass over the ticker universe: fetch, filter,
// evaluate each ticker in turn, then hand the batch to the rolling store.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"BreakoutScreener/internal/collector"
	"BreakoutScreener/internal/metrics"
	"BreakoutScreener/internal/model"
	"BreakoutScreener/internal/store"
	"BreakoutScreener/internal/strategy"
	"BreakoutScreener/internal/universe"
)

// Report summarizes one scan.
type Report struct {
	Date      string
	Universe  int
	Results   []model.ScreenResult
	NoSignal  int
	Failed    int
	Failures  []model.Outcome
	StoreRows int // -1 when the store was not updated
	StoreErr  error
	Duration  time.Duration
}

// Scanner wires the external collaborators to the screening engine.
type Scanner struct {
	Universe universe.Provider
	Fetcher  collector.Fetcher
	Store    *store.Manager
	Params   strategy.Params
	Lookback int           // bars requested per ticker
	Delay    time.Duration // pause between tickers for the provider's rate limit
	Location *time.Location
	Metrics  *metrics.Metrics

	now func() time.Time
}

// Run scans the whole universe. A universe failure aborts before any ticker is
// fetched; a cancelled context aborts without touching the store.
func (s *Scanner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	tickers, err := s.Universe.Tickers(ctx)
	if err != nil {
		s.Metrics.ObserveScan("aborted", 0, -1, time.Since(start))
		return nil, fmt.Errorf("load universe: %w", err)
	}

	report := &Report{
		Date:      s.today(),
		Universe:  len(tickers),
		StoreRows: -1,
	}
	logrus.Infof("=== scanning %d tickers for %s ===", len(tickers), report.Date)

	for i, t := range tickers {
		if err := ctx.Err(); err != nil {
			s.Metrics.ObserveScan("aborted", len(report.Results), -1, time.Since(start))
			return nil, fmt.Errorf("scan interrupted after %d/%d tickers: %w", i, len(tickers), err)
		}
		if i > 0 && s.Delay > 0 {
			if err := sleep(ctx, s.Delay); err != nil {
				s.Metrics.ObserveScan("aborted", len(report.Results), -1, time.Since(start))
				return nil, fmt.Errorf("scan interrupted after %d/%d tickers: %w", i, len(tickers), err)
			}
		}
		if i%10 == 0 {
			logrus.Debugf("progress %d/%d", i, len(tickers))
		}

		out := s.evaluate(ctx, t)
		s.Metrics.ObserveOutcome(out.Status)
		switch out.Status {
		case model.StatusSignal:
			logrus.WithField("ticker", t.Symbol).Infof("found: %s (%s)", out.Result.Ticker, out.Result.Name)
			report.Results = append(report.Results, *out.Result)
		case model.StatusFailed:
			logrus.WithField("ticker", t.Symbol).Warnf("evaluation failed: %v", out.Err)
			report.Failed++
			report.Failures = append(report.Failures, out)
		default:
			report.NoSignal++
		}
	}

	if report.Failed > 0 && report.Failed == report.Universe {
		logrus.Warnf("all %d tickers failed evaluation; check the data provider", report.Failed)
	}

	result := "ok"
	if len(report.Results) == 0 {
		logrus.Info("no qualifying tickers today; rolling store left unchanged")
	} else {
		rows, err := s.Store.Update(ctx, report.Date, report.Results)
		if err != nil {
			report.StoreErr = err
			result = "store_error"
		} else {
			report.StoreRows = len(rows)
		}
	}

	report.Duration = time.Since(start)
	s.Metrics.ObserveScan(result, len(report.Results), report.StoreRows, report.Duration)
	logrus.Infof("scan complete in %.1f min: %d found, %d no signal, %d failed",
		report.Duration.Minutes(), len(report.Results), report.NoSignal, report.Failed)

	if report.StoreErr != nil {
		return report, fmt.Errorf("persist results: %w", report.StoreErr)
	}
	return report, nil
}

// evaluate runs fetch and screen for one ticker. Nothing that happens here,
// panics included, escapes beyond this ticker's outcome.
func (s *Scanner) evaluate(ctx context.Context, t model.Ticker) (out model.Outcome) {
	out = model.Outcome{Ticker: t, Status: model.StatusNoSignal}
	defer func() {
		if r := recover(); r != nil {
			out = model.Outcome{Ticker: t, Status: model.StatusFailed, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	fetchStart := time.Now()
	bars, err := s.Fetcher.FetchDailyBars(ctx, t.Symbol, s.Lookback)
	s.Metrics.ObserveFetch(time.Since(fetchStart))
	if err != nil {
		out.Status = model.StatusFailed
		out.Err = fmt.Errorf("fetch %s: %w", t.Symbol, err)
		return out
	}
	if len(bars) < s.Params.MinBars {
		logrus.WithField("ticker", t.Symbol).Debugf("insufficient history: %d bars", len(bars))
		return out
	}

	res, err := strategy.Evaluate(s.Params, t.Symbol, t.Name, bars)
	if err != nil {
		out.Status = model.StatusFailed
		out.Err = err
		return out
	}
	if res != nil {
		out.Status = model.StatusSignal
		out.Result = res
	}
	return out
}

func (s *Scanner) today() string {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc).Format(model.DateLayout)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

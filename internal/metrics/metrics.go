// Package metrics exposes Prometheus instrumentation for screening runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"BreakoutScreener/internal/model"
)

// Metrics holds all Prometheus metrics for the screener.
type Metrics struct {
	ScansTotal       *prometheus.CounterVec // labels: result (ok, aborted, store_error)
	TickerOutcomes   *prometheus.CounterVec // labels: status
	ScanDuration     prometheus.Histogram
	FetchDuration    prometheus.Histogram
	StoreRows        prometheus.Gauge
	LastScanSignals  prometheus.Gauge
	LastScanUnixTime prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_scans_total",
			Help: "Completed or aborted universe scans.",
		}, []string{"result"}),
		TickerOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_ticker_outcomes_total",
			Help: "Per-ticker evaluation outcomes.",
		}, []string{"status"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_scan_duration_seconds",
			Help:    "Wall time of a full universe scan.",
			Buckets: []float64{30, 60, 120, 300, 600, 900, 1200, 1800},
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_fetch_duration_seconds",
			Help:    "Price history fetch latency per ticker.",
			Buckets: prometheus.DefBuckets,
		}),
		StoreRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_store_rows",
			Help: "Rows in the rolling store after the last update.",
		}),
		LastScanSignals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_scan_signals",
			Help: "Qualifying tickers found by the last scan.",
		}),
		LastScanUnixTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_scan_timestamp_seconds",
			Help: "Unix time the last scan finished.",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.ScansTotal, m.TickerOutcomes, m.ScanDuration, m.FetchDuration,
		m.StoreRows, m.LastScanSignals, m.LastScanUnixTime,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOutcome counts one ticker's evaluation result. Safe on a nil receiver.
func (m *Metrics) ObserveOutcome(status model.OutcomeStatus) {
	if m == nil {
		return
	}
	m.TickerOutcomes.WithLabelValues(string(status)).Inc()
}

// ObserveFetch records one fetch latency. Safe on a nil receiver.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// ObserveScan records a finished scan. Safe on a nil receiver.
func (m *Metrics) ObserveScan(result string, signals int, storeRows int, d time.Duration) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(result).Inc()
	m.ScanDuration.Observe(d.Seconds())
	m.LastScanSignals.Set(float64(signals))
	if storeRows >= 0 {
		m.StoreRows.Set(float64(storeRows))
	}
	m.LastScanUnixTime.SetToCurrentTime()
}

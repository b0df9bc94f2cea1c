// Package store keeps the rolling history of screen results: a table of
// (date, ticker, name) rows restricted to the most recent few distinct dates.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"BreakoutScreener/internal/model"
)

// Header is the fixed column layout of the rolling table.
var Header = []string{"date", "ticker", "name"}

// DefaultRetentionDays is how many distinct dates the store keeps.
const DefaultRetentionDays = 3

// Row is one persisted screen result.
type Row struct {
	Date   string `json:"date"`
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// Backend is a durable table supporting only whole-table reads and replaces.
// ReplaceAll must be atomic: readers see either the old or the new rows, never a mix.
type Backend interface {
	Ensure(ctx context.Context) error
	ReadAll(ctx context.Context) ([]Row, error)
	ReplaceAll(ctx context.Context, rows []Row) error
	Name() string
	Close() error
}

// MergeAndTrim returns a new snapshot: rows for today are replaced by results, at most
// one row per (date, ticker) survives, and only the retentionDays most recent dates remain.
// The input slice is not modified.
func MergeAndTrim(existing []Row, today string, results []model.ScreenResult, retentionDays int) []Row {
	merged := make([]Row, 0, len(existing)+len(results))
	seen := make(map[Row]struct{}, len(existing)+len(results))
	add := func(r Row) {
		key := Row{Date: r.Date, Ticker: r.Ticker}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		merged = append(merged, r)
	}

	for _, r := range existing {
		if r.Date == today {
			continue
		}
		add(r)
	}
	for _, res := range results {
		add(Row{Date: today, Ticker: res.Ticker, Name: res.Name})
	}

	keep := recentDates(merged, retentionDays)
	out := merged[:0]
	for _, r := range merged {
		if _, ok := keep[r.Date]; ok {
			out = append(out, r)
		}
	}
	return out
}

// recentDates returns the n most recent distinct dates.
func recentDates(rows []Row, n int) map[string]struct{} {
	dates := Dates(rows)
	if len(dates) > n {
		dates = dates[:n]
	}
	keep := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		keep[d] = struct{}{}
	}
	return keep
}

// Dates returns the distinct dates in rows, newest first. Dates are ISO formatted,
// so lexical order is chronological.
func Dates(rows []Row) []string {
	distinct := make(map[string]struct{})
	for _, r := range rows {
		distinct[r.Date] = struct{}{}
	}
	dates := make([]string, 0, len(distinct))
	for d := range distinct {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// Manager runs the load / merge / replace cycle against a backend.
type Manager struct {
	backend   Backend
	retention int
	mu        sync.Mutex
}

// NewManager creates a Manager keeping retentionDays distinct dates.
func NewManager(backend Backend, retentionDays int) *Manager {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Manager{backend: backend, retention: retentionDays}
}

// Update merges today's results into the store. On error the store is left as it was.
func (m *Manager) Update(ctx context.Context, today string, results []model.ScreenResult) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.backend.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("ensure %s store: %w", m.backend.Name(), err)
	}
	existing, err := m.backend.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s store: %w", m.backend.Name(), err)
	}

	next := MergeAndTrim(existing, today, results, m.retention)
	if err := m.backend.ReplaceAll(ctx, next); err != nil {
		return nil, fmt.Errorf("replace %s store: %w", m.backend.Name(), err)
	}

	logrus.WithFields(logrus.Fields{
		"backend": m.backend.Name(),
		"date":    today,
		"written": len(results),
		"total":   len(next),
	}).Info("rolling store updated")
	return next, nil
}

// Load returns the current rows.
func (m *Manager) Load(ctx context.Context) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.backend.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("ensure %s store: %w", m.backend.Name(), err)
	}
	return m.backend.ReadAll(ctx)
}

// Close closes the underlying backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}

// Package universe supplies the ordered list of tickers to screen.
package universe

import (
	"context"
	"errors"

	"BreakoutScreener/internal/model"
)

// ErrEmptyUniverse is returned when a provider yields no tickers.
var ErrEmptyUniverse = errors.New("empty ticker universe")

// Provider returns the tickers to scan, already in provider-normalized form.
type Provider interface {
	Tickers(ctx context.Context) ([]model.Ticker, error)
}

// StaticProvider serves a fixed list, e.g. from configuration.
type StaticProvider struct {
	List []model.Ticker
}

func (s *StaticProvider) Tickers(_ context.Context) ([]model.Ticker, error) {
	if len(s.List) == 0 {
		return nil, ErrEmptyUniverse
	}
	return append([]model.Ticker(nil), s.List...), nil
}

package strategy

import "github.com/quantstop/backtester/market"

// Noop never trades. Useful as a baseline: a completed run yields a
// flat equity series equal to starting cash.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Run(*Context) ([]market.Order, error) {
	return nil, nil
}

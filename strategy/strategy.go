// Package strategy defines the behavioral contract the engine requires
// of a trading strategy and the adapter that normalizes strategy output
// into orders. The engine never depends on a concrete strategy type.
package strategy

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/quantstop/backtester/ledger"
	"github.com/quantstop/backtester/market"
)

// Context is the read-only view a strategy sees at one timestep: the
// current bars, the trade instructions attached to the step, and the
// ledger snapshot from before any of this step's orders apply.
type Context struct {
	Time   time.Time
	Bars   []market.PriceBar
	Trades []market.TradeInstruction
	Ledger ledger.Snapshot
}

// Bar returns the current bar for symbol, if the symbol traded at this
// step.
func (c *Context) Bar(symbol string) (market.PriceBar, bool) {
	for _, b := range c.Bars {
		if b.Symbol == symbol {
			return b, true
		}
	}
	return market.PriceBar{}, false
}

// Position returns the strategy's current position in symbol (zero
// value when flat).
func (c *Context) Position(symbol string) ledger.Position {
	if p, ok := c.Ledger.Positions[symbol]; ok {
		return p
	}
	return ledger.Position{Symbol: symbol}
}

// Strategy is the single entry point contract. Run is called once per
// timestep and returns the orders to apply at that step. Returning an
// error (or panicking) is fatal to the run.
type Strategy interface {
	Name() string
	Run(ctx *Context) ([]market.Order, error)
}

// Params carries the knobs the builtin strategies understand. Unused
// fields are ignored by strategies that don't need them.
type Params struct {
	Symbol     string
	Quantity   float64
	FastPeriod int
	SlowPeriod int
	Lookback   int
	ZThreshold float64
	Spread     float64
}

// New constructs a builtin strategy by name.
func New(name string, p Params) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil
	case "open-once":
		return NewOpenOnce(p), nil
	case "sma-cross", "smacross":
		return NewSMACross(p), nil
	case "ema-cross", "emacross":
		return NewEMACross(p), nil
	case "mean-reversion", "meanrev":
		return NewMeanReversion(p), nil
	case "market-maker", "mm":
		return NewMarketMaker(p), nil
	default:
		return nil, fmt.Errorf("strategy: unknown strategy %q (supported: %s)",
			name, strings.Join(Names(), ", "))
	}
}

// Names lists the builtin strategy names, sorted.
func Names() []string {
	names := []string{"noop", "open-once", "sma-cross", "ema-cross", "mean-reversion", "market-maker"}
	sort.Strings(names)
	return names
}

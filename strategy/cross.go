package strategy

import (
	"github.com/quantstop/backtester/indicators"
	"github.com/quantstop/backtester/market"
)

// crossover feeds one value per bar into a fast/slow indicator pair
// and reports the bar on which their difference changes sign.
type crossover struct {
	fast indicators.Indicator
	slow indicators.Indicator

	lastDiff     float64
	haveLastDiff bool
}

func (c *crossover) update(v float64) (bull, bear bool) {
	c.fast.Update(v)
	c.slow.Update(v)
	if !c.fast.Ready() || !c.slow.Ready() {
		return false, false
	}

	diff := c.fast.Value() - c.slow.Value()
	if !c.haveLastDiff {
		c.lastDiff = diff
		c.haveLastDiff = true
		return false, false
	}

	bull = diff > 0 && c.lastDiff <= 0
	bear = diff < 0 && c.lastDiff >= 0
	c.lastDiff = diff
	return bull, bear
}

// crossPeriods applies the shared defaults for crossover strategies.
func crossPeriods(p Params) (fast, slow int) {
	fast, slow = p.FastPeriod, p.SlowPeriod
	if fast <= 0 {
		fast = 10
	}
	if slow <= fast {
		slow = fast * 3
	}
	return fast, slow
}

// targetOrder sizes the move from the current position in symbol to
// target as a single order; nil when already there.
func targetOrder(ctx *Context, symbol string, target float64) []market.Order {
	delta := target - ctx.Position(symbol).Quantity
	if delta == 0 {
		return nil
	}

	side := market.Buy
	if delta < 0 {
		side = market.Sell
		delta = -delta
	}
	return []market.Order{
		{Symbol: symbol, Side: side, Quantity: delta},
	}
}

package strategy

import (
	"github.com/quantstop/backtester/indicators"
	"github.com/quantstop/backtester/market"
)

// SMACross trades one symbol on a fast/slow moving-average crossover
// of bar closes. A bull cross targets a long position of Quantity, a
// bear cross targets the matching short; the order sizes the move from
// the current position to the target, so a reversal closes and
// reopens in one fill.
type SMACross struct {
	symbol   string
	quantity float64
	cross    crossover
}

func NewSMACross(p Params) *SMACross {
	fast, slow := crossPeriods(p)
	return &SMACross{
		symbol:   p.Symbol,
		quantity: p.Quantity,
		cross: crossover{
			fast: indicators.NewMA(fast),
			slow: indicators.NewMA(slow),
		},
	}
}

func (s *SMACross) Name() string { return "sma-cross" }

func (s *SMACross) Run(ctx *Context) ([]market.Order, error) {
	bar, ok := ctx.Bar(s.symbol)
	if !ok {
		return nil, nil
	}

	bull, bear := s.cross.update(bar.Close)
	switch {
	case bull:
		return targetOrder(ctx, s.symbol, s.quantity), nil
	case bear:
		return targetOrder(ctx, s.symbol, -s.quantity), nil
	}
	return nil, nil
}

package strategy

import (
	"github.com/quantstop/backtester/indicators"
	"github.com/quantstop/backtester/market"
)

// EMACross is the exponential variant of SMACross: same crossover and
// sizing rules, but the averages weight recent closes more heavily so
// signals arrive earlier on fast reversals.
type EMACross struct {
	symbol   string
	quantity float64
	cross    crossover
}

func NewEMACross(p Params) *EMACross {
	fast, slow := crossPeriods(p)
	return &EMACross{
		symbol:   p.Symbol,
		quantity: p.Quantity,
		cross: crossover{
			fast: indicators.NewEMA(fast),
			slow: indicators.NewEMA(slow),
		},
	}
}

func (s *EMACross) Name() string { return "ema-cross" }

func (s *EMACross) Run(ctx *Context) ([]market.Order, error) {
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

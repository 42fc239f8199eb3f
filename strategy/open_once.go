package strategy

import "github.com/quantstop/backtester/market"

// OpenOnce buys a fixed quantity on the first bar of its symbol and
// then holds. Handy for verifying fills and mark-to-market accounting.
type OpenOnce struct {
	symbol   string
	quantity float64
	done     bool
}

func NewOpenOnce(p Params) *OpenOnce {
	return &OpenOnce{symbol: p.Symbol, quantity: p.Quantity}
}

func (s *OpenOnce) Name() string { return "open-once" }

func (s *OpenOnce) Run(ctx *Context) ([]market.Order, error) {
	if s.done {
		return nil, nil
	}
	if _, ok := ctx.Bar(s.symbol); !ok {
		return nil, nil
	}
	s.done = true
	return []market.Order{
		{Symbol: s.symbol, Side: market.Buy, Quantity: s.quantity},
	}, nil
}

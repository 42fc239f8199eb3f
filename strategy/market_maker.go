package strategy

import "github.com/quantstop/backtester/market"

// MarketMaker quotes both sides of the close every step: a limit buy
// Spread below and a limit sell Spread above. Quotes that the bar's
// range never reaches are skipped by the fill policy, so only touched
// quotes trade.
type MarketMaker struct {
	symbol   string
	quantity float64
	spread   float64
}

func NewMarketMaker(p Params) *MarketMaker {
	spread := p.Spread
	if spread <= 0 {
		spread = 2
	}
	return &MarketMaker{
		symbol:   p.Symbol,
		quantity: p.Quantity,
		spread:   spread,
	}
}

func (s *MarketMaker) Name() string { return "market-maker" }

func (s *MarketMaker) Run(ctx *Context) ([]market.Order, error) {
	bar, ok := ctx.Bar(s.symbol)
	if !ok {
		return nil, nil
	}

	return []market.Order{
		{Symbol: s.symbol, Side: market.Buy, Quantity: s.quantity, Limit: bar.Close - s.spread},
		{Symbol: s.symbol, Side: market.Sell, Quantity: s.quantity, Limit: bar.Close + s.spread},
	}, nil
}

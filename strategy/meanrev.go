package strategy

import (
	"github.com/quantstop/backtester/indicators"
	"github.com/quantstop/backtester/market"
)

// MeanReversion fades large z-score moves of the close against a
// rolling window: sell when the close stretches ZThreshold deviations
// above the window mean, buy when it stretches the same distance
// below. Inside the band it stays put.
type MeanReversion struct {
	symbol     string
	quantity   float64
	zThreshold float64
	stats      *indicators.RollingStats
}

func NewMeanReversion(p Params) *MeanReversion {
	lookback := p.Lookback
	if lookback <= 1 {
		lookback = 50
	}
	z := p.ZThreshold
	if z <= 0 {
		z = 2.0
	}
	return &MeanReversion{
		symbol:     p.Symbol,
		quantity:   p.Quantity,
		zThreshold: z,
		stats:      indicators.NewRollingStats(lookback),
	}
}

func (s *MeanReversion) Name() string { return "mean-reversion" }

func (s *MeanReversion) Run(ctx *Context) ([]market.Order, error) {
	bar, ok := ctx.Bar(s.symbol)
	if !ok {
		return nil, nil
	}

	s.stats.Update(bar.Close)
	if !s.stats.Ready() {
		return nil, nil
	}

	z := s.stats.ZScore()
	switch {
	case z > s.zThreshold:
		return []market.Order{
			{Symbol: s.symbol, Side: market.Sell, Quantity: s.quantity},
		}, nil
	case z < -s.zThreshold:
		return []market.Order{
			{Symbol: s.symbol, Side: market.Buy, Quantity: s.quantity},
		}, nil
	}
	return nil, nil
}

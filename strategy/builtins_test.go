package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantstop/backtester/ledger"
	"github.com/quantstop/backtester/market"
)

func barCtx(n int, close float64, pos float64) *Context {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * 24 * time.Hour)
	ctx := &Context{
		Time: t,
		Bars: []market.PriceBar{{
			Time: t, Symbol: "ABRA",
			Open: close, High: close + 1, Low: close - 1, Close: close,
		}},
		Ledger: ledger.Snapshot{Positions: map[string]ledger.Position{}},
	}
	if pos != 0 {
		ctx.Ledger.Positions["ABRA"] = ledger.Position{Symbol: "ABRA", Quantity: pos}
	}
	return ctx
}

func feed(t *testing.T, s Strategy, closes []float64, pos float64) []market.Order {
	t.Helper()
	var last []market.Order
	for i, c := range closes {
		orders, err := s.Run(barCtx(i, c, pos))
		require.NoError(t, err)
		last = orders
	}
	return last
}

func TestNoop(t *testing.T) {
	t.Parallel()

	orders, err := Noop{}.Run(barCtx(0, 100, 0))
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOpenOnce(t *testing.T) {
	t.Parallel()

	s := NewOpenOnce(Params{Symbol: "ABRA", Quantity: 7})

	orders, err := s.Run(barCtx(0, 100, 0))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, market.Buy, orders[0].Side)
	assert.Equal(t, 7.0, orders[0].Quantity)

	orders, err = s.Run(barCtx(1, 101, 7))
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestSMACross(t *testing.T) {
	t.Parallel()

	t.Run("bull cross buys to target", func(t *testing.T) {
		t.Parallel()

		s := NewSMACross(Params{Symbol: "ABRA", Quantity: 10, FastPeriod: 2, SlowPeriod: 4})

		// Declining then sharply rising closes force fast over slow on
		// the final bar.
		orders := feed(t, s, []float64{110, 108, 106, 104, 102, 100, 120}, 0)
		require.Len(t, orders, 1)
		assert.Equal(t, market.Buy, orders[0].Side)
		assert.Equal(t, 10.0, orders[0].Quantity)
	})

	t.Run("bear cross reverses an open long", func(t *testing.T) {
		t.Parallel()

		s := NewSMACross(Params{Symbol: "ABRA", Quantity: 10, FastPeriod: 2, SlowPeriod: 4})

		// Rising then collapsing closes; simulated position stays long 10.
		orders := feed(t, s, []float64{100, 102, 104, 106, 108, 110, 90}, 10)
		require.Len(t, orders, 1)
		assert.Equal(t, market.Sell, orders[0].Side)
		assert.Equal(t, 20.0, orders[0].Quantity) // close 10, open 10 short
	})

	t.Run("no signal without a cross", func(t *testing.T) {
		t.Parallel()

		s := NewSMACross(Params{Symbol: "ABRA", Quantity: 10, FastPeriod: 2, SlowPeriod: 4})
		orders := feed(t, s, []float64{100, 100, 100, 100, 100, 100}, 0)
		assert.Empty(t, orders)
	})
}

func TestEMACross(t *testing.T) {
	t.Parallel()

	t.Run("bull cross buys to target", func(t *testing.T) {
		t.Parallel()

		s := NewEMACross(Params{Symbol: "ABRA", Quantity: 10, FastPeriod: 2, SlowPeriod: 4})

		// Same shape as the SMA case; the spike lifts the fast EMA to
		// 113.67 against the slow's 109.8 on the final bar.
		orders := feed(t, s, []float64{110, 108, 106, 104, 102, 100, 120}, 0)
		require.Len(t, orders, 1)
		assert.Equal(t, market.Buy, orders[0].Side)
		assert.Equal(t, 10.0, orders[0].Quantity)
	})

	t.Run("bear cross reverses an open long", func(t *testing.T) {
		t.Parallel()

		s := NewEMACross(Params{Symbol: "ABRA", Quantity: 10, FastPeriod: 2, SlowPeriod: 4})

		orders := feed(t, s, []float64{100, 102, 104, 106, 108, 110, 90}, 10)
		require.Len(t, orders, 1)
		assert.Equal(t, market.Sell, orders[0].Side)
		assert.Equal(t, 20.0, orders[0].Quantity)
	})
}

func TestMeanReversion(t *testing.T) {
	t.Parallel()

	s := NewMeanReversion(Params{Symbol: "ABRA", Quantity: 5, Lookback: 4, ZThreshold: 1.2})

	// Stable closes, then a spike: z-score above threshold should sell.
	orders := feed(t, s, []float64{100, 100.2, 99.8, 100, 108}, 0)
	require.Len(t, orders, 1)
	assert.Equal(t, market.Sell, orders[0].Side)

	// A crash the other way should buy.
	orders = feed(t, s, []float64{100, 92}, 0)
	require.Len(t, orders, 1)
	assert.Equal(t, market.Buy, orders[0].Side)
}

func TestMarketMaker(t *testing.T) {
	t.Parallel()

	s := NewMarketMaker(Params{Symbol: "ABRA", Quantity: 25, Spread: 2})

	orders, err := s.Run(barCtx(0, 100, 0))
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, market.Buy, orders[0].Side)
	assert.Equal(t, 98.0, orders[0].Limit)
	assert.Equal(t, market.Sell, orders[1].Side)
	assert.Equal(t, 102.0, orders[1].Limit)
}

package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantstop/backtester/market"
)

type scriptedStrategy struct {
	orders []market.Order
	err    error
	panics bool
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) Run(*Context) ([]market.Order, error) {
	if s.panics {
		panic("boom")
	}
	return s.orders, s.err
}

func testContext() *Context {
	return &Context{
		Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Bars: []market.PriceBar{
			{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Symbol: "ABRA", Open: 99, High: 102, Low: 98, Close: 100},
		},
	}
}

func TestAdapterStep(t *testing.T) {
	t.Parallel()

	t.Run("passes well-formed orders through", func(t *testing.T) {
		t.Parallel()

		a := NewAdapter(&scriptedStrategy{orders: []market.Order{
			{Symbol: "ABRA", Side: market.Buy, Quantity: 5},
			{Symbol: "ABRA", Side: market.Sell, Quantity: 3, Limit: 101},
		}}, zerolog.Nop())

		orders, dropped, err := a.Step(testContext())
		require.NoError(t, err)
		assert.Len(t, orders, 2)
		assert.Empty(t, dropped)
	})

	t.Run("drops malformed orders with reasons", func(t *testing.T) {
		t.Parallel()

		a := NewAdapter(&scriptedStrategy{orders: []market.Order{
			{Symbol: "", Side: market.Buy, Quantity: 5},
			{Symbol: "ABRA", Side: 3, Quantity: 5},
			{Symbol: "ABRA", Side: market.Buy, Quantity: 0},
			{Symbol: "ABRA", Side: market.Buy, Quantity: math.NaN()},
			{Symbol: "ABRA", Side: market.Buy, Quantity: 5, Limit: math.Inf(1)},
			{Symbol: "KADABRA", Side: market.Buy, Quantity: 5},
			{Symbol: "ABRA", Side: market.Buy, Quantity: 1}, // the good one
		}}, zerolog.Nop())

		orders, dropped, err := a.Step(testContext())
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, 1.0, orders[0].Quantity)
		require.Len(t, dropped, 6)
		assert.Contains(t, dropped[0].Reason, "missing symbol")
		assert.Contains(t, dropped[5].Reason, "no bar")
	})

	t.Run("strategy error is fatal and wrapped", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("bad math")
		a := NewAdapter(&scriptedStrategy{err: cause}, zerolog.Nop())

		_, _, err := a.Step(testContext())
		var ee *ExecutionError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, "scripted", ee.Strategy)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "2024-01-01")
	})

	t.Run("strategy panic is recovered into ExecutionError", func(t *testing.T) {
		t.Parallel()

		a := NewAdapter(&scriptedStrategy{panics: true}, zerolog.Nop())

		_, _, err := a.Step(testContext())
		var ee *ExecutionError
		require.ErrorAs(t, err, &ee)
		assert.Contains(t, ee.Err.Error(), "panic")
		assert.Contains(t, ee.Err.Error(), "boom")
	})
}

func TestNewByName(t *testing.T) {
	t.Parallel()

	for _, name := range Names() {
		s, err := New(name, Params{Symbol: "ABRA", Quantity: 10})
		require.NoError(t, err, name)
		assert.NotNil(t, s)
	}

	s, err := New("NOOP", Params{})
	require.NoError(t, err)
	assert.Equal(t, "noop", s.Name())

	_, err = New("martingale", Params{})
	assert.Error(t, err)
}

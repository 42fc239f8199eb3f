package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantstop/backtester/market"
)

// ExecutionError wraps a strategy failure (returned error or panic)
// with the timestep at which it occurred. Fatal: the run stops at that
// timestep with no partial-step retries.
type ExecutionError struct {
	Strategy string
	Time     time.Time
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("strategy %s failed at %s: %v",
		e.Strategy, e.Time.Format(time.RFC3339), e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Dropped is an order discarded during normalization, with the reason.
type Dropped struct {
	Order  market.Order
	Reason string
}

// Adapter presents a uniform interface over an external strategy and
// normalizes its output. Malformed orders are dropped with a warning
// rather than failing the run; a strategy error or panic is fatal.
type Adapter struct {
	strat Strategy
	log   zerolog.Logger
}

func NewAdapter(s Strategy, log zerolog.Logger) *Adapter {
	return &Adapter{strat: s, log: log}
}

func (a *Adapter) Name() string { return a.strat.Name() }

// Step calls the strategy once for the given context and returns the
// normalized orders plus any dropped ones.
func (a *Adapter) Step(ctx *Context) (orders []market.Order, dropped []Dropped, err error) {
	raw, err := a.call(ctx)
	if err != nil {
		return nil, nil, err
	}

	for _, o := range raw {
		if reason := validateOrder(ctx, o); reason != "" {
			dropped = append(dropped, Dropped{Order: o, Reason: reason})
			a.log.Warn().
				Time("step", ctx.Time).
				Str("strategy", a.strat.Name()).
				Str("symbol", o.Symbol).
				Str("reason", reason).
				Msg("order dropped")
			continue
		}
		orders = append(orders, o)
	}
	return orders, dropped, nil
}

// call isolates panic recovery so a misbehaving strategy surfaces as an
// ExecutionError instead of crashing the process.
func (a *Adapter) call(ctx *Context) (raw []market.Order, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExecutionError{
				Strategy: a.strat.Name(),
				Time:     ctx.Time,
				Err:      fmt.Errorf("panic: %v", r),
			}
		}
	}()

	raw, err = a.strat.Run(ctx)
	if err != nil {
		return nil, &ExecutionError{Strategy: a.strat.Name(), Time: ctx.Time, Err: err}
	}
	return raw, nil
}

func validateOrder(ctx *Context, o market.Order) string {
	if o.Symbol == "" {
		return "missing symbol"
	}
	if o.Side != market.Buy && o.Side != market.Sell {
		return fmt.Sprintf("invalid side %d", o.Side)
	}
	if o.Quantity <= 0 || math.IsNaN(o.Quantity) || math.IsInf(o.Quantity, 0) {
		return fmt.Sprintf("invalid quantity %v", o.Quantity)
	}
	if o.Limit < 0 || math.IsNaN(o.Limit) || math.IsInf(o.Limit, 0) {
		return fmt.Sprintf("invalid limit %v", o.Limit)
	}
	if _, ok := ctx.Bar(o.Symbol); !ok {
		return "no bar for symbol at this step"
	}
	return ""
}

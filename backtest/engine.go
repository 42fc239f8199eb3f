// Package backtest drives the replay loop: it walks the dataset in
// timestamp order, asks the strategy adapter for orders, applies them
// through the ledger and records one snapshot per step.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantstop/backtester/ledger"
	"github.com/quantstop/backtester/market"
	"github.com/quantstop/backtester/strategy"
)

// State of an engine instance. One run per instance; Completed and
// Failed are terminal.
type State int32

const (
	Created State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "CREATED"
	case Running:
		return "RUNNING"
	case Completed:
		return "COMPLETED"
	case Failed:
		return "FAILED"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Options controls run behavior beyond the ledger's own configuration.
type Options struct {
	// CloseAtEnd liquidates any open positions at the final close,
	// recording CloseReason (default "EndOfReplay") on the fills.
	CloseAtEnd  bool
	CloseReason string
}

// Warning is a non-fatal issue recorded in the run's diagnostic log:
// dropped orders, unmet limits, clamped quantities, unplaced trade
// instructions.
type Warning struct {
	Time   time.Time
	Reason string
}

// Result is the output of a run: the ordered snapshot series, the
// trade log and the diagnostics. On failure it holds everything
// accumulated up to the failing timestep.
type Result struct {
	State     State
	Start     time.Time
	End       time.Time
	Snapshots []ledger.Snapshot
	Trades    []ledger.TradeRecord
	Warnings  []Warning
}

// Engine orchestrates one backtest run. It owns its ledger exclusively
// for the duration of the run, so independent engines may run
// concurrently as long as each gets its own ledger; the dataset is
// read-only and safe to share.
type Engine struct {
	dataset *market.Dataset
	adapter *strategy.Adapter
	ledger  *ledger.Ledger
	opts    Options
	log     zerolog.Logger

	state     State
	snapshots []ledger.Snapshot
	warnings  []Warning
	lastClose map[string]float64
}

func New(ds *market.Dataset, strat strategy.Strategy, led *ledger.Ledger, opts Options, log zerolog.Logger) *Engine {
	return &Engine{
		dataset:   ds,
		adapter:   strategy.NewAdapter(strat, log),
		ledger:    led,
		opts:      opts,
		log:       log,
		state:     Created,
		lastClose: make(map[string]float64),
	}
}

func (e *Engine) State() State { return e.state }

// Snapshots returns the series recorded so far. After a failed run it
// holds every snapshot up to the failing timestep.
func (e *Engine) Snapshots() []ledger.Snapshot { return e.snapshots }

// Run executes the replay to completion. ctx is a cooperative
// cancellation check polled once per timestep; no timeouts are imposed
// internally. On any fatal error the engine transitions to Failed and
// the returned error carries the timestamp of the failing step, with
// the partial Result still returned for diagnostics.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.state != Created {
		return nil, fmt.Errorf("backtest: engine already used (state %s); one run per instance", e.state)
	}
	e.state = Running

	for _, tr := range e.dataset.Unplaced() {
		e.warn(tr.Time, fmt.Sprintf("trade instruction for %s after final bar, dropped", tr.Symbol))
	}

	it := e.dataset.Iterate()
	for {
		step, ok := it.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return e.fail(step.Time, err)
		}
		if err := e.runStep(step); err != nil {
			return e.fail(step.Time, err)
		}
	}

	if e.opts.CloseAtEnd {
		if err := e.closeAll(); err != nil {
			return e.fail(e.dataset.End(), err)
		}
	}

	e.state = Completed
	return e.result(), nil
}

func (e *Engine) runStep(step market.Step) error {
	for _, b := range step.Bars {
		e.lastClose[b.Symbol] = b.Close
	}

	// Snapshot before orders so strategies that condition on their own
	// position see one coherent world-state per timestep.
	pre, err := e.ledger.Snapshot(step.Time, e.lastClose)
	if err != nil {
		return err
	}

	sctx := &strategy.Context{
		Time:   step.Time,
		Bars:   step.Bars,
		Trades: step.Trades,
		Ledger: pre,
	}

	orders, dropped, err := e.adapter.Step(sctx)
	if err != nil {
		return err
	}
	for _, d := range dropped {
		e.warn(step.Time, fmt.Sprintf("order %s %s dropped: %s", d.Order.Side, d.Order.Symbol, d.Reason))
	}

	for _, o := range orders {
		bar, _ := step.Bar(o.Symbol) // adapter guarantees presence
		fill, met := fillPrice(o, bar)
		if !met {
			e.warn(step.Time, fmt.Sprintf("limit %s %s at %v not met (bar %v-%v), skipped",
				o.Side, o.Symbol, o.Limit, bar.Low, bar.High))
			continue
		}

		rec, err := e.ledger.Apply(step.Time, o, fill, "Strategy")
		switch {
		case err == nil:
			if rec.Quantity < o.Quantity {
				e.warn(step.Time, fmt.Sprintf("%s %s clamped from %v to %v: position limit",
					o.Side, o.Symbol, o.Quantity, rec.Quantity))
			}
		case errors.Is(err, ledger.ErrPositionLimit):
			e.warn(step.Time, fmt.Sprintf("%s %s skipped: position limit reached", o.Side, o.Symbol))
		default:
			return err
		}
	}

	snap, err := e.ledger.Snapshot(step.Time, e.lastClose)
	if err != nil {
		return err
	}
	e.snapshots = append(e.snapshots, snap)
	return nil
}

// fillPrice applies the fill policy: orders fill at the bar close
// unless a limit is set. A limit buy needs the bar's low to reach the
// limit, a limit sell needs the high to; an unmet limit skips the
// order. A met limit fills at the close when the close satisfies the
// limit, otherwise at the limit itself.
func fillPrice(o market.Order, bar market.PriceBar) (price float64, met bool) {
	if o.Limit == 0 {
		return bar.Close, true
	}
	if o.Side == market.Buy {
		if bar.Low > o.Limit {
			return 0, false
		}
		if bar.Close > o.Limit {
			return o.Limit, true
		}
		return bar.Close, true
	}
	if bar.High < o.Limit {
		return 0, false
	}
	if bar.Close < o.Limit {
		return o.Limit, true
	}
	return bar.Close, true
}

// closeAll liquidates remaining positions at the last known closes and
// records one final snapshot.
func (e *Engine) closeAll() error {
	end := e.dataset.End()
	reason := e.opts.CloseReason
	if reason == "" {
		reason = "EndOfReplay"
	}

	last, err := e.ledger.Snapshot(end, e.lastClose)
	if err != nil {
		return err
	}
	if len(last.Positions) == 0 {
		return nil
	}

	// Sorted-symbol order keeps the trade log deterministic.
	for _, b := range sortedPositions(last.Positions) {
		side := market.Sell
		qty := b.Quantity
		if qty < 0 {
			side = market.Buy
			qty = -qty
		}
		o := market.Order{Symbol: b.Symbol, Side: side, Quantity: qty}
		if _, err := e.ledger.Apply(end, o, e.lastClose[b.Symbol], reason); err != nil {
			return err
		}
	}

	snap, err := e.ledger.Snapshot(end, e.lastClose)
	if err != nil {
		return err
	}
	e.snapshots = append(e.snapshots, snap)
	return nil
}

func sortedPositions(m map[string]ledger.Position) []ledger.Position {
	out := make([]ledger.Position, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (e *Engine) warn(t time.Time, reason string) {
	e.warnings = append(e.warnings, Warning{Time: t, Reason: reason})
	e.log.Warn().Time("step", t).Msg(reason)
}

func (e *Engine) fail(t time.Time, err error) (*Result, error) {
	e.state = Failed
	return e.result(), fmt.Errorf("backtest: run failed at %s: %w", t.Format(time.RFC3339), err)
}

func (e *Engine) result() *Result {
	return &Result{
		State:     e.state,
		Start:     e.dataset.Start(),
		End:       e.dataset.End(),
		Snapshots: e.snapshots,
		Trades:    e.ledger.Trades(),
		Warnings:  e.warnings,
	}
}

// Package ledger tracks cash, positions and realized/unrealized PnL as
// orders are applied. A Ledger is owned by exactly one backtest run.
package ledger

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/quantstop/backtester/market"
)

// Position is an open holding in one symbol. Quantity may be negative
// (short). AvgCost is the quantity-weighted average entry price.
type Position struct {
	Symbol   string
	Quantity float64
	AvgCost  float64
}

// Snapshot is the ledger state at one timestep. Snapshots are
// append-only; the ordered series is the primary output of a run.
type Snapshot struct {
	Time          time.Time
	Cash          float64
	Positions     map[string]Position
	RealizedPnL   float64
	UnrealizedPnL float64
	Equity        float64
}

// TradeRecord is one applied fill in the trade log.
type TradeRecord struct {
	ID          string
	Time        time.Time
	Symbol      string
	Side        market.Side
	Quantity    float64
	Price       float64
	RealizedPnL float64
	Closing     bool // reduced or closed an existing position
	Reason      string
}

// Options configures a Ledger.
type Options struct {
	Cash float64

	// CashConstrained makes a buy that would drive cash negative fail
	// with *InsufficientCashError. Off by default: in margin-free
	// research mode cash may go negative so shorts can be analyzed.
	CashConstrained bool

	// MaxPosition caps the absolute position per symbol; order
	// quantities are clamped to the remaining headroom. 0 disables.
	MaxPosition float64
}

// Ledger applies orders and maintains cash/position state.
type Ledger struct {
	opts      Options
	cash      float64
	positions map[string]*Position
	realized  float64
	trades    []TradeRecord
	ids       *idSource
}

func New(opts Options) *Ledger {
	return &Ledger{
		opts:      opts,
		cash:      opts.Cash,
		positions: make(map[string]*Position),
		ids:       newIDSource(),
	}
}

func (l *Ledger) Cash() float64        { return l.cash }
func (l *Ledger) Realized() float64    { return l.realized }
func (l *Ledger) Trades() []TradeRecord { return l.trades }

// Position returns the open position for symbol (zero value if flat).
func (l *Ledger) Position(symbol string) Position {
	if p, ok := l.positions[symbol]; ok {
		return *p
	}
	return Position{Symbol: symbol}
}

// Apply executes an order at fillPrice, updating cash, the position and
// realized PnL. The returned record reflects the applied quantity,
// which may be smaller than the order's when a position limit clamps
// it; ErrPositionLimit is returned if nothing could be applied.
//
// Average-cost accounting: increasing a position updates AvgCost as a
// quantity-weighted mean; reducing one books realized PnL of
// (fill - avg) * quantityClosed (sign-adjusted for shorts). A fill that
// flips the position books PnL on the closed leg and restarts the
// average at the fill price.
func (l *Ledger) Apply(t time.Time, o market.Order, fillPrice float64, reason string) (TradeRecord, error) {
	if o.Quantity <= 0 {
		return TradeRecord{}, fmt.Errorf("ledger: quantity must be positive, got %v", o.Quantity)
	}
	if fillPrice <= 0 || math.IsNaN(fillPrice) || math.IsInf(fillPrice, 0) {
		return TradeRecord{}, fmt.Errorf("ledger: invalid fill price %v", fillPrice)
	}

	pos := l.positions[o.Symbol]
	if pos == nil {
		pos = &Position{Symbol: o.Symbol}
	}

	qty := o.Quantity
	if l.opts.MaxPosition > 0 {
		headroom := l.opts.MaxPosition - float64(o.Side)*pos.Quantity
		if headroom <= 0 {
			return TradeRecord{}, ErrPositionLimit
		}
		if qty > headroom {
			qty = headroom
		}
	}

	signed := float64(o.Side) * qty
	cost := signed * fillPrice

	if l.opts.CashConstrained && o.Side == market.Buy && cost > l.cash {
		return TradeRecord{}, &InsufficientCashError{
			Time:   t,
			Symbol: o.Symbol,
			Need:   cost,
			Have:   l.cash,
		}
	}

	var realized float64
	closing := false

	switch {
	case pos.Quantity == 0 || sameSign(pos.Quantity, signed):
		// Open or increase: quantity-weighted average entry.
		total := math.Abs(pos.Quantity) + qty
		pos.AvgCost = (math.Abs(pos.Quantity)*pos.AvgCost + qty*fillPrice) / total
		pos.Quantity += signed

	default:
		closing = true
		closed := math.Min(qty, math.Abs(pos.Quantity))
		realized = (fillPrice - pos.AvgCost) * closed * sign(pos.Quantity)
		pos.Quantity += signed
		if pos.Quantity == 0 {
			pos.AvgCost = 0
		} else if sameSign(pos.Quantity, signed) {
			// Flipped through zero: the remainder is a new position.
			pos.AvgCost = fillPrice
		}
	}

	l.cash -= cost
	l.realized += realized

	if pos.Quantity == 0 {
		delete(l.positions, o.Symbol)
	} else {
		l.positions[o.Symbol] = pos
	}

	rec := TradeRecord{
		ID:          l.ids.next(t),
		Time:        t,
		Symbol:      o.Symbol,
		Side:        o.Side,
		Quantity:    qty,
		Price:       fillPrice,
		RealizedPnL: realized,
		Closing:     closing,
		Reason:      reason,
	}
	l.trades = append(l.trades, rec)
	return rec, nil
}

// MarkToMarket computes unrealized PnL against current prices. An open
// position without a price is an error; prices are never cached here.
// Summation runs in sorted-symbol order so identical state always
// yields the identical float result.
func (l *Ledger) MarkToMarket(prices map[string]float64) (float64, error) {
	var unrealized float64
	for _, sym := range l.sortedSymbols() {
		pos := l.positions[sym]
		px, ok := prices[sym]
		if !ok {
			return 0, fmt.Errorf("ledger: no current price for open position %s", sym)
		}
		unrealized += (px - pos.AvgCost) * pos.Quantity
	}
	return unrealized, nil
}

// Snapshot produces the ledger state at t, recomputing unrealized PnL
// and equity from the given close prices.
func (l *Ledger) Snapshot(t time.Time, prices map[string]float64) (Snapshot, error) {
	unrealized, err := l.MarkToMarket(prices)
	if err != nil {
		return Snapshot{}, err
	}

	var marketValue float64
	positions := make(map[string]Position, len(l.positions))
	for _, sym := range l.sortedSymbols() {
		pos := l.positions[sym]
		positions[sym] = *pos
		marketValue += pos.Quantity * prices[sym]
	}

	return Snapshot{
		Time:          t,
		Cash:          l.cash,
		Positions:     positions,
		RealizedPnL:   l.realized,
		UnrealizedPnL: unrealized,
		Equity:        l.cash + marketValue,
	}, nil
}

func (l *Ledger) sortedSymbols() []string {
	syms := make([]string, 0, len(l.positions))
	for sym := range l.positions {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

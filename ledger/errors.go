package ledger

import (
	"errors"
	"fmt"
	"time"
)

// ErrPositionLimit is returned by Apply when an order has no remaining
// headroom under Options.MaxPosition. Callers treat it as a per-order
// warning, not a run failure.
var ErrPositionLimit = errors.New("ledger: position limit reached")

// InsufficientCashError is returned by Apply in cash-constrained mode
// when a buy would drive cash negative. Fatal to the run.
type InsufficientCashError struct {
	Time   time.Time
	Symbol string
	Need   float64
	Have   float64
}

func (e *InsufficientCashError) Error() string {
	return fmt.Sprintf("ledger: insufficient cash for %s at %s: need %.2f, have %.2f",
		e.Symbol, e.Time.Format(time.RFC3339), e.Need, e.Have)
}

package market

import (
	"fmt"
	"strings"
	"time"
)

// Side of an order or trade instruction: +1 buy, -1 sell.
type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return fmt.Sprintf("Side(%d)", int8(s))
}

// ParseSide accepts "buy"/"sell" (case-insensitive) plus the common
// short forms "b" and "s".
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b":
		return Buy, nil
	case "sell", "s":
		return Sell, nil
	}
	return 0, fmt.Errorf("market: unknown side %q", s)
}

// PriceBar is one OHLCV bar for a symbol. Immutable once loaded into a
// Dataset.
type PriceBar struct {
	Time   time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// TradeInstruction is an exogenous trade record fed to strategies as
// market context. It is not an order the engine executes.
type TradeInstruction struct {
	Time     time.Time
	Symbol   string
	Side     Side
	Quantity float64
	Limit    float64 // 0 means no limit price recorded
}

// Order is a strategy's decision for one timestep. Created by the
// strategy, normalized by the adapter, consumed by the ledger within the
// same step.
type Order struct {
	Symbol   string
	Side     Side
	Quantity float64
	Limit    float64 // 0 means fill at the bar close
}

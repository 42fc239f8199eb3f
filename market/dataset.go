package market

import (
	"math"
	"sort"
	"time"
)

// Step is one aligned timestep of the replay: every bar sharing the
// timestamp (sorted by symbol) plus the trade instructions attached to
// it.
type Step struct {
	Time   time.Time
	Bars   []PriceBar
	Trades []TradeInstruction
}

// Bar returns the bar for symbol at this step, if present.
func (s Step) Bar(symbol string) (PriceBar, bool) {
	for _, b := range s.Bars {
		if b.Symbol == symbol {
			return b, true
		}
	}
	return PriceBar{}, false
}

// Dataset is a validated, time-ordered view over price bars and trade
// instructions. Instructions whose timestamp is absent from the price
// series are attached to the next available price timestamp
// (forward-fill); instructions dated after the final bar cannot be
// placed and are reported via Unplaced.
type Dataset struct {
	steps    []Step
	symbols  []string
	unplaced []TradeInstruction
}

// NewDataset validates and aligns the given records. It fails with
// *MalformedDataError if required fields are missing, per-symbol bar
// timestamps are not strictly increasing, or numeric fields are not
// finite.
func NewDataset(bars []PriceBar, instructions []TradeInstruction) (*Dataset, error) {
	if len(bars) == 0 {
		return nil, malformed("price", -1, "no price bars")
	}

	lastSeen := make(map[string]time.Time)
	symbols := make(map[string]bool)
	for i, b := range bars {
		if err := validateBar(i, b); err != nil {
			return nil, err
		}
		if prev, ok := lastSeen[b.Symbol]; ok && !b.Time.After(prev) {
			return nil, malformed("price", i,
				"timestamps for %s not strictly increasing (%s after %s)",
				b.Symbol, b.Time.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
		lastSeen[b.Symbol] = b.Time
		symbols[b.Symbol] = true
	}
	for i, tr := range instructions {
		if err := validateInstruction(i, tr); err != nil {
			return nil, err
		}
	}

	// Dense, sorted timestamp grid over all symbols.
	byTime := make(map[int64][]PriceBar)
	var stamps []int64
	for _, b := range bars {
		key := b.Time.UnixNano()
		if _, ok := byTime[key]; !ok {
			stamps = append(stamps, key)
		}
		byTime[key] = append(byTime[key], b)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	ds := &Dataset{steps: make([]Step, 0, len(stamps))}
	for _, key := range stamps {
		sb := byTime[key]
		sort.Slice(sb, func(i, j int) bool { return sb[i].Symbol < sb[j].Symbol })
		ds.steps = append(ds.steps, Step{Time: time.Unix(0, key).UTC(), Bars: sb})
	}

	// Forward-fill each instruction onto the first step at or after its
	// timestamp. Original input order is preserved within a step.
	for _, tr := range instructions {
		idx := sort.Search(len(stamps), func(i int) bool {
			return stamps[i] >= tr.Time.UnixNano()
		})
		if idx == len(stamps) {
			ds.unplaced = append(ds.unplaced, tr)
			continue
		}
		ds.steps[idx].Trades = append(ds.steps[idx].Trades, tr)
	}

	for sym := range symbols {
		ds.symbols = append(ds.symbols, sym)
	}
	sort.Strings(ds.symbols)

	return ds, nil
}

// Len returns the number of timesteps.
func (ds *Dataset) Len() int { return len(ds.steps) }

// Symbols returns all symbols present, sorted.
func (ds *Dataset) Symbols() []string { return ds.symbols }

// Unplaced returns instructions dated after the final bar; they could
// not be forward-filled and are excluded from the replay.
func (ds *Dataset) Unplaced() []TradeInstruction { return ds.unplaced }

// Start and End report the time range covered by the dataset.
func (ds *Dataset) Start() time.Time { return ds.steps[0].Time }
func (ds *Dataset) End() time.Time  { return ds.steps[len(ds.steps)-1].Time }

// Iterate returns a fresh iterator over the aligned steps.
func (ds *Dataset) Iterate() *Iterator {
	return &Iterator{ds: ds}
}

// Iterator walks the dataset's steps in timestamp order.
type Iterator struct {
	ds *Dataset
	i  int
}

// Next returns the next step, or ok=false at the end of the series.
func (it *Iterator) Next() (Step, bool) {
	if it.i >= len(it.ds.steps) {
		return Step{}, false
	}
	s := it.ds.steps[it.i]
	it.i++
	return s, true
}

func validateBar(row int, b PriceBar) error {
	if b.Symbol == "" {
		return malformed("price", row, "missing symbol")
	}
	if b.Time.IsZero() {
		return malformed("price", row, "missing timestamp")
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"open", b.Open}, {"high", b.High}, {"low", b.Low},
		{"close", b.Close}, {"volume", b.Volume},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return malformed("price", row, "%s is not finite", f.name)
		}
	}
	if b.Low > b.High {
		return malformed("price", row, "low %v above high %v", b.Low, b.High)
	}
	return nil
}

func validateInstruction(row int, tr TradeInstruction) error {
	if tr.Symbol == "" {
		return malformed("trade", row, "missing symbol")
	}
	if tr.Time.IsZero() {
		return malformed("trade", row, "missing timestamp")
	}
	if tr.Side != Buy && tr.Side != Sell {
		return malformed("trade", row, "invalid side %d", tr.Side)
	}
	if math.IsNaN(tr.Quantity) || math.IsInf(tr.Quantity, 0) || tr.Quantity <= 0 {
		return malformed("trade", row, "quantity %v must be positive and finite", tr.Quantity)
	}
	if math.IsNaN(tr.Limit) || math.IsInf(tr.Limit, 0) || tr.Limit < 0 {
		return malformed("trade", row, "limit %v must be non-negative and finite", tr.Limit)
	}
	return nil
}

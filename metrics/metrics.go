// Package metrics derives summary statistics from a completed
// snapshot series and trade log.
package metrics

import (
	"fmt"
	"math"

	"github.com/quantstop/backtester/ledger"
)

// DefaultAnnualization assumes daily bars.
const DefaultAnnualization = 252

// Summary is the immutable performance report of one run.
type Summary struct {
	TotalReturn      float64
	AnnualizedReturn float64
	SharpeRatio      float64
	MaxDrawdown      float64
	WinRate          float64
	ProfitFactor     float64
	NumTrades        int
	StartEquity      float64
	EndEquity        float64
}

// InsufficientDataError reports a series too short to summarize:
// returns and Sharpe are undefined for fewer than two snapshots.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("metrics: need at least %d snapshots, have %d", e.Need, e.Have)
}

// Summarize computes the performance summary. annualization is the
// number of periods per year (252 for daily bars); pass 0 for the
// default. Win rate comes from the trade log's closing fills, not from
// per-step equity deltas.
func Summarize(snapshots []ledger.Snapshot, trades []ledger.TradeRecord, annualization float64) (Summary, error) {
	if len(snapshots) < 2 {
		return Summary{}, &InsufficientDataError{Have: len(snapshots), Need: 2}
	}
	if annualization <= 0 {
		annualization = DefaultAnnualization
	}

	start := snapshots[0].Equity
	end := snapshots[len(snapshots)-1].Equity
	if start <= 0 {
		return Summary{}, fmt.Errorf("metrics: starting equity %v must be positive", start)
	}

	returns := make([]float64, 0, len(snapshots)-1)
	for i := 1; i < len(snapshots); i++ {
		prev := snapshots[i-1].Equity
		if prev == 0 {
			return Summary{}, fmt.Errorf("metrics: zero equity at snapshot %d, period return undefined", i-1)
		}
		returns = append(returns, snapshots[i].Equity/prev-1)
	}

	total := end/start - 1
	periods := float64(len(returns))

	// Geometric annualization over the observed period count.
	annualized := math.Pow(1+total, annualization/periods) - 1
	if 1+total <= 0 {
		annualized = -1
	}

	s := Summary{
		TotalReturn:      total,
		AnnualizedReturn: annualized,
		SharpeRatio:      sharpe(returns, annualization),
		MaxDrawdown:      maxDrawdown(snapshots),
		NumTrades:        len(trades),
		StartEquity:      start,
		EndEquity:        end,
	}
	s.WinRate, s.ProfitFactor = tradeStats(trades)
	return s, nil
}

// sharpe is mean(r)/stdev(r)*sqrt(annualization) with the sample (n-1)
// stdev. Zero volatility yields Sharpe 0, never Inf or NaN.
func sharpe(returns []float64, annualization float64) float64 {
	n := float64(len(returns))
	if n < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / n

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / (n - 1))
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(annualization)
}

// maxDrawdown is the largest peak-to-trough equity decline, as a
// fraction of the peak.
func maxDrawdown(snapshots []ledger.Snapshot) float64 {
	var peak, maxDD float64
	for _, s := range snapshots {
		if s.Equity > peak {
			peak = s.Equity
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - s.Equity) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// tradeStats derives win rate and profit factor from realized-PnL
// closing fills. No closing fills means both report 0.
func tradeStats(trades []ledger.TradeRecord) (winRate, profitFactor float64) {
	var wins, closers int
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if !t.Closing {
			continue
		}
		closers++
		switch {
		case t.RealizedPnL > 0:
			wins++
			grossProfit += t.RealizedPnL
		case t.RealizedPnL < 0:
			grossLoss -= t.RealizedPnL
		}
	}
	if closers > 0 {
		winRate = float64(wins) / float64(closers)
	}
	if grossLoss > 0 {
		profitFactor = grossProfit / grossLoss
	}
	return winRate, profitFactor
}

package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quantstop/backtester/ledger"
	"github.com/quantstop/backtester/market"
)

// GetRun returns a persisted run summary by ID.
func (j *SQLite) GetRun(runID string) (Run, error) {
	var r Run
	r.RunID = runID

	row := j.db.QueryRow(`
		SELECT created, strategy, dataset, start_time, end_time,
		       total_return, annualized_return, sharpe_ratio, max_drawdown,
		       win_rate, profit_factor, num_trades, start_equity, end_equity
		FROM runs
		WHERE run_id = ?`, runID)

	err := row.Scan(
		&r.Created, &r.Strategy, &r.Dataset, &r.Start, &r.End,
		&r.Summary.TotalReturn, &r.Summary.AnnualizedReturn, &r.Summary.SharpeRatio,
		&r.Summary.MaxDrawdown, &r.Summary.WinRate, &r.Summary.ProfitFactor,
		&r.Summary.NumTrades, &r.Summary.StartEquity, &r.Summary.EndEquity,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, fmt.Errorf("journal: run %q not found", runID)
		}
		return Run{}, err
	}
	return r, nil
}

// ListTrades returns a run's trade log ordered by fill time.
func (j *SQLite) ListTrades(runID string) ([]ledger.TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, time, symbol, side, quantity, price, realized_pnl, closing, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY time ASC, trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.TradeRecord
	for rows.Next() {
		var rec ledger.TradeRecord
		var side string
		var closing int
		if err := rows.Scan(
			&rec.ID, &rec.Time, &rec.Symbol, &side,
			&rec.Quantity, &rec.Price, &rec.RealizedPnL, &closing, &rec.Reason,
		); err != nil {
			return nil, err
		}
		if rec.Side, err = market.ParseSide(side); err != nil {
			return nil, err
		}
		rec.Closing = closing != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListSnapshots returns a run's equity curve within [start, end),
// ordered by time. Zero bounds mean unbounded.
func (j *SQLite) ListSnapshots(runID string, start, end time.Time) ([]ledger.Snapshot, error) {
	if start.IsZero() {
		start = time.Unix(0, 0)
	}
	if end.IsZero() {
		end = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	rows, err := j.db.Query(`
		SELECT time, cash, realized_pnl, unrealized_pnl, equity
		FROM snapshots
		WHERE run_id = ? AND time >= ? AND time < ?
		ORDER BY time ASC`, runID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Snapshot
	for rows.Next() {
		var s ledger.Snapshot
		if err := rows.Scan(&s.Time, &s.Cash, &s.RealizedPnL, &s.UnrealizedPnL, &s.Equity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

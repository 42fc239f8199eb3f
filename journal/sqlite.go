package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quantstop/backtester/ledger"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordSnapshot(runID string, s ledger.Snapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO snapshots
		(run_id, time, cash, realized_pnl, unrealized_pnl, equity)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, s.Time, s.Cash, s.RealizedPnL, s.UnrealizedPnL, s.Equity,
	)
	return err
}

func (j *SQLite) RecordTrade(runID string, t ledger.TradeRecord) error {
	closing := 0
	if t.Closing {
		closing = 1
	}
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, time, symbol, side, quantity, price, realized_pnl, closing, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, runID, t.Time, t.Symbol, t.Side.String(), t.Quantity,
		t.Price, t.RealizedPnL, closing, t.Reason,
	)
	return err
}

func (j *SQLite) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, dataset, start_time, end_time,
		 total_return, annualized_return, sharpe_ratio, max_drawdown,
		 win_rate, profit_factor, num_trades, start_equity, end_equity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Dataset, r.Start, r.End,
		r.Summary.TotalReturn, r.Summary.AnnualizedReturn, r.Summary.SharpeRatio,
		r.Summary.MaxDrawdown, r.Summary.WinRate, r.Summary.ProfitFactor,
		r.Summary.NumTrades, r.Summary.StartEquity, r.Summary.EndEquity,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

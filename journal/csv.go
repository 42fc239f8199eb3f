package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/quantstop/backtester/ledger"
)

// CSV writes trades and snapshots to two flat files. Run summaries are
// not persisted by this backend; use SQLite when you need them queryable.
type CSV struct {
	trades    *csv.Writer
	snapshots *csv.Writer
	tf, sf    *os.File
}

func NewCSV(tradesPath, snapshotsPath string) (*CSV, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	sf, err := os.Create(snapshotsPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	sw := csv.NewWriter(sf)

	if err := tw.Write([]string{"run_id", "trade_id", "time", "symbol", "side", "quantity", "price", "realized_pnl", "closing", "reason"}); err != nil {
		return nil, err
	}
	if err := sw.Write([]string{"run_id", "time", "cash", "realized_pnl", "unrealized_pnl", "equity"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	sw.Flush()
	if err := sw.Error(); err != nil {
		return nil, err
	}

	return &CSV{trades: tw, snapshots: sw, tf: tf, sf: sf}, nil
}

func (j *CSV) RecordTrade(runID string, t ledger.TradeRecord) error {
	err := j.trades.Write([]string{
		runID,
		t.ID,
		t.Time.Format(time.RFC3339),
		t.Symbol,
		t.Side.String(),
		f(t.Quantity),
		f(t.Price),
		f(t.RealizedPnL),
		strconv.FormatBool(t.Closing),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordSnapshot(runID string, s ledger.Snapshot) error {
	err := j.snapshots.Write([]string{
		runID,
		s.Time.Format(time.RFC3339),
		f(s.Cash),
		f(s.RealizedPnL),
		f(s.UnrealizedPnL),
		f(s.Equity),
	})
	if err != nil {
		return err
	}
	j.snapshots.Flush()
	return j.snapshots.Error()
}

func (j *CSV) RecordRun(Run) error { return nil }

func (j *CSV) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.snapshots.Flush()
	if err := j.snapshots.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.sf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

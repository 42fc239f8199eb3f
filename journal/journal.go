// Package journal persists backtest output: the snapshot series, the
// trade log and run summaries. The engine never writes files itself;
// this package is the persistence collaborator callers hand results to.
package journal

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/quantstop/backtester/ledger"
	"github.com/quantstop/backtester/metrics"
)

// NewRunID returns a fresh time-sortable run identifier.
func NewRunID() string {
	return ulid.Make().String()
}

// Run is one persisted backtest run summary.
type Run struct {
	RunID    string
	Created  time.Time
	Strategy string
	Dataset  string
	Start    time.Time
	End      time.Time
	Summary  metrics.Summary
}

// Journal records backtest output. Implementations: CSV, SQLite.
type Journal interface {
	RecordSnapshot(runID string, s ledger.Snapshot) error
	RecordTrade(runID string, t ledger.TradeRecord) error
	RecordRun(r Run) error
	Close() error
}

// RecordResult writes a full run: the summary row, then every trade
// and snapshot under the run's ID.
func RecordResult(j Journal, run Run, snapshots []ledger.Snapshot, trades []ledger.TradeRecord) error {
	if err := j.RecordRun(run); err != nil {
		return err
	}
	for _, t := range trades {
		if err := j.RecordTrade(run.RunID, t); err != nil {
			return err
		}
	}
	for _, s := range snapshots {
		if err := j.RecordSnapshot(run.RunID, s); err != nil {
			return err
		}
	}
	return nil
}

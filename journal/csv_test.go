package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantstop/backtester/ledger"
	"github.com/quantstop/backtester/market"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	snapsPath := filepath.Join(dir, "snapshots.csv")

	j, err := NewCSV(tradesPath, snapsPath)
	require.NoError(t, err)

	runID := NewRunID()
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordTrade(runID, ledger.TradeRecord{
		ID: "01A", Time: t0, Symbol: "ABRA", Side: market.Sell,
		Quantity: 2.5, Price: 110, RealizedPnL: 25, Closing: true, Reason: "Strategy",
	}))
	require.NoError(t, j.RecordSnapshot(runID, ledger.Snapshot{
		Time: t0, Cash: 10275, RealizedPnL: 25, Equity: 10275,
	}))
	require.NoError(t, j.RecordRun(Run{RunID: runID})) // no-op for this backend
	require.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 2)
	assert.Equal(t, []string{"run_id", "trade_id", "time", "symbol", "side", "quantity", "price", "realized_pnl", "closing", "reason"}, trades[0])
	assert.Equal(t, []string{
		runID, "01A", "2024-01-02T00:00:00Z", "ABRA", "sell",
		"2.500000", "110.000000", "25.000000", "true", "Strategy",
	}, trades[1])

	snaps := readCSV(t, snapsPath)
	require.Len(t, snaps, 2)
	assert.Equal(t, []string{
		runID, "2024-01-02T00:00:00Z", "10275.000000", "25.000000", "0.000000", "10275.000000",
	}, snaps[1])
}

func TestNewCSVBadPath(t *testing.T) {
	t.Parallel()

	_, err := NewCSV(filepath.Join(t.TempDir(), "missing", "trades.csv"), "snapshots.csv")
	require.Error(t, err)
}

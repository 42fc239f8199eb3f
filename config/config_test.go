package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	t.Parallel()

	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	mutate := func(fn func(*Config)) *Config {
		c := Default()
		fn(c)
		return c
	}

	cases := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{"no data source", mutate(func(c *Config) { c.Data.Prices = "" }), "archive or prices"},
		{"archive and prices", mutate(func(c *Config) { c.Data.Archive = "data.zip" }), "mutually exclusive"},
		{"zero cash", mutate(func(c *Config) { c.Account.Cash = 0 }), "cash must be positive"},
		{"negative max position", mutate(func(c *Config) { c.Account.MaxPosition = -1 }), "max_position"},
		{"missing strategy name", mutate(func(c *Config) { c.Strategy.Name = "" }), "name is required"},
		{"missing symbol", mutate(func(c *Config) { c.Strategy.Symbol = "" }), "symbol is required"},
		{"zero quantity", mutate(func(c *Config) { c.Strategy.Quantity = 0 }), "quantity must be positive"},
		{"negative annualization", mutate(func(c *Config) { c.Backtest.Annualization = -1 }), "annualization"},
		{"csv journal without files", mutate(func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }), "trades_file"},
		{"sqlite journal without path", mutate(func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }), "db_path"},
		{"unknown journal type", mutate(func(c *Config) { c.Journal.Type = "parquet" }), "journal.type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("noop needs no symbol or quantity", func(t *testing.T) {
		t.Parallel()
		c := Default()
		c.Strategy = StrategyConfig{Name: "noop"}
		assert.NoError(t, c.Validate())
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{"yaml", "json"} {
		t.Run(ext, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config."+ext)
			want := Default()
			want.Strategy.Name = "mean-reversion"
			want.Strategy.Lookback = 30
			want.Strategy.ZThreshold = 1.5
			want.Backtest.CloseAtEnd = true

			require.NoError(t, want.SaveToFile(path))

			got, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("garbage content", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{{{ not a config"), 0644))
		_, err := LoadFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("parses but invalid", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("account:\n  cash: -5\n"), 0644))
		_, err := LoadFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})
}

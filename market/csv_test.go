package market

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

const priceRows = `timestamp,symbol,open,high,low,close,volume
2024-01-01T00:00:00Z,ABRA,99,102,98,100,1000
2024-01-02T00:00:00Z,ABRA,100,104,99,103,1100
`

const tradeRows = `timestamp,symbol,side,quantity,limit
2024-01-01T00:00:00Z,ABRA,buy,5,
2024-01-02T00:00:00Z,ABRA,sell,5,103.5
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	t.Run("prices and trades", func(t *testing.T) {
		t.Parallel()

		ds, err := LoadCSV(writeFile(t, "prices.csv", priceRows), writeFile(t, "trades.csv", tradeRows))
		require.NoError(t, err)
		require.Equal(t, 2, ds.Len())

		it := ds.Iterate()
		s1, _ := it.Next()
		s2, _ := it.Next()

		require.Len(t, s1.Bars, 1)
		assert.Equal(t, 100.0, s1.Bars[0].Close)
		require.Len(t, s1.Trades, 1)
		assert.Equal(t, Buy, s1.Trades[0].Side)
		assert.Zero(t, s1.Trades[0].Limit)

		require.Len(t, s2.Trades, 1)
		assert.Equal(t, 103.5, s2.Trades[0].Limit)
	})

	t.Run("trades are optional", func(t *testing.T) {
		t.Parallel()

		ds, err := LoadCSV(writeFile(t, "prices.csv", priceRows), "")
		require.NoError(t, err)
		assert.Equal(t, 2, ds.Len())
	})

	t.Run("bad numeric field", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "prices.csv",
			"2024-01-01T00:00:00Z,ABRA,99,102,98,oops,1000\n")
		_, err := LoadCSV(path, "")

		var mde *MalformedDataError
		require.ErrorAs(t, err, &mde)
	})

	t.Run("missing columns", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "prices.csv", "2024-01-01T00:00:00Z,ABRA,99\n")
		_, err := LoadCSV(path, "")

		var mde *MalformedDataError
		require.ErrorAs(t, err, &mde)
		assert.Contains(t, mde.Error(), "columns")
	})

	t.Run("bad timestamp", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "prices.csv",
			"yesterday,ABRA,99,102,98,100,1000\n")
		_, err := LoadCSV(path, "")
		require.Error(t, err)
	})
}

func TestLoadCSVCompressed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prices.csv.xz")
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := xz.NewWriter(f)
	require.NoError(t, err)
	_, err = w.Write([]byte(priceRows))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	ds, err := LoadCSV(path, "")
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestLoadArchive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dataset.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	pw, err := zw.Create("prices.csv")
	require.NoError(t, err)
	_, err = pw.Write([]byte(priceRows))
	require.NoError(t, err)
	tw, err := zw.Create("trades.csv")
	require.NoError(t, err)
	_, err = tw.Write([]byte(tradeRows))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	ds, err := LoadArchive(path)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	it := ds.Iterate()
	s1, _ := it.Next()
	assert.Len(t, s1.Trades, 1)
}

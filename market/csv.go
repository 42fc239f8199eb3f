package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/xyproto/unzip"
)

// LoadCSV reads price and trade CSVs and returns a validated Dataset.
//
// Price rows are:
//
//	timestamp,symbol,open,high,low,close,volume
//
// Trade rows are:
//
//	timestamp,symbol,side,quantity[,limit]
//
// where timestamp is RFC3339 (or RFC3339Nano) and side is buy/sell. A
// header row is allowed. Files ending in .xz are decompressed
// transparently. The trade path may be empty for a trades-free replay.
func LoadCSV(pricePath, tradePath string) (*Dataset, error) {
	bars, err := loadPriceCSV(pricePath)
	if err != nil {
		return nil, err
	}

	var instructions []TradeInstruction
	if tradePath != "" {
		instructions, err = loadTradeCSV(tradePath)
		if err != nil {
			return nil, err
		}
	}

	return NewDataset(bars, instructions)
}

// LoadArchive extracts a .zip archive containing prices.csv and
// (optionally) trades.csv into a temp dir and loads them. The .xz
// variants are also recognized inside the archive.
func LoadArchive(path string) (*Dataset, error) {
	dir, err := os.MkdirTemp("", "backtester-dataset-")
	if err != nil {
		return nil, fmt.Errorf("market: extract archive: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := unzip.Extract(path, dir); err != nil {
		return nil, fmt.Errorf("market: extract archive %s: %w", path, err)
	}

	prices, err := findExtracted(dir, "prices.csv")
	if err != nil {
		return nil, err
	}
	trades, _ := findExtracted(dir, "trades.csv") // optional

	return LoadCSV(prices, trades)
}

func findExtracted(dir, name string) (string, error) {
	for _, candidate := range []string{name, name + ".xz"} {
		var found string
		err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && d.Name() == candidate {
				found = p
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("market: scan archive contents: %w", err)
		}
		if found != "" {
			return found, nil
		}
	}
	return "", fmt.Errorf("market: archive does not contain %s", name)
}

// openData opens a data file, wrapping it in an xz reader when the
// extension calls for it.
func openData(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".xz") {
		r, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("market: xz reader for %s: %w", path, err)
		}
		return &xzReadCloser{Reader: r, f: f}, nil
	}
	return f, nil
}

type xzReadCloser struct {
	*xz.Reader
	f *os.File
}

func (r *xzReadCloser) Close() error { return r.f.Close() }

func loadPriceCSV(path string) ([]PriceBar, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	var bars []PriceBar
	for i, row := range rows {
		if len(row) == 0 || isHeader(i, row) {
			continue
		}
		if len(row) < 7 {
			return nil, malformed("price", i, "expected 7 columns, got %d", len(row))
		}
		t, err := parseTime(row[0])
		if err != nil {
			return nil, malformed("price", i, "bad timestamp %q", row[0])
		}
		b := PriceBar{Time: t, Symbol: strings.TrimSpace(row[1])}
		for j, dst := range []*float64{&b.Open, &b.High, &b.Low, &b.Close, &b.Volume} {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[2+j]), 64)
			if err != nil {
				return nil, malformed("price", i, "bad numeric field %q", row[2+j])
			}
			*dst = v
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func loadTradeCSV(path string) ([]TradeInstruction, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	var out []TradeInstruction
	for i, row := range rows {
		if len(row) == 0 || isHeader(i, row) {
			continue
		}
		if len(row) < 4 {
			return nil, malformed("trade", i, "expected at least 4 columns, got %d", len(row))
		}
		t, err := parseTime(row[0])
		if err != nil {
			return nil, malformed("trade", i, "bad timestamp %q", row[0])
		}
		side, err := ParseSide(row[2])
		if err != nil {
			return nil, malformed("trade", i, "bad side %q", row[2])
		}
		qty, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			return nil, malformed("trade", i, "bad quantity %q", row[3])
		}
		tr := TradeInstruction{Time: t, Symbol: strings.TrimSpace(row[1]), Side: side, Quantity: qty}
		if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
			limit, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
			if err != nil {
				return nil, malformed("trade", i, "bad limit %q", row[4])
			}
			tr.Limit = limit
		}
		out = append(out, tr)
	}
	return out, nil
}

func readRows(path string) ([][]string, error) {
	f, err := openData(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("market: read %s: %w", path, err)
	}
	return rows, nil
}

// isHeader allows a single leading header row starting with "timestamp".
func isHeader(i int, row []string) bool {
	return i == 0 && len(row) > 0 &&
		strings.EqualFold(strings.TrimSpace(row[0]), "timestamp")
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

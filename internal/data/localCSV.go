package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/contactkeval/oi-clusters/internal/logger"
)

// localFileDataProvider implements Source from CSV files laid out as
//
//	<dir>/<TICKER>/chain_<YYYY-MM-DD>.csv   type,strike,openInterest
//	<dir>/<TICKER>/prices.csv               time,close[,open,high,low,volume]
//
// Tickers without a directory are delegated to the secondary source, if any.
type localFileDataProvider struct {
	dir       string
	secondary Source
}

// NewLocalFileDataProvider convenience constructor.
func NewLocalFileDataProvider(dir string, secondary Source) *localFileDataProvider {
	return &localFileDataProvider{dir: dir, secondary: secondary}
}

// Secondary returns the fallback source, if any.
func (localFileDataProv *localFileDataProvider) Secondary() Source {
	return localFileDataProv.secondary
}

// Expirations lists the chain files present for ticker.
func (localFileDataProv *localFileDataProvider) Expirations(ctx context.Context, ticker string) ([]string, error) {
	tickerDir, ok := localFileDataProv.tickerDir(ticker)
	if !ok {
		if localFileDataProv.secondary != nil {
			return localFileDataProv.secondary.Expirations(ctx, ticker)
		}
		return nil, nil
	}

	matches, err := filepath.Glob(filepath.Join(tickerDir, "chain_*.csv"))
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, m := range matches {
		expiry := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "chain_"), ".csv")
		if _, err := time.Parse(ExpiryLayout, expiry); err != nil {
			logger.Tracef("skipping chain file with bad date: %s", m)
			continue
		}
		seen[expiry] = struct{}{}
	}
	return sortedExpiries(seen), nil
}

// OptionChain reads chain_<expiry>.csv. Rows with an empty or unparseable
// strike or open interest are dropped.
func (localFileDataProv *localFileDataProvider) OptionChain(ctx context.Context, ticker, expiry string) (Chain, error) {
	tickerDir, ok := localFileDataProv.tickerDir(ticker)
	if !ok {
		if localFileDataProv.secondary != nil {
			return localFileDataProv.secondary.OptionChain(ctx, ticker, expiry)
		}
		return Chain{}, fmt.Errorf("no local data for %s", ticker)
	}

	records, cols, err := readCSV(filepath.Join(tickerDir, "chain_"+expiry+".csv"))
	if err != nil {
		return Chain{}, err
	}
	typeCol, strikeCol, oiCol := cols["type"], cols["strike"], cols["openinterest"]
	if typeCol < 0 || strikeCol < 0 || oiCol < 0 {
		return Chain{}, fmt.Errorf("chain file for %s %s: header must contain type,strike,openInterest", ticker, expiry)
	}

	var chain Chain
	for _, row := range records {
		strike, okStrike := parseOptionalFloat(field(row, strikeCol))
		oi, okOI := parseOptionalFloat(field(row, oiCol))
		if !okStrike || !okOI {
			continue
		}
		leg, ok := newLeg(&strike, &oi)
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(field(row, typeCol))) {
		case CallType, "c":
			chain.Calls = append(chain.Calls, leg)
		case PutType, "p":
			chain.Puts = append(chain.Puts, leg)
		}
	}
	return chain, nil
}

// PriceHistory reads prices.csv, oldest first.
func (localFileDataProv *localFileDataProvider) PriceHistory(ctx context.Context, ticker string) ([]Bar, error) {
	tickerDir, ok := localFileDataProv.tickerDir(ticker)
	if !ok {
		if localFileDataProv.secondary != nil {
			return localFileDataProv.secondary.PriceHistory(ctx, ticker)
		}
		return nil, fmt.Errorf("no local data for %s", ticker)
	}

	records, cols, err := readCSV(filepath.Join(tickerDir, "prices.csv"))
	if err != nil {
		return nil, err
	}
	timeCol, closeCol := cols["time"], cols["close"]
	if timeCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("prices file for %s: header must contain time,close", ticker)
	}

	out := make([]Bar, 0, len(records))
	for _, row := range records {
		ts, err := parseBarTime(field(row, timeCol))
		if err != nil {
			continue
		}
		closePrice, ok := parseOptionalFloat(field(row, closeCol))
		if !ok {
			continue
		}
		bar := Bar{Date: ts, Open: closePrice, High: closePrice, Low: closePrice, Close: closePrice}
		if v, ok := parseOptionalFloat(field(row, cols["open"])); ok {
			bar.Open = v
		}
		if v, ok := parseOptionalFloat(field(row, cols["high"])); ok {
			bar.High = v
		}
		if v, ok := parseOptionalFloat(field(row, cols["low"])); ok {
			bar.Low = v
		}
		if v, ok := parseOptionalFloat(field(row, cols["volume"])); ok {
			bar.Vol = v
		}
		out = append(out, bar)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (localFileDataProv *localFileDataProvider) tickerDir(ticker string) (string, bool) {
	ticker = NormalizeTicker(ticker)
	if !ValidTicker(ticker) {
		logger.Debugf("rejecting ticker %q for local files", ticker)
		return "", false
	}
	dir := filepath.Join(localFileDataProv.dir, ticker)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

// columns maps lower-cased header names to indexes; absent names map to -1.
type columns map[string]int

func (c columns) get(name string) int {
	if i, ok := c[name]; ok {
		return i
	}
	return -1
}

// readCSV reads a headed CSV file, returning data rows and a header lookup
// where missing columns resolve to -1.
func readCSV(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
		}
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("read csv %s: missing header", filepath.Base(path))
	}

	header := columns{}
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cols := map[string]int{}
	for _, name := range []string{"type", "strike", "openinterest", "time", "open", "high", "low", "close", "volume"} {
		cols[name] = header.get(name)
	}
	return records[1:], cols, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseOptionalFloat(s string) (float64, bool) {
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseBarTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", ExpiryLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

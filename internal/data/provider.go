package data

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

// ExpiryLayout is the date format used for option expirations everywhere
// (query parameters, file names, export rows).
const ExpiryLayout = "2006-01-02"

// Contract types as reported by market data sources.
const (
	CallType = "call"
	PutType  = "put"
)

// Source supplies option chain snapshots and recent price history.
//
//go:generate mockgen -package=pipeline_test -destination=../pipeline/mock_source_test.go -source=provider.go Source
type Source interface {
	// Expirations lists the option expiration dates (YYYY-MM-DD) available for ticker, ascending.
	Expirations(ctx context.Context, ticker string) ([]string, error)
	// OptionChain returns calls and puts for ticker at expiry.
	// Legs with missing open interest are already dropped.
	OptionChain(ctx context.Context, ticker, expiry string) (Chain, error)
	// PriceHistory returns recent intraday bars for ticker, oldest first.
	PriceHistory(ctx context.Context, ticker string) ([]Bar, error)
}

// OptionLeg is one strike of one side of an option chain.
type OptionLeg struct {
	Strike       float64 `json:"strike"`
	OpenInterest int64   `json:"openInterest"`
}

// Chain holds both sides of an option chain for a single expiry.
type Chain struct {
	Calls []OptionLeg
	Puts  []OptionLeg
}

// Empty reports whether neither side carries any legs.
func (c Chain) Empty() bool {
	return len(c.Calls) == 0 && len(c.Puts) == 0
}

// Bar simplified OHLC
type Bar struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
	Vol   float64
}

// Quote identifies an analysis: what was asked for and the spot price used.
type Quote struct {
	Ticker       string  `json:"ticker"`
	Expiry       string  `json:"expiry"`
	CurrentPrice float64 `json:"currentPrice"`
}

// LastClose returns the close of the most recent bar.
// ok is false when bars is empty or the last close is not a usable price.
func LastClose(bars []Bar) (price float64, ok bool) {
	if len(bars) == 0 {
		return 0, false
	}
	price = bars[len(bars)-1].Close
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, false
	}
	return price, true
}

// tickerPattern matches exchange symbols such as SPY, BRK.B or ^SPX.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-^]{1,10}$`)

// ValidTicker reports whether ticker, already normalized, looks like a symbol.
// Anything else (path separators, markup, empty) is rejected.
func ValidTicker(ticker string) bool {
	return tickerPattern.MatchString(ticker) && ticker != "." && ticker != ".."
}

// NormalizeTicker upper-cases and trims a user-entered ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// newLeg builds an OptionLeg from possibly-missing values.
// ok is false when either value is missing or unusable, mirroring a dropna on
// (strike, openInterest).
func newLeg(strike *float64, openInterest *float64) (OptionLeg, bool) {
	if strike == nil || openInterest == nil {
		return OptionLeg{}, false
	}
	if math.IsNaN(*strike) || math.IsNaN(*openInterest) || *openInterest < 0 {
		return OptionLeg{}, false
	}
	return OptionLeg{Strike: *strike, OpenInterest: int64(math.Round(*openInterest))}, true
}

// sortedExpiries turns a set of YYYY-MM-DD keys into an ascending slice.
func sortedExpiries(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	// YYYY-MM-DD sorts lexically in date order
	sort.Strings(out)
	return out
}

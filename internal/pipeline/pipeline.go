// Package pipeline runs the open-interest analysis for one ticker and expiry:
//
//	fetch chain -> fetch price -> filter -> cluster -> export -> render
//
// Both front-ends (the CLI and the web server) call Analyze and only differ
// in where they put the export file and the chart.
//
// Design notes:
//   - Each run is synchronous and stops at the first failure
//   - No retries happen here; the data source owns transport concerns
//   - Errors are typed so front-ends can map them without string matching
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/contactkeval/oi-clusters/internal/chart"
	"github.com/contactkeval/oi-clusters/internal/cluster"
	"github.com/contactkeval/oi-clusters/internal/data"
	"github.com/contactkeval/oi-clusters/internal/filter"
	"github.com/contactkeval/oi-clusters/internal/logger"
	"github.com/contactkeval/oi-clusters/internal/report"
)

//
// ==========================
// Error taxonomy
// ==========================
//

var (
	// ErrInvalidInput means the caller did not supply a ticker or an expiry.
	ErrInvalidInput = errors.New("please enter a ticker and select an expiration date")
	// ErrDataUnavailable means the source has no expirations or no option chain.
	ErrDataUnavailable = errors.New("option data unavailable")
	// ErrPriceUnavailable means the price history fetch failed or came back empty.
	ErrPriceUnavailable = errors.New("current price unavailable")
)

// Request names one analysis.
type Request struct {
	Ticker string
	Expiry string
}

// Result is everything one analysis produces.
type Result struct {
	Quote data.Quote    `json:"quote"`
	Calls []cluster.Leg `json:"calls"`
	Puts  []cluster.Leg `json:"puts"`
	Rows  []report.Row  `json:"-"`

	ExportName string `json:"exportName"`
	Export     []byte `json:"-"`

	ChartName string       `json:"chartName"`
	ChartType chart.Format `json:"chartType"`
	Chart     []byte       `json:"-"`
}

// Pipeline wires a data source to the clustering, export and chart stages.
type Pipeline struct {
	source    data.Source
	k         int
	clusterer cluster.KMeans
	renderer  chart.Renderer
	filter    *filter.Expr
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClusters sets the requested number of clusters per side.
func WithClusters(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.k = k
		}
	}
}

// WithClusterer replaces the k-means settings.
func WithClusterer(km cluster.KMeans) Option {
	return func(p *Pipeline) { p.clusterer = km }
}

// WithRenderer replaces the chart renderer.
func WithRenderer(r chart.Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

// WithFilter narrows legs before clustering. A nil filter keeps every leg.
func WithFilter(f *filter.Expr) Option {
	return func(p *Pipeline) { p.filter = f }
}

// WithClock sets the clock used to date export files.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New returns a Pipeline reading from src.
func New(src data.Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:    src,
		k:         cluster.DefaultK,
		clusterer: cluster.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Expirations lists the expirations available for ticker.
// A ticker without any is reported as ErrDataUnavailable.
func (p *Pipeline) Expirations(ctx context.Context, ticker string) ([]string, error) {
	ticker, err := checkTicker(ticker)
	if err != nil {
		return nil, err
	}
	expiries, err := p.source.Expirations(ctx, ticker)
	if err != nil {
		logger.Errorf("expirations %s: %v", ticker, err)
		return nil, fmt.Errorf("%w: expirations for %s: %w", ErrDataUnavailable, ticker, err)
	}
	if len(expiries) == 0 {
		return nil, fmt.Errorf("%w: no options data found for %s", ErrDataUnavailable, ticker)
	}
	return expiries, nil
}

// Analyze runs the full pipeline for req.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*Result, error) {
	expiry := strings.TrimSpace(req.Expiry)
	if expiry == "" {
		return nil, ErrInvalidInput
	}
	ticker, err := checkTicker(req.Ticker)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	logger.Infof("analyzing %s exp=%s", ticker, expiry)

	chain, err := p.fetchOpenInterest(ctx, ticker, expiry)
	if err != nil {
		return nil, err
	}

	price, err := p.currentPrice(ctx, ticker)
	if err != nil {
		return nil, err
	}
	logger.Debugf("%s current price %.2f", ticker, price)

	callLegs, err := p.filter.Apply(chain.Calls, price)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	putLegs, err := p.filter.Apply(chain.Puts, price)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if p.filter != nil {
		logger.Debugf("filter %q kept calls=%d/%d puts=%d/%d",
			p.filter, len(callLegs), len(chain.Calls), len(putLegs), len(chain.Puts))
	}

	calls := p.clusterer.Cluster(callLegs, p.k)
	puts := p.clusterer.Cluster(putLegs, p.k)
	logger.Debugf("clustered calls=%d (%d clusters) puts=%d (%d clusters)",
		len(calls), cluster.Count(calls), len(puts), cluster.Count(puts))

	res := &Result{
		Quote: data.Quote{Ticker: ticker, Expiry: expiry, CurrentPrice: price},
		Calls: calls,
		Puts:  puts,
		Rows:  report.Rows(calls, puts),
	}

	res.ExportName = report.FileName(ticker, p.now())
	if res.Export, err = report.EncodeCSV(res.Rows); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	var img bytes.Buffer
	err = p.renderer.Render(&img, chart.Input{
		Ticker:       ticker,
		Expiry:       expiry,
		Calls:        calls,
		Puts:         puts,
		CurrentPrice: price,
	})
	if err != nil {
		return nil, err
	}
	res.Chart = img.Bytes()
	res.ChartName = p.renderer.FileName(ticker, expiry)
	res.ChartType = p.renderer.Format
	if res.ChartType == "" {
		res.ChartType = chart.PNG
	}

	logger.Infof("analysis %s exp=%s done in %v: %d rows", ticker, expiry, time.Since(start), len(res.Rows))
	return res, nil
}

// checkTicker normalizes ticker and rejects anything that is not a plain symbol.
func checkTicker(ticker string) (string, error) {
	ticker = data.NormalizeTicker(ticker)
	if ticker == "" {
		return "", ErrInvalidInput
	}
	if !data.ValidTicker(ticker) {
		return "", fmt.Errorf("%w: invalid ticker %q", ErrInvalidInput, ticker)
	}
	return ticker, nil
}

// fetchOpenInterest checks expiry is listed for ticker, then loads its chain.
func (p *Pipeline) fetchOpenInterest(ctx context.Context, ticker, expiry string) (data.Chain, error) {
	expiries, err := p.Expirations(ctx, ticker)
	if err != nil {
		return data.Chain{}, err
	}
	if !slices.Contains(expiries, expiry) {
		return data.Chain{}, fmt.Errorf("%w: %s has no options expiring %s", ErrDataUnavailable, ticker, expiry)
	}

	chain, err := p.source.OptionChain(ctx, ticker, expiry)
	if err != nil {
		logger.Errorf("option chain %s exp=%s: %v", ticker, expiry, err)
		return data.Chain{}, fmt.Errorf("%w: option chain for %s %s: %w", ErrDataUnavailable, ticker, expiry, err)
	}
	// one empty side is fine and renders without points; no legs at all is not
	if chain.Empty() {
		return data.Chain{}, fmt.Errorf("%w: empty option chain for %s %s", ErrDataUnavailable, ticker, expiry)
	}
	return chain, nil
}

// currentPrice is the last close of the source's recent price history.
func (p *Pipeline) currentPrice(ctx context.Context, ticker string) (float64, error) {
	bars, err := p.source.PriceHistory(ctx, ticker)
	if err != nil {
		logger.Errorf("price history %s: %v", ticker, err)
		return 0, fmt.Errorf("%w: %s: %w", ErrPriceUnavailable, ticker, err)
	}
	price, ok := data.LastClose(bars)
	if !ok {
		return 0, fmt.Errorf("%w: no recent prices for %s", ErrPriceUnavailable, ticker)
	}
	return price, nil
}

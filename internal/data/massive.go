// Package data provides market data sources for the open-interest pipeline.
//
// This file contains a Massive-backed Source that retrieves option
// expirations, option chain snapshots (with open interest) and intraday
// bars over the Massive (formerly Polygon) REST API.
//
// Design notes:
//   - Uses raw HTTP calls instead of the official Massive SDK
//   - Follows next_url pagination and waits out per-minute rate limits
//   - Logging is verbose at Debug/Trace levels for diagnostics
package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/contactkeval/oi-clusters/internal/logger"
)

const (
	// DefaultMassiveBaseURL is the root endpoint for Massive APIs.
	DefaultMassiveBaseURL = "https://api.massive.com"

	// DefaultPriceLookback covers a long weekend so the last session is always included.
	DefaultPriceLookback = 96 * time.Hour

	contractsPageLimit = 1000
	snapshotPageLimit  = 250
	barsPageLimit      = 50000
)

// massiveDataProvider implements Source using Massive APIs.
type massiveDataProvider struct {
	// APIKey used for authenticating requests with Massive.
	APIKey string

	// Client is the HTTP client used to make API requests.
	Client *http.Client

	// BaseURL is the root endpoint for Massive APIs
	// (e.g., https://api.massive.com).
	BaseURL string

	// PriceLookback is how far back PriceHistory requests minute bars.
	PriceLookback time.Duration

	// now is the clock used to build price history windows and to time
	// rate-limit waits.
	now func() time.Time
}

// MassiveOption configures a Massive-backed Source.
type MassiveOption func(*massiveDataProvider)

// WithBaseURL overrides the Massive API root, e.g. for a proxy or a test server.
func WithBaseURL(baseURL string) MassiveOption {
	return func(p *massiveDataProvider) {
		if baseURL != "" {
			p.BaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) MassiveOption {
	return func(p *massiveDataProvider) {
		if client != nil {
			p.Client = client
		}
	}
}

// WithPriceLookback sets the window PriceHistory covers.
func WithPriceLookback(d time.Duration) MassiveOption {
	return func(p *massiveDataProvider) {
		if d > 0 {
			p.PriceLookback = d
		}
	}
}

// WithClock sets the clock used for price history windows and rate-limit waits.
func WithClock(now func() time.Time) MassiveOption {
	return func(p *massiveDataProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// massiveContract is a single option contract returned by the
// contracts reference endpoint. Only the fields used here are decoded.
type massiveContract struct {
	ContractType string  `json:"contract_type"`
	ExpiryDate   string  `json:"expiration_date"`
	StrikePrice  float64 `json:"strike_price"`
	Ticker       string  `json:"ticker"`
}

// massiveContractsResp models the paginated contracts response.
type massiveContractsResp struct {
	Results   []massiveContract `json:"results"`
	Status    string            `json:"status"`
	RequestID string            `json:"request_id"`
	NextURL   string            `json:"next_url"`
}

// massiveSnapshot is one contract of an option chain snapshot.
// Pointers distinguish a missing value from a zero.
type massiveSnapshot struct {
	Details struct {
		ContractType string   `json:"contract_type"`
		ExpiryDate   string   `json:"expiration_date"`
		StrikePrice  *float64 `json:"strike_price"`
		Ticker       string   `json:"ticker"`
	} `json:"details"`
	OpenInterest *float64 `json:"open_interest"`
}

// massiveSnapshotResp models the paginated option chain snapshot response.
type massiveSnapshotResp struct {
	Results   []massiveSnapshot `json:"results"`
	Status    string            `json:"status"`
	RequestID string            `json:"request_id"`
	NextURL   string            `json:"next_url"`
}

// massiveAggsResp models the aggregates (bars) response.
type massiveAggsResp struct {
	Ticker   string `json:"ticker"`
	Adjusted bool   `json:"adjusted"`
	Results  []struct {
		Open      float64 `json:"o"`
		Close     float64 `json:"c"`
		High      float64 `json:"h"`
		Low       float64 `json:"l"`
		VWAP      float64 `json:"vw"` // volume-weighted average price
		Volume    float64 `json:"v"`  // trading volume in the window
		Trades    int64   `json:"n"`  // number of transactions in the window
		Timestamp int64   `json:"t"`  // epoch millis
	} `json:"results"`
	Status  string `json:"status"`
	NextURL string `json:"next_url"`
}

// NewMassiveDataProvider constructs a Massive-backed data source.
//
// It initializes an HTTP client with sensible defaults for:
//   - timeouts
//   - connection pooling
//   - HTTP/2 support
//   - gzip decompression
//
// Parameters:
//   - apiKey: Massive API key for authentication
//   - opts: optional overrides (base URL, HTTP client, lookback, clock)
//
// Returns:
//   - *massiveDataProvider: initialized source
func NewMassiveDataProvider(apiKey string, opts ...MassiveOption) *massiveDataProvider {
	logger.Infof("initializing Massive data provider")

	p := &massiveDataProvider{
		APIKey: apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				DisableCompression:    false, // must be false to enable gzip auto-decompression
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		BaseURL:       DefaultMassiveBaseURL,
		PriceLookback: DefaultPriceLookback,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Expirations lists unexpired option expiration dates for ticker.
//
// It walks the contracts reference endpoint, collecting the distinct
// expiration dates across all pages.
//
// Parameters:
//   - ticker: underlying symbol (e.g. "SPY")
//
// Returns:
//   - []string: ascending YYYY-MM-DD dates, empty when the ticker has no options
//   - error: if a request or decode fails
func (massiveDataProv *massiveDataProvider) Expirations(ctx context.Context, ticker string) ([]string, error) {
	logger.Debugf("fetching expirations: %s", ticker)

	u, err := url.Parse(massiveDataProv.BaseURL + "/v3/reference/options/contracts")
	if err != nil {
		return nil, err
	}
	query := u.Query()
	query.Set("underlying_ticker", ticker)
	query.Set("expired", "false")
	query.Set("sort", "expiration_date")
	query.Set("order", "asc")
	query.Set("limit", fmt.Sprintf("%d", contractsPageLimit))
	u.RawQuery = query.Encode()

	seen := map[string]struct{}{}
	reqURL := u.String()

	// Handle pagination
	for reqURL != "" {
		var page massiveContractsResp
		if err := massiveDataProv.getJSON(ctx, reqURL, &page); err != nil {
			return nil, fmt.Errorf("massive contracts: %w", err)
		}

		logger.Tracef("received %d contracts", len(page.Results))

		for _, c := range page.Results {
			if _, err := time.Parse(ExpiryLayout, c.ExpiryDate); err != nil {
				continue // skip malformed expiry dates
			}
			seen[c.ExpiryDate] = struct{}{}
		}
		reqURL = page.NextURL
	}

	expiries := sortedExpiries(seen)
	logger.Debugf("resolved %d expirations for %s", len(expiries), ticker)
	return expiries, nil
}

// OptionChain retrieves the option chain snapshot for ticker at expiry.
//
// Contracts without an open interest or strike are dropped. Contract types
// other than call/put are ignored.
//
// Parameters:
//   - ticker: underlying symbol
//   - expiry: expiration date, YYYY-MM-DD
//
// Returns:
//   - Chain: calls and puts in the order the API returned them
//   - error: if a request or decode fails
func (massiveDataProv *massiveDataProvider) OptionChain(ctx context.Context, ticker, expiry string) (Chain, error) {
	logger.Debugf("fetching option chain: %s exp=%s", ticker, expiry)

	u, err := url.Parse(massiveDataProv.BaseURL + "/v3/snapshot/options/" + url.PathEscape(ticker))
	if err != nil {
		return Chain{}, err
	}
	query := u.Query()
	query.Set("expiration_date", expiry)
	query.Set("limit", fmt.Sprintf("%d", snapshotPageLimit))
	u.RawQuery = query.Encode()

	var (
		chain   Chain
		dropped int
	)
	reqURL := u.String()

	for reqURL != "" {
		var page massiveSnapshotResp
		if err := massiveDataProv.getJSON(ctx, reqURL, &page); err != nil {
			return Chain{}, fmt.Errorf("massive option chain: %w", err)
		}

		logger.Tracef("received %d snapshot contracts", len(page.Results))

		for _, s := range page.Results {
			leg, ok := newLeg(s.Details.StrikePrice, s.OpenInterest)
			if !ok {
				dropped++
				continue
			}
			switch strings.ToLower(s.Details.ContractType) {
			case CallType:
				chain.Calls = append(chain.Calls, leg)
			case PutType:
				chain.Puts = append(chain.Puts, leg)
			default:
				dropped++
			}
		}
		reqURL = page.NextURL
	}

	logger.Debugf("chain %s exp=%s calls=%d puts=%d dropped=%d",
		ticker, expiry, len(chain.Calls), len(chain.Puts), dropped)
	return chain, nil
}

// PriceHistory returns one-minute bars for ticker covering PriceLookback up to now.
func (massiveDataProv *massiveDataProvider) PriceHistory(ctx context.Context, ticker string) ([]Bar, error) {
	to := massiveDataProv.now()
	from := to.Add(-massiveDataProv.PriceLookback)
	return massiveDataProv.GetBars(ctx, ticker, from, to, 1, "minute")
}

// GetBars retrieves OHLCV bars for the given symbol and time range.
//
// Parameters:
//   - underlying: ticker symbol
//   - fromDate: start date
//   - toDate: end date
//   - multiplier: aggregation interval size
//   - timespan: aggregation unit (e.g., "day", "minute")
//
// Returns:
//   - []Bar: time-ordered bars
//   - error: if retrieval or decoding fails
func (massiveDataProv *massiveDataProvider) GetBars(
	ctx context.Context,
	underlying string,
	fromDate, toDate time.Time,
	multiplier int,
	timespan string,
) ([]Bar, error) {

	logger.Debugf(
		"fetching bars: %s from=%s to=%s span=%d%s",
		underlying,
		fromDate.Format(ExpiryLayout),
		toDate.Format(ExpiryLayout),
		multiplier,
		timespan,
	)

	reqURL := fmt.Sprintf(
		"%s/v2/aggs/ticker/%s/range/%d/%s/%s/%s?adjusted=true&sort=asc&limit=%d",
		massiveDataProv.BaseURL,
		url.PathEscape(underlying),
		multiplier,
		timespan,
		fromDate.Format(ExpiryLayout),
		toDate.Format(ExpiryLayout),
		barsPageLimit,
	)

	var out []Bar
	for reqURL != "" {
		var page massiveAggsResp
		if err := massiveDataProv.getJSON(ctx, reqURL, &page); err != nil {
			return nil, fmt.Errorf("massive bars: %w", err)
		}

		logger.Tracef("bars received: %d records", len(page.Results))

		for _, r := range page.Results {
			out = append(out, Bar{
				Date:  time.UnixMilli(r.Timestamp).UTC(),
				Open:  r.Open,
				High:  r.High,
				Low:   r.Low,
				Close: r.Close,
				Vol:   r.Volume,
			})
		}
		reqURL = page.NextURL
	}

	return out, nil
}

// getJSON performs an authenticated GET and decodes a 200 response into out.
// Non-200 responses become errors carrying the API's message, if any.
func (massiveDataProv *massiveDataProvider) getJSON(ctx context.Context, reqURL string, out any) error {
	logger.Tracef("GET %s", redactKey(reqURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+massiveDataProv.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "oi-clusters/1.0")

	resp, err := massiveDataProv.processGetRequest(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var dbg struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(body, &dbg)
		msg := dbg.Message
		if msg == "" {
			msg = dbg.Error
		}

		logger.Errorf("massive API error status=%d message=%s", resp.StatusCode, msg)
		return fmt.Errorf("massive returned status %d: %s", resp.StatusCode, msg)
	}

	if len(body) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// processGetRequest executes an HTTP GET request with rate-limit handling.
//
// Behavior:
//   - Retries on HTTP 429, sleeping until the next minute boundary
//   - Stops waiting when ctx is done
//   - Returns every other response to the caller unchanged
func (massiveDataProv *massiveDataProvider) processGetRequest(
	ctx context.Context,
	req *http.Request,
) (*http.Response, error) {

	for {
		resp, err := massiveDataProv.Client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		now := massiveDataProv.now()
		sleepDuration := now.Truncate(time.Minute).Add(time.Minute).Sub(now)

		logger.Infof("rate limit hit, sleeping for %s", sleepDuration)

		timer := time.NewTimer(sleepDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// redactKey hides an apiKey query parameter in logged URLs.
func redactKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("apiKey") {
		q.Set("apiKey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

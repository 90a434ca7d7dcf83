// Package yahoo fetches daily price histories and symbol candidates from the
// Yahoo Finance public endpoints.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gmelchiori/frontier/date"
	"github.com/jpillora/backoff"
	"github.com/shopspring/decimal"
)

const (
	chartBase  = "https://query1.finance.yahoo.com/v8/finance/chart"
	searchBase = "https://query2.finance.yahoo.com/v1/finance/search"

	// Yahoo rejects requests without a browser-ish user agent.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) Gecko/20100101 Firefox/124.0"

	maxAttempts = 3
)

// Quote is a single daily observation. Close is the dividend and split
// adjusted close when the provider supplies one, the raw close otherwise.
type Quote struct {
	Date  date.Date
	Close decimal.Decimal
}

// Series is the chronological price history of one ticker.
type Series struct {
	Ticker   string
	Currency string
	Quotes   []Quote
}

// Len returns the number of observations in the series.
func (s *Series) Len() int { return len(s.Quotes) }

// Client queries the Yahoo Finance chart and search endpoints. The zero value
// is not usable, use NewClient.
type Client struct {
	http       *http.Client
	chartBase  string
	searchBase string
}

// NewClient returns a client whose responses are cached on disk for a day.
func NewClient() *Client {
	return &Client{
		http:       newDailyCachingClient(),
		chartBase:  chartBase,
		searchBase: searchBase,
	}
}

// History downloads the daily series for a ticker over the given lookback.
// The returned series may be empty if the provider has no data.
func (c *Client) History(ctx context.Context, ticker string, lookback date.Lookback) (*Series, error) {
	addr := fmt.Sprintf("%s/%s?range=%s&interval=1d&events=div%%2Csplit", c.chartBase, url.PathEscape(ticker), lookback)

	var payload chartResponse
	if err := c.jwget(ctx, addr, &payload); err != nil {
		return nil, fmt.Errorf("downloading %s: %w", ticker, err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("downloading %s: %s: %s", ticker, payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("downloading %s: empty chart response", ticker)
	}

	r := payload.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("downloading %s: no quote data", ticker)
	}

	closes := r.Indicators.Quote[0].Close
	// Prefer the adjusted close, like the provider's own charts.
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) == len(r.Timestamp) {
		closes = r.Indicators.AdjClose[0].AdjClose
	}
	if len(closes) != len(r.Timestamp) {
		return nil, fmt.Errorf("downloading %s: %d timestamps but %d closes", ticker, len(r.Timestamp), len(closes))
	}

	s := &Series{Ticker: ticker, Currency: r.Meta.Currency}
	for i, ts := range r.Timestamp {
		if closes[i] == nil {
			continue // the provider pads holidays and halts with nulls
		}
		on := date.New(time.Unix(ts, 0).UTC().Date())
		s.Quotes = append(s.Quotes, Quote{Date: on, Close: *closes[i]})
	}
	return s, nil
}

// Valid reports whether the symbol has at least one month of quotable history.
func (c *Client) Valid(ctx context.Context, symbol string) bool {
	s, err := c.History(ctx, symbol, date.Month1)
	return err == nil && s.Len() > 0
}

// chartResponse mirrors the v8/finance/chart payload.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
				Symbol   string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*decimal.Decimal `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*decimal.Decimal `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// jwget performs an HTTP GET request to the given address and unmarshals the
// JSON response body into the provided data structure. Transient failures are
// retried with exponential backoff.
func (c *Client) jwget(ctx context.Context, addr string, data interface{}) error {
	b := &backoff.Backoff{Min: 500 * time.Millisecond, Max: 5 * time.Second, Factor: 2, Jitter: true}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		body, retryable, err := c.get(ctx, addr)
		if err == nil {
			return json.Unmarshal(body, data)
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return lastErr
}

// get performs a single GET and reports whether a failure is worth retrying.
func (c *Client) get(ctx context.Context, addr string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, err
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}

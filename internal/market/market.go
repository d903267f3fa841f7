// Package market talks to the external quote API. All failure modes of a
// lookup — transport error, non-2xx status, malformed or empty payload —
// collapse to ErrQuoteNotFound: the caller cannot tell an unknown symbol from
// an outage, which mirrors how the upstream API behaves.
package market

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// ErrQuoteNotFound covers every way a lookup can come back empty.
var ErrQuoteNotFound = errors.New("stock not found")

// Quote is the oracle's answer for one symbol.
type Quote struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
}

// DailyPrice is one day of closing-price history for a symbol.
type DailyPrice struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Oracle is the lookup surface the handlers and jobs depend on.
type Oracle interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
	History(ctx context.Context, symbol string) ([]DailyPrice, error)
}

// Client queries the Alpha Vantage HTTP API.
type Client struct {
	http   *resty.Client
	apiKey string
}

// NewClient builds a Client against baseURL. The base URL is a parameter so
// tests can point the client at a local stub server.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		http:   resty.New().SetBaseURL(baseURL).SetTimeout(8 * time.Second),
		apiKey: apiKey,
	}
}

// globalQuoteResponse mirrors Alpha Vantage's GLOBAL_QUOTE payload, numbered
// keys included.
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
}

// dailySeriesResponse mirrors the TIME_SERIES_DAILY payload.
type dailySeriesResponse struct {
	TimeSeriesDaily map[string]struct {
		Close string `json:"4. close"`
	} `json:"Time Series (Daily)"`
}

// Lookup fetches the current quote for symbol. Any failure is reported as
// ErrQuoteNotFound; the underlying cause is logged, not surfaced.
func (c *Client) Lookup(ctx context.Context, symbol string) (Quote, error) {
	var body globalQuoteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "GLOBAL_QUOTE",
			"symbol":   symbol,
			"apikey":   c.apiKey,
		}).
		SetResult(&body).
		Get("/query")
	if err != nil {
		logrus.WithFields(logrus.Fields{"symbol": symbol, "error": err.Error()}).Warn("Quote lookup failed")
		return Quote{}, ErrQuoteNotFound
	}
	if resp.StatusCode() != 200 || body.GlobalQuote.Price == "" {
		return Quote{}, ErrQuoteNotFound
	}
	price, err := strconv.ParseFloat(body.GlobalQuote.Price, 64)
	if err != nil || price <= 0 {
		return Quote{}, ErrQuoteNotFound
	}
	name := body.GlobalQuote.Symbol
	if name == "" {
		name = symbol
	}
	return Quote{Symbol: symbol, Name: name, Price: price}, nil
}

// History fetches the daily closing-price series for symbol, newest first.
// Failures collapse to ErrQuoteNotFound the same way Lookup's do.
func (c *Client) History(ctx context.Context, symbol string) ([]DailyPrice, error) {
	var body dailySeriesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "TIME_SERIES_DAILY",
			"symbol":   symbol,
			"apikey":   c.apiKey,
		}).
		SetResult(&body).
		Get("/query")
	if err != nil {
		logrus.WithFields(logrus.Fields{"symbol": symbol, "error": err.Error()}).Warn("History lookup failed")
		return nil, ErrQuoteNotFound
	}
	if resp.StatusCode() != 200 || len(body.TimeSeriesDaily) == 0 {
		return nil, ErrQuoteNotFound
	}
	prices := make([]DailyPrice, 0, len(body.TimeSeriesDaily))
	for date, day := range body.TimeSeriesDaily {
		ts, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(day.Close, 64)
		if err != nil {
			continue
		}
		prices = append(prices, DailyPrice{Date: ts, Close: closePrice})
	}
	if len(prices) == 0 {
		return nil, ErrQuoteNotFound
	}
	// Newest first, matching the history views.
	sort.Slice(prices, func(i, j int) bool { return prices[i].Date.After(prices[j].Date) })
	return prices, nil
}

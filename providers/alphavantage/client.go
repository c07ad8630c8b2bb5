// Package alphavantage fetches stock quotes, time series and currency
// exchange rates from the Alpha Vantage API and shapes them into the
// gateway's normalized records.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/providers"
	"go.uber.org/zap"
)

const (
	serviceName    = "Alpha Vantage"
	defaultBaseURL = "https://www.alphavantage.co/query"
)

// Config holds the per-upstream settings wired in from the process config.
type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

// Client talks to Alpha Vantage. Alpha Vantage reports errors inside 200
// responses, so the shared transport runs inspectBody on every payload.
type Client struct {
	c *providers.Client
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{c: providers.NewClient(providers.ClientConfig{
		Service:     serviceName,
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		KeyParam:    "apikey",
		Timeout:     cfg.Timeout,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		Inspect:     inspectBody,
		Logger:      logger,
	})}
}

// errEnvelope covers the in-body error fields Alpha Vantage uses. "Note"
// and "Information" both indicate the call quota was exhausted.
type errEnvelope struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

func inspectBody(body []byte) error {
	var env errEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil // shape validation happens per operation
	}
	if env.ErrorMessage != "" {
		lower := strings.ToLower(env.ErrorMessage)
		if strings.Contains(lower, "frequency") || strings.Contains(lower, "call limit") {
			return providers.RateLimitError(serviceName, 0)
		}
		return providers.InternalError(serviceName, errors.New(env.ErrorMessage))
	}
	if env.Note != "" || env.Information != "" {
		return providers.RateLimitError(serviceName, 0)
	}
	return nil
}

type quoteFields struct {
	Symbol           string `json:"01. symbol"`
	Open             string `json:"02. open"`
	High             string `json:"03. high"`
	Low              string `json:"04. low"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    string `json:"08. previous close"`
	Change           string `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`
}

// Quote returns the normalized real-time quote for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	body, err := c.c.Get(ctx, "", url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {strings.ToUpper(symbol)},
	})
	if err != nil {
		return models.Quote{}, err
	}

	var env struct {
		GlobalQuote quoteFields `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.GlobalQuote.Symbol == "" {
		return models.Quote{}, providers.InvalidResponseError(serviceName, errors.New("missing Global Quote envelope"))
	}

	q := env.GlobalQuote
	p := &parser{}
	quote := models.Quote{
		Symbol:           q.Symbol,
		Open:             p.float(q.Open),
		High:             p.float(q.High),
		Low:              p.float(q.Low),
		Price:            p.float(q.Price),
		Volume:           p.int(q.Volume),
		LatestTradingDay: q.LatestTradingDay,
		PreviousClose:    p.float(q.PreviousClose),
		Change:           p.float(q.Change),
		ChangePercent:    p.percent(q.ChangePercent),
	}
	if p.err != nil {
		return models.Quote{}, providers.InvalidResponseError(serviceName, p.err)
	}
	return quote, nil
}

// Intraday returns the intraday series for a symbol in chronological order.
func (c *Client) Intraday(ctx context.Context, symbol, interval string) ([]models.Bar, error) {
	body, err := c.c.Get(ctx, "", url.Values{
		"function":   {"TIME_SERIES_INTRADAY"},
		"symbol":     {strings.ToUpper(symbol)},
		"interval":   {interval},
		"outputsize": {"compact"},
	})
	if err != nil {
		return nil, err
	}
	return parseSeries(body, fmt.Sprintf("Time Series (%s)", interval))
}

// Daily returns the daily series for a symbol in chronological order.
// outputSize is "compact" (latest 100 points) or "full".
func (c *Client) Daily(ctx context.Context, symbol, outputSize string) ([]models.Bar, error) {
	body, err := c.c.Get(ctx, "", url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {strings.ToUpper(symbol)},
		"outputsize": {outputSize},
	})
	if err != nil {
		return nil, err
	}
	return parseSeries(body, "Time Series (Daily)")
}

// CompanyOverview returns the vendor-shaped fundamentals object. The
// payload is passed through after checking the Symbol marker field.
func (c *Client) CompanyOverview(ctx context.Context, symbol string) (json.RawMessage, error) {
	body, err := c.c.Get(ctx, "", url.Values{
		"function": {"OVERVIEW"},
		"symbol":   {strings.ToUpper(symbol)},
	})
	if err != nil {
		return nil, err
	}

	var marker struct {
		Symbol string `json:"Symbol"`
	}
	if err := json.Unmarshal(body, &marker); err != nil || marker.Symbol == "" {
		return nil, providers.InvalidResponseError(serviceName, errors.New("missing Symbol field"))
	}
	return json.RawMessage(body), nil
}

// ExchangeRate returns the realtime exchange rate between two currencies,
// fiat or crypto.
func (c *Client) ExchangeRate(ctx context.Context, from, to string) (models.CurrencyExchangeRate, error) {
	body, err := c.c.Get(ctx, "", url.Values{
		"function":      {"CURRENCY_EXCHANGE_RATE"},
		"from_currency": {strings.ToUpper(from)},
		"to_currency":   {strings.ToUpper(to)},
	})
	if err != nil {
		return models.CurrencyExchangeRate{}, err
	}

	var env struct {
		Rate struct {
			FromCurrency  string `json:"1. From_Currency Code"`
			ToCurrency    string `json:"3. To_Currency Code"`
			ExchangeRate  string `json:"5. Exchange Rate"`
			LastRefreshed string `json:"6. Last Refreshed"`
			TimeZone      string `json:"7. Time Zone"`
			BidPrice      string `json:"8. Bid Price"`
			AskPrice      string `json:"9. Ask Price"`
		} `json:"Realtime Currency Exchange Rate"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Rate.FromCurrency == "" {
		return models.CurrencyExchangeRate{}, providers.InvalidResponseError(serviceName, errors.New("missing Realtime Currency Exchange Rate envelope"))
	}

	p := &parser{}
	rate := models.CurrencyExchangeRate{
		FromCurrency:  env.Rate.FromCurrency,
		ToCurrency:    env.Rate.ToCurrency,
		ExchangeRate:  p.float(env.Rate.ExchangeRate),
		LastRefreshed: env.Rate.LastRefreshed,
		TimeZone:      env.Rate.TimeZone,
		BidPrice:      p.float(env.Rate.BidPrice),
		AskPrice:      p.float(env.Rate.AskPrice),
	}
	if p.err != nil {
		return models.CurrencyExchangeRate{}, providers.InvalidResponseError(serviceName, p.err)
	}
	return rate, nil
}

// CryptoIntraday returns the intraday series for a crypto symbol against a
// market currency, in chronological order.
func (c *Client) CryptoIntraday(ctx context.Context, symbol, market, interval string) ([]models.Bar, error) {
	body, err := c.c.Get(ctx, "", url.Values{
		"function": {"CRYPTO_INTRADAY"},
		"symbol":   {strings.ToUpper(symbol)},
		"market":   {strings.ToUpper(market)},
		"interval": {interval},
	})
	if err != nil {
		return nil, err
	}
	return parseSeries(body, fmt.Sprintf("Time Series Crypto (%s)", interval))
}

type barFields struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// parseSeries decodes a keyed time-series envelope into chronological bars.
// Alpha Vantage returns series newest-first; sorting by timestamp yields
// oldest-first. An absent series key fails closed.
func parseSeries(body []byte, seriesKey string) ([]models.Bar, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, providers.InvalidResponseError(serviceName, err)
	}
	raw, ok := payload[seriesKey]
	if !ok {
		return nil, providers.InvalidResponseError(serviceName, fmt.Errorf("missing %q envelope", seriesKey))
	}

	var series map[string]barFields
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, providers.InvalidResponseError(serviceName, err)
	}

	bars := make([]models.Bar, 0, len(series))
	p := &parser{}
	for ts, v := range series {
		bars = append(bars, models.Bar{
			Date:   ts,
			Open:   p.float(v.Open),
			High:   p.float(v.High),
			Low:    p.float(v.Low),
			Close:  p.float(v.Close),
			Volume: p.float(v.Volume),
		})
	}
	if p.err != nil {
		return nil, providers.InvalidResponseError(serviceName, p.err)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, nil
}

// parser accumulates the first string->number conversion failure so each
// record conversion needs only one error check.
type parser struct {
	err error
}

func (p *parser) float(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *parser) int(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *parser) percent(s string) float64 {
	return p.float(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

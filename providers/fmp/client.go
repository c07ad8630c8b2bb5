// Package fmp fetches quotes, company profiles and financial statements
// from the Financial Modeling Prep API.
package fmp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/providers"
	"go.uber.org/zap"
)

const (
	serviceName    = "Financial Modeling Prep"
	defaultBaseURL = "https://financialmodelingprep.com/api/v3"
)

type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

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

// FMP returns arrays on success and an object with "Error Message" on
// failure, both with status 200.
func inspectBody(body []byte) error {
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return nil
	}
	var env struct {
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.ErrorMessage == "" {
		return nil
	}
	return providers.Classify(serviceName, errors.New(env.ErrorMessage))
}

// Quote returns the normalized real-time quote for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (models.FMPQuote, error) {
	body, err := c.c.Get(ctx, "/quote/"+url.PathEscape(strings.ToUpper(symbol)), nil)
	if err != nil {
		return models.FMPQuote{}, err
	}

	var quotes []models.FMPQuote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return models.FMPQuote{}, providers.InvalidResponseError(serviceName, err)
	}
	if len(quotes) == 0 {
		return models.FMPQuote{}, providers.InvalidResponseError(serviceName, errors.New("no quote data for symbol"))
	}
	return quotes[0], nil
}

// CompanyProfile returns the vendor-shaped profile object for a symbol.
func (c *Client) CompanyProfile(ctx context.Context, symbol string) (json.RawMessage, error) {
	body, err := c.c.Get(ctx, "/profile/"+url.PathEscape(strings.ToUpper(symbol)), nil)
	if err != nil {
		return nil, err
	}

	var profiles []json.RawMessage
	if err := json.Unmarshal(body, &profiles); err != nil {
		return nil, providers.InvalidResponseError(serviceName, err)
	}
	if len(profiles) == 0 {
		return nil, providers.InvalidResponseError(serviceName, errors.New("no profile data for symbol"))
	}
	return profiles[0], nil
}

// IncomeStatement returns up to limit annual income statements, vendor-shaped.
func (c *Client) IncomeStatement(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	return c.statements(ctx, "/income-statement/", symbol, limit)
}

// BalanceSheet returns up to limit annual balance sheets, vendor-shaped.
func (c *Client) BalanceSheet(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	return c.statements(ctx, "/balance-sheet-statement/", symbol, limit)
}

// CashFlowStatement returns up to limit annual cash flow statements,
// vendor-shaped.
func (c *Client) CashFlowStatement(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	return c.statements(ctx, "/cash-flow-statement/", symbol, limit)
}

func (c *Client) statements(ctx context.Context, path, symbol string, limit int) (json.RawMessage, error) {
	body, err := c.c.Get(ctx, path+url.PathEscape(strings.ToUpper(symbol)), url.Values{
		"limit": {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	return asArray(body)
}

// EarningsCalendar returns earnings announcements in the [from, to] date
// range (YYYY-MM-DD), vendor-shaped.
func (c *Client) EarningsCalendar(ctx context.Context, from, to string) (json.RawMessage, error) {
	body, err := c.c.Get(ctx, "/earnings-calendar", url.Values{
		"from": {from},
		"to":   {to},
	})
	if err != nil {
		return nil, err
	}
	return asArray(body)
}

// asArray validates that the payload is a JSON array before passing it
// through. A missing array envelope fails closed.
func asArray(body []byte) (json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, providers.InvalidResponseError(serviceName, err)
	}
	if items == nil {
		return json.RawMessage("[]"), nil
	}
	return json.RawMessage(body), nil
}

// Package exchangerate fetches fiat FX rate tables from the ExchangeRate
// API. The API is keyless; its monthly quota informs cache TTLs only.
package exchangerate

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/providers"
	"go.uber.org/zap"
)

const (
	serviceName    = "ExchangeRate"
	defaultBaseURL = "https://api.exchangerate-api.com/v4"
)

type Config struct {
	BaseURL     string
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
		Timeout:     cfg.Timeout,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		Logger:      logger,
	})}
}

// Latest returns the current rate table for a base currency.
func (c *Client) Latest(ctx context.Context, base string) (models.ExchangeRates, error) {
	return c.rates(ctx, "/latest/"+url.PathEscape(strings.ToUpper(base)))
}

// Historical returns the rate table for a base currency on a past date
// (YYYY-MM-DD).
func (c *Client) Historical(ctx context.Context, base, date string) (models.ExchangeRates, error) {
	return c.rates(ctx, "/history/"+url.PathEscape(strings.ToUpper(base))+"/"+url.PathEscape(date))
}

func (c *Client) rates(ctx context.Context, path string) (models.ExchangeRates, error) {
	body, err := c.c.Get(ctx, path, nil)
	if err != nil {
		return models.ExchangeRates{}, err
	}

	var rates models.ExchangeRates
	if err := json.Unmarshal(body, &rates); err != nil || rates.Rates == nil {
		return models.ExchangeRates{}, providers.InvalidResponseError(serviceName, errors.New("missing rates envelope"))
	}
	return rates, nil
}

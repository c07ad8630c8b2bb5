// Package polygon fetches aggregates, last quotes and ticker news from the
// Polygon.io API.
package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/providers"
	"go.uber.org/zap"
)

const (
	serviceName    = "Polygon"
	defaultBaseURL = "https://api.polygon.io"

	isoMillis = "2006-01-02T15:04:05.000Z"
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
		KeyParam:    "apiKey",
		Timeout:     cfg.Timeout,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		Inspect:     inspectBody,
		Logger:      logger,
	})}
}

// Polygon reports failures as {"status":"ERROR","error":...} with a 200.
func inspectBody(body []byte) error {
	var env struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Status != "ERROR" {
		return nil
	}
	if env.Error == "" {
		env.Error = "Polygon.io API error"
	}
	return providers.Classify(serviceName, errors.New(env.Error))
}

type aggFields struct {
	Ticker       string  `json:"T"`
	Timestamp    int64   `json:"t"`
	Open         float64 `json:"o"`
	High         float64 `json:"h"`
	Low          float64 `json:"l"`
	Close        float64 `json:"c"`
	Volume       float64 `json:"v"`
	Transactions int64   `json:"n"`
	VWAP         float64 `json:"vw"`
}

// Aggregates returns OHLC bars for a ticker over a date range. timespan is
// one of minute, hour, day, week, month.
func (c *Client) Aggregates(ctx context.Context, ticker string, multiplier int, timespan, from, to string) ([]models.AggregateBar, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		url.PathEscape(strings.ToUpper(ticker)), multiplier,
		url.PathEscape(timespan), url.PathEscape(from), url.PathEscape(to))

	body, err := c.c.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	var env struct {
		Results []aggFields `json:"results"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, providers.InvalidResponseError(serviceName, err)
	}

	bars := make([]models.AggregateBar, len(env.Results))
	for i, bar := range env.Results {
		bars[i] = models.AggregateBar{
			Date:         time.UnixMilli(bar.Timestamp).UTC().Format(isoMillis),
			Open:         bar.Open,
			High:         bar.High,
			Low:          bar.Low,
			Close:        bar.Close,
			Volume:       bar.Volume,
			Transactions: bar.Transactions,
			VWAP:         bar.VWAP,
		}
	}
	return bars, nil
}

// PreviousClose returns the prior trading day's bar for a ticker.
func (c *Client) PreviousClose(ctx context.Context, ticker string) (models.PreviousClose, error) {
	path := "/v2/aggs/ticker/" + url.PathEscape(strings.ToUpper(ticker)) + "/prev"
	body, err := c.c.Get(ctx, path, nil)
	if err != nil {
		return models.PreviousClose{}, err
	}

	var env struct {
		Results []aggFields `json:"results"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Results) == 0 {
		return models.PreviousClose{}, providers.InvalidResponseError(serviceName, errors.New("no previous close data"))
	}

	bar := env.Results[0]
	return models.PreviousClose{
		Ticker: bar.Ticker,
		Date:   time.UnixMilli(bar.Timestamp).UTC().Format(isoMillis),
		Close:  bar.Close,
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Volume: bar.Volume,
	}, nil
}

// LastQuote returns the most recent NBBO quote for a ticker.
func (c *Client) LastQuote(ctx context.Context, ticker string) (models.LastQuote, error) {
	path := "/v2/last/nbbo/" + url.PathEscape(strings.ToUpper(ticker))
	body, err := c.c.Get(ctx, path, nil)
	if err != nil {
		return models.LastQuote{}, err
	}

	var env struct {
		Results *struct {
			Ticker    string  `json:"T"`
			Price     float64 `json:"p"`
			Size      int64   `json:"s"`
			Timestamp int64   `json:"t"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Results == nil {
		return models.LastQuote{}, providers.InvalidResponseError(serviceName, errors.New("no quote data"))
	}

	r := env.Results
	return models.LastQuote{
		Ticker:    r.Ticker,
		Bid:       r.Price,
		Ask:       r.Price,
		BidSize:   r.Size,
		AskSize:   r.Size,
		Timestamp: time.UnixMilli(r.Timestamp).UTC().Format(isoMillis),
	}, nil
}

// TickerNews returns up to limit recent news items for a ticker, newest
// first as published.
func (c *Client) TickerNews(ctx context.Context, ticker string, limit int) ([]models.TickerNews, error) {
	body, err := c.c.Get(ctx, "/v2/reference/news", url.Values{
		"ticker": {strings.ToUpper(ticker)},
		"limit":  {strconv.Itoa(limit)},
		"order":  {"desc"},
	})
	if err != nil {
		return nil, err
	}

	var env struct {
		Results []struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			Description  string `json:"description"`
			Author       string `json:"author"`
			PublishedUTC string `json:"published_utc"`
			ArticleURL   string `json:"article_url"`
			ImageURL     string `json:"image_url"`
			Publisher    *struct {
				Name string `json:"name"`
			} `json:"publisher"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, providers.InvalidResponseError(serviceName, err)
	}

	out := make([]models.TickerNews, len(env.Results))
	for i, item := range env.Results {
		publisher := ""
		if item.Publisher != nil {
			publisher = item.Publisher.Name
		}
		out[i] = models.TickerNews{
			ID:           item.ID,
			Title:        item.Title,
			Description:  item.Description,
			Author:       item.Author,
			PublishedUTC: item.PublishedUTC,
			ArticleURL:   item.ArticleURL,
			ImageURL:     item.ImageURL,
			Publisher:    publisher,
		}
	}
	return out, nil
}

// Package newsapi fetches headlines and article search results from NewsAPI.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/providers"
	"go.uber.org/zap"
)

const (
	serviceName    = "NewsAPI"
	defaultBaseURL = "https://newsapi.org/v2"
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

// NewsAPI embeds errors in 200 responses as {"status":"error", ...}.
func inspectBody(body []byte) error {
	var env struct {
		Status  string `json:"status"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Status != "error" {
		return nil
	}
	switch env.Code {
	case "rateLimited":
		return providers.RateLimitError(serviceName, 0)
	case "apiKeyInvalid", "apiKeyMissing", "apiKeyDisabled", "apiKeyExhausted":
		return providers.AuthError(serviceName)
	}
	if env.Message == "" {
		env.Message = "NewsAPI error"
	}
	return providers.Classify(serviceName, errors.New(env.Message))
}

type articleFields struct {
	Source *struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// TopHeadlines returns normalized headlines for a country, optionally
// filtered by category.
func (c *Client) TopHeadlines(ctx context.Context, category, country string, pageSize int) ([]models.Article, error) {
	query := url.Values{
		"country":  {country},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	if category != "" {
		query.Set("category", category)
	}
	return c.articles(ctx, "/top-headlines", query)
}

// Search returns normalized articles matching a query string.
func (c *Client) Search(ctx context.Context, q, language, sortBy string, pageSize int) ([]models.Article, error) {
	return c.articles(ctx, "/everything", url.Values{
		"q":        {q},
		"language": {language},
		"sortBy":   {sortBy},
		"pageSize": {strconv.Itoa(pageSize)},
	})
}

func (c *Client) articles(ctx context.Context, path string, query url.Values) ([]models.Article, error) {
	body, err := c.c.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	var env struct {
		Articles []articleFields `json:"articles"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Articles == nil {
		return nil, providers.InvalidResponseError(serviceName, errors.New("missing articles envelope"))
	}

	out := make([]models.Article, len(env.Articles))
	for i, a := range env.Articles {
		source := "Unknown"
		if a.Source != nil && a.Source.Name != "" {
			source = a.Source.Name
		}
		out[i] = models.Article{
			Source:      source,
			Author:      a.Author,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			URLToImage:  a.URLToImage,
			PublishedAt: a.PublishedAt,
			Content:     a.Content,
		}
	}
	return out, nil
}

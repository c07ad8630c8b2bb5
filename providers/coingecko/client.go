// Package coingecko fetches cryptocurrency market data from the CoinGecko
// public API. CoinGecko needs no API key; its quota shows up as HTTP 429.
package coingecko

import (
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
	serviceName    = "CoinGecko"
	defaultBaseURL = "https://api.coingecko.com/api/v3"

	isoMillis = "2006-01-02T15:04:05.000Z"
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

type marketFields struct {
	ID                           string  `json:"id"`
	Symbol                       string  `json:"symbol"`
	Name                         string  `json:"name"`
	Image                        string  `json:"image"`
	CurrentPrice                 float64 `json:"current_price"`
	MarketCap                    float64 `json:"market_cap"`
	MarketCapRank                int     `json:"market_cap_rank"`
	FullyDilutedValuation        float64 `json:"fully_diluted_valuation"`
	TotalVolume                  float64 `json:"total_volume"`
	High24h                      float64 `json:"high_24h"`
	Low24h                       float64 `json:"low_24h"`
	PriceChange24h               float64 `json:"price_change_24h"`
	PriceChangePercentage24h     float64 `json:"price_change_percentage_24h"`
	MarketCapChange24h           float64 `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h float64 `json:"market_cap_change_percentage_24h"`
	CirculatingSupply            float64 `json:"circulating_supply"`
	TotalSupply                  float64 `json:"total_supply"`
	MaxSupply                    float64 `json:"max_supply"`
	ATH                          float64 `json:"ath"`
	ATHChangePercentage          float64 `json:"ath_change_percentage"`
	ATHDate                      string  `json:"ath_date"`
	ATL                          float64 `json:"atl"`
	ATLChangePercentage          float64 `json:"atl_change_percentage"`
	ATLDate                      string  `json:"atl_date"`
	LastUpdated                  string  `json:"last_updated"`
}

// Markets returns coin market listings ordered by market cap. ids narrows
// the result to specific coins when non-empty.
func (c *Client) Markets(ctx context.Context, vsCurrency string, ids []string, limit int) ([]models.CoinMarket, error) {
	query := url.Values{
		"vs_currency": {strings.ToLower(vsCurrency)},
		"order":       {"market_cap_desc"},
		"per_page":    {strconv.Itoa(limit)},
		"page":        {"1"},
		"sparkline":   {"false"},
	}
	if len(ids) > 0 {
		query.Set("ids", strings.Join(ids, ","))
	}

	body, err := c.c.Get(ctx, "/coins/markets", query)
	if err != nil {
		return nil, err
	}

	var raw []marketFields
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, providers.InvalidResponseError(serviceName, err)
	}

	out := make([]models.CoinMarket, len(raw))
	for i, coin := range raw {
		out[i] = models.CoinMarket{
			ID:                           coin.ID,
			Symbol:                       coin.Symbol,
			Name:                         coin.Name,
			Image:                        coin.Image,
			CurrentPrice:                 coin.CurrentPrice,
			MarketCap:                    coin.MarketCap,
			MarketCapRank:                coin.MarketCapRank,
			FullyDilutedValuation:        coin.FullyDilutedValuation,
			TotalVolume:                  coin.TotalVolume,
			High24h:                      coin.High24h,
			Low24h:                       coin.Low24h,
			PriceChange24h:               coin.PriceChange24h,
			PriceChangePercentage24h:     coin.PriceChangePercentage24h,
			MarketCapChange24h:           coin.MarketCapChange24h,
			MarketCapChangePercentage24h: coin.MarketCapChangePercentage24h,
			CirculatingSupply:            coin.CirculatingSupply,
			TotalSupply:                  coin.TotalSupply,
			MaxSupply:                    coin.MaxSupply,
			ATH:                          coin.ATH,
			ATHChangePercentage:          coin.ATHChangePercentage,
			ATHDate:                      coin.ATHDate,
			ATL:                          coin.ATL,
			ATLChangePercentage:          coin.ATLChangePercentage,
			ATLDate:                      coin.ATLDate,
			LastUpdated:                  coin.LastUpdated,
		}
	}
	return out, nil
}

// Prices returns spot prices for coin ids against the given currencies,
// with market cap, 24h volume and 24h change included.
func (c *Client) Prices(ctx context.Context, ids, vsCurrencies []string) (models.SimplePrices, error) {
	body, err := c.c.Get(ctx, "/simple/price", url.Values{
		"ids":                 {strings.Join(ids, ",")},
		"vs_currencies":       {strings.Join(vsCurrencies, ",")},
		"include_market_cap":  {"true"},
		"include_24hr_vol":    {"true"},
		"include_24hr_change": {"true"},
	})
	if err != nil {
		return nil, err
	}

	var prices models.SimplePrices
	if err := json.Unmarshal(body, &prices); err != nil {
		return nil, providers.InvalidResponseError(serviceName, err)
	}
	return prices, nil
}

type chartFields struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// History returns the price history of a coin over the last days days.
// Market cap and volume samples are paired with the price sample at the
// same index; duplicates in the price array pair correctly.
func (c *Client) History(ctx context.Context, id, vsCurrency, days string) ([]models.HistoryPoint, error) {
	body, err := c.c.Get(ctx, "/coins/"+url.PathEscape(id)+"/market_chart", url.Values{
		"vs_currency": {strings.ToLower(vsCurrency)},
		"days":        {days},
	})
	if err != nil {
		return nil, err
	}

	var chart chartFields
	if err := json.Unmarshal(body, &chart); err != nil || chart.Prices == nil {
		return nil, providers.InvalidResponseError(serviceName, errors.New("missing prices envelope"))
	}

	out := make([]models.HistoryPoint, 0, len(chart.Prices))
	for i, sample := range chart.Prices {
		if len(sample) < 2 {
			continue
		}
		point := models.HistoryPoint{
			Date:  time.UnixMilli(int64(sample[0])).UTC().Format(isoMillis),
			Price: sample[1],
		}
		if i < len(chart.MarketCaps) && len(chart.MarketCaps[i]) >= 2 {
			cap := chart.MarketCaps[i][1]
			point.MarketCap = &cap
		}
		if i < len(chart.TotalVolumes) && len(chart.TotalVolumes[i]) >= 2 {
			vol := chart.TotalVolumes[i][1]
			point.Volume = &vol
		}
		out = append(out, point)
	}
	return out, nil
}

// Global returns aggregate statistics for the whole crypto market.
func (c *Client) Global(ctx context.Context) (models.GlobalStats, error) {
	body, err := c.c.Get(ctx, "/global", nil)
	if err != nil {
		return models.GlobalStats{}, err
	}

	var env struct {
		Data *struct {
			TotalMarketCap                  map[string]float64 `json:"total_market_cap"`
			TotalVolume                     map[string]float64 `json:"total_volume"`
			MarketCapPercentage             map[string]float64 `json:"market_cap_percentage"`
			MarketCapChangePercentage24hUSD float64            `json:"market_cap_change_percentage_24h_usd"`
			ActiveCryptocurrencies          int                `json:"active_cryptocurrencies"`
			Markets                         int                `json:"markets"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Data == nil {
		return models.GlobalStats{}, providers.InvalidResponseError(serviceName, errors.New("missing data envelope"))
	}

	stats := models.GlobalStats{
		TotalMarketCap:                  env.Data.TotalMarketCap["usd"],
		TotalVolume:                     env.Data.TotalVolume["usd"],
		MarketCapPercentage:             env.Data.MarketCapPercentage,
		MarketCapChangePercentage24hUSD: env.Data.MarketCapChangePercentage24hUSD,
		ActiveCryptocurrencies:          env.Data.ActiveCryptocurrencies,
		Markets:                         env.Data.Markets,
	}
	if stats.MarketCapPercentage == nil {
		stats.MarketCapPercentage = map[string]float64{}
	}
	return stats, nil
}

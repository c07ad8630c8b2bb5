// Package crypto orchestrates cryptocurrency operations across CoinGecko and
// Alpha Vantage with read-through caching.
package crypto

import (
	"context"
	"strconv"
	"time"

	"github.com/finbridge/market-data-gateway/cache"
	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/services"
	"go.uber.org/zap"
)

// CoinGecko allows about 50 calls/minute unauthenticated; the listing
// endpoints refresh fast enough that two minutes is the ceiling there.
const (
	marketsTTL      = 2 * time.Minute
	pricesTTL       = 2 * time.Minute
	historyTTL      = 5 * time.Minute
	globalTTL       = 5 * time.Minute
	exchangeRateTTL = 5 * time.Minute
	intradayTTL     = 5 * time.Minute
)

// CoinGecko is the subset of the CoinGecko client used here.
type CoinGecko interface {
	Markets(ctx context.Context, vsCurrency string, ids []string, limit int) ([]models.CoinMarket, error)
	Prices(ctx context.Context, ids, vsCurrencies []string) (models.SimplePrices, error)
	History(ctx context.Context, id, vsCurrency, days string) ([]models.HistoryPoint, error)
	Global(ctx context.Context) (models.GlobalStats, error)
}

// AlphaVantage is the subset of the Alpha Vantage client used here.
type AlphaVantage interface {
	ExchangeRate(ctx context.Context, from, to string) (models.CurrencyExchangeRate, error)
	CryptoIntraday(ctx context.Context, symbol, market, interval string) ([]models.Bar, error)
}

type Service struct {
	gecko  CoinGecko
	av     AlphaVantage
	cache  cache.Store
	logger *zap.Logger
}

func NewService(gecko CoinGecko, av AlphaVantage, store cache.Store, logger *zap.Logger) *Service {
	return &Service{gecko: gecko, av: av, cache: store, logger: logger}
}

// Markets returns coin listings ordered by market cap.
func (s *Service) Markets(ctx context.Context, vsCurrency string, ids []string, limit int) ([]models.CoinMarket, error) {
	vs := cache.List([]string{vsCurrency})
	idList := cache.List(ids)
	key := cache.Key("coingecko", "markets", vs, idList, strconv.Itoa(limit))
	return services.FetchThrough(ctx, s.cache, s.logger, key, marketsTTL, func(ctx context.Context) ([]models.CoinMarket, error) {
		return s.gecko.Markets(ctx, vsCurrency, ids, limit)
	})
}

// Prices returns spot prices for coin ids against the given currencies.
// Requests for the same sets of ids and currencies share one cache entry
// regardless of ordering or casing.
func (s *Service) Prices(ctx context.Context, ids, vsCurrencies []string) (models.SimplePrices, error) {
	key := cache.Key("coingecko", "price", cache.List(ids), cache.List(vsCurrencies))
	return services.FetchThrough(ctx, s.cache, s.logger, key, pricesTTL, func(ctx context.Context) (models.SimplePrices, error) {
		return s.gecko.Prices(ctx, ids, vsCurrencies)
	})
}

// History returns a coin's price history over the last days days.
func (s *Service) History(ctx context.Context, id, vsCurrency, days string) ([]models.HistoryPoint, error) {
	key := cache.Key("coingecko", "history", cache.List([]string{id}), cache.List([]string{vsCurrency}), days)
	return services.FetchThrough(ctx, s.cache, s.logger, key, historyTTL, func(ctx context.Context) ([]models.HistoryPoint, error) {
		return s.gecko.History(ctx, id, vsCurrency, days)
	})
}

// Global returns aggregate statistics for the whole crypto market.
func (s *Service) Global(ctx context.Context) (models.GlobalStats, error) {
	key := cache.Key("coingecko", "global")
	return services.FetchThrough(ctx, s.cache, s.logger, key, globalTTL, func(ctx context.Context) (models.GlobalStats, error) {
		return s.gecko.Global(ctx)
	})
}

// ExchangeRate returns the realtime rate between two currencies, crypto or
// fiat, from Alpha Vantage.
func (s *Service) ExchangeRate(ctx context.Context, from, to string) (models.CurrencyExchangeRate, error) {
	f, t := cache.Token(from), cache.Token(to)
	key := cache.Key("alphavantage", "crypto-rate", f, t)
	return services.FetchThrough(ctx, s.cache, s.logger, key, exchangeRateTTL, func(ctx context.Context) (models.CurrencyExchangeRate, error) {
		return s.av.ExchangeRate(ctx, f, t)
	})
}

// Intraday returns the intraday series for a crypto symbol in a fiat
// market, oldest first.
func (s *Service) Intraday(ctx context.Context, symbol, market, interval string) ([]models.Bar, error) {
	sym, mkt := cache.Token(symbol), cache.Token(market)
	key := cache.Key("alphavantage", "crypto-intraday", sym, mkt, interval)
	return services.FetchThrough(ctx, s.cache, s.logger, key, intradayTTL, func(ctx context.Context) ([]models.Bar, error) {
		return s.av.CryptoIntraday(ctx, sym, mkt, interval)
	})
}

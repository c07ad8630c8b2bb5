package app

import (
	"context"
	"fmt"
	"time"

	"github.com/finbridge/market-data-gateway/cache"
	"github.com/finbridge/market-data-gateway/config"
	"github.com/finbridge/market-data-gateway/providers/alphavantage"
	"github.com/finbridge/market-data-gateway/providers/coingecko"
	"github.com/finbridge/market-data-gateway/providers/exchangerate"
	"github.com/finbridge/market-data-gateway/providers/fmp"
	"github.com/finbridge/market-data-gateway/providers/newsapi"
	"github.com/finbridge/market-data-gateway/providers/polygon"
	"github.com/finbridge/market-data-gateway/services/crypto"
	"github.com/finbridge/market-data-gateway/services/fx"
	"github.com/finbridge/market-data-gateway/services/news"
	"github.com/finbridge/market-data-gateway/services/stocks"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	Cache  cache.Store

	// Services
	Stocks *stocks.Service
	Crypto *crypto.Service
	FX     *fx.Service
	News   *news.Service

	redisClient *redis.Client
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initCache(ctx, cfg)
	deps.initServices(cfg)

	logger.Info("all dependencies initialized")
	return deps, nil
}

// initCache connects to Redis. An unreachable Redis is not fatal: the
// gateway falls back to an in-process store and keeps serving, just with a
// cold cache after every restart.
func (d *Dependencies) initCache(ctx context.Context, cfg *config.Config) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		d.Logger.Warn("invalid redis URL, using in-process cache", zap.Error(err))
		d.Cache = cache.NewMemoryStore()
		return
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		d.Logger.Warn("redis unreachable, using in-process cache",
			zap.String("addr", opts.Addr), zap.Error(err))
		_ = client.Close()
		d.Cache = cache.NewMemoryStore()
		return
	}

	d.redisClient = client
	d.Cache = cache.NewRedisStore(client)
	d.Logger.Info("redis cache connected", zap.String("addr", opts.Addr))
}

// initServices constructs the provider clients and the services over them.
func (d *Dependencies) initServices(cfg *config.Config) {
	av := alphavantage.New(alphavantage.Config{
		BaseURL:     cfg.Providers.AlphaVantage.BaseURL,
		APIKey:      cfg.Providers.AlphaVantage.APIKey,
		Timeout:     cfg.Providers.AlphaVantage.Timeout,
		MaxAttempts: cfg.Providers.AlphaVantage.MaxAttempts,
		RetryDelay:  cfg.Providers.AlphaVantage.RetryDelay,
	}, d.Logger)

	gecko := coingecko.New(coingecko.Config{
		BaseURL:     cfg.Providers.CoinGecko.BaseURL,
		Timeout:     cfg.Providers.CoinGecko.Timeout,
		MaxAttempts: cfg.Providers.CoinGecko.MaxAttempts,
		RetryDelay:  cfg.Providers.CoinGecko.RetryDelay,
	}, d.Logger)

	fmpClient := fmp.New(fmp.Config{
		BaseURL:     cfg.Providers.FMP.BaseURL,
		APIKey:      cfg.Providers.FMP.APIKey,
		Timeout:     cfg.Providers.FMP.Timeout,
		MaxAttempts: cfg.Providers.FMP.MaxAttempts,
		RetryDelay:  cfg.Providers.FMP.RetryDelay,
	}, d.Logger)

	newsClient := newsapi.New(newsapi.Config{
		BaseURL:     cfg.Providers.NewsAPI.BaseURL,
		APIKey:      cfg.Providers.NewsAPI.APIKey,
		Timeout:     cfg.Providers.NewsAPI.Timeout,
		MaxAttempts: cfg.Providers.NewsAPI.MaxAttempts,
		RetryDelay:  cfg.Providers.NewsAPI.RetryDelay,
	}, d.Logger)

	ratesClient := exchangerate.New(exchangerate.Config{
		BaseURL:     cfg.Providers.ExchangeRate.BaseURL,
		Timeout:     cfg.Providers.ExchangeRate.Timeout,
		MaxAttempts: cfg.Providers.ExchangeRate.MaxAttempts,
		RetryDelay:  cfg.Providers.ExchangeRate.RetryDelay,
	}, d.Logger)

	polygonClient := polygon.New(polygon.Config{
		BaseURL:     cfg.Providers.Polygon.BaseURL,
		APIKey:      cfg.Providers.Polygon.APIKey,
		Timeout:     cfg.Providers.Polygon.Timeout,
		MaxAttempts: cfg.Providers.Polygon.MaxAttempts,
		RetryDelay:  cfg.Providers.Polygon.RetryDelay,
	}, d.Logger)

	d.Stocks = stocks.NewService(av, fmpClient, polygonClient, d.Cache, d.Logger)
	d.Crypto = crypto.NewService(gecko, av, d.Cache, d.Logger)
	d.FX = fx.NewService(ratesClient, d.Cache, d.Logger)
	d.News = news.NewService(newsClient, d.Cache, d.Logger)
}

// CachePing returns a readiness probe for the cache backend, or nil when
// running on the in-process store.
func (d *Dependencies) CachePing() func() error {
	if d.redisClient == nil {
		return nil
	}
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return d.redisClient.Ping(ctx).Err()
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.redisClient != nil {
		if err := d.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		} else {
			d.Logger.Info("redis connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

// Package fx orchestrates fiat exchange-rate operations with read-through
// caching. Conversion is computed locally from the cached rate table so a
// burst of conversions against one base costs a single upstream call.
package fx

import (
	"context"
	"fmt"
	"time"

	"github.com/finbridge/market-data-gateway/cache"
	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/providers"
	"github.com/finbridge/market-data-gateway/services"
	"go.uber.org/zap"
)

// Rate tables refresh daily upstream; the free tier allows 1500 calls a
// month, so latest rates hold for an hour and historical tables for a day.
const (
	latestTTL     = time.Hour
	historicalTTL = 24 * time.Hour
)

const serviceName = "ExchangeRate"

// Rates is the subset of the ExchangeRate client used here.
type Rates interface {
	Latest(ctx context.Context, base string) (models.ExchangeRates, error)
	Historical(ctx context.Context, base, date string) (models.ExchangeRates, error)
}

type Service struct {
	rates  Rates
	cache  cache.Store
	logger *zap.Logger
}

func NewService(rates Rates, store cache.Store, logger *zap.Logger) *Service {
	return &Service{rates: rates, cache: store, logger: logger}
}

// Latest returns the current rate table for a base currency.
func (s *Service) Latest(ctx context.Context, base string) (models.ExchangeRates, error) {
	b := cache.Token(base)
	key := cache.Key("exchangerate", "latest", b)
	return services.FetchThrough(ctx, s.cache, s.logger, key, latestTTL, func(ctx context.Context) (models.ExchangeRates, error) {
		return s.rates.Latest(ctx, b)
	})
}

// Historical returns the rate table for a base currency on a past date.
func (s *Service) Historical(ctx context.Context, base, date string) (models.ExchangeRates, error) {
	b := cache.Token(base)
	key := cache.Key("exchangerate", "history", b, date)
	return services.FetchThrough(ctx, s.cache, s.logger, key, historicalTTL, func(ctx context.Context) (models.ExchangeRates, error) {
		return s.rates.Historical(ctx, b, date)
	})
}

// Convert converts an amount between two currencies using the latest rate
// table for the source currency. An unknown target currency is an invalid
// response from the table, not a caller error, since the table defines
// which currencies exist.
func (s *Service) Convert(ctx context.Context, from, to string, amount float64) (models.Conversion, error) {
	f, t := cache.Token(from), cache.Token(to)

	table, err := s.Latest(ctx, f)
	if err != nil {
		return models.Conversion{}, err
	}

	rate, ok := table.Rates[t]
	if !ok {
		return models.Conversion{}, providers.InvalidResponseError(serviceName,
			fmt.Errorf("no rate from %s to %s", f, t))
	}

	return models.Conversion{
		From:      f,
		To:        t,
		Amount:    amount,
		Converted: amount * rate,
		Rate:      rate,
		Date:      table.Date,
	}, nil
}

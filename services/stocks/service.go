// Package stocks orchestrates stock-market operations across Alpha Vantage,
// Financial Modeling Prep and Polygon with read-through caching.
package stocks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finbridge/market-data-gateway/cache"
	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/services"
	"go.uber.org/zap"
)

// Operation TTLs trade freshness against upstream quota burn (Alpha Vantage
// allows 5 calls/minute, FMP 250/day, Polygon 5/minute).
const (
	quoteTTL     = 5 * time.Minute
	intradayTTL  = 5 * time.Minute
	dailyTTL     = time.Hour
	overviewTTL  = 24 * time.Hour
	profileTTL   = 24 * time.Hour
	statementTTL = 24 * time.Hour
	earningsTTL  = time.Hour
	aggsTTL      = 5 * time.Minute
	prevCloseTTL = time.Hour
	lastQuoteTTL = time.Minute
	newsTTL      = 15 * time.Minute
)

// AlphaVantage is the subset of the Alpha Vantage client used here.
type AlphaVantage interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
	Intraday(ctx context.Context, symbol, interval string) ([]models.Bar, error)
	Daily(ctx context.Context, symbol, outputSize string) ([]models.Bar, error)
	CompanyOverview(ctx context.Context, symbol string) (json.RawMessage, error)
}

// FMP is the subset of the Financial Modeling Prep client used here.
type FMP interface {
	Quote(ctx context.Context, symbol string) (models.FMPQuote, error)
	CompanyProfile(ctx context.Context, symbol string) (json.RawMessage, error)
	IncomeStatement(ctx context.Context, symbol string, limit int) (json.RawMessage, error)
	BalanceSheet(ctx context.Context, symbol string, limit int) (json.RawMessage, error)
	CashFlowStatement(ctx context.Context, symbol string, limit int) (json.RawMessage, error)
	EarningsCalendar(ctx context.Context, from, to string) (json.RawMessage, error)
}

// Polygon is the subset of the Polygon client used here.
type Polygon interface {
	PreviousClose(ctx context.Context, ticker string) (models.PreviousClose, error)
	LastQuote(ctx context.Context, ticker string) (models.LastQuote, error)
	Aggregates(ctx context.Context, ticker string, multiplier int, timespan, from, to string) ([]models.AggregateBar, error)
	TickerNews(ctx context.Context, ticker string, limit int) ([]models.TickerNews, error)
}

type Service struct {
	av      AlphaVantage
	fmp     FMP
	polygon Polygon
	cache   cache.Store
	logger  *zap.Logger
}

func NewService(av AlphaVantage, fmp FMP, polygon Polygon, store cache.Store, logger *zap.Logger) *Service {
	return &Service{av: av, fmp: fmp, polygon: polygon, cache: store, logger: logger}
}

// Quote returns the real-time quote for a symbol.
func (s *Service) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	sym := cache.Token(symbol)
	key := cache.Key("alphavantage", "quote", sym)
	return services.FetchThrough(ctx, s.cache, s.logger, key, quoteTTL, func(ctx context.Context) (models.Quote, error) {
		return s.av.Quote(ctx, sym)
	})
}

// Intraday returns the intraday series for a symbol, oldest first.
func (s *Service) Intraday(ctx context.Context, symbol, interval string) ([]models.Bar, error) {
	sym := cache.Token(symbol)
	key := cache.Key("alphavantage", "intraday", sym, interval)
	return services.FetchThrough(ctx, s.cache, s.logger, key, intradayTTL, func(ctx context.Context) ([]models.Bar, error) {
		return s.av.Intraday(ctx, sym, interval)
	})
}

// Daily returns the daily series for a symbol, oldest first.
func (s *Service) Daily(ctx context.Context, symbol, outputSize string) ([]models.Bar, error) {
	sym := cache.Token(symbol)
	key := cache.Key("alphavantage", "daily", sym, outputSize)
	return services.FetchThrough(ctx, s.cache, s.logger, key, dailyTTL, func(ctx context.Context) ([]models.Bar, error) {
		return s.av.Daily(ctx, sym, outputSize)
	})
}

// CompanyOverview returns Alpha Vantage fundamentals for a symbol.
func (s *Service) CompanyOverview(ctx context.Context, symbol string) (json.RawMessage, error) {
	sym := cache.Token(symbol)
	key := cache.Key("alphavantage", "overview", sym)
	return services.FetchThrough(ctx, s.cache, s.logger, key, overviewTTL, func(ctx context.Context) (json.RawMessage, error) {
		return s.av.CompanyOverview(ctx, sym)
	})
}

// FMPQuote returns the Financial Modeling Prep quote for a symbol.
func (s *Service) FMPQuote(ctx context.Context, symbol string) (models.FMPQuote, error) {
	sym := cache.Token(symbol)
	key := cache.Key("fmp", "quote", sym)
	return services.FetchThrough(ctx, s.cache, s.logger, key, quoteTTL, func(ctx context.Context) (models.FMPQuote, error) {
		return s.fmp.Quote(ctx, sym)
	})
}

// CompanyProfile returns the FMP company profile for a symbol.
func (s *Service) CompanyProfile(ctx context.Context, symbol string) (json.RawMessage, error) {
	sym := cache.Token(symbol)
	key := cache.Key("fmp", "profile", sym)
	return services.FetchThrough(ctx, s.cache, s.logger, key, profileTTL, func(ctx context.Context) (json.RawMessage, error) {
		return s.fmp.CompanyProfile(ctx, sym)
	})
}

// Financials returns the three FMP statements for a symbol. The statements
// are fetched as one cached unit; a failure on any one fails the operation.
func (s *Service) Financials(ctx context.Context, symbol string, limit int) (models.FinancialStatements, error) {
	sym := cache.Token(symbol)
	key := cache.Key("fmp", "financials", sym, fmt.Sprint(limit))
	return services.FetchThrough(ctx, s.cache, s.logger, key, statementTTL, func(ctx context.Context) (models.FinancialStatements, error) {
		income, err := s.fmp.IncomeStatement(ctx, sym, limit)
		if err != nil {
			return models.FinancialStatements{}, err
		}
		balance, err := s.fmp.BalanceSheet(ctx, sym, limit)
		if err != nil {
			return models.FinancialStatements{}, err
		}
		cashFlow, err := s.fmp.CashFlowStatement(ctx, sym, limit)
		if err != nil {
			return models.FinancialStatements{}, err
		}
		return models.FinancialStatements{
			IncomeStatement:   income,
			BalanceSheet:      balance,
			CashFlowStatement: cashFlow,
		}, nil
	})
}

// EarningsCalendar returns earnings announcements between two dates.
func (s *Service) EarningsCalendar(ctx context.Context, from, to string) (json.RawMessage, error) {
	key := cache.Key("fmp", "earnings", from, to)
	return services.FetchThrough(ctx, s.cache, s.logger, key, earningsTTL, func(ctx context.Context) (json.RawMessage, error) {
		return s.fmp.EarningsCalendar(ctx, from, to)
	})
}

// Aggregates returns Polygon OHLC bars for a ticker over a date range.
func (s *Service) Aggregates(ctx context.Context, ticker string, multiplier int, timespan, from, to string) ([]models.AggregateBar, error) {
	sym := cache.Token(ticker)
	key := cache.Key("polygon", "aggregates", sym, fmt.Sprint(multiplier), timespan, from, to)
	return services.FetchThrough(ctx, s.cache, s.logger, key, aggsTTL, func(ctx context.Context) ([]models.AggregateBar, error) {
		return s.polygon.Aggregates(ctx, sym, multiplier, timespan, from, to)
	})
}

// PreviousClose returns the prior trading day's bar for a ticker.
func (s *Service) PreviousClose(ctx context.Context, ticker string) (models.PreviousClose, error) {
	sym := cache.Token(ticker)
	key := cache.Key("polygon", "prevclose", sym)
	return services.FetchThrough(ctx, s.cache, s.logger, key, prevCloseTTL, func(ctx context.Context) (models.PreviousClose, error) {
		return s.polygon.PreviousClose(ctx, sym)
	})
}

// LastQuote returns the most recent NBBO quote for a ticker.
func (s *Service) LastQuote(ctx context.Context, ticker string) (models.LastQuote, error) {
	sym := cache.Token(ticker)
	key := cache.Key("polygon", "quote", sym)
	return services.FetchThrough(ctx, s.cache, s.logger, key, lastQuoteTTL, func(ctx context.Context) (models.LastQuote, error) {
		return s.polygon.LastQuote(ctx, sym)
	})
}

// TickerNews returns recent news items for a ticker.
func (s *Service) TickerNews(ctx context.Context, ticker string, limit int) ([]models.TickerNews, error) {
	sym := cache.Token(ticker)
	key := cache.Key("polygon", "news", sym, fmt.Sprint(limit))
	return services.FetchThrough(ctx, s.cache, s.logger, key, newsTTL, func(ctx context.Context) ([]models.TickerNews, error) {
		return s.polygon.TickerNews(ctx, sym, limit)
	})
}

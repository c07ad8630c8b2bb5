package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StocksService defines the stock operations used by the HTTP layer.
type StocksService interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
	FMPQuote(ctx context.Context, symbol string) (models.FMPQuote, error)
	Intraday(ctx context.Context, symbol, interval string) ([]models.Bar, error)
	Daily(ctx context.Context, symbol, outputSize string) ([]models.Bar, error)
	CompanyOverview(ctx context.Context, symbol string) (json.RawMessage, error)
	CompanyProfile(ctx context.Context, symbol string) (json.RawMessage, error)
	Financials(ctx context.Context, symbol string, limit int) (models.FinancialStatements, error)
	EarningsCalendar(ctx context.Context, from, to string) (json.RawMessage, error)
	Aggregates(ctx context.Context, ticker string, multiplier int, timespan, from, to string) ([]models.AggregateBar, error)
	PreviousClose(ctx context.Context, ticker string) (models.PreviousClose, error)
	LastQuote(ctx context.Context, ticker string) (models.LastQuote, error)
	TickerNews(ctx context.Context, ticker string, limit int) ([]models.TickerNews, error)
}

// StocksHandler handles stock-related HTTP requests
type StocksHandler struct {
	service StocksService
	logger  *zap.Logger
}

// NewStocksHandler creates a new StocksHandler
func NewStocksHandler(service StocksService, logger *zap.Logger) *StocksHandler {
	return &StocksHandler{service: service, logger: logger}
}

type intradayParams struct {
	Interval string `validate:"oneof=1min 5min 15min 30min 60min"`
}

type dailyParams struct {
	OutputSize string `validate:"oneof=compact full"`
}

// HandleQuote handles GET /api/stocks/quote/{symbol}
func (h *StocksHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := utils.ValidateSymbol(symbol, "symbol"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	quote, err := h.service.Quote(r.Context(), symbol)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, quote)
}

// HandleFMPQuote handles GET /api/stocks/fmp-quote/{symbol}
func (h *StocksHandler) HandleFMPQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := utils.ValidateSymbol(symbol, "symbol"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	quote, err := h.service.FMPQuote(r.Context(), symbol)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, quote)
}

// HandleIntraday handles GET /api/stocks/intraday/{symbol}?interval=5min
func (h *StocksHandler) HandleIntraday(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := utils.ValidateSymbol(symbol, "symbol"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	params := intradayParams{Interval: queryDefault(r, "interval", "5min")}
	if err := utils.ValidateStruct(params); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	bars, err := h.service.Intraday(r.Context(), symbol, params.Interval)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, bars)
}

// HandleDaily handles GET /api/stocks/daily/{symbol}?outputsize=compact
func (h *StocksHandler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := utils.ValidateSymbol(symbol, "symbol"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	params := dailyParams{OutputSize: queryDefault(r, "outputsize", "compact")}
	if err := utils.ValidateStruct(params); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	bars, err := h.service.Daily(r.Context(), symbol, params.OutputSize)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, bars)
}

// HandleOverview handles GET /api/stocks/overview/{symbol}
func (h *StocksHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := utils.ValidateSymbol(symbol, "symbol"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	overview, err := h.service.CompanyOverview(r.Context(), symbol)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, overview)
}

// HandleProfile handles GET /api/stocks/profile/{symbol}
func (h *StocksHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := utils.ValidateSymbol(symbol, "symbol"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	profile, err := h.service.CompanyProfile(r.Context(), symbol)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, profile)
}

// HandleFinancials handles GET /api/stocks/financials/{symbol}?limit=4
func (h *StocksHandler) HandleFinancials(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := utils.ValidateSymbol(symbol, "symbol"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	limit, err := queryInt(r, "limit", 4, 1, 40)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	statements, err := h.service.Financials(r.Context(), symbol, limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, statements)
}

// HandleEarningsCalendar handles GET /api/stocks/earnings-calendar?from=&to=
func (h *StocksHandler) HandleEarningsCalendar(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if err := utils.ValidateDate(from, "from"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.ValidateDate(to, "to"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	calendar, err := h.service.EarningsCalendar(r.Context(), from, to)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, calendar)
}

// HandleAggregates handles
// GET /api/stocks/aggregates/{ticker}?multiplier=1&timespan=day&from=&to=
func (h *StocksHandler) HandleAggregates(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if err := utils.ValidateSymbol(ticker, "ticker"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	multiplier, err := queryInt(r, "multiplier", 1, 1, 365)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	timespan := queryDefault(r, "timespan", "day")
	switch timespan {
	case "minute", "hour", "day", "week", "month":
	default:
		HandleServiceError(w, utils.NewFieldError("timespan", "timespan must be one of: minute hour day week month"), h.logger)
		return
	}
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if err := utils.ValidateDate(from, "from"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.ValidateDate(to, "to"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	bars, err := h.service.Aggregates(r.Context(), ticker, multiplier, timespan, from, to)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, bars)
}

// HandlePreviousClose handles GET /api/stocks/prev-close/{ticker}
func (h *StocksHandler) HandlePreviousClose(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if err := utils.ValidateSymbol(ticker, "ticker"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	bar, err := h.service.PreviousClose(r.Context(), ticker)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, bar)
}

// HandleLastQuote handles GET /api/stocks/last-quote/{ticker}
func (h *StocksHandler) HandleLastQuote(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if err := utils.ValidateSymbol(ticker, "ticker"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	quote, err := h.service.LastQuote(r.Context(), ticker)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, quote)
}

// HandleTickerNews handles GET /api/stocks/news/{ticker}?limit=10
func (h *StocksHandler) HandleTickerNews(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if err := utils.ValidateSymbol(ticker, "ticker"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	limit, err := queryInt(r, "limit", 10, 1, 100)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	items, err := h.service.TickerNews(r.Context(), ticker, limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, items)
}

// queryDefault returns a query parameter or a fallback when absent.
func queryDefault(r *http.Request, name, fallback string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return fallback
}

// queryInt parses an integer query parameter with a default and bounds.
func queryInt(r *http.Request, name string, fallback, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, utils.NewFieldError(name, name+" must be an integer between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
	}
	return n, nil
}

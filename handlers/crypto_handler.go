package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CryptoService defines the cryptocurrency operations used by the HTTP layer.
type CryptoService interface {
	Markets(ctx context.Context, vsCurrency string, ids []string, limit int) ([]models.CoinMarket, error)
	Prices(ctx context.Context, ids, vsCurrencies []string) (models.SimplePrices, error)
	History(ctx context.Context, id, vsCurrency, days string) ([]models.HistoryPoint, error)
	Global(ctx context.Context) (models.GlobalStats, error)
	ExchangeRate(ctx context.Context, from, to string) (models.CurrencyExchangeRate, error)
	Intraday(ctx context.Context, symbol, market, interval string) ([]models.Bar, error)
}

// CryptoHandler handles cryptocurrency HTTP requests
type CryptoHandler struct {
	service CryptoService
	logger  *zap.Logger
}

// NewCryptoHandler creates a new CryptoHandler
func NewCryptoHandler(service CryptoService, logger *zap.Logger) *CryptoHandler {
	return &CryptoHandler{service: service, logger: logger}
}

// HandleMarkets handles GET /api/crypto/markets?vs_currency=usd&ids=&limit=50
func (h *CryptoHandler) HandleMarkets(w http.ResponseWriter, r *http.Request) {
	vsCurrency := queryDefault(r, "vs_currency", "usd")
	limit, err := queryInt(r, "limit", 50, 1, 250)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	var ids []string
	if raw := r.URL.Query().Get("ids"); raw != "" {
		ids = splitList(raw)
	}

	markets, err := h.service.Markets(r.Context(), vsCurrency, ids, limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, markets)
}

// HandlePrices handles GET /api/crypto/price/{ids}?vs_currencies=usd
func (h *CryptoHandler) HandlePrices(w http.ResponseWriter, r *http.Request) {
	ids := splitList(chi.URLParam(r, "ids"))
	if len(ids) == 0 {
		HandleServiceError(w, utils.NewFieldError("ids", "ids is required"), h.logger)
		return
	}
	vsCurrencies := splitList(queryDefault(r, "vs_currencies", "usd"))

	prices, err := h.service.Prices(r.Context(), ids, vsCurrencies)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, prices)
}

// HandleHistory handles GET /api/crypto/history/{id}?vs_currency=usd&days=7
func (h *CryptoHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := utils.ValidateRequired(id, "id"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	vsCurrency := queryDefault(r, "vs_currency", "usd")
	days := queryDefault(r, "days", "7")

	history, err := h.service.History(r.Context(), id, vsCurrency, days)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, history)
}

// HandleGlobal handles GET /api/crypto/global
func (h *CryptoHandler) HandleGlobal(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Global(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, stats)
}

// HandleExchangeRate handles GET /api/crypto/exchange-rate/{from}/{to}
func (h *CryptoHandler) HandleExchangeRate(w http.ResponseWriter, r *http.Request) {
	from := chi.URLParam(r, "from")
	to := chi.URLParam(r, "to")
	if err := utils.ValidateSymbol(from, "from"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.ValidateSymbol(to, "to"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	rate, err := h.service.ExchangeRate(r.Context(), from, to)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, rate)
}

// HandleIntraday handles GET /api/crypto/intraday/{symbol}?market=USD&interval=5min
func (h *CryptoHandler) HandleIntraday(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := utils.ValidateSymbol(symbol, "symbol"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	market := queryDefault(r, "market", "USD")

	params := intradayParams{Interval: queryDefault(r, "interval", "5min")}
	if err := utils.ValidateStruct(params); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	bars, err := h.service.Intraday(r.Context(), symbol, market, params.Interval)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, bars)
}

// splitList splits a comma-separated parameter, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

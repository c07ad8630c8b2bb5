package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FXService defines the fiat exchange-rate operations used by the HTTP layer.
type FXService interface {
	Latest(ctx context.Context, base string) (models.ExchangeRates, error)
	Historical(ctx context.Context, base, date string) (models.ExchangeRates, error)
	Convert(ctx context.Context, from, to string, amount float64) (models.Conversion, error)
}

// RealtimeRates provides point-in-time currency pair rates. Satisfied by the
// crypto service, whose upstream quotes fiat pairs as well.
type RealtimeRates interface {
	ExchangeRate(ctx context.Context, from, to string) (models.CurrencyExchangeRate, error)
}

// FXHandler handles fiat currency HTTP requests
type FXHandler struct {
	service  FXService
	realtime RealtimeRates
	logger   *zap.Logger
}

// NewFXHandler creates a new FXHandler
func NewFXHandler(service FXService, realtime RealtimeRates, logger *zap.Logger) *FXHandler {
	return &FXHandler{service: service, realtime: realtime, logger: logger}
}

// HandleLatest handles GET /api/fx/latest?base=USD
func (h *FXHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	base := queryDefault(r, "base", "USD")
	if err := utils.ValidateSymbol(base, "base"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	rates, err := h.service.Latest(r.Context(), base)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, rates)
}

// HandleHistorical handles GET /api/fx/history/{base}/{date}
func (h *FXHandler) HandleHistorical(w http.ResponseWriter, r *http.Request) {
	base := chi.URLParam(r, "base")
	date := chi.URLParam(r, "date")
	if err := utils.ValidateSymbol(base, "base"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.ValidateDate(date, "date"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	rates, err := h.service.Historical(r.Context(), base, date)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, rates)
}

// HandleConvert handles GET /api/fx/convert?from=USD&to=EUR&amount=100.
// All three parameters are required; validation fails before any upstream
// call is made.
func (h *FXHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	rawAmount := r.URL.Query().Get("amount")

	if err := utils.ValidateSymbol(from, "from"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.ValidateSymbol(to, "to"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.ValidateRequired(rawAmount, "amount"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil || amount <= 0 {
		HandleServiceError(w, utils.NewFieldError("amount", "amount must be a positive number"), h.logger)
		return
	}

	conversion, err := h.service.Convert(r.Context(), from, to, amount)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, conversion)
}

// HandleExchangeRate handles GET /api/fx/exchange-rate/{from}/{to}
func (h *FXHandler) HandleExchangeRate(w http.ResponseWriter, r *http.Request) {
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

	rate, err := h.realtime.ExchangeRate(r.Context(), from, to)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, rate)
}

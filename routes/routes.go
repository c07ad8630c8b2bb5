package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/finbridge/market-data-gateway/app"
	"github.com/finbridge/market-data-gateway/handlers"
	"github.com/finbridge/market-data-gateway/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "https://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Retry-After", "X-Request-ID"},
		MaxAge:         300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.CachePing(), deps.Logger)
	stocksHandler := handlers.NewStocksHandler(deps.Stocks, deps.Logger)
	cryptoHandler := handlers.NewCryptoHandler(deps.Crypto, deps.Logger)
	fxHandler := handlers.NewFXHandler(deps.FX, deps.Crypto, deps.Logger)
	newsHandler := handlers.NewNewsHandler(deps.News, deps.Logger)
	errorsHandler := handlers.NewErrorsHandler(deps.Logger)

	r.With(middleware.NoStore).Get("/health", healthHandler.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/stocks", func(r chi.Router) {
			r.With(middleware.ClientCache(time.Minute)).Get("/quote/{symbol}", stocksHandler.HandleQuote)
			r.With(middleware.ClientCache(time.Minute)).Get("/fmp-quote/{symbol}", stocksHandler.HandleFMPQuote)
			r.With(middleware.ClientCache(5*time.Minute)).Get("/intraday/{symbol}", stocksHandler.HandleIntraday)
			r.With(middleware.ClientCache(time.Hour)).Get("/daily/{symbol}", stocksHandler.HandleDaily)
			r.With(middleware.ClientCache(24*time.Hour)).Get("/overview/{symbol}", stocksHandler.HandleOverview)
			r.With(middleware.ClientCache(24*time.Hour)).Get("/profile/{symbol}", stocksHandler.HandleProfile)
			r.With(middleware.ClientCache(24*time.Hour)).Get("/financials/{symbol}", stocksHandler.HandleFinancials)
			r.With(middleware.ClientCache(time.Hour)).Get("/earnings-calendar", stocksHandler.HandleEarningsCalendar)
			r.With(middleware.ClientCache(5*time.Minute)).Get("/aggregates/{ticker}", stocksHandler.HandleAggregates)
			r.With(middleware.ClientCache(time.Hour)).Get("/prev-close/{ticker}", stocksHandler.HandlePreviousClose)
			r.With(middleware.ClientCache(time.Minute)).Get("/last-quote/{ticker}", stocksHandler.HandleLastQuote)
			r.With(middleware.ClientCache(15*time.Minute)).Get("/news/{ticker}", stocksHandler.HandleTickerNews)
		})

		r.Route("/crypto", func(r chi.Router) {
			r.With(middleware.ClientCache(2*time.Minute)).Get("/markets", cryptoHandler.HandleMarkets)
			r.With(middleware.ClientCache(2*time.Minute)).Get("/price/{ids}", cryptoHandler.HandlePrices)
			r.With(middleware.ClientCache(5*time.Minute)).Get("/history/{id}", cryptoHandler.HandleHistory)
			r.With(middleware.ClientCache(5*time.Minute)).Get("/global", cryptoHandler.HandleGlobal)
			r.With(middleware.ClientCache(5*time.Minute)).Get("/exchange-rate/{from}/{to}", cryptoHandler.HandleExchangeRate)
			r.With(middleware.ClientCache(5*time.Minute)).Get("/intraday/{symbol}", cryptoHandler.HandleIntraday)
		})

		r.Route("/fx", func(r chi.Router) {
			r.With(middleware.ClientCache(time.Hour)).Get("/latest", fxHandler.HandleLatest)
			r.With(middleware.ClientCache(24*time.Hour)).Get("/history/{base}/{date}", fxHandler.HandleHistorical)
			r.With(middleware.ClientCache(time.Hour)).Get("/convert", fxHandler.HandleConvert)
			r.With(middleware.ClientCache(5*time.Minute)).Get("/exchange-rate/{from}/{to}", fxHandler.HandleExchangeRate)
		})

		r.Route("/news", func(r chi.Router) {
			r.With(middleware.ClientCache(15*time.Minute)).Get("/headlines", newsHandler.HandleHeadlines)
			r.With(middleware.ClientCache(15*time.Minute)).Get("/business", newsHandler.HandleBusiness)
			r.With(middleware.ClientCache(15*time.Minute)).Get("/search", newsHandler.HandleSearch)
		})

		r.With(middleware.NoStore).Post("/errors", errorsHandler.HandleReport)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found","code":"NOT_FOUND"}`))
	})

	return r
}

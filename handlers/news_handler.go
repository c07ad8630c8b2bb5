package handlers

import (
	"context"
	"net/http"

	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/utils"
	"go.uber.org/zap"
)

// NewsService defines the news operations used by the HTTP layer.
type NewsService interface {
	TopHeadlines(ctx context.Context, category, country string, pageSize int) ([]models.Article, error)
	Search(ctx context.Context, q, language, sortBy string, pageSize int) ([]models.Article, error)
}

// NewsHandler handles news HTTP requests
type NewsHandler struct {
	service NewsService
	logger  *zap.Logger
}

// NewNewsHandler creates a new NewsHandler
func NewNewsHandler(service NewsService, logger *zap.Logger) *NewsHandler {
	return &NewsHandler{service: service, logger: logger}
}

type searchParams struct {
	SortBy string `validate:"oneof=relevancy popularity publishedAt"`
}

// HandleHeadlines handles GET /api/news/headlines?category=&country=us&pageSize=20
func (h *NewsHandler) HandleHeadlines(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	country := queryDefault(r, "country", "us")
	pageSize, err := queryInt(r, "pageSize", 20, 1, 100)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	articles, err := h.service.TopHeadlines(r.Context(), category, country, pageSize)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, articles)
}

// HandleBusiness handles GET /api/news/business, a fixed-category view of
// the headlines operation.
func (h *NewsHandler) HandleBusiness(w http.ResponseWriter, r *http.Request) {
	country := queryDefault(r, "country", "us")
	pageSize, err := queryInt(r, "pageSize", 20, 1, 100)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	articles, err := h.service.TopHeadlines(r.Context(), "business", country, pageSize)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, articles)
}

// HandleSearch handles GET /api/news/search?q=&language=en&sortBy=publishedAt&pageSize=20
func (h *NewsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if err := utils.ValidateRequired(q, "q"); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	language := queryDefault(r, "language", "en")
	pageSize, err := queryInt(r, "pageSize", 20, 1, 100)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	params := searchParams{SortBy: queryDefault(r, "sortBy", "publishedAt")}
	if err := utils.ValidateStruct(params); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	articles, err := h.service.Search(r.Context(), q, language, params.SortBy, pageSize)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, articles)
}

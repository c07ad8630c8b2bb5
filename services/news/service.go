// Package news orchestrates NewsAPI operations with read-through caching.
package news

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/finbridge/market-data-gateway/cache"
	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/services"
	"go.uber.org/zap"
)

// NewsAPI's free tier allows 100 calls a day, so headlines hold for a
// quarter hour.
const articlesTTL = 15 * time.Minute

// Headlines is the subset of the NewsAPI client used here.
type Headlines interface {
	TopHeadlines(ctx context.Context, category, country string, pageSize int) ([]models.Article, error)
	Search(ctx context.Context, q, language, sortBy string, pageSize int) ([]models.Article, error)
}

type Service struct {
	client Headlines
	cache  cache.Store
	logger *zap.Logger
}

func NewService(client Headlines, store cache.Store, logger *zap.Logger) *Service {
	return &Service{client: client, cache: store, logger: logger}
}

// TopHeadlines returns headlines for a country, optionally by category.
func (s *Service) TopHeadlines(ctx context.Context, category, country string, pageSize int) ([]models.Article, error) {
	cat := strings.ToLower(strings.TrimSpace(category))
	ctry := strings.ToLower(strings.TrimSpace(country))
	key := cache.Key("newsapi", "headlines", cat, ctry, strconv.Itoa(pageSize))
	return services.FetchThrough(ctx, s.cache, s.logger, key, articlesTTL, func(ctx context.Context) ([]models.Article, error) {
		return s.client.TopHeadlines(ctx, cat, ctry, pageSize)
	})
}

// Search returns articles matching a free-text query. The query is folded
// to lower case for the cache key only; the upstream call keeps the
// caller's casing.
func (s *Service) Search(ctx context.Context, q, language, sortBy string, pageSize int) ([]models.Article, error) {
	key := cache.Key("newsapi", "search",
		strings.ToLower(strings.TrimSpace(q)),
		strings.ToLower(language), sortBy, strconv.Itoa(pageSize))
	return services.FetchThrough(ctx, s.cache, s.logger, key, articlesTTL, func(ctx context.Context) ([]models.Article, error) {
		return s.client.Search(ctx, q, language, sortBy, pageSize)
	})
}

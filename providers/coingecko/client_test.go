package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finbridge/market-data-gateway/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:     srv.URL,
		Timeout:     time.Second,
		MaxAttempts: 1,
	}, zap.NewNop())
}

func TestMarkets(t *testing.T) {
	body := `[{
		"id": "bitcoin", "symbol": "btc", "name": "Bitcoin",
		"current_price": 67000.5, "market_cap": 1320000000000,
		"market_cap_rank": 1, "price_change_percentage_24h": -1.2,
		"ath": 73750, "last_updated": "2025-03-03T16:00:00.000Z"
	}]`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "usd", q.Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", q.Get("order"))
		assert.Equal(t, "10", q.Get("per_page"))
		assert.Equal(t, "bitcoin,ethereum", q.Get("ids"))
		_, _ = w.Write([]byte(body))
	})

	markets, err := client.Markets(context.Background(), "USD", []string{"bitcoin", "ethereum"}, 10)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "bitcoin", markets[0].ID)
	assert.Equal(t, 67000.5, markets[0].CurrentPrice)
	assert.Equal(t, 1, markets[0].MarketCapRank)
	assert.Equal(t, -1.2, markets[0].PriceChangePercentage24h)
}

func TestPricesPassthrough(t *testing.T) {
	body := `{"bitcoin":{"usd":67000.5,"usd_market_cap":1.32e12},"ethereum":{"usd":3500.25}}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "bitcoin,ethereum", q.Get("ids"))
		assert.Equal(t, "usd", q.Get("vs_currencies"))
		assert.Equal(t, "true", q.Get("include_market_cap"))
		_, _ = w.Write([]byte(body))
	})

	prices, err := client.Prices(context.Background(), []string{"bitcoin", "ethereum"}, []string{"usd"})
	require.NoError(t, err)
	assert.Equal(t, 67000.5, prices["bitcoin"]["usd"])
	assert.Equal(t, 3500.25, prices["ethereum"]["usd"])
}

func TestHistoryPairsSamplesByPosition(t *testing.T) {
	// Two price samples share the same value; each must still pair with the
	// market cap and volume sample at its own index.
	body := `{
		"prices":        [[1709460000000, 100.0], [1709463600000, 100.0], [1709467200000, 101.5]],
		"market_caps":   [[1709460000000, 1000.0], [1709463600000, 2000.0], [1709467200000, 3000.0]],
		"total_volumes": [[1709460000000, 10.0], [1709463600000, 20.0]]
	}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	points, err := client.History(context.Background(), "bitcoin", "usd", "1")
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, 100.0, points[0].Price)
	require.NotNil(t, points[0].MarketCap)
	assert.Equal(t, 1000.0, *points[0].MarketCap)

	// The duplicate price at index 1 pairs with index-1 companions, not the
	// first occurrence's.
	assert.Equal(t, 100.0, points[1].Price)
	require.NotNil(t, points[1].MarketCap)
	assert.Equal(t, 2000.0, *points[1].MarketCap)
	require.NotNil(t, points[1].Volume)
	assert.Equal(t, 20.0, *points[1].Volume)

	// Companion arrays shorter than prices leave the trailing samples nil.
	require.NotNil(t, points[2].MarketCap)
	assert.Nil(t, points[2].Volume)
}

func TestHistoryMissingPricesFailsClosed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"market_caps": []}`))
	})

	_, err := client.History(context.Background(), "bitcoin", "usd", "1")
	require.Error(t, err)

	var provErr *providers.Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, providers.KindInvalidResponse, provErr.Kind)
}

func TestGlobal(t *testing.T) {
	body := `{"data": {
		"total_market_cap": {"usd": 2.5e12, "eur": 2.3e12},
		"total_volume": {"usd": 9.8e10},
		"market_cap_percentage": {"btc": 52.1, "eth": 17.3},
		"market_cap_change_percentage_24h_usd": -0.8,
		"active_cryptocurrencies": 13000,
		"markets": 1050
	}}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	stats, err := client.Global(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2.5e12, stats.TotalMarketCap)
	assert.Equal(t, 9.8e10, stats.TotalVolume)
	assert.Equal(t, 52.1, stats.MarketCapPercentage["btc"])
	assert.Equal(t, 13000, stats.ActiveCryptocurrencies)
}

func TestGlobalMissingDataFailsClosed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.Global(context.Background())
	require.Error(t, err)

	var provErr *providers.Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, providers.KindInvalidResponse, provErr.Kind)
}

func TestRateLimit429(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "90")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Global(context.Background())
	require.Error(t, err)

	var provErr *providers.Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, providers.KindRateLimit, provErr.Kind)
	assert.Equal(t, 90, provErr.RetryAfter)
}

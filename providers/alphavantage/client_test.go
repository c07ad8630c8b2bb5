package alphavantage

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
		APIKey:      "test-key",
		Timeout:     time.Second,
		MaxAttempts: 1,
	}, zap.NewNop())
}

const quoteBody = `{
	"Global Quote": {
		"01. symbol": "AAPL",
		"02. open": "185.50",
		"03. high": "187.20",
		"04. low": "184.90",
		"05. price": "186.75",
		"06. volume": "43210000",
		"07. latest trading day": "2025-03-03",
		"08. previous close": "185.00",
		"09. change": "1.75",
		"10. change percent": "0.9459%"
	}
}`

func TestQuote(t *testing.T) {
	var gotSymbol string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotSymbol = r.URL.Query().Get("symbol")
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(quoteBody))
	})

	quote, err := client.Quote(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", gotSymbol, "symbols are uppercased before the upstream call")
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, 186.75, quote.Price)
	assert.Equal(t, int64(43210000), quote.Volume)
	assert.Equal(t, 0.9459, quote.ChangePercent, "percent suffix is stripped")
	assert.Equal(t, "2025-03-03", quote.LatestTradingDay)
}

func TestQuoteEmptyEnvelopeFailsClosed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Global Quote": {}}`))
	})

	_, err := client.Quote(context.Background(), "UNKNOWN")
	require.Error(t, err)

	var provErr *providers.Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, providers.KindInvalidResponse, provErr.Kind)
}

func TestQuoteRateLimitNote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
	})

	_, err := client.Quote(context.Background(), "AAPL")
	require.Error(t, err)

	var provErr *providers.Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, providers.KindRateLimit, provErr.Kind)
	assert.Equal(t, 60, provErr.RetryAfter)
	assert.Equal(t, http.StatusTooManyRequests, provErr.HTTPStatus)
}

func TestIntradayIsChronological(t *testing.T) {
	// Upstream returns newest-first; the client reverses to oldest-first.
	body := `{
		"Time Series (5min)": {
			"2025-03-03 16:00:00": {"1. open": "3", "2. high": "3", "3. low": "3", "4. close": "3", "5. volume": "300"},
			"2025-03-03 15:55:00": {"1. open": "2", "2. high": "2", "3. low": "2", "4. close": "2", "5. volume": "200"},
			"2025-03-03 15:50:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "100"}
		}
	}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_INTRADAY", r.URL.Query().Get("function"))
		assert.Equal(t, "5min", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(body))
	})

	bars, err := client.Intraday(context.Background(), "AAPL", "5min")
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, "2025-03-03 15:50:00", bars[0].Date)
	assert.Equal(t, "2025-03-03 16:00:00", bars[2].Date)
	assert.Equal(t, 1.0, bars[0].Close)
	assert.Equal(t, 3.0, bars[2].Close)
}

func TestDailyMissingSeriesFailsClosed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Meta Data": {}}`))
	})

	_, err := client.Daily(context.Background(), "AAPL", "compact")
	require.Error(t, err)

	var provErr *providers.Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, providers.KindInvalidResponse, provErr.Kind)
}

func TestExchangeRate(t *testing.T) {
	body := `{
		"Realtime Currency Exchange Rate": {
			"1. From_Currency Code": "BTC",
			"3. To_Currency Code": "USD",
			"5. Exchange Rate": "67000.12345678",
			"6. Last Refreshed": "2025-03-03 16:00:01",
			"7. Time Zone": "UTC",
			"8. Bid Price": "66999.00000000",
			"9. Ask Price": "67001.00000000"
		}
	}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CURRENCY_EXCHANGE_RATE", r.URL.Query().Get("function"))
		assert.Equal(t, "BTC", r.URL.Query().Get("from_currency"))
		assert.Equal(t, "USD", r.URL.Query().Get("to_currency"))
		_, _ = w.Write([]byte(body))
	})

	rate, err := client.ExchangeRate(context.Background(), "btc", "usd")
	require.NoError(t, err)
	assert.Equal(t, "BTC", rate.FromCurrency)
	assert.Equal(t, "USD", rate.ToCurrency)
	assert.InDelta(t, 67000.12345678, rate.ExchangeRate, 1e-9)
	assert.InDelta(t, 66999.0, rate.BidPrice, 1e-9)
}

func TestCompanyOverviewPassthrough(t *testing.T) {
	body := `{"Symbol":"AAPL","Name":"Apple Inc","PERatio":"29.1"}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	raw, err := client.CompanyOverview(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.JSONEq(t, body, string(raw))
}

func TestMalformedNumberFailsClosed(t *testing.T) {
	body := `{
		"Global Quote": {
			"01. symbol": "AAPL",
			"02. open": "not-a-number",
			"03. high": "1", "04. low": "1", "05. price": "1",
			"06. volume": "1", "07. latest trading day": "2025-03-03",
			"08. previous close": "1", "09. change": "0",
			"10. change percent": "0%"
		}
	}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	_, err := client.Quote(context.Background(), "AAPL")
	require.Error(t, err)

	var provErr *providers.Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, providers.KindInvalidResponse, provErr.Kind)
}

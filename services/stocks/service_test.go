package stocks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/finbridge/market-data-gateway/cache"
	"github.com/finbridge/market-data-gateway/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAlphaVantage struct {
	quoteCalls int
	quote      models.Quote
	err        error
}

func (f *fakeAlphaVantage) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	f.quoteCalls++
	if f.err != nil {
		return models.Quote{}, f.err
	}
	return f.quote, nil
}

func (f *fakeAlphaVantage) Intraday(ctx context.Context, symbol, interval string) ([]models.Bar, error) {
	return nil, errors.New("not used")
}

func (f *fakeAlphaVantage) Daily(ctx context.Context, symbol, outputSize string) ([]models.Bar, error) {
	return nil, errors.New("not used")
}

func (f *fakeAlphaVantage) CompanyOverview(ctx context.Context, symbol string) (json.RawMessage, error) {
	return nil, errors.New("not used")
}

// recordingStore captures Set calls so tests can check keys and TTLs.
type recordingStore struct {
	inner   cache.Store
	setKeys []string
	setTTLs []time.Duration
}

func (r *recordingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return r.inner.Get(ctx, key)
}

func (r *recordingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.setKeys = append(r.setKeys, key)
	r.setTTLs = append(r.setTTLs, ttl)
	return r.inner.Set(ctx, key, value, ttl)
}

// brokenStore fails every operation, standing in for an unreachable Redis.
type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("connection refused")
}

func TestQuoteCachesAndBypassesProvider(t *testing.T) {
	ctx := context.Background()
	av := &fakeAlphaVantage{quote: models.Quote{Symbol: "AAPL", Price: 186.75}}
	store := &recordingStore{inner: cache.NewMemoryStore()}
	svc := NewService(av, nil, nil, store, zap.NewNop())

	first, err := svc.Quote(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", first.Symbol)
	assert.Equal(t, 1, av.quoteCalls)

	// The same logical request, differently cased, is a cache hit.
	second, err := svc.Quote(ctx, " AAPL ")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, av.quoteCalls, "cache hit must not reach the provider")

	require.Len(t, store.setKeys, 1)
	assert.Equal(t, "alphavantage:quote:AAPL", store.setKeys[0])
	assert.Equal(t, 5*time.Minute, store.setTTLs[0])
}

func TestQuoteProviderErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	av := &fakeAlphaVantage{err: errors.New("boom")}
	store := &recordingStore{inner: cache.NewMemoryStore()}
	svc := NewService(av, nil, nil, store, zap.NewNop())

	_, err := svc.Quote(ctx, "AAPL")
	require.Error(t, err)
	assert.Empty(t, store.setKeys, "failures must not be cached")

	// The next call hits the provider again.
	_, _ = svc.Quote(ctx, "AAPL")
	assert.Equal(t, 2, av.quoteCalls)
}

func TestQuoteDegradesWhenCacheUnreachable(t *testing.T) {
	ctx := context.Background()
	av := &fakeAlphaVantage{quote: models.Quote{Symbol: "MSFT", Price: 420.0}}
	svc := NewService(av, nil, nil, brokenStore{}, zap.NewNop())

	quote, err := svc.Quote(ctx, "MSFT")
	require.NoError(t, err, "cache failures degrade to uncached fetches")
	assert.Equal(t, "MSFT", quote.Symbol)
	assert.Equal(t, 1, av.quoteCalls)

	// Without a cache every request pays the provider cost.
	_, err = svc.Quote(ctx, "MSFT")
	require.NoError(t, err)
	assert.Equal(t, 2, av.quoteCalls)
}

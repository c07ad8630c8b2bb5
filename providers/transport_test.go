package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string, inspect InspectFunc) *Client {
	return NewClient(ClientConfig{
		Service:     "TestUpstream",
		BaseURL:     baseURL,
		Timeout:     time.Second,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
		Inspect:     inspect,
	})
}

func TestGetSuccessFirstAttempt(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	body, err := newTestClient(srv.URL, nil).Get(context.Background(), "/data", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, 1, calls)
}

func TestGetRetriesTransientFailuresThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	body, err := newTestClient(srv.URL, nil).Get(context.Background(), "/data", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, 3, calls)
}

func TestGetExhaustsAttemptsAndReturnsLastFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, nil).Get(context.Background(), "/data", nil)
	require.Error(t, err)
	assert.Equal(t, 3, calls, "exactly MaxAttempts calls are made")

	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, KindServiceUnavailable, provErr.Kind)
}

func TestGetDoesNotRetryNonRetryableFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, nil).Get(context.Background(), "/data", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "auth failures abort immediately")

	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, KindAuthError, provErr.Kind)
}

func TestGetRateLimitCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, nil).Get(context.Background(), "/data", nil)
	require.Error(t, err)

	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, KindRateLimit, provErr.Kind)
	assert.Equal(t, 42, provErr.RetryAfter)
}

func TestGetFailsFastWithoutAPIKey(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		Service:  "TestUpstream",
		BaseURL:  srv.URL,
		KeyParam: "apikey",
	})

	_, err := client.Get(context.Background(), "/data", nil)
	require.Error(t, err)
	assert.Zero(t, calls, "no request should leave the process")

	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, KindAuthError, provErr.Kind)
}

func TestGetInjectsAPIKeyAndQuery(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		Service:  "TestUpstream",
		BaseURL:  srv.URL,
		APIKey:   "secret",
		KeyParam: "apikey",
	})

	_, err := client.Get(context.Background(), "/data", url.Values{"symbol": {"AAPL"}})
	require.NoError(t, err)
	assert.Equal(t, "secret", gotQuery.Get("apikey"))
	assert.Equal(t, "AAPL", gotQuery.Get("symbol"))
}

func TestGetInspectRejectsInBodyErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"Note":"call frequency exceeded"}`))
	}))
	defer srv.Close()

	inspect := func(body []byte) error {
		return RateLimitError("TestUpstream", 0)
	}

	_, err := newTestClient(srv.URL, inspect).Get(context.Background(), "/data", nil)
	require.Error(t, err)
	assert.Equal(t, 3, calls, "in-body rate limits are retryable")

	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, KindRateLimit, provErr.Kind)
	assert.Equal(t, 60, provErr.RetryAfter)
}

func TestGetDelaysIncreaseBetweenAttempts(t *testing.T) {
	var calls []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, time.Now())
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		Service:     "TestUpstream",
		BaseURL:     srv.URL,
		MaxAttempts: 3,
		RetryDelay:  30 * time.Millisecond,
	})

	_, err := client.Get(context.Background(), "/data", nil)
	require.Error(t, err)
	require.Len(t, calls, 3)

	// Backoff is linear in the attempt number: 1×RetryDelay before the
	// second attempt, 2×RetryDelay before the third.
	gap1 := calls[1].Sub(calls[0])
	gap2 := calls[2].Sub(calls[1])
	assert.GreaterOrEqual(t, gap1, 30*time.Millisecond)
	assert.GreaterOrEqual(t, gap2, 60*time.Millisecond)
	assert.Greater(t, gap2, gap1)
}

func TestGetTLSFailureDoesNotExposeAPIKey(t *testing.T) {
	// The default transport rejects the test server's self-signed
	// certificate, so the request dies at the TLS handshake with a
	// *url.Error whose text contains the full request URL.
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		Service:     "TestUpstream",
		BaseURL:     srv.URL,
		APIKey:      "SUPER-SECRET-KEY",
		KeyParam:    "apikey",
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	})

	_, err := client.Get(context.Background(), "/query", nil)
	require.Error(t, err)

	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, KindInternalError, provErr.Kind)
	assert.NotContains(t, provErr.Message, "SUPER-SECRET-KEY")
	assert.NotContains(t, provErr.Message, srv.URL)
	assert.Equal(t, "An unexpected error occurred. Please try again later.", provErr.Message)

	// The cause keeps the detail for operator logs.
	require.NotNil(t, provErr.Cause)
	assert.Contains(t, provErr.Cause.Error(), "certificate")
}

func TestGetContextCancellationDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		Service:     "TestUpstream",
		BaseURL:     srv.URL,
		MaxAttempts: 3,
		RetryDelay:  time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.Get(ctx, "/data", nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation must interrupt the backoff sleep")
}

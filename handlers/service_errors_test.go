package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finbridge/market-data-gateway/providers"
	"github.com/finbridge/market-data-gateway/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "rate limit",
			err:            providers.RateLimitError("Alpha Vantage", 0),
			expectedStatus: http.StatusTooManyRequests,
			expectedCode:   "RATE_LIMIT_EXCEEDED",
		},
		{
			name:           "timeout",
			err:            providers.TimeoutError("CoinGecko", nil),
			expectedStatus: http.StatusGatewayTimeout,
			expectedCode:   "TIMEOUT",
		},
		{
			name:           "unavailable",
			err:            providers.UnavailableError("NewsAPI", nil),
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   "SERVICE_UNAVAILABLE",
		},
		{
			name:           "auth error maps to 500, not 401",
			err:            providers.AuthError("Polygon"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "AUTH_ERROR",
		},
		{
			name:           "invalid response",
			err:            providers.InvalidResponseError("Financial Modeling Prep", nil),
			expectedStatus: http.StatusBadGateway,
			expectedCode:   "INVALID_RESPONSE",
		},
		{
			name:           "internal",
			err:            providers.InternalError("Alpha Vantage", errors.New("boom")),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "INTERNAL_ERROR",
		},
		{
			name:           "validation error",
			err:            utils.NewFieldError("symbol", "symbol is required"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "unknown error is internal",
			err:            errors.New("unexpected"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var body utils.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHandleServiceErrorRateLimitBody(t *testing.T) {
	w := httptest.NewRecorder()
	HandleServiceError(w, providers.RateLimitError("Alpha Vantage", 0), zap.NewNop())

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 60, body.RetryAfter)
	assert.Contains(t, body.Error, "temporarily limited")
}

func TestHandleServiceErrorNonRateLimitOmitsRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	HandleServiceError(w, providers.TimeoutError("CoinGecko", nil), zap.NewNop())

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	_, present := raw["retryAfter"]
	assert.False(t, present)
	assert.Empty(t, w.Header().Get("Retry-After"))
}

func TestHandleServiceErrorValidationDetails(t *testing.T) {
	w := httptest.NewRecorder()
	HandleServiceError(w, utils.NewFieldError("amount", "amount must be a positive number"), zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "amount must be a positive number", body.Details["amount"])
}

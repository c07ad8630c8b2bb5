package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finbridge/market-data-gateway/models"
	"github.com/finbridge/market-data-gateway/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFXService struct {
	convertCalls int
	conversion   models.Conversion
}

func (f *fakeFXService) Latest(ctx context.Context, base string) (models.ExchangeRates, error) {
	return models.ExchangeRates{Base: base, Rates: map[string]float64{"EUR": 0.92}}, nil
}

func (f *fakeFXService) Historical(ctx context.Context, base, date string) (models.ExchangeRates, error) {
	return models.ExchangeRates{Base: base, Date: date, Rates: map[string]float64{}}, nil
}

func (f *fakeFXService) Convert(ctx context.Context, from, to string, amount float64) (models.Conversion, error) {
	f.convertCalls++
	return f.conversion, nil
}

func TestHandleConvert(t *testing.T) {
	svc := &fakeFXService{conversion: models.Conversion{
		From: "USD", To: "EUR", Amount: 100, Converted: 92, Rate: 0.92, Date: "2025-03-03",
	}}
	h := NewFXHandler(svc, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/fx/convert?from=USD&to=EUR&amount=100", nil)
	w := httptest.NewRecorder()
	h.HandleConvert(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var conv models.Conversion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	assert.Equal(t, 92.0, conv.Converted)
	assert.Equal(t, 1, svc.convertCalls)
}

func TestHandleConvertValidation(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing from", "/api/fx/convert?to=EUR&amount=100"},
		{"missing to", "/api/fx/convert?from=USD&amount=100"},
		{"missing amount", "/api/fx/convert?from=USD&to=EUR"},
		{"non-numeric amount", "/api/fx/convert?from=USD&to=EUR&amount=ten"},
		{"negative amount", "/api/fx/convert?from=USD&to=EUR&amount=-5"},
		{"bad symbol", "/api/fx/convert?from=US%24D!&to=EUR&amount=100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeFXService{}
			h := NewFXHandler(svc, nil, zap.NewNop())

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			h.HandleConvert(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, svc.convertCalls, "validation failures must not reach the service")

			var body utils.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "VALIDATION_ERROR", body.Code)
		})
	}
}

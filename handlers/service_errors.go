package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/finbridge/market-data-gateway/providers"
	"github.com/finbridge/market-data-gateway/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps provider and validation errors to HTTP responses.
// Every provider failure carries its own status and stable code; anything
// unrecognized becomes a generic 500 so the error surface stays closed.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		details := make(map[string]interface{}, len(validationErr.Fields))
		for k, v := range validationErr.Fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, validationErr.Message, details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	var provErr *providers.Error
	if errors.As(err, &provErr) {
		logger.Warn("provider request failed",
			zap.String("service", provErr.Service),
			zap.String("code", provErr.Code),
			zap.Int("status", provErr.HTTPStatus),
			zap.Error(err))

		body := utils.ErrorResponse{
			Error: provErr.Message,
			Code:  provErr.Code,
		}
		if provErr.Kind == providers.KindRateLimit {
			body.RetryAfter = provErr.RetryAfter
			w.Header().Set("Retry-After", strconv.Itoa(provErr.RetryAfter))
		}
		if err := utils.WriteJSON(w, provErr.HTTPStatus, body); err != nil {
			logger.Error("failed to write provider error response", zap.Error(err))
		}
		return
	}

	logger.Error("unhandled error type", zap.Error(err))
	if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
		logger.Error("failed to write internal error response", zap.Error(err))
	}
}

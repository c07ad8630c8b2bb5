package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/finbridge/market-data-gateway/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxErrorReportBytes bounds client error payloads.
const maxErrorReportBytes = 64 << 10

// ErrorReport is a client-submitted error payload. Fields beyond these are
// accepted and logged as-is.
type ErrorReport struct {
	Message   string          `json:"message"`
	Source    string          `json:"source"`
	Stack     string          `json:"stack"`
	URL       string          `json:"url"`
	UserAgent string          `json:"userAgent"`
	Context   json.RawMessage `json:"context"`
}

// ErrorsHandler accepts client error reports
type ErrorsHandler struct {
	logger *zap.Logger
}

// NewErrorsHandler creates a new ErrorsHandler
func NewErrorsHandler(logger *zap.Logger) *ErrorsHandler {
	return &ErrorsHandler{logger: logger}
}

// HandleReport handles POST /api/errors. Reports are logged and assigned an
// id so support can correlate a user complaint with the log line.
func (h *ErrorsHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxErrorReportBytes))
	if err != nil {
		_ = utils.WriteBadRequest(w, "unable to read request body", nil)
		return
	}

	var report ErrorReport
	if err := json.Unmarshal(body, &report); err != nil {
		_ = utils.WriteBadRequest(w, "request body must be JSON", nil)
		return
	}

	reportID := uuid.NewString()
	h.logger.Error("client error report",
		zap.String("report_id", reportID),
		zap.String("message", report.Message),
		zap.String("source", report.Source),
		zap.String("url", report.URL),
		zap.String("user_agent", report.UserAgent),
		zap.String("stack", report.Stack))

	_ = utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"reportId": reportID,
	})
}

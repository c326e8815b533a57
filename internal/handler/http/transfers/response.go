package transfers_http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonno85/tech-task/internal/domain"
)

const (
	outcomeSuccess = "SUCCESS"
	outcomeFailure = "FAILURE"
)

type BulkTransferData struct {
	BulkTransaction BulkTransferRequest `json:"bulkTransaction"`
}

type SuccessResponse struct {
	Outcome string `json:"outcome"`
	Data    any    `json:"data"`
}

type FailureResponse struct {
	Outcome   string           `json:"outcome"`
	ErrorCode domain.ErrorCode `json:"errorCode"`
	Reason    string           `json:"reason"`
	Context   map[string]any   `json:"context,omitempty"`
}

// ErrorResponse is the body for requests rejected before reaching the service.
type ErrorResponse struct {
	StatusCode int          `json:"statusCode,omitempty"`
	Error      string       `json:"error"`
	Message    string       `json:"message"`
	Fields     []FieldError `json:"fields,omitempty"`
}

type HealthResponse struct {
	ServiceName string `json:"service_name"`
	Health      string `json:"health"`
}

func newFailureResponse(f *domain.Failure) FailureResponse {
	return FailureResponse{
		Outcome:   outcomeFailure,
		ErrorCode: f.Code,
		Reason:    f.Reason,
		Context:   f.Context,
	}
}

// failureStatus maps a failed outcome to its HTTP status.
func failureStatus(code domain.ErrorCode) int {
	if code == domain.ErrorCodeInsufficientFund {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", zap.Int("status", status), zap.Error(err))
	}
}

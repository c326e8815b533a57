package transfers_http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonno85/tech-task/internal/app/transfers"
	"github.com/jonno85/tech-task/internal/domain"
)

const maxRequestBodyBytes = 5 << 20

type TransferHandler struct {
	service   transfers.TransferService
	validator *RequestValidator
	logger    *zap.Logger
}

func NewTransferHandler(s transfers.TransferService, v *RequestValidator, l *zap.Logger) *TransferHandler {
	return &TransferHandler{service: s, validator: v, logger: l}
}

func (h *TransferHandler) BulkTransferHandler(w http.ResponseWriter, r *http.Request) {
	var req BulkTransferRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for bulk transfer", zap.Error(err))
		writeJSON(w, h.logger, http.StatusBadRequest, ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	if err := h.validator.Validate(req); err != nil {
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			h.logger.Error("Failed to validate bulk transfer request", zap.Error(err))
			writeJSON(w, h.logger, http.StatusBadRequest, ErrorResponse{
				Error:   http.StatusText(http.StatusBadRequest),
				Message: err.Error(),
			})
			return
		}
		h.logger.Info("Bulk transfer request rejected", zap.Int("invalid_fields", len(validationErr.Fields)))
		writeJSON(w, h.logger, http.StatusBadRequest, ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: "Request validation failed",
			Fields:  validationErr.Fields,
		})
		return
	}

	echo, err := h.service.BulkTransactions(r.Context(), req.toDomain())
	if err != nil {
		failure, ok := domain.AsFailure(err)
		if !ok {
			h.logger.Error("Bulk transfer returned an unexpected error", zap.Error(err))
		}
		writeJSON(w, h.logger, failureStatus(failure.Code), newFailureResponse(failure))
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, SuccessResponse{
		Outcome: outcomeSuccess,
		Data:    BulkTransferData{BulkTransaction: bulkTransferFromDomain(*echo)},
	})
}

func HealthHandler(serviceName string, l *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, l, http.StatusOK, HealthResponse{ServiceName: serviceName, Health: "OK"})
	}
}

func NotFoundHandler(l *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, l, http.StatusNotFound, ErrorResponse{
			StatusCode: http.StatusNotFound,
			Error:      http.StatusText(http.StatusNotFound),
			Message:    http.StatusText(http.StatusNotFound),
		})
	}
}

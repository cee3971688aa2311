package handler

import (
	"encoding/json"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ubankhq/ubank/internal/adapter/http/dto"
	"github.com/ubankhq/ubank/internal/adapter/http/middleware"
	"github.com/ubankhq/ubank/internal/infrastructure/metrics"
	"github.com/ubankhq/ubank/internal/usecase"
)

// TransactionHandler exposes the funds-movement engines over HTTP.
type TransactionHandler struct {
	transferUC *usecase.TransferUseCase
	depositUC  *usecase.DepositUseCase
	metrics    *metrics.Metrics
}

// NewTransactionHandler creates a new TransactionHandler. m may be nil.
func NewTransactionHandler(transferUC *usecase.TransferUseCase, depositUC *usecase.DepositUseCase, m *metrics.Metrics) *TransactionHandler {
	return &TransactionHandler{
		transferUC: transferUC,
		depositUC:  depositUC,
		metrics:    m,
	}
}

// Transfer moves funds from the caller's account to a destination IBAN.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := req.ToInput(callerID, chimiddleware.GetReqID(r.Context()))

	result, err := h.transferUC.Transfer(r.Context(), input)
	if err != nil {
		if h.metrics != nil {
			h.metrics.TransferErrors.WithLabelValues(errorReason(err)).Inc()
		}

		writeError(w, mapDomainError(err), err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.TransfersSettled.Inc()
		amount, _ := input.Amount.Float64()
		h.metrics.TransferAmount.Observe(amount)
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{
		Success: result.Success,
		Message: result.Message,
	})
}

// Deposit credits the caller's account.
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := req.ToInput(callerID, chimiddleware.GetReqID(r.Context()))

	result, err := h.depositUC.Deposit(r.Context(), input)
	if err != nil {
		if h.metrics != nil {
			h.metrics.DepositErrors.WithLabelValues(errorReason(err)).Inc()
		}

		writeError(w, mapDomainError(err), err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.DepositsSettled.Inc()
		amount, _ := input.Amount.Float64()
		h.metrics.DepositAmount.Observe(amount)
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{
		Success: result.Success,
		Message: result.Message,
	})
}

package handler

import (
	"net/http"

	"github.com/ubankhq/ubank/internal/infrastructure/metrics"
	"github.com/ubankhq/ubank/internal/usecase"
)

// LedgerHandler exposes the ledger conservation audit.
type LedgerHandler struct {
	ledgerUC *usecase.LedgerUseCase
	metrics  *metrics.Metrics
}

// NewLedgerHandler creates a new LedgerHandler. m may be nil.
func NewLedgerHandler(ledgerUC *usecase.LedgerUseCase, m *metrics.Metrics) *LedgerHandler {
	return &LedgerHandler{
		ledgerUC: ledgerUC,
		metrics:  m,
	}
}

// Consistency reports whether all committed transfer entries sum to zero.
func (h *LedgerHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.ConsistencyChecks.Inc()
		if !result.Consistent {
			h.metrics.ConsistencyFailures.Inc()
		}
	}

	writeJSON(w, http.StatusOK, result)
}

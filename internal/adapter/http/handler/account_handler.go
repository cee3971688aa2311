package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ubankhq/ubank/internal/adapter/http/dto"
	"github.com/ubankhq/ubank/internal/adapter/http/middleware"
	"github.com/ubankhq/ubank/internal/domain"
	"github.com/ubankhq/ubank/internal/infrastructure/metrics"
	"github.com/ubankhq/ubank/internal/usecase"
)

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC *usecase.AccountUseCase
	metrics   *metrics.Metrics
}

// NewAccountHandler creates a new AccountHandler. m may be nil.
func NewAccountHandler(accountUC *usecase.AccountUseCase, m *metrics.Metrics) *AccountHandler {
	return &AccountHandler{
		accountUC: accountUC,
		metrics:   m,
	}
}

// List lists the caller's accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), callerID)
	if err != nil {
		writeError(w, mapDomainError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// Get retrieves one of the caller's accounts.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), callerID, id)
	if err != nil {
		writeError(w, mapDomainError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// ListTransactions lists ledger entries touching one of the caller's
// accounts, newest first.
func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID")
		return
	}

	txns, err := h.accountUC.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		CallerID:  callerID,
		AccountID: id,
		Limit:     parseIntQuery(r, "limit", 0),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}

// Block moves one of the caller's accounts from active to blocked.
func (h *AccountHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.accountUC.BlockAccount, domain.AccountStatusBlocked)
}

// Unblock moves one of the caller's accounts from blocked back to active.
func (h *AccountHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.accountUC.UnblockAccount, domain.AccountStatusActive)
}

func (h *AccountHandler) changeStatus(
	w http.ResponseWriter,
	r *http.Request,
	change func(ctx context.Context, callerID, accountID string) (*domain.Account, error),
	to domain.AccountStatus,
) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID")
		return
	}

	account, err := change(r.Context(), callerID, id)
	if err != nil {
		writeError(w, mapDomainError(err), err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.AccountStatusChanges.WithLabelValues(string(to)).Inc()
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

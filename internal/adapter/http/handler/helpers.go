package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ubankhq/ubank/internal/adapter/http/dto"
	"github.com/ubankhq/ubank/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a failed-request envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Success: false,
		Message: message,
	})
}

// mapDomainError maps domain errors to HTTP status codes. Business rule
// rejections are 422: the request was well-formed but cannot be processed.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidDescription),
		errors.Is(err, domain.ErrDepositBelowMinimum),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrAccountNotOperational),
		errors.Is(err, domain.ErrInvalidStatusChange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotAccountOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLockTimeout):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorReason folds a domain error into a low-cardinality metric label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInvalidDescription):
		return "invalid_description"
	case errors.Is(err, domain.ErrDepositBelowMinimum):
		return "below_minimum"
	case errors.Is(err, domain.ErrSameAccount):
		return "same_account"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, domain.ErrAccountNotOperational):
		return "not_operational"
	case errors.Is(err, domain.ErrNotAccountOwner):
		return "not_owner"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrLockTimeout):
		return "lock_timeout"
	default:
		return "internal"
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

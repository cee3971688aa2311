package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ubankhq/ubank/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{domain.ErrInvalidDescription, http.StatusUnprocessableEntity},
		{domain.ErrDepositBelowMinimum, http.StatusUnprocessableEntity},
		{domain.ErrSameAccount, http.StatusUnprocessableEntity},
		{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{domain.ErrCurrencyMismatch, http.StatusUnprocessableEntity},
		{domain.ErrAccountNotOperational, http.StatusUnprocessableEntity},
		{domain.ErrInvalidStatusChange, http.StatusUnprocessableEntity},
		{domain.ErrNotAccountOwner, http.StatusForbidden},
		{domain.ErrAccountNotFound, http.StatusNotFound},
		{domain.ErrTransactionNotFound, http.StatusNotFound},
		{domain.ErrLockTimeout, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := mapDomainError(tt.err); got != tt.want {
			t.Errorf("mapDomainError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&bad=abc", nil)

	if got := parseIntQuery(req, "limit", 10); got != 25 {
		t.Errorf("limit = %d, want 25", got)
	}
	if got := parseIntQuery(req, "bad", 10); got != 10 {
		t.Errorf("bad = %d, want default 10", got)
	}
	if got := parseIntQuery(req, "missing", 10); got != 10 {
		t.Errorf("missing = %d, want default 10", got)
	}
}

func TestErrorReason(t *testing.T) {
	if got := errorReason(domain.ErrInsufficientFunds); got != "insufficient_funds" {
		t.Errorf("reason = %q, want insufficient_funds", got)
	}
	if got := errorReason(errors.New("boom")); got != "internal" {
		t.Errorf("reason = %q, want internal", got)
	}
}

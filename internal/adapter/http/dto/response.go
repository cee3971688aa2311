package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ubankhq/ubank/internal/domain"
)

// MessageResponse is the envelope for money-movement outcomes.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse represents a failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID               string          `json:"id"`
	AccountType      string          `json:"account_type"`
	Number           string          `json:"number"`
	IBAN             string          `json:"iban"`
	Currency         string          `json:"currency"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	Status           string          `json:"status"`
	OpenedAt         *time.Time      `json:"opened_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:               a.ID,
		AccountType:      a.AccountType,
		Number:           a.Number,
		IBAN:             a.IBAN,
		Currency:         a.Currency,
		Balance:          a.Balance,
		AvailableBalance: a.AvailableBalance,
		Status:           string(a.Status),
		OpenedAt:         a.OpenedAt,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// TransactionResponse represents a ledger entry in API responses.
type TransactionResponse struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	FromAccountID   *string         `json:"from_account_id,omitempty"`
	ToAccountID     *string         `json:"to_account_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	FeeAmount       decimal.Decimal `json:"fee_amount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	Status          string          `json:"status"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"reference_number"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TransactionFromDomain converts a domain ledger entry to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:              t.ID,
		Type:            string(t.Type),
		FromAccountID:   t.FromAccountID,
		ToAccountID:     t.ToAccountID,
		Amount:          t.Amount,
		Currency:        t.Currency,
		FeeAmount:       t.FeeAmount,
		NetAmount:       t.NetAmount,
		Status:          string(t.Status),
		Description:     t.Description,
		ReferenceNumber: t.ReferenceNumber,
		ProcessedAt:     t.ProcessedAt,
		CreatedAt:       t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain ledger entries to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

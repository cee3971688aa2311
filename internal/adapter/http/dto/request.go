package dto

import (
	"github.com/shopspring/decimal"

	"github.com/ubankhq/ubank/internal/usecase"
)

// TransferRequest represents a request to move funds between accounts.
type TransferRequest struct {
	AccountID   string          `json:"account_id"`
	IBAN        string          `json:"iban"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// ToInput converts to engine input for the authenticated caller.
func (r *TransferRequest) ToInput(callerID, requestID string) usecase.TransferInput {
	return usecase.TransferInput{
		CallerID:        callerID,
		SourceAccountID: r.AccountID,
		DestinationIBAN: r.IBAN,
		Amount:          r.Amount,
		Description:     r.Description,
		RequestID:       requestID,
	}
}

// DepositRequest represents a request to credit an account.
type DepositRequest struct {
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// ToInput converts to engine input for the authenticated caller.
func (r *DepositRequest) ToInput(callerID, requestID string) usecase.DepositInput {
	return usecase.DepositInput{
		CallerID:  callerID,
		AccountID: r.AccountID,
		Amount:    r.Amount,
		RequestID: requestID,
	}
}

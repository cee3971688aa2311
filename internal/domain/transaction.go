package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger record.
type TransactionType string

const (
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus is the processing state of a ledger record.
// The synchronous engines only ever persist completed records; a failed
// operation leaves no record at all.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusCancelled  TransactionStatus = "cancelled"
)

// Transaction is one immutable ledger entry. It is created inside a committed
// money-movement operation and never updated or deleted afterward.
//
// Amount is signed relative to the record's subject account: negative for the
// debit-perspective row, positive for the credit-perspective row. A transfer
// produces exactly two rows whose amounts sum to zero; a deposit produces one.
type Transaction struct {
	ID              string
	Type            TransactionType
	FromAccountID   *string
	ToAccountID     *string
	Amount          decimal.Decimal
	Currency        string
	FeeAmount       decimal.Decimal
	NetAmount       decimal.Decimal
	Status          TransactionStatus
	Description     string
	ReferenceNumber string
	ProcessedAt     *time.Time
	CreatedAt       time.Time
}

// IsCompleted checks if the transaction has been completed.
func (t *Transaction) IsCompleted() bool {
	return t.Status == TransactionStatusCompleted
}

// IsDebit reports whether this entry debits its subject account.
func (t *Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// IsCredit reports whether this entry credits its subject account.
func (t *Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

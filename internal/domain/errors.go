package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound       = errors.New("account not found")
	ErrNotAccountOwner       = errors.New("caller does not own the account")
	ErrAccountNotOperational = errors.New("account is not operational")
	ErrInvalidStatusChange   = errors.New("invalid account status change")

	// Money movement errors
	ErrInvalidAmount       = errors.New("amount must be a positive value with at most two decimal places")
	ErrInvalidDescription  = errors.New("invalid description")
	ErrDepositBelowMinimum = errors.New("deposit amount is below the minimum")
	ErrSameAccount         = errors.New("cannot transfer to the same account")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrCurrencyMismatch    = errors.New("cross-currency transfers are not supported")

	// Ledger errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateReference  = errors.New("duplicate reference number")

	// Storage contention. ErrLockTimeout is retryable by the caller.
	ErrLockTimeout = errors.New("timed out waiting for account lock")
)

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusPending AccountStatus = "pending"
	AccountStatusActive  AccountStatus = "active"
	AccountStatusBlocked AccountStatus = "blocked"
	AccountStatusClosed  AccountStatus = "closed"
)

// IsValid checks if the status is a known account status.
func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusPending, AccountStatusActive, AccountStatusBlocked, AccountStatusClosed:
		return true
	}
	return false
}

// Account represents a customer account holding a balance.
//
// Balance and AvailableBalance are only ever mutated through the transfer
// and deposit engines; AvailableBalance normally equals Balance and diverges
// only when funds are held, which is outside the engines' scope.
type Account struct {
	ID               string
	UserID           string
	AccountType      string
	Number           string
	IBAN             string
	Currency         string
	Balance          decimal.Decimal
	AvailableBalance decimal.Decimal
	Status           AccountStatus
	OpenedAt         *time.Time
	ClosedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive checks if the account is active.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// IsBlocked checks if the account is blocked.
func (a *Account) IsBlocked() bool {
	return a.Status == AccountStatusBlocked
}

// IsClosed checks if the account is closed.
func (a *Account) IsClosed() bool {
	return a.Status == AccountStatusClosed
}

// IsOperational reports whether the account may take part in money movement.
// Only active accounts may source a transfer or receive funds.
func (a *Account) IsOperational() bool {
	return a.Status == AccountStatusActive
}

// OwnedBy checks if the account belongs to the given user.
func (a *Account) OwnedBy(userID string) bool {
	return a.UserID == userID
}

// CanDebit checks if the account holds at least amount.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// ApplyDebit returns the balance after debiting amount.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after crediting amount.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

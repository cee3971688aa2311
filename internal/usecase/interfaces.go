package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ubankhq/ubank/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIBAN(ctx context.Context, iban string) (*domain.Account, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Account, error)
	// GetByIDsForUpdate locks the given account rows exclusively, in
	// ascending ID order, waiting at most the store's configured lock
	// timeout. Exceeding the timeout yields domain.ErrLockTimeout.
	GetByIDsForUpdate(ctx context.Context, tx Tx, ids []string) ([]*domain.Account, error)
	UpdateBalances(ctx context.Context, tx Tx, id string, balance, availableBalance decimal.Decimal, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error
}

// TransactionRepository defines append-only access to the ledger.
// Ledger rows are immutable; there is no update or delete path.
type TransactionRepository interface {
	// Create appends a ledger entry. A reference-number collision surfaces
	// as domain.ErrDuplicateReference, which the retrier may retry.
	Create(ctx context.Context, tx Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	// SumTransferAmounts returns the signed sum over all completed transfer
	// entries; conservation of money keeps it at zero.
	SumTransferAmounts(ctx context.Context) (decimal.Decimal, error)
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Tx represents one atomic storage unit of work.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager handles unit-of-work lifecycle.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// IDGenerator generates unique entity IDs.
type IDGenerator interface {
	Generate() string
}

// ReferenceGenerator produces external reference identifiers for ledger
// entries. References must be collision-resistant without serializing
// unrelated operations on a shared counter; the ledger's uniqueness
// constraint is the authoritative collision check.
type ReferenceGenerator interface {
	NewReference(prefix string) string
}

// Retrier re-runs an operation on retryable storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

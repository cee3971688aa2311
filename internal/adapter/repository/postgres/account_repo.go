package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ubankhq/ubank/internal/domain"
	"github.com/ubankhq/ubank/internal/usecase"
)

const accountColumns = `
	id, user_id, account_type, number, iban, currency,
	balance, available_balance, status,
	opened_at, closed_at, created_at, updated_at
`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewAccountRepository creates a new AccountRepository. lockTimeout bounds
// the wait for FOR UPDATE row locks; past it the store returns
// domain.ErrLockTimeout instead of queueing indefinitely.
func NewAccountRepository(pool *pgxpool.Pool, lockTimeout time.Duration) *AccountRepository {
	return &AccountRepository{
		pool:        pool,
		lockTimeout: lockTimeout,
	}
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// GetByIBAN retrieves an account by IBAN.
func (r *AccountRepository) GetByIBAN(ctx context.Context, iban string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE iban = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, iban))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// ListByUser lists a user's accounts, oldest first.
func (r *AccountRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// GetByIDsForUpdate locks the account rows with FOR UPDATE inside tx and
// returns them. The ORDER BY makes concurrent callers acquire the locks in
// the same sequence regardless of transfer direction.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	if r.lockTimeout > 0 {
		// SET LOCAL scopes the timeout to this transaction only.
		setQuery := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := pgxTx.Exec(ctx, setQuery); err != nil {
			return nil, err
		}
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := pgxTx.Query(ctx, query, ids)
	if err != nil {
		return nil, translateLockError(err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, translateLockError(err)
	}

	return accounts, nil
}

// UpdateBalances writes both balance columns of an account inside tx.
func (r *AccountRepository) UpdateBalances(ctx context.Context, tx usecase.Tx, id string, balance, availableBalance decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `UPDATE accounts SET balance = $2, available_balance = $3, updated_at = $4 WHERE id = $1`

	tag, err := pgxTx.Exec(ctx, query,
		id,
		decimalToNumeric(balance),
		decimalToNumeric(availableBalance),
		timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// UpdateStatus writes an account's status outside any caller transaction.
func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error {
	query := `UPDATE accounts SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		balance   pgtype.Numeric
		available pgtype.Numeric
		openedAt  pgtype.Timestamptz
		closedAt  pgtype.Timestamptz
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.AccountType,
		&account.Number,
		&account.IBAN,
		&account.Currency,
		&balance,
		&available,
		&account.Status,
		&openedAt,
		&closedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Balance = numericToDecimal(balance)
	account.AvailableBalance = numericToDecimal(available)
	if openedAt.Valid {
		t := openedAt.Time
		account.OpenedAt = &t
	}
	if closedAt.Valid {
		t := closedAt.Time
		account.ClosedAt = &t
	}
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}

// translateLockError maps a lock wait expiry onto the domain error callers
// surface as a busy-accounts conflict.
func translateLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrLockNotAvailable {
		return domain.ErrLockTimeout
	}

	return err
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func timePtrToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return pgtype.Timestamptz{Time: *t, Valid: true}
}

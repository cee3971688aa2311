package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ubankhq/ubank/internal/domain"
	"github.com/ubankhq/ubank/internal/usecase"
)

const transactionColumns = `
	id, type, from_account_id, to_account_id,
	amount, currency, fee_amount, net_amount,
	status, description, reference_number, processed_at, created_at
`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a ledger entry inside tx. A reference collision surfaces as
// domain.ErrDuplicateReference so callers can retry with a fresh reference.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := pgxTx.Exec(ctx, query,
		txn.ID,
		string(txn.Type),
		txn.FromAccountID,
		txn.ToAccountID,
		decimalToNumeric(txn.Amount),
		txn.Currency,
		decimalToNumeric(txn.FeeAmount),
		decimalToNumeric(txn.NetAmount),
		string(txn.Status),
		txn.Description,
		txn.ReferenceNumber,
		timePtrToPgTimestamptz(txn.ProcessedAt),
		timeToPgTimestamptz(txn.CreatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrDuplicateReference
		}

		return err
	}

	return nil
}

// GetByID retrieves a ledger entry by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return txn, nil
}

// GetByReference retrieves a ledger entry by its reference number.
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference_number = $1`

	txn, err := scanTransaction(r.pool.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return txn, nil
}

// ListByAccount lists entries touching an account, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

// SumTransferAmounts returns the signed sum over all completed transfer
// entries. Zero means every transfer's two legs are present.
func (r *TransactionRepository) SumTransferAmounts(ctx context.Context) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE type = $1 AND status = $2
	`

	var sum pgtype.Numeric
	err := r.pool.QueryRow(ctx, query,
		string(domain.TransactionTypeTransfer),
		string(domain.TransactionStatusCompleted),
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn         domain.Transaction
		amount      pgtype.Numeric
		fee         pgtype.Numeric
		net         pgtype.Numeric
		processedAt pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&txn.ID,
		&txn.Type,
		&txn.FromAccountID,
		&txn.ToAccountID,
		&amount,
		&txn.Currency,
		&fee,
		&net,
		&txn.Status,
		&txn.Description,
		&txn.ReferenceNumber,
		&processedAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Amount = numericToDecimal(amount)
	txn.FeeAmount = numericToDecimal(fee)
	txn.NetAmount = numericToDecimal(net)
	if processedAt.Valid {
		t := processedAt.Time
		txn.ProcessedAt = &t
	}
	txn.CreatedAt = createdAt.Time

	return &txn, nil
}

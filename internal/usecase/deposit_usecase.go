package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ubankhq/ubank/internal/domain"
)

const depositDescription = "Account deposit"

// DepositUseCase credits a single account: one balance pair mutation plus one
// ledger entry, inside one atomic unit of work. Deposits clear immediately,
// so the available balance moves together with the balance.
type DepositUseCase struct {
	txManager   TxManager
	accountRepo AccountRepository
	ledgerRepo  TransactionRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	refGen      ReferenceGenerator
	retrier     Retrier
	logger      zerolog.Logger
}

// NewDepositUseCase creates a new DepositUseCase.
func NewDepositUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	ledgerRepo TransactionRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	refGen ReferenceGenerator,
	retrier Retrier,
	logger zerolog.Logger,
) *DepositUseCase {
	return &DepositUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		refGen:      refGen,
		retrier:     retrier,
		logger:      logger,
	}
}

// DepositInput carries already-authenticated, type-validated scalar inputs.
type DepositInput struct {
	CallerID  string
	AccountID string
	Amount    decimal.Decimal
	RequestID string
}

// DepositResult reports a settled deposit.
type DepositResult struct {
	Success bool
	Message string
	Entry   *domain.Transaction
}

// Deposit credits the target account atomically.
func (uc *DepositUseCase) Deposit(ctx context.Context, input DepositInput) (*DepositResult, error) {
	if err := domain.ValidateDepositAmount(input.Amount); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if !account.OwnedBy(input.CallerID) {
		uc.audit(ctx, input, domain.AuditStatusFailure, domain.ErrNotAccountOwner)
		return nil, domain.ErrNotAccountOwner
	}

	if !account.IsOperational() {
		uc.audit(ctx, input, domain.AuditStatusFailure, domain.ErrAccountNotOperational)
		return nil, domain.ErrAccountNotOperational
	}

	var entry *domain.Transaction

	err = uc.retrier.Retry(ctx, func() error {
		var execErr error
		entry, execErr = uc.execute(ctx, account.ID, input.Amount)
		return execErr
	})
	if err != nil {
		uc.audit(ctx, input, domain.AuditStatusFailure, err)
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Str("amount", input.Amount.StringFixed(2)).
		Str("reference", entry.ReferenceNumber).
		Msg("deposit completed")

	uc.audit(ctx, input, domain.AuditStatusSuccess, nil)

	return &DepositResult{
		Success: true,
		Message: "Deposit successful.",
		Entry:   entry,
	}, nil
}

func (uc *DepositUseCase) execute(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Transaction, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, []string{accountID})
	if err != nil {
		return nil, err
	}

	if len(accounts) != 1 {
		return nil, domain.ErrAccountNotFound
	}

	account := accounts[0]

	// The status gate runs under the same lock as the balance write so an
	// account blocked mid-operation cannot still receive the credit.
	if !account.IsOperational() {
		return nil, domain.ErrAccountNotOperational
	}

	now := time.Now().UTC()

	newBalance := account.ApplyCredit(amount)
	newAvailable := account.AvailableBalance.Add(amount)

	if err := uc.accountRepo.UpdateBalances(ctx, tx, account.ID, newBalance, newAvailable, now); err != nil {
		return nil, err
	}

	toID := account.ID
	entry := &domain.Transaction{
		ID:              uc.idGen.Generate(),
		Type:            domain.TransactionTypeDeposit,
		ToAccountID:     &toID,
		Amount:          amount,
		Currency:        account.Currency,
		FeeAmount:       decimal.Zero,
		NetAmount:       amount,
		Status:          domain.TransactionStatusCompleted,
		Description:     depositDescription,
		ReferenceNumber: uc.refGen.NewReference("DEP"),
		ProcessedAt:     &now,
		CreatedAt:       now,
	}

	if err := uc.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *DepositUseCase) audit(ctx context.Context, input DepositInput, status domain.AuditStatus, opErr error) {
	if uc.auditRepo == nil {
		return
	}

	log := &domain.AuditLog{
		UserID:       input.CallerID,
		Action:       string(domain.AuditActionDeposit),
		ResourceType: "account",
		ResourceID:   input.AccountID,
		RequestID:    input.RequestID,
		AfterState:   domain.MarshalState(map[string]string{"amount": input.Amount.StringFixed(2)}),
		Status:       string(status),
		CreatedAt:    time.Now().UTC(),
	}
	if opErr != nil {
		log.ErrorMessage = opErr.Error()
	}

	if err := uc.auditRepo.Create(ctx, log); err != nil {
		uc.logger.Warn().Err(err).Msg("failed to write audit log")
	}
}

package usecase

import (
	"context"
	"time"

	"github.com/ubankhq/ubank/internal/domain"
)

// AccountUseCase serves the account surface around the engines: listing,
// lookup and status management. Account provisioning is out of scope; rows
// come from migrations or operator tooling.
type AccountUseCase struct {
	accountRepo AccountRepository
	ledgerRepo  TransactionRepository
	auditRepo   AuditRepository
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, ledgerRepo TransactionRepository, auditRepo AuditRepository) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		auditRepo:   auditRepo,
	}
}

// ListAccounts lists the caller's accounts.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, callerID string) ([]*domain.Account, error) {
	return uc.accountRepo.ListByUser(ctx, callerID)
}

// GetAccount retrieves one account, hiding other users' accounts behind
// not-found rather than leaking their existence.
func (uc *AccountUseCase) GetAccount(ctx context.Context, callerID, accountID string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !account.OwnedBy(callerID) {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}

// ListTransactionsInput represents input for listing an account's ledger.
type ListTransactionsInput struct {
	CallerID  string
	AccountID string
	Limit     int
	Offset    int
}

// ListTransactions lists ledger entries touching the account, newest first.
func (uc *AccountUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	account, err := uc.GetAccount(ctx, input.CallerID, input.AccountID)
	if err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.ledgerRepo.ListByAccount(ctx, account.ID, limit, offset)
}

// BlockAccount moves an active account to blocked. A blocked account can no
// longer source transfers or receive deposits.
func (uc *AccountUseCase) BlockAccount(ctx context.Context, callerID, accountID string) (*domain.Account, error) {
	return uc.changeStatus(ctx, callerID, accountID, domain.AccountStatusActive, domain.AccountStatusBlocked, domain.AuditActionAccountBlock)
}

// UnblockAccount moves a blocked account back to active.
func (uc *AccountUseCase) UnblockAccount(ctx context.Context, callerID, accountID string) (*domain.Account, error) {
	return uc.changeStatus(ctx, callerID, accountID, domain.AccountStatusBlocked, domain.AccountStatusActive, domain.AuditActionAccountUnblock)
}

func (uc *AccountUseCase) changeStatus(
	ctx context.Context,
	callerID, accountID string,
	from, to domain.AccountStatus,
	action domain.AuditAction,
) (*domain.Account, error) {
	account, err := uc.GetAccount(ctx, callerID, accountID)
	if err != nil {
		return nil, err
	}

	if account.Status != from {
		return nil, domain.ErrInvalidStatusChange
	}

	now := time.Now().UTC()
	if err := uc.accountRepo.UpdateStatus(ctx, account.ID, to, now); err != nil {
		return nil, err
	}

	before := account.Status
	account.Status = to
	account.UpdatedAt = now

	if uc.auditRepo != nil {
		_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
			UserID:       callerID,
			Action:       string(action),
			ResourceType: "account",
			ResourceID:   account.ID,
			BeforeState:  domain.MarshalState(map[string]string{"status": string(before)}),
			AfterState:   domain.MarshalState(map[string]string{"status": string(to)}),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    now,
		})
	}

	return account, nil
}

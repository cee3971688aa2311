package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ubankhq/ubank/internal/domain"
)

// DefaultTransferDescription is stamped on transfers without a caller-supplied
// description.
const DefaultTransferDescription = "Funds Transfer"

// TransferUseCase moves money between two accounts as one atomic unit:
// validate, lock both rows, re-validate under lock, apply both balance
// deltas, append the two ledger entries, commit. Any failure discards
// every partial write.
type TransferUseCase struct {
	txManager   TxManager
	accountRepo AccountRepository
	ledgerRepo  TransactionRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	refGen      ReferenceGenerator
	retrier     Retrier
	logger      zerolog.Logger
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	ledgerRepo TransactionRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	refGen ReferenceGenerator,
	retrier Retrier,
	logger zerolog.Logger,
) *TransferUseCase {
	return &TransferUseCase{
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

// TransferInput carries already-authenticated, type-validated scalar inputs.
type TransferInput struct {
	CallerID        string
	SourceAccountID string
	DestinationIBAN string
	Amount          decimal.Decimal
	Description     string
	RequestID       string
}

// TransferResult reports a settled transfer.
type TransferResult struct {
	Success bool
	Message string
	// Debit is the sender-perspective ledger entry, Credit the
	// receiver-perspective one. Their amounts sum to zero.
	Debit  *domain.Transaction
	Credit *domain.Transaction
}

// Transfer executes a single money movement. Preconditions are checked in a
// fixed order against a plain read for fast feedback, then re-checked against
// the locked rows immediately before mutation; only the locked re-check is
// authoritative, because balances can change between the two reads.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidDescription, err)
	}

	source, err := uc.accountRepo.GetByID(ctx, input.SourceAccountID)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateIBAN(input.DestinationIBAN); err != nil {
		return nil, err
	}

	destination, err := uc.accountRepo.GetByIBAN(ctx, input.DestinationIBAN)
	if err != nil {
		return nil, err
	}

	if err := uc.validatePair(source, destination, input); err != nil {
		uc.audit(ctx, input, domain.AuditStatusFailure, err)
		return nil, err
	}

	description := input.Description
	if description == "" {
		description = DefaultTransferDescription
	}

	var debit, credit *domain.Transaction

	err = uc.retrier.Retry(ctx, func() error {
		var execErr error
		debit, credit, execErr = uc.execute(ctx, source.ID, destination.ID, input.Amount, description)
		return execErr
	})
	if err != nil {
		uc.audit(ctx, input, domain.AuditStatusFailure, err)
		return nil, err
	}

	uc.logger.Info().
		Str("source_account_id", source.ID).
		Str("destination_account_id", destination.ID).
		Str("amount", input.Amount.StringFixed(2)).
		Str("reference", debit.ReferenceNumber).
		Msg("transfer completed")

	uc.audit(ctx, input, domain.AuditStatusSuccess, nil)

	return &TransferResult{
		Success: true,
		Message: "Transfer completed successfully.",
		Debit:   debit,
		Credit:  credit,
	}, nil
}

// validatePair runs the ordered business checks against a fresh read pair.
// First failure wins; nothing has been written yet at this point.
func (uc *TransferUseCase) validatePair(source, destination *domain.Account, input TransferInput) error {
	if !source.OwnedBy(input.CallerID) {
		return domain.ErrNotAccountOwner
	}

	if source.ID == destination.ID {
		return domain.ErrSameAccount
	}

	if !source.CanDebit(input.Amount) {
		return domain.ErrInsufficientFunds
	}

	if source.Currency != destination.Currency {
		return domain.ErrCurrencyMismatch
	}

	if !source.IsOperational() || !destination.IsOperational() {
		return domain.ErrAccountNotOperational
	}

	return nil
}

// execute is the atomic unit of work. Both account rows are locked in
// ascending ID order to rule out lock-ordering deadlock between opposing
// transfers; the lock is held through both balance writes and both ledger
// appends, and released on commit or rollback.
func (uc *TransferUseCase) execute(
	ctx context.Context,
	sourceID, destinationID string,
	amount decimal.Decimal,
	description string,
) (*domain.Transaction, *domain.Transaction, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	ids := []string{sourceID, destinationID}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, nil, err
	}

	if len(accounts) != len(ids) {
		return nil, nil, domain.ErrAccountNotFound
	}

	var source, destination *domain.Account
	for _, a := range accounts {
		switch a.ID {
		case sourceID:
			source = a
		case destinationID:
			destination = a
		}
	}

	if source == nil || destination == nil {
		return nil, nil, domain.ErrAccountNotFound
	}

	// Authoritative re-validation against the locked rows.
	if !source.IsOperational() || !destination.IsOperational() {
		return nil, nil, domain.ErrAccountNotOperational
	}

	if !source.CanDebit(amount) {
		return nil, nil, domain.ErrInsufficientFunds
	}

	if source.Currency != destination.Currency {
		return nil, nil, domain.ErrCurrencyMismatch
	}

	now := time.Now().UTC()

	if err := uc.accountRepo.UpdateBalances(ctx, tx, source.ID, source.ApplyDebit(amount), source.AvailableBalance, now); err != nil {
		return nil, nil, err
	}

	if err := uc.accountRepo.UpdateBalances(ctx, tx, destination.ID, destination.ApplyCredit(amount), destination.AvailableBalance, now); err != nil {
		return nil, nil, err
	}

	debit := uc.newEntry(source, destination, amount.Neg(), source.Currency, description, now)
	if err := uc.ledgerRepo.Create(ctx, tx, debit); err != nil {
		return nil, nil, err
	}

	// The receiver-perspective entry snapshots the destination currency.
	// The cross-currency gate keeps the two currencies equal today.
	credit := uc.newEntry(source, destination, amount, destination.Currency, description, now)
	if err := uc.ledgerRepo.Create(ctx, tx, credit); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return debit, credit, nil
}

func (uc *TransferUseCase) newEntry(
	source, destination *domain.Account,
	amount decimal.Decimal,
	currency, description string,
	now time.Time,
) *domain.Transaction {
	fromID := source.ID
	toID := destination.ID

	return &domain.Transaction{
		ID:              uc.idGen.Generate(),
		Type:            domain.TransactionTypeTransfer,
		FromAccountID:   &fromID,
		ToAccountID:     &toID,
		Amount:          amount,
		Currency:        currency,
		FeeAmount:       decimal.Zero,
		NetAmount:       amount,
		Status:          domain.TransactionStatusCompleted,
		Description:     description,
		ReferenceNumber: uc.refGen.NewReference("TRN"),
		ProcessedAt:     &now,
		CreatedAt:       now,
	}
}

func (uc *TransferUseCase) audit(ctx context.Context, input TransferInput, status domain.AuditStatus, opErr error) {
	if uc.auditRepo == nil {
		return
	}

	log := &domain.AuditLog{
		UserID:       input.CallerID,
		Action:       string(domain.AuditActionTransfer),
		ResourceType: "account",
		ResourceID:   input.SourceAccountID,
		RequestID:    input.RequestID,
		AfterState: domain.MarshalState(map[string]string{
			"destination_iban": input.DestinationIBAN,
			"amount":           input.Amount.StringFixed(2),
		}),
		Status:    string(status),
		CreatedAt: time.Now().UTC(),
	}
	if opErr != nil {
		log.ErrorMessage = opErr.Error()
	}

	if err := uc.auditRepo.Create(ctx, log); err != nil {
		uc.logger.Warn().Err(err).Msg("failed to write audit log")
	}
}

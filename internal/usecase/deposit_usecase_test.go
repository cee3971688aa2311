package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ubankhq/ubank/internal/domain"
	"github.com/ubankhq/ubank/internal/usecase"
	"github.com/ubankhq/ubank/internal/usecase/mocks"
)

// newDepositUseCase builds the engine over the in-memory store. The audit
// parameter is the interface type, not the mock type, so a nil argument
// reaches the engine's nil guard rather than becoming a non-nil interface
// wrapping a nil pointer.
func newDepositUseCase(store *mocks.Store, audit usecase.AuditRepository) *usecase.DepositUseCase {
	gen := mocks.NewSequenceIDGenerator("dep")
	return usecase.NewDepositUseCase(store, store, store.LedgerRepo(), audit, gen, gen, &mocks.PassthroughRetrier{}, zerolog.Nop())
}

func TestDepositUseCase_Deposit(t *testing.T) {
	store := mocks.NewStore()
	store.Seed(activeAccount("acc-1", "user-1", "UA213223130000026007233566001", "UAH", "40.00"))
	audit := mocks.NewAuditRecorder()

	uc := newDepositUseCase(store, audit)

	result, err := uc.Deposit(context.Background(), usecase.DepositInput{
		CallerID:  "user-1",
		AccountID: "acc-1",
		Amount:    decimal.RequireFromString("60.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success || result.Message != "Deposit successful." {
		t.Errorf("unexpected result: %+v", result)
	}

	account := store.Account("acc-1")

	// Deposits clear immediately, so both balances move together.
	if got := account.Balance.StringFixed(2); got != "100.00" {
		t.Errorf("balance = %s, want 100.00", got)
	}
	if got := account.AvailableBalance.StringFixed(2); got != "100.00" {
		t.Errorf("available = %s, want 100.00", got)
	}

	entries := store.Ledger()
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Type != domain.TransactionTypeDeposit {
		t.Errorf("type = %s, want deposit", entry.Type)
	}
	if entry.FromAccountID != nil {
		t.Error("deposit entry must not carry a source account")
	}
	if entry.ToAccountID == nil || *entry.ToAccountID != "acc-1" {
		t.Error("deposit entry missing target account")
	}
	if got := entry.Amount.StringFixed(2); got != "60.00" {
		t.Errorf("amount = %s, want 60.00", got)
	}
	if entry.Description != "Account deposit" {
		t.Errorf("description = %q, want %q", entry.Description, "Account deposit")
	}
	if !strings.HasPrefix(entry.ReferenceNumber, "DEP") {
		t.Errorf("reference %q missing DEP prefix", entry.ReferenceNumber)
	}
	if entry.Status != domain.TransactionStatusCompleted {
		t.Errorf("status = %s, want completed", entry.Status)
	}

	logs, _ := audit.List(context.Background(), domain.AuditFilter{Action: string(domain.AuditActionDeposit)})
	if len(logs) != 1 || logs[0].Status != string(domain.AuditStatusSuccess) {
		t.Errorf("expected one success audit log, got %+v", logs)
	}
}

func TestDepositUseCase_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.AccountStatus
		input   usecase.DepositInput
		wantErr error
	}{
		{
			name:    "below minimum",
			status:  domain.AccountStatusActive,
			input:   usecase.DepositInput{CallerID: "user-1", AccountID: "acc-1", Amount: decimal.RequireFromString("0.99")},
			wantErr: domain.ErrDepositBelowMinimum,
		},
		{
			name:    "zero amount",
			status:  domain.AccountStatusActive,
			input:   usecase.DepositInput{CallerID: "user-1", AccountID: "acc-1", Amount: decimal.Zero},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "sub-cent precision",
			status:  domain.AccountStatusActive,
			input:   usecase.DepositInput{CallerID: "user-1", AccountID: "acc-1", Amount: decimal.RequireFromString("5.123")},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "unknown account",
			status:  domain.AccountStatusActive,
			input:   usecase.DepositInput{CallerID: "user-1", AccountID: "acc-9", Amount: decimal.RequireFromString("10.00")},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "caller does not own account",
			status:  domain.AccountStatusActive,
			input:   usecase.DepositInput{CallerID: "user-2", AccountID: "acc-1", Amount: decimal.RequireFromString("10.00")},
			wantErr: domain.ErrNotAccountOwner,
		},
		{
			name:    "blocked account",
			status:  domain.AccountStatusBlocked,
			input:   usecase.DepositInput{CallerID: "user-1", AccountID: "acc-1", Amount: decimal.RequireFromString("10.00")},
			wantErr: domain.ErrAccountNotOperational,
		},
		{
			name:    "pending account",
			status:  domain.AccountStatusPending,
			input:   usecase.DepositInput{CallerID: "user-1", AccountID: "acc-1", Amount: decimal.RequireFromString("10.00")},
			wantErr: domain.ErrAccountNotOperational,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			account := activeAccount("acc-1", "user-1", "UA213223130000026007233566001", "UAH", "40.00")
			account.Status = tt.status
			store.Seed(account)

			uc := newDepositUseCase(store, nil)

			_, err := uc.Deposit(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}

			if got := store.Account("acc-1").Balance.StringFixed(2); got != "40.00" {
				t.Errorf("balance moved to %s on rejected deposit", got)
			}
			if len(store.Ledger()) != 0 {
				t.Error("rejected deposit must not write ledger entries")
			}
		})
	}
}

// Exactly 1.00 is the smallest accepted deposit.
func TestDepositUseCase_MinimumBoundary(t *testing.T) {
	store := mocks.NewStore()
	store.Seed(activeAccount("acc-1", "user-1", "UA213223130000026007233566001", "UAH", "0.00"))

	uc := newDepositUseCase(store, nil)

	_, err := uc.Deposit(context.Background(), usecase.DepositInput{
		CallerID:  "user-1",
		AccountID: "acc-1",
		Amount:    decimal.RequireFromString("1.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.Account("acc-1").Balance.StringFixed(2); got != "1.00" {
		t.Errorf("balance = %s, want 1.00", got)
	}
}

// The audit trail is optional. Both the rejection path and the success path
// record an audit event, so both must tolerate running without a recorder.
func TestDepositUseCase_WithoutAuditRecorder(t *testing.T) {
	store := mocks.NewStore()
	store.Seed(activeAccount("acc-1", "user-1", "UA213223130000026007233566001", "UAH", "40.00"))

	uc := newDepositUseCase(store, nil)

	_, err := uc.Deposit(context.Background(), usecase.DepositInput{
		CallerID:  "user-2",
		AccountID: "acc-1",
		Amount:    decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, domain.ErrNotAccountOwner) {
		t.Fatalf("error = %v, want %v", err, domain.ErrNotAccountOwner)
	}

	result, err := uc.Deposit(context.Background(), usecase.DepositInput{
		CallerID:  "user-1",
		AccountID: "acc-1",
		Amount:    decimal.RequireFromString("10.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Entry.Status != domain.TransactionStatusCompleted {
		t.Errorf("status = %s, want %s", result.Entry.Status, domain.TransactionStatusCompleted)
	}
	if got := store.Account("acc-1").Balance.StringFixed(2); got != "50.00" {
		t.Errorf("balance = %s, want 50.00", got)
	}
}

func TestDepositUseCase_AtomicRollback(t *testing.T) {
	store := mocks.NewStore()
	store.Seed(activeAccount("acc-1", "user-1", "UA213223130000026007233566001", "UAH", "40.00"))
	audit := mocks.NewAuditRecorder()

	boom := errors.New("entry write failed")
	store.CreateEntryFunc = func(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error {
		return boom
	}

	uc := newDepositUseCase(store, audit)

	_, err := uc.Deposit(context.Background(), usecase.DepositInput{
		CallerID:  "user-1",
		AccountID: "acc-1",
		Amount:    decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}

	if got := store.Account("acc-1").Balance.StringFixed(2); got != "40.00" {
		t.Errorf("balance = %s, want 40.00 after rollback", got)
	}
	if got := store.Account("acc-1").AvailableBalance.StringFixed(2); got != "40.00" {
		t.Errorf("available = %s, want 40.00 after rollback", got)
	}

	logs, _ := audit.List(context.Background(), domain.AuditFilter{})
	if len(logs) != 1 || logs[0].Status != string(domain.AuditStatusFailure) {
		t.Errorf("expected one failure audit log, got %+v", logs)
	}
}

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ubankhq/ubank/internal/domain"
	"github.com/ubankhq/ubank/internal/usecase"
	"github.com/ubankhq/ubank/internal/usecase/mocks"
)

func activeAccount(id, userID, iban, currency, balance string) *domain.Account {
	return &domain.Account{
		ID:               id,
		UserID:           userID,
		IBAN:             iban,
		Currency:         currency,
		Balance:          decimal.RequireFromString(balance),
		AvailableBalance: decimal.RequireFromString(balance),
		Status:           domain.AccountStatusActive,
	}
}

type transferFixture struct {
	store   *mocks.Store
	audit   *mocks.AuditRecorder
	retrier *mocks.PassthroughRetrier
	uc      *usecase.TransferUseCase
}

func newTransferFixture(accounts ...*domain.Account) *transferFixture {
	store := mocks.NewStore()
	for _, a := range accounts {
		store.Seed(a)
	}

	audit := mocks.NewAuditRecorder()
	gen := mocks.NewSequenceIDGenerator("txn")

	f := &transferFixture{
		store:   store,
		audit:   audit,
		retrier: &mocks.PassthroughRetrier{},
	}
	f.uc = usecase.NewTransferUseCase(store, store, store.LedgerRepo(), audit, gen, gen, f.retrier, zerolog.Nop())

	return f
}

func TestTransferUseCase_Transfer(t *testing.T) {
	f := newTransferFixture(
		activeAccount("acc-1", "user-1", "UA903052992990004149123456789", "UAH", "500.00"),
		activeAccount("acc-2", "user-2", "UA903052992990004149987654321", "UAH", "100.00"),
	)

	result, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-1",
		DestinationIBAN: "UA903052992990004149987654321",
		Amount:          decimal.RequireFromString("150.00"),
		Description:     "rent",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Error("expected success result")
	}
	if result.Message != "Transfer completed successfully." {
		t.Errorf("unexpected message: %q", result.Message)
	}

	source := f.store.Account("acc-1")
	destination := f.store.Account("acc-2")

	if got := source.Balance.StringFixed(2); got != "350.00" {
		t.Errorf("source balance = %s, want 350.00", got)
	}
	// Transfers settle against the posted balance only; the available
	// balance is released by a separate settlement process.
	if got := source.AvailableBalance.StringFixed(2); got != "500.00" {
		t.Errorf("source available = %s, want 500.00", got)
	}
	if got := destination.Balance.StringFixed(2); got != "250.00" {
		t.Errorf("destination balance = %s, want 250.00", got)
	}
	if got := destination.AvailableBalance.StringFixed(2); got != "100.00" {
		t.Errorf("destination available = %s, want 100.00", got)
	}

	entries := f.store.Ledger()
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}

	debit, credit := entries[0], entries[1]
	if !debit.Amount.Add(credit.Amount).IsZero() {
		t.Errorf("entry amounts do not sum to zero: %s + %s", debit.Amount, credit.Amount)
	}
	if got := debit.Amount.StringFixed(2); got != "-150.00" {
		t.Errorf("debit amount = %s, want -150.00", got)
	}
	if !debit.IsDebit() {
		t.Error("first entry must be the debit leg")
	}
	if !credit.IsCredit() {
		t.Error("second entry must be the credit leg")
	}
	if debit.ReferenceNumber == credit.ReferenceNumber {
		t.Error("debit and credit must carry distinct references")
	}

	for _, e := range entries {
		if e.Type != domain.TransactionTypeTransfer {
			t.Errorf("entry type = %s, want transfer", e.Type)
		}
		if e.Status != domain.TransactionStatusCompleted {
			t.Errorf("entry status = %s, want completed", e.Status)
		}
		if !e.FeeAmount.IsZero() {
			t.Errorf("fee = %s, want 0", e.FeeAmount)
		}
		if !e.NetAmount.Equal(e.Amount) {
			t.Errorf("net = %s, want %s", e.NetAmount, e.Amount)
		}
		if e.Description != "rent" {
			t.Errorf("description = %q, want rent", e.Description)
		}
		if e.FromAccountID == nil || *e.FromAccountID != "acc-1" {
			t.Error("entry missing source account id")
		}
		if e.ToAccountID == nil || *e.ToAccountID != "acc-2" {
			t.Error("entry missing destination account id")
		}
		if e.ProcessedAt == nil {
			t.Error("entry missing processed timestamp")
		}
	}

	logs, _ := f.audit.List(context.Background(), domain.AuditFilter{Action: string(domain.AuditActionTransfer)})
	if len(logs) != 1 || logs[0].Status != string(domain.AuditStatusSuccess) {
		t.Errorf("expected one success audit log, got %+v", logs)
	}
}

func TestTransferUseCase_DefaultDescription(t *testing.T) {
	f := newTransferFixture(
		activeAccount("acc-1", "user-1", "UA113052990000026007233566001", "UAH", "100.00"),
		activeAccount("acc-2", "user-2", "UA113052990000026007233566002", "UAH", "0.00"),
	)

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-1",
		DestinationIBAN: "UA113052990000026007233566002",
		Amount:          decimal.RequireFromString("10.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, e := range f.store.Ledger() {
		if e.Description != usecase.DefaultTransferDescription {
			t.Errorf("description = %q, want %q", e.Description, usecase.DefaultTransferDescription)
		}
	}
}

func TestTransferUseCase_Preconditions(t *testing.T) {
	const (
		sourceIBAN = "DE89370400440532013000"
		destIBAN   = "DE89370400440532013999"
	)

	base := func() []*domain.Account {
		return []*domain.Account{
			activeAccount("acc-1", "user-1", sourceIBAN, "EUR", "200.00"),
			activeAccount("acc-2", "user-2", destIBAN, "EUR", "50.00"),
		}
	}

	tests := []struct {
		name    string
		mutate  func([]*domain.Account)
		input   usecase.TransferInput
		wantErr error
	}{
		{
			name:    "zero amount",
			input:   usecase.TransferInput{CallerID: "user-1", SourceAccountID: "acc-1", DestinationIBAN: destIBAN, Amount: decimal.Zero},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			input:   usecase.TransferInput{CallerID: "user-1", SourceAccountID: "acc-1", DestinationIBAN: destIBAN, Amount: decimal.RequireFromString("-5.00")},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "sub-cent precision",
			input:   usecase.TransferInput{CallerID: "user-1", SourceAccountID: "acc-1", DestinationIBAN: destIBAN, Amount: decimal.RequireFromString("10.005")},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "unknown source account",
			input:   usecase.TransferInput{CallerID: "user-1", SourceAccountID: "acc-9", DestinationIBAN: destIBAN, Amount: decimal.RequireFromString("10.00")},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "malformed destination iban",
			input:   usecase.TransferInput{CallerID: "user-1", SourceAccountID: "acc-1", DestinationIBAN: "not-an-iban", Amount: decimal.RequireFromString("10.00")},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "unknown destination iban",
			input:   usecase.TransferInput{CallerID: "user-1", SourceAccountID: "acc-1", DestinationIBAN: "DE89370400440532010000", Amount: decimal.RequireFromString("10.00")},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			// Ownership is checked before everything else about the pair;
			// an insufficient balance must not leak to a non-owner.
			name:    "caller does not own source",
			input:   usecase.TransferInput{CallerID: "user-2", SourceAccountID: "acc-1", DestinationIBAN: destIBAN, Amount: decimal.RequireFromString("99999.00")},
			wantErr: domain.ErrNotAccountOwner,
		},
		{
			name:    "self transfer",
			input:   usecase.TransferInput{CallerID: "user-1", SourceAccountID: "acc-1", DestinationIBAN: sourceIBAN, Amount: decimal.RequireFromString("10.00")},
			wantErr: domain.ErrSameAccount,
		},
		{
			name:    "insufficient funds",
			input:   usecase.TransferInput{CallerID: "user-1", SourceAccountID: "acc-1", DestinationIBAN: destIBAN, Amount: decimal.RequireFromString("200.01")},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name: "currency mismatch",
			mutate: func(accounts []*domain.Account) {
				accounts[1].Currency = "USD"
			},
			input:   usecase.TransferInput{CallerID: "user-1", SourceAccountID: "acc-1", DestinationIBAN: destIBAN, Amount: decimal.RequireFromString("10.00")},
			wantErr: domain.ErrCurrencyMismatch,
		},
		{
			// Insufficient funds is reported before the currency check, so
			// a broken pair with both problems surfaces the funds error.
			name: "insufficient funds beats currency mismatch",
			mutate: func(accounts []*domain.Account) {
				accounts[1].Currency = "USD"
			},
			input:   usecase.TransferInput{CallerID: "user-1", SourceAccountID: "acc-1", DestinationIBAN: destIBAN, Amount: decimal.RequireFromString("500.00")},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name: "blocked source",
			mutate: func(accounts []*domain.Account) {
				accounts[0].Status = domain.AccountStatusBlocked
			},
			input:   usecase.TransferInput{CallerID: "user-1", SourceAccountID: "acc-1", DestinationIBAN: destIBAN, Amount: decimal.RequireFromString("10.00")},
			wantErr: domain.ErrAccountNotOperational,
		},
		{
			name: "closed destination",
			mutate: func(accounts []*domain.Account) {
				accounts[1].Status = domain.AccountStatusClosed
			},
			input:   usecase.TransferInput{CallerID: "user-1", SourceAccountID: "acc-1", DestinationIBAN: destIBAN, Amount: decimal.RequireFromString("10.00")},
			wantErr: domain.ErrAccountNotOperational,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := base()
			if tt.mutate != nil {
				tt.mutate(accounts)
			}

			f := newTransferFixture(accounts...)

			_, err := f.uc.Transfer(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}

			if len(f.store.Ledger()) != 0 {
				t.Error("rejected transfer must not write ledger entries")
			}
			if got := f.store.Account("acc-1").Balance.StringFixed(2); got != "200.00" {
				t.Errorf("source balance moved to %s on rejected transfer", got)
			}
		})
	}
}

func TestTransferUseCase_DescriptionTooLong(t *testing.T) {
	f := newTransferFixture(
		activeAccount("acc-1", "user-1", "GB29NWBK60161331926819", "GBP", "100.00"),
		activeAccount("acc-2", "user-2", "GB29NWBK60161331926820", "GBP", "0.00"),
	)

	long := make([]byte, domain.MaxDescriptionLength+1)
	for i := range long {
		long[i] = 'x'
	}

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-1",
		DestinationIBAN: "GB29NWBK60161331926820",
		Amount:          decimal.RequireFromString("10.00"),
		Description:     string(long),
	})
	if !errors.Is(err, domain.ErrInvalidDescription) {
		t.Errorf("error = %v, want %v", err, domain.ErrInvalidDescription)
	}
}

// The pre-lock read is advisory only. When it overstates the balance, the
// re-check against the locked row must still reject the transfer.
func TestTransferUseCase_LockedRecheckWins(t *testing.T) {
	f := newTransferFixture(
		activeAccount("acc-1", "user-1", "NL91ABNA0417164300", "EUR", "50.00"),
		activeAccount("acc-2", "user-2", "NL91ABNA0417164301", "EUR", "0.00"),
	)

	f.store.GetByIDFunc = func(ctx context.Context, id string) (*domain.Account, error) {
		stale := activeAccount("acc-1", "user-1", "NL91ABNA0417164300", "EUR", "1000.00")
		return stale, nil
	}

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-1",
		DestinationIBAN: "NL91ABNA0417164301",
		Amount:          decimal.RequireFromString("500.00"),
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("error = %v, want %v", err, domain.ErrInsufficientFunds)
	}

	if got := f.store.Account("acc-1").Balance.StringFixed(2); got != "50.00" {
		t.Errorf("source balance = %s, want 50.00", got)
	}
	if len(f.store.Ledger()) != 0 {
		t.Error("rejected transfer must not write ledger entries")
	}
}

// A failure after the first ledger append must discard the staged balance
// writes and the already-staged entry.
func TestTransferUseCase_AtomicRollback(t *testing.T) {
	f := newTransferFixture(
		activeAccount("acc-1", "user-1", "FR1420041010050500013M02606", "EUR", "300.00"),
		activeAccount("acc-2", "user-2", "FR1420041010050500013M02607", "EUR", "10.00"),
	)

	boom := errors.New("entry write failed")
	calls := 0
	f.store.CreateEntryFunc = func(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	}

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-1",
		DestinationIBAN: "FR1420041010050500013M02607",
		Amount:          decimal.RequireFromString("100.00"),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}

	if got := f.store.Account("acc-1").Balance.StringFixed(2); got != "300.00" {
		t.Errorf("source balance = %s, want 300.00 after rollback", got)
	}
	if got := f.store.Account("acc-2").Balance.StringFixed(2); got != "10.00" {
		t.Errorf("destination balance = %s, want 10.00 after rollback", got)
	}
	if len(f.store.Ledger()) != 0 {
		t.Errorf("expected empty ledger after rollback, got %d entries", len(f.store.Ledger()))
	}

	logs, _ := f.audit.List(context.Background(), domain.AuditFilter{})
	if len(logs) != 1 || logs[0].Status != string(domain.AuditStatusFailure) {
		t.Errorf("expected one failure audit log, got %+v", logs)
	}
}

// Five concurrent transfers of 100.00 race over a 400.00 balance. Exactly
// four settle and one fails on funds; money is conserved throughout.
func TestTransferUseCase_NoDoubleSpend(t *testing.T) {
	f := newTransferFixture(
		activeAccount("acc-1", "user-1", "ES9121000418450200051332001", "EUR", "400.00"),
		activeAccount("acc-2", "user-2", "ES9121000418450200051332002", "EUR", "0.00"),
	)

	const workers = 5
	amount := decimal.RequireFromString("100.00")

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Transfer(context.Background(), usecase.TransferInput{
				CallerID:        "user-1",
				SourceAccountID: "acc-1",
				DestinationIBAN: "ES9121000418450200051332002",
				Amount:          amount,
			})
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientFunds):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if ok != 4 || insufficient != 1 {
		t.Errorf("got %d successes and %d funds rejections, want 4 and 1", ok, insufficient)
	}

	if got := f.store.Account("acc-1").Balance.StringFixed(2); got != "0.00" {
		t.Errorf("source balance = %s, want 0.00", got)
	}
	if got := f.store.Account("acc-2").Balance.StringFixed(2); got != "400.00" {
		t.Errorf("destination balance = %s, want 400.00", got)
	}

	entries := f.store.Ledger()
	if len(entries) != 8 {
		t.Fatalf("expected 8 ledger entries, got %d", len(entries))
	}

	sum := decimal.Zero
	refs := make(map[string]bool, len(entries))
	for _, e := range entries {
		sum = sum.Add(e.Amount)
		if refs[e.ReferenceNumber] {
			t.Errorf("duplicate reference %s", e.ReferenceNumber)
		}
		refs[e.ReferenceNumber] = true
	}
	if !sum.IsZero() {
		t.Errorf("ledger sum = %s, want 0", sum)
	}
}

// queueRefGen pops pre-seeded references, falling back to a sequence once
// the queue drains.
type queueRefGen struct {
	mu   sync.Mutex
	refs []string
	next int
	seq  int
}

func (g *queueRefGen) NewReference(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.next < len(g.refs) {
		ref := g.refs[g.next]
		g.next++
		return ref
	}

	g.seq++
	return prefix + "-fresh-" + string(rune('a'+g.seq))
}

// A reference colliding with a committed entry fails the unit of work, and
// the retrier re-runs it with fresh references.
func TestTransferUseCase_RetriesDuplicateReference(t *testing.T) {
	store := mocks.NewStore()
	store.Seed(activeAccount("acc-1", "user-1", "IT60X0542811101000000123456", "EUR", "100.00"))
	store.Seed(activeAccount("acc-2", "user-2", "IT60X0542811101000000123457", "EUR", "0.00"))

	// Commit an entry owning the colliding reference.
	ctx := context.Background()
	tx, _ := store.Begin(ctx)
	from := "acc-1"
	seedErr := store.LedgerRepo().Create(ctx, tx, &domain.Transaction{
		ID:              "seed-1",
		Type:            domain.TransactionTypeTransfer,
		FromAccountID:   &from,
		Amount:          decimal.RequireFromString("-1.00"),
		ReferenceNumber: "TRN-taken",
	})
	if seedErr != nil {
		t.Fatalf("seed entry: %v", seedErr)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("seed commit: %v", err)
	}

	retrier := &mocks.CountingRetrier{Attempts: 3}
	idGen := mocks.NewSequenceIDGenerator("txn")
	refGen := &queueRefGen{refs: []string{"TRN-taken"}}

	uc := usecase.NewTransferUseCase(store, store, store.LedgerRepo(), nil, idGen, refGen, retrier, zerolog.Nop())

	result, err := uc.Transfer(ctx, usecase.TransferInput{
		CallerID:        "user-1",
		SourceAccountID: "acc-1",
		DestinationIBAN: "IT60X0542811101000000123457",
		Amount:          decimal.RequireFromString("25.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if retrier.Calls != 2 {
		t.Errorf("retrier ran %d attempts, want 2", retrier.Calls)
	}
	if result.Debit.ReferenceNumber == "TRN-taken" {
		t.Error("settled transfer must not reuse the colliding reference")
	}

	// Seed entry plus the retried pair.
	if got := len(store.Ledger()); got != 3 {
		t.Errorf("expected 3 ledger entries, got %d", got)
	}
}

// Package mocks provides hand-written in-memory fakes for the usecase ports.
//
// Store is deliberately lock-faithful: GetByIDsForUpdate takes real
// per-account mutexes in ascending ID order and holds them until the unit of
// work commits or rolls back, and writes stay staged until commit. That lets
// the concurrency and atomicity tests exercise the engines' locking contract
// without a database.
package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ubankhq/ubank/internal/domain"
	"github.com/ubankhq/ubank/internal/usecase"
)

// Store is an in-memory account and ledger store implementing
// usecase.TxManager, usecase.AccountRepository and
// usecase.TransactionRepository.
type Store struct {
	mu           sync.Mutex
	accounts     map[string]*domain.Account
	ledger       []*domain.Transaction
	accountLocks map[string]*sync.Mutex

	// Error injection hooks.
	GetByIDFunc        func(ctx context.Context, id string) (*domain.Account, error)
	GetByIBANFunc      func(ctx context.Context, iban string) (*domain.Account, error)
	UpdateBalancesFunc func(ctx context.Context, tx usecase.Tx, id string, balance, available decimal.Decimal, updatedAt time.Time) error
	CreateEntryFunc    func(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error
	BeginFunc          func(ctx context.Context) (usecase.Tx, error)
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		accountLocks: make(map[string]*sync.Mutex),
	}
}

// Seed inserts an account into committed state.
func (s *Store) Seed(account *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *account
	s.accounts[account.ID] = &cp
	if _, ok := s.accountLocks[account.ID]; !ok {
		s.accountLocks[account.ID] = &sync.Mutex{}
	}
}

// Account returns a copy of the committed account state.
func (s *Store) Account(id string) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[id]; ok {
		cp := *a
		return &cp
	}

	return nil
}

// Ledger returns a copy of all committed ledger entries in append order.
func (s *Store) Ledger() []*domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Transaction, len(s.ledger))
	for i, e := range s.ledger {
		cp := *e
		out[i] = &cp
	}

	return out
}

// storeTx stages writes until Commit and owns the per-account locks taken by
// GetByIDsForUpdate.
type storeTx struct {
	store    *Store
	locked   []string
	balances map[string]stagedBalance
	entries  []*domain.Transaction
	done     bool
	mu       sync.Mutex
}

type stagedBalance struct {
	balance   decimal.Decimal
	available decimal.Decimal
	updatedAt time.Time
}

// Begin starts a staged unit of work.
func (s *Store) Begin(ctx context.Context) (usecase.Tx, error) {
	if s.BeginFunc != nil {
		return s.BeginFunc(ctx)
	}

	return &storeTx{
		store:    s,
		balances: make(map[string]stagedBalance),
	}, nil
}

// Commit applies staged writes and releases the account locks.
func (t *storeTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return fmt.Errorf("commit on finished tx")
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	for id, staged := range t.balances {
		if a, ok := s.accounts[id]; ok {
			a.Balance = staged.balance
			a.AvailableBalance = staged.available
			a.UpdatedAt = staged.updatedAt
		}
	}
	s.ledger = append(s.ledger, t.entries...)
	s.mu.Unlock()

	t.unlock()

	return nil
}

// Rollback discards staged writes. It is a no-op after Commit, matching the
// engines' defer-rollback pattern.
func (t *storeTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}
	t.done = true

	t.balances = nil
	t.entries = nil
	t.unlock()

	return nil
}

func (t *storeTx) unlock() {
	// Release in reverse acquisition order.
	for i := len(t.locked) - 1; i >= 0; i-- {
		t.store.lockFor(t.locked[i]).Unlock()
	}
	t.locked = nil
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accountLocks[id]; !ok {
		s.accountLocks[id] = &sync.Mutex{}
	}

	return s.accountLocks[id]
}

// GetByID returns committed account state.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if s.GetByIDFunc != nil {
		return s.GetByIDFunc(ctx, id)
	}

	if a := s.Account(id); a != nil {
		return a, nil
	}

	return nil, domain.ErrAccountNotFound
}

// GetByIBAN returns committed account state by IBAN.
func (s *Store) GetByIBAN(ctx context.Context, iban string) (*domain.Account, error) {
	if s.GetByIBANFunc != nil {
		return s.GetByIBANFunc(ctx, iban)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.IBAN == iban {
			cp := *a
			return &cp, nil
		}
	}

	return nil, domain.ErrAccountNotFound
}

// ListByUser returns the user's accounts.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// GetByIDsForUpdate locks each existing account in ascending ID order and
// returns the locked rows' committed state.
func (s *Store) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	t, ok := tx.(*storeTx)
	if !ok {
		return nil, fmt.Errorf("unexpected tx type %T", tx)
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	var out []*domain.Account
	for _, id := range sorted {
		if s.Account(id) == nil {
			continue
		}

		s.lockFor(id).Lock()
		t.mu.Lock()
		t.locked = append(t.locked, id)
		t.mu.Unlock()

		out = append(out, s.Account(id))
	}

	return out, nil
}

// UpdateBalances stages a balance pair write.
func (s *Store) UpdateBalances(ctx context.Context, tx usecase.Tx, id string, balance, available decimal.Decimal, updatedAt time.Time) error {
	if s.UpdateBalancesFunc != nil {
		return s.UpdateBalancesFunc(ctx, tx, id, balance, available, updatedAt)
	}

	t, ok := tx.(*storeTx)
	if !ok {
		return fmt.Errorf("unexpected tx type %T", tx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[id] = stagedBalance{balance: balance, available: available, updatedAt: updatedAt}

	return nil
}

// UpdateStatus writes an account status directly to committed state.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	a.Status = status
	a.UpdatedAt = updatedAt

	return nil
}

// LedgerStore is the ledger-facing view of a Store, implementing
// usecase.TransactionRepository over the same staged state.
type LedgerStore struct {
	s *Store
}

// LedgerRepo returns the store's ledger view.
func (s *Store) LedgerRepo() *LedgerStore {
	return &LedgerStore{s: s}
}

// Create stages a ledger entry, rejecting duplicate references the way the
// real store's uniqueness constraint would.
func (l *LedgerStore) Create(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error {
	s := l.s
	if s.CreateEntryFunc != nil {
		return s.CreateEntryFunc(ctx, tx, txn)
	}

	t, ok := tx.(*storeTx)
	if !ok {
		return fmt.Errorf("unexpected tx type %T", tx)
	}

	s.mu.Lock()
	for _, e := range s.ledger {
		if e.ReferenceNumber == txn.ReferenceNumber {
			s.mu.Unlock()
			return domain.ErrDuplicateReference
		}
	}
	s.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.entries {
		if e.ReferenceNumber == txn.ReferenceNumber {
			return domain.ErrDuplicateReference
		}
	}

	cp := *txn
	t.entries = append(t.entries, &cp)

	return nil
}

// GetByID returns a committed ledger entry.
func (l *LedgerStore) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.ledger {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}

	return nil, domain.ErrTransactionNotFound
}

// GetByReference returns a committed ledger entry by reference number.
func (l *LedgerStore) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.ledger {
		if e.ReferenceNumber == reference {
			cp := *e
			return &cp, nil
		}
	}

	return nil, domain.ErrTransactionNotFound
}

// ListByAccount returns entries touching the account, newest first.
func (l *LedgerStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.Transaction
	for i := len(s.ledger) - 1; i >= 0; i-- {
		e := s.ledger[i]
		if (e.FromAccountID != nil && *e.FromAccountID == accountID) ||
			(e.ToAccountID != nil && *e.ToAccountID == accountID) {
			cp := *e
			matched = append(matched, &cp)
		}
	}

	if offset >= len(matched) {
		return nil, nil
	}

	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, nil
}

// SumTransferAmounts sums completed transfer entry amounts.
func (l *LedgerStore) SumTransferAmounts(ctx context.Context) (decimal.Decimal, error) {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := decimal.Zero
	for _, e := range s.ledger {
		if e.Type == domain.TransactionTypeTransfer && e.IsCompleted() {
			sum = sum.Add(e.Amount)
		}
	}

	return sum, nil
}

// SequenceIDGenerator generates deterministic sequential IDs.
type SequenceIDGenerator struct {
	prefix string
	n      atomic.Int64
}

// NewSequenceIDGenerator creates a generator producing prefix-1, prefix-2, ...
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next sequential ID.
func (g *SequenceIDGenerator) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}

// NewReference returns prefix + the next sequential suffix.
func (g *SequenceIDGenerator) NewReference(prefix string) string {
	return fmt.Sprintf("%s%08d", prefix, g.n.Add(1))
}

// FixedReferenceGenerator always returns the same reference, for forcing
// duplicate-reference collisions.
type FixedReferenceGenerator struct {
	Reference string
}

// NewReference returns the fixed reference regardless of prefix.
func (g *FixedReferenceGenerator) NewReference(prefix string) string {
	return g.Reference
}

// PassthroughRetrier runs the operation exactly once.
type PassthroughRetrier struct{}

// Retry runs op once and returns its error.
func (PassthroughRetrier) Retry(ctx context.Context, op func() error) error {
	return op()
}

// CountingRetrier retries up to Attempts times on domain.ErrDuplicateReference.
type CountingRetrier struct {
	Attempts int
	Calls    int
}

// Retry re-runs op on duplicate-reference errors, mimicking the storage
// retrier's policy.
func (r *CountingRetrier) Retry(ctx context.Context, op func() error) error {
	var err error
	for i := 0; i < r.Attempts; i++ {
		r.Calls++
		err = op()
		if err == nil || !errors.Is(err, domain.ErrDuplicateReference) {
			return err
		}
	}

	return err
}

// AuditRecorder records audit logs in memory.
type AuditRecorder struct {
	mu   sync.Mutex
	Logs []*domain.AuditLog

	CreateFunc func(ctx context.Context, log *domain.AuditLog) error
}

// NewAuditRecorder creates an empty AuditRecorder.
func NewAuditRecorder() *AuditRecorder {
	return &AuditRecorder{}
}

// Create records the audit log.
func (m *AuditRecorder) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)

	return nil
}

// List returns recorded logs matching the filter's action, if set.
func (m *AuditRecorder) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.AuditLog
	for _, l := range m.Logs {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		out = append(out, l)
	}

	return out, nil
}

// MemoryCache is an in-memory usecase.Cache.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string][]byte

	Gets int
	Sets int
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string][]byte)}
}

// Get returns a cached value.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Gets++
	if v, ok := c.data[key]; ok {
		return v, nil
	}

	return nil, fmt.Errorf("cache miss: %s", key)
}

// Set stores a value, ignoring TTL.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Sets++
	c.data[key] = value

	return nil
}

// Delete removes a key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)

	return nil
}

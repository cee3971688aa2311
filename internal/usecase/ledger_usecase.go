package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	consistencyCacheKey = "ledger:consistency"
)

// LedgerUseCase audits the conservation invariant: the two entries of every
// committed transfer sum to zero, so the signed sum over all completed
// transfer entries is zero as well.
type LedgerUseCase struct {
	ledgerRepo TransactionRepository
	cache      Cache
	cacheTTL   time.Duration
}

// NewLedgerUseCase creates a new LedgerUseCase. cache may be nil; the
// consistency scan is then recomputed on every call.
func NewLedgerUseCase(ledgerRepo TransactionRepository, cache Cache, cacheTTL time.Duration) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// ConsistencyResult is a point-in-time conservation snapshot.
type ConsistencyResult struct {
	Consistent  bool            `json:"consistent"`
	TransferSum decimal.Decimal `json:"transfer_sum"`
	CheckedAt   time.Time       `json:"checked_at"`
}

// CheckConsistency sums all completed transfer entries. The result is a
// stale-tolerant audit snapshot, so it may be served from cache.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyResult, error) {
	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, consistencyCacheKey); err == nil {
			var cached ConsistencyResult
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	sum, err := uc.ledgerRepo.SumTransferAmounts(ctx)
	if err != nil {
		return nil, err
	}

	result := &ConsistencyResult{
		Consistent:  sum.IsZero(),
		TransferSum: sum,
		CheckedAt:   time.Now().UTC(),
	}

	if uc.cache != nil && uc.cacheTTL > 0 {
		if raw, err := json.Marshal(result); err == nil {
			_ = uc.cache.Set(ctx, consistencyCacheKey, raw, uc.cacheTTL)
		}
	}

	return result, nil
}

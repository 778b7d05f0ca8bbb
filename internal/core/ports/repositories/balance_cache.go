package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
)

// BalanceKey addresses one cached balance. Generation is the account's invalidation
// counter read before the fold started; a key with a stale generation is never read again.
type BalanceKey struct {
	AccountCode string
	Generation  uint64
	AsOf        time.Time
	Currency    string
}

// BalanceCache stores derived balances. It is never the source of truth: any entry
// can be dropped and recomputed from the journal.
type BalanceCache interface {
	Generation(ctx context.Context, accountCode string) (uint64, error)
	Get(ctx context.Context, key BalanceKey) (*domain.AccountBalance, bool, error)
	Set(ctx context.Context, key BalanceKey, balance domain.AccountBalance) error
	// Invalidate bumps the generation of every given account.
	Invalidate(ctx context.Context, accountCodes ...string) error
}

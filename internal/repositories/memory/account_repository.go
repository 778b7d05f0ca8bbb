package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
)

// AccountRepository keeps the chart of accounts in memory.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

// NewAccountRepository creates an empty account store.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]domain.Account)}
}

var _ portsrepo.AccountRepositoryFacade = (*AccountRepository)(nil)

func (r *AccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[account.Code]; exists {
		return &apperrors.DuplicateAccountError{Code: account.Code}
	}
	if account.ParentCode != "" {
		if _, ok := r.accounts[account.ParentCode]; !ok {
			return &apperrors.InvalidParentError{Code: account.Code, ParentCode: account.ParentCode, Reason: "parent account not found"}
		}
	}
	r.accounts[account.Code] = account
	return nil
}

func (r *AccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[code]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, code)
	}
	return &account, nil
}

func (r *AccountRepository) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]domain.Account, len(codes))
	for _, code := range codes {
		if account, ok := r.accounts[code]; ok {
			out[code] = account
		}
	}
	return out, nil
}

func (r *AccountRepository) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		if filter.Matches(account) {
			out = append(out, account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *AccountRepository) SetAccountActive(ctx context.Context, code string, active bool, userID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[code]
	if !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, code)
	}
	account.IsActive = active
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID
	r.accounts[code] = account
	return nil
}

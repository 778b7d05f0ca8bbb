package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
)

// CurrencyRepository keeps currencies in memory.
type CurrencyRepository struct {
	mu         sync.RWMutex
	currencies map[string]domain.Currency
}

// NewCurrencyRepository creates an empty currency store.
func NewCurrencyRepository() *CurrencyRepository {
	return &CurrencyRepository{currencies: make(map[string]domain.Currency)}
}

var _ portsrepo.CurrencyRepositoryFacade = (*CurrencyRepository)(nil)

func (r *CurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.currencies[currency.Code]; exists {
		return fmt.Errorf("%w: currency %s", apperrors.ErrDuplicate, currency.Code)
	}
	r.currencies[currency.Code] = currency
	return nil
}

func (r *CurrencyRepository) UpdateCurrency(ctx context.Context, currency domain.Currency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.currencies[currency.Code]; !exists {
		return fmt.Errorf("%w: currency %s", apperrors.ErrNotFound, currency.Code)
	}
	r.currencies[currency.Code] = currency
	return nil
}

func (r *CurrencyRepository) FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	currency, ok := r.currencies[code]
	if !ok {
		return nil, fmt.Errorf("%w: currency %s", apperrors.ErrNotFound, code)
	}
	return &currency, nil
}

func (r *CurrencyRepository) ListCurrencies(ctx context.Context, includeInactive bool) ([]domain.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Currency, 0, len(r.currencies))
	for _, c := range r.currencies {
		if c.IsActive || includeInactive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

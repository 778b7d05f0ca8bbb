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

type pair struct{ from, to string }

// ExchangeRateRepository keeps one append-only rate series per currency pair.
type ExchangeRateRepository struct {
	mu     sync.RWMutex
	series map[pair][]domain.ExchangeRate
}

// NewExchangeRateRepository creates an empty rate store.
func NewExchangeRateRepository() *ExchangeRateRepository {
	return &ExchangeRateRepository{series: make(map[pair][]domain.ExchangeRate)}
}

var _ portsrepo.ExchangeRateRepositoryFacade = (*ExchangeRateRepository)(nil)

func (r *ExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pair{rate.FromCurrency, rate.ToCurrency}
	series := r.series[key]
	if n := len(series); n > 0 {
		latest := series[n-1].EffectiveDate
		if rate.EffectiveDate.Equal(latest) {
			return fmt.Errorf("%w: %s/%s rate effective %s already recorded", apperrors.ErrDuplicate, key.from, key.to, latest.Format(domain.DateLayout))
		}
		if rate.EffectiveDate.Before(latest) {
			return fmt.Errorf("%w: %s/%s effective date must not be before %s", apperrors.ErrValidation, key.from, key.to, latest.Format(domain.DateLayout))
		}
	}
	r.series[key] = append(series, rate)
	return nil
}

func (r *ExchangeRateRepository) FindRateAsOf(ctx context.Context, from, to string, asOf time.Time) (*domain.ExchangeRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	series := r.series[pair{from, to}]
	// Series are ordered by effective date; find the last one not after asOf.
	i := sort.Search(len(series), func(i int) bool { return series[i].EffectiveDate.After(asOf) })
	if i == 0 {
		return nil, fmt.Errorf("%w: no %s/%s rate effective on %s", apperrors.ErrNotFound, from, to, asOf.Format(domain.DateLayout))
	}
	rate := series[i-1]
	return &rate, nil
}

func (r *ExchangeRateRepository) ListExchangeRates(ctx context.Context, from, to string) ([]domain.ExchangeRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]pair, 0, len(r.series))
	for k := range r.series {
		if (from == "" || k.from == from) && (to == "" || k.to == to) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].from != keys[j].from {
			return keys[i].from < keys[j].from
		}
		return keys[i].to < keys[j].to
	})
	out := make([]domain.ExchangeRate, 0)
	for _, k := range keys {
		out = append(out, r.series[k]...)
	}
	return out, nil
}

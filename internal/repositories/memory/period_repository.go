package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
)

// PeriodRepository stores accounting periods next to the journal they gate.
type PeriodRepository struct {
	state *ledgerState
}

var _ portsrepo.PeriodRepositoryFacade = (*PeriodRepository)(nil)

// NewLedgerRepositories returns a journal and a period repository sharing one store.
func NewLedgerRepositories() (*JournalRepository, *PeriodRepository) {
	state := newLedgerState()
	return &JournalRepository{state: state}, &PeriodRepository{state: state}
}

func (r *PeriodRepository) SavePeriod(ctx context.Context, period domain.AccountingPeriod) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, existing := range r.state.periods {
		if existing.ID == period.ID {
			return fmt.Errorf("%w: period %s", apperrors.ErrDuplicate, period.ID)
		}
		if existing.Overlaps(period) {
			return &apperrors.PeriodOverlapError{ExistingPeriodID: existing.ID, Start: period.StartDate, End: period.EndDate}
		}
	}
	r.state.periods = append(r.state.periods, clonePeriod(&period))
	sort.Slice(r.state.periods, func(i, j int) bool {
		return r.state.periods[i].StartDate.Before(r.state.periods[j].StartDate)
	})
	return nil
}

func (r *PeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	p, err := r.state.periodByID(periodID)
	if err != nil {
		return nil, err
	}
	return clonePeriod(p), nil
}

func (r *PeriodRepository) FindPeriodByDate(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	p := r.state.periodFor(date)
	if p == nil {
		return nil, fmt.Errorf("%w: no period covers %s", apperrors.ErrNotFound, date.Format(domain.DateLayout))
	}
	return clonePeriod(p), nil
}

func (r *PeriodRepository) ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	out := make([]domain.AccountingPeriod, len(r.state.periods))
	for i, p := range r.state.periods {
		out[i] = *clonePeriod(p)
	}
	return out, nil
}

func (r *PeriodRepository) TransitionPeriod(ctx context.Context, periodID string, userID string, now time.Time, fn portsrepo.PeriodTransition) (*domain.AccountingPeriod, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	p, err := r.state.periodByID(periodID)
	if err != nil {
		return nil, err
	}
	next, err := fn(*clonePeriod(p), r.earlierThan(p))
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(p.Status, next) {
		return nil, fmt.Errorf("%w: period %s cannot move from %s to %s", apperrors.ErrConflict, p.ID, p.Status, next)
	}
	p.Status = next
	p.LastUpdatedAt = now
	p.LastUpdatedBy = userID
	return clonePeriod(p), nil
}

func (r *PeriodRepository) ClosePeriod(ctx context.Context, periodID string, userID string, now time.Time, build portsrepo.ClosingBuilder) (*domain.AccountingPeriod, *domain.JournalEntry, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	p, err := r.state.periodByID(periodID)
	if err != nil {
		return nil, nil, err
	}
	entry, err := build(ctx, *clonePeriod(p), lockedLines{state: r.state})
	if err != nil {
		return nil, nil, err
	}
	if !domain.CanTransition(p.Status, domain.PeriodClosed) {
		return nil, nil, &apperrors.PeriodNotClosingError{PeriodID: p.ID, Status: string(p.Status)}
	}

	var posted *domain.JournalEntry
	if entry != nil {
		if !p.Covers(entry.TransactionDate) {
			return nil, nil, fmt.Errorf("%w: closing entry dated %s is outside period %s", apperrors.ErrValidation, entry.TransactionDate.Format(domain.DateLayout), p.ID)
		}
		entry.PeriodID = p.ID
		posted = r.state.insert(*entry)
		p.ClosingEntryID = posted.ID
	}
	closedAt := now
	p.Status = domain.PeriodClosed
	p.ClosedAt = &closedAt
	p.ClosedBy = userID
	p.LastUpdatedAt = now
	p.LastUpdatedBy = userID
	return clonePeriod(p), posted, nil
}

// earlierThan returns copies of the periods starting before p, in start order.
func (r *PeriodRepository) earlierThan(p *domain.AccountingPeriod) []domain.AccountingPeriod {
	out := make([]domain.AccountingPeriod, 0)
	for _, other := range r.state.periods {
		if other.StartDate.Before(p.StartDate) {
			out = append(out, *clonePeriod(other))
		}
	}
	return out
}

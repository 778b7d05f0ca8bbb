package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/school_ledger/internal/utils/pagination"
)

// JournalRepository is the in-memory journal. Entries are insert-only.
type JournalRepository struct {
	state *ledgerState
}

var _ portsrepo.JournalRepositoryFacade = (*JournalRepository)(nil)

func (r *JournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, admit portsrepo.PeriodAdmission) (*domain.JournalEntry, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if _, exists := r.state.byID[entry.ID]; exists {
		return nil, fmt.Errorf("%w: journal entry %s", apperrors.ErrDuplicate, entry.ID)
	}
	if err := r.admit(&entry, admit); err != nil {
		return nil, err
	}
	return r.state.insert(entry), nil
}

func (r *JournalRepository) SaveReversal(ctx context.Context, originalID string, reversal domain.JournalEntry, admit portsrepo.PeriodAdmission) (*domain.JournalEntry, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	original, ok := r.state.byID[originalID]
	if !ok {
		return nil, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, originalID)
	}
	if original.IsReversed() {
		return nil, &apperrors.AlreadyReversedError{EntryID: originalID, ReversedBy: original.ReversedBy}
	}
	if err := r.admit(&reversal, admit); err != nil {
		return nil, err
	}
	reversal.ReversalOf = originalID
	posted := r.state.insert(reversal)
	original.ReversedBy = posted.ID
	return posted, nil
}

func (r *JournalRepository) admit(entry *domain.JournalEntry, admit portsrepo.PeriodAdmission) error {
	period := r.state.periodFor(entry.TransactionDate)
	var view *domain.AccountingPeriod
	if period != nil {
		view = clonePeriod(period)
	}
	if err := admit(view, entry.TransactionDate); err != nil {
		return err
	}
	if period != nil {
		entry.PeriodID = period.ID
	}
	return nil
}

func (r *JournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	entry, ok := r.state.byID[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, entryID)
	}
	out := cloneEntry(*entry)
	return &out, nil
}

func (r *JournalRepository) ListEntries(ctx context.Context, filter domain.JournalFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		cursor = &c
	}

	r.state.mu.RLock()
	matches := make([]domain.JournalEntry, 0)
	for _, e := range r.state.entries {
		if !filter.Matches(*e) {
			continue
		}
		if cursor != nil && !cursor.After(e.TransactionDate, e.CreatedAt, e.ID) {
			continue
		}
		matches = append(matches, cloneEntry(*e))
	}
	r.state.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.TransactionDate.Equal(b.TransactionDate) {
			return a.TransactionDate.After(b.TransactionDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	if len(matches) <= limit {
		return matches, nil, nil
	}
	page := matches[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(pagination.Cursor{TransactionDate: last.TransactionDate, CreatedAt: last.CreatedAt, EntryID: last.ID})
	return page, &token, nil
}

func (r *JournalRepository) StreamLines(ctx context.Context, filter domain.LineFilter, fn func(domain.PostedLine) error) error {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	return r.state.streamLines(ctx, filter, fn)
}

func (r *JournalRepository) SumLines(ctx context.Context, filter domain.LineFilter) (domain.Positions, error) {
	positions := make(domain.Positions)
	err := r.StreamLines(ctx, filter, func(l domain.PostedLine) error {
		positions.Add(l.JournalLine)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return positions, nil
}

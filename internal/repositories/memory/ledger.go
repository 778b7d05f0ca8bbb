package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
)

// ledgerState holds journal entries and periods under one mutex. Every posting
// reads the period table, so both live behind the same lock to make the period
// gate and the insert one atomic step.
type ledgerState struct {
	mu      sync.RWMutex
	entries []*domain.JournalEntry
	byID    map[string]*domain.JournalEntry
	periods []*domain.AccountingPeriod
}

func newLedgerState() *ledgerState {
	return &ledgerState{byID: make(map[string]*domain.JournalEntry)}
}

// periodFor returns the period covering date, or nil. Callers hold mu.
func (s *ledgerState) periodFor(date time.Time) *domain.AccountingPeriod {
	for _, p := range s.periods {
		if p.Covers(date) {
			return p
		}
	}
	return nil
}

func (s *ledgerState) periodByID(id string) (*domain.AccountingPeriod, error) {
	for _, p := range s.periods {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: period %s", apperrors.ErrNotFound, id)
}

// insert appends a copy of entry. Callers hold mu for writing.
func (s *ledgerState) insert(entry domain.JournalEntry) *domain.JournalEntry {
	stored := cloneEntry(entry)
	s.entries = append(s.entries, &stored)
	s.byID[stored.ID] = &stored
	out := cloneEntry(stored)
	return &out
}

// streamLines yields matching lines in (transaction_date, created_at, line_no) order.
// Ties keep insertion order, which already has lines in line_no order. Callers hold mu.
func (s *ledgerState) streamLines(ctx context.Context, filter domain.LineFilter, fn func(domain.PostedLine) error) error {
	lines := make([]domain.PostedLine, 0)
	for _, e := range s.entries {
		for _, l := range e.Lines {
			pl := domain.PostedLine{
				JournalLine:     l,
				TransactionDate: e.TransactionDate,
				SourceType:      e.SourceType,
				SourceID:        e.SourceID,
				Description:     e.Description,
				CreatedAt:       e.CreatedAt,
			}
			if filter.Matches(pl) {
				lines = append(lines, pl)
			}
		}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if !a.TransactionDate.Equal(b.TransactionDate) {
			return a.TransactionDate.Before(b.TransactionDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	for _, l := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}

// lockedLines exposes the ledger to a closing builder that already runs under mu.
type lockedLines struct{ state *ledgerState }

func (l lockedLines) StreamLines(ctx context.Context, filter domain.LineFilter, fn func(domain.PostedLine) error) error {
	return l.state.streamLines(ctx, filter, fn)
}

func cloneEntry(e domain.JournalEntry) domain.JournalEntry {
	e.Lines = append([]domain.JournalLine(nil), e.Lines...)
	return e
}

func clonePeriod(p *domain.AccountingPeriod) *domain.AccountingPeriod {
	out := *p
	if p.ClosedAt != nil {
		closedAt := *p.ClosedAt
		out.ClosedAt = &closedAt
	}
	return &out
}

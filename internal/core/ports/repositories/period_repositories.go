package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
)

// PeriodTransition computes the next status of a locked period. earlier holds every
// period that starts before it, in start date order.
type PeriodTransition func(period domain.AccountingPeriod, earlier []domain.AccountingPeriod) (domain.PeriodStatus, error)

// ClosingBuilder validates a locked period and builds its closing entry from lines read
// inside the same transaction. A nil entry closes the period without posting.
type ClosingBuilder func(ctx context.Context, period domain.AccountingPeriod, lines LineReader) (*domain.JournalEntry, error)

// PeriodReader defines read operations for accounting periods
type PeriodReader interface {
	FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error)

	// FindPeriodByDate returns the period covering date or apperrors.ErrNotFound.
	FindPeriodByDate(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error)

	// ListPeriods returns every period in start date order.
	ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error)
}

// PeriodWriter defines write operations for accounting periods
type PeriodWriter interface {
	// SavePeriod persists a new period. Returns *apperrors.PeriodOverlapError on overlap;
	// the overlap check and insert are atomic.
	SavePeriod(ctx context.Context, period domain.AccountingPeriod) error

	// TransitionPeriod locks the period exclusively, applies fn and stores the new status.
	TransitionPeriod(ctx context.Context, periodID string, userID string, now time.Time, fn PeriodTransition) (*domain.AccountingPeriod, error)

	// ClosePeriod locks the period exclusively for the whole close: build runs, the closing
	// entry is written, and the period becomes CLOSED, all in one transaction. On any error
	// nothing is written and the period keeps its status.
	ClosePeriod(ctx context.Context, periodID string, userID string, now time.Time, build ClosingBuilder) (*domain.AccountingPeriod, *domain.JournalEntry, error)
}

// PeriodRepositoryFacade combines all period-related repository interfaces
type PeriodRepositoryFacade interface {
	PeriodReader
	PeriodWriter
}

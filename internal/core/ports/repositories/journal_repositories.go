package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
)

// PeriodAdmission decides whether an entry dated date may post into period.
// period is nil when no period covers the date. It runs inside the write transaction
// with the period row share-locked, so its verdict cannot be invalidated before commit.
type PeriodAdmission func(period *domain.AccountingPeriod, date time.Time) error

// JournalReader defines read operations for journal entries
type JournalReader interface {
	// FindEntryByID retrieves an entry with its lines.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries returns entries ordered by (transaction_date, created_at, id) descending,
	// and a token for the next page when more entries exist.
	ListEntries(ctx context.Context, filter domain.JournalFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)
}

// LineReader streams posted lines for folds. Lines are yielded in
// (transaction_date, created_at, line_no) order; fn returning an error stops the stream.
type LineReader interface {
	StreamLines(ctx context.Context, filter domain.LineFilter, fn func(domain.PostedLine) error) error
}

// LineTotalsReader aggregates lines in the store instead of streaming them.
type LineTotalsReader interface {
	SumLines(ctx context.Context, filter domain.LineFilter) (domain.Positions, error)
}

// JournalWriter defines write operations for journal entries. Entries are insert-only.
type JournalWriter interface {
	// SaveEntry resolves the entry's period by transaction date, asks admit, then writes
	// the entry and its lines in one transaction. The stored entry is returned with PeriodID set.
	SaveEntry(ctx context.Context, entry domain.JournalEntry, admit PeriodAdmission) (*domain.JournalEntry, error)

	// SaveReversal writes reversal and links the original to it in one transaction.
	// Returns *apperrors.AlreadyReversedError if the original already has a reversal.
	SaveReversal(ctx context.Context, originalID string, reversal domain.JournalEntry, admit PeriodAdmission) (*domain.JournalEntry, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	LineReader
	LineTotalsReader
}

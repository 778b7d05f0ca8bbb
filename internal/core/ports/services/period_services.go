package services

import (
	"context"
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/SscSPs/school_ledger/internal/dto"
)

// PeriodReaderSvc defines read operations for accounting periods
type PeriodReaderSvc interface {
	GetPeriod(ctx context.Context, periodID string) (*domain.AccountingPeriod, error)
	ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error)
	FindPeriodForDate(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error)
}

// PeriodCloserSvc drives the closing protocol OPEN -> CLOSING -> CLOSED.
type PeriodCloserSvc interface {
	InitiateClose(ctx context.Context, periodID string, userID string) (*domain.AccountingPeriod, error)

	// CompleteClose posts the closing entry and sets the period CLOSED. A nil entry
	// means the period had no revenue or expense movement.
	CompleteClose(ctx context.Context, periodID string, userID string) (*domain.AccountingPeriod, *domain.JournalEntry, error)

	AbortClose(ctx context.Context, periodID string, userID string) (*domain.AccountingPeriod, error)
}

// PeriodWriterSvc defines write operations for accounting periods
type PeriodWriterSvc interface {
	CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest, userID string) (*domain.AccountingPeriod, error)
}

// PeriodSvcFacade combines all period-related service interfaces
type PeriodSvcFacade interface {
	PeriodReaderSvc
	PeriodWriterSvc
	PeriodCloserSvc
}

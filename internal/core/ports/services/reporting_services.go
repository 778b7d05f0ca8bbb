package services

import (
	"context"
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
)

// ReportingService defines operations for generating financial statements.
// An empty currency means the configured base currency.
type ReportingService interface {
	// TrialBalance generates a trial balance as of a specific date
	TrialBalance(ctx context.Context, asOf time.Time, currency string) (*domain.TrialBalance, error)

	// IncomeStatement sums revenue and expense movements over a range
	IncomeStatement(ctx context.Context, rng domain.DateRange, currency string) (*domain.IncomeStatement, error)

	// BalanceSheet generates a balance sheet as of a specific date
	BalanceSheet(ctx context.Context, asOf time.Time, currency string) (*domain.BalanceSheet, error)

	// CashFlow classifies cash account movements over a range
	CashFlow(ctx context.Context, rng domain.DateRange, currency string) (*domain.CashFlowStatement, error)
}

// ReconciliationService matches bank statements against the ledger.
type ReconciliationService interface {
	Reconcile(ctx context.Context, bankAccountCode string, req domain.ReconciliationRequest) (*domain.ReconciliationResult, error)
}

package services

import (
	"context"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/SscSPs/school_ledger/internal/dto"
)

// AccountReaderSvc defines read operations on the chart of accounts
type AccountReaderSvc interface {
	GetAccount(ctx context.Context, code string) (*domain.Account, error)
	ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error)

	// ResolveType walks the parent chain to the root and returns its type.
	ResolveType(ctx context.Context, code string) (domain.AccountType, error)

	// Chart returns a snapshot of every account, active or not, indexed by code.
	Chart(ctx context.Context) (*domain.Chart, error)
}

// AccountWriterSvc defines write operations on the chart of accounts
type AccountWriterSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)

	// DeactivateAccount hides an account from new postings. Historical queries are unaffected.
	DeactivateAccount(ctx context.Context, code string, userID string) (*domain.Account, error)
	ReactivateAccount(ctx context.Context, code string, userID string) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}

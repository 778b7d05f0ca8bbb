package services

import (
	"context"
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
)

// BalanceReaderSvc computes account balances by folding posted lines.
type BalanceReaderSvc interface {
	// GetBalance returns the balance of one account in one currency. An empty currency
	// means the account's own currency.
	GetBalance(ctx context.Context, accountCode string, asOf time.Time, currency string) (*domain.AccountBalance, error)

	// GetBalancesByCurrency returns one balance per currency the account has lines in.
	GetBalancesByCurrency(ctx context.Context, accountCode string, asOf time.Time) ([]domain.AccountBalance, error)

	// GetBalances is the batch form of GetBalancesByCurrency.
	GetBalances(ctx context.Context, accountCodes []string, asOf time.Time) (map[string][]domain.AccountBalance, error)

	// GetMovements returns the account's lines within [from, to] in posting order.
	GetMovements(ctx context.Context, accountCode string, from, to time.Time) ([]domain.PostedLine, error)

	// GetAccountBalances lists every account with its balances. With a currency set,
	// balances held in other currencies are translated at the rate effective on asOf.
	GetAccountBalances(ctx context.Context, asOf time.Time, currency string) ([]domain.AccountBalances, error)
}

// BalanceFolderSvc exposes the raw fold used by the statement generators.
type BalanceFolderSvc interface {
	FoldPositions(ctx context.Context, filter domain.LineFilter) (domain.Positions, error)
}

// BalanceInvalidatorSvc drops cached balances after postings.
type BalanceInvalidatorSvc interface {
	Invalidate(ctx context.Context, accountCodes ...string)
}

// BalanceSvcFacade combines all balance-related service interfaces
type BalanceSvcFacade interface {
	BalanceReaderSvc
	BalanceFolderSvc
	BalanceInvalidatorSvc
}

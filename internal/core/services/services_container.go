package services

import (
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/platform/config"
	"github.com/SscSPs/school_ledger/internal/platform/metrics"
)

type containerOptions struct {
	metrics     *metrics.Metrics
	cashFlowMap domain.CashFlowMapping
	aggregate   bool
}

// ContainerOption configures NewServiceContainer.
type ContainerOption func(*containerOptions)

// WithMetrics records service metrics on m.
func WithMetrics(m *metrics.Metrics) ContainerOption {
	return func(o *containerOptions) {
		o.metrics = m
	}
}

// WithStatementMapping overrides the default cash flow bucket mapping.
func WithStatementMapping(mapping domain.CashFlowMapping) ContainerOption {
	return func(o *containerOptions) {
		o.cashFlowMap = mapping
	}
}

// WithStoreFolds folds balances with the journal store's aggregate query.
func WithStoreFolds() ContainerOption {
	return func(o *containerOptions) {
		o.aggregate = true
	}
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, options ...ContainerOption) *portssvc.ServiceContainer {
	opts := &containerOptions{}
	for _, option := range options {
		option(opts)
	}

	container := &portssvc.ServiceContainer{}

	accountOpts := []AccountServiceOption{WithCurrencyRepository(repos.CurrencyRepo)}
	if cfg.RequireZeroBalanceToDeactivate {
		accountOpts = append(accountOpts, WithZeroBalanceDeactivation(repos.JournalRepo))
	}
	container.Account = NewAccountService(repos.AccountRepo, accountOpts...)

	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.ExchangeRate = NewExchangeRateService(repos.ExchangeRateRepo, container.Currency)

	// The balance aggregator comes before the writers so they can invalidate it.
	balanceOpts := []BalanceServiceOption{
		WithExchangeRates(container.ExchangeRate),
		WithBalanceMetrics(opts.metrics),
	}
	if repos.BalanceCache != nil {
		balanceOpts = append(balanceOpts, WithBalanceCache(repos.BalanceCache))
	}
	if opts.aggregate {
		balanceOpts = append(balanceOpts, WithStoreAggregation(repos.JournalRepo))
	}
	container.Balance = NewBalanceService(container.Account, repos.JournalRepo, balanceOpts...)

	container.Journal = NewJournalService(
		repos.JournalRepo,
		repos.AccountRepo,
		repos.CurrencyRepo,
		WithBalanceInvalidator(container.Balance),
		WithJournalMetrics(opts.metrics),
	)

	container.Period = NewPeriodService(
		repos.PeriodRepo,
		container.Account,
		WithRetainedEarningsAccount(cfg.RetainedEarningsAccount),
		WithPeriodBalanceInvalidator(container.Balance),
		WithPeriodMetrics(opts.metrics),
	)

	container.Reporting = NewReportingService(
		container.Account,
		container.Balance,
		repos.JournalRepo,
		WithBaseCurrency(cfg.BaseCurrency),
		WithCashAccounts(cfg.CashAccounts...),
		WithCashFlowMapping(opts.cashFlowMap),
		WithReportingMetrics(opts.metrics),
	)

	container.Reconciliation = NewReconciliationService(
		container.Account,
		container.Balance,
		WithToleranceDays(cfg.ReconcileToleranceDays),
		WithReconciliationMetrics(opts.metrics),
	)

	return container
}

package memory

import (
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
)

// NewRepositoryProvider wires a complete in-memory store. cache may be nil.
func NewRepositoryProvider(cache portsrepo.BalanceCache) portsrepo.RepositoryProvider {
	journal, periods := NewLedgerRepositories()
	return portsrepo.RepositoryProvider{
		AccountRepo:      NewAccountRepository(),
		CurrencyRepo:     NewCurrencyRepository(),
		ExchangeRateRepo: NewExchangeRateRepository(),
		JournalRepo:      journal,
		PeriodRepo:       periods,
		BalanceCache:     cache,
	}
}

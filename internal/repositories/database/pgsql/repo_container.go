package pgsql

import (
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the postgres repositories on pool. cache may be nil.
func NewRepositoryProvider(pool PgxPool, cache portsrepo.BalanceCache) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:      newPgxAccountRepository(pool),
		CurrencyRepo:     newPgxCurrencyRepository(pool),
		ExchangeRateRepo: newPgxExchangeRateRepository(pool),
		JournalRepo:      newPgxJournalRepository(pool),
		PeriodRepo:       newPgxPeriodRepository(pool),
		BalanceCache:     cache,
	}
}

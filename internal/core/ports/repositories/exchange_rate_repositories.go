package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
)

// ExchangeRateReader defines read operations for exchange rate data
type ExchangeRateReader interface {
	// FindRateAsOf returns the latest rate for the pair effective on or before asOf.
	FindRateAsOf(ctx context.Context, from, to string, asOf time.Time) (*domain.ExchangeRate, error)

	// ListExchangeRates returns rates ordered by pair then effective date. Empty codes match any currency.
	ListExchangeRates(ctx context.Context, from, to string) ([]domain.ExchangeRate, error)
}

// ExchangeRateWriter defines write operations for exchange rate data
type ExchangeRateWriter interface {
	// SaveExchangeRate appends a rate to the pair's series. The check that the effective
	// date is not earlier than the latest recorded one and the insert happen atomically.
	SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error
}

// ExchangeRateRepositoryFacade combines all exchange rate-related repository interfaces
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}

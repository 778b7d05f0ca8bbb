package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/platform/metrics"
	"github.com/SscSPs/school_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// balanceService folds posted lines into balances. Balances are never stored; the
// cache only holds folds keyed by the account's invalidation generation.
type balanceService struct {
	BaseService
	accountSvc portssvc.AccountReaderSvc
	lines      portsrepo.LineReader
	totals     portsrepo.LineTotalsReader
	cache      portsrepo.BalanceCache
	rates      portssvc.ExchangeRateReaderSvc
	metrics    *metrics.Metrics
}

// BalanceServiceOption is a functional option for configuring the balance service
type BalanceServiceOption func(*balanceService)

// WithBalanceCache enables caching of single-account balances.
func WithBalanceCache(cache portsrepo.BalanceCache) BalanceServiceOption {
	return func(s *balanceService) {
		s.cache = cache
	}
}

// WithStoreAggregation folds with the store's GROUP BY instead of streaming lines.
func WithStoreAggregation(totals portsrepo.LineTotalsReader) BalanceServiceOption {
	return func(s *balanceService) {
		s.totals = totals
	}
}

// WithExchangeRates enables translated balance listings.
func WithExchangeRates(rates portssvc.ExchangeRateReaderSvc) BalanceServiceOption {
	return func(s *balanceService) {
		s.rates = rates
	}
}

// WithBalanceMetrics records cache hit and miss counters.
func WithBalanceMetrics(m *metrics.Metrics) BalanceServiceOption {
	return func(s *balanceService) {
		s.metrics = m
	}
}

// NewBalanceService creates a new balance aggregator.
func NewBalanceService(accountSvc portssvc.AccountReaderSvc, lines portsrepo.LineReader, options ...BalanceServiceOption) portssvc.BalanceSvcFacade {
	svc := &balanceService{
		accountSvc: accountSvc,
		lines:      lines,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.BalanceSvcFacade = (*balanceService)(nil)

// FoldPositions sums the lines selected by filter per account and currency.
func (s *balanceService) FoldPositions(ctx context.Context, filter domain.LineFilter) (domain.Positions, error) {
	if s.totals != nil {
		positions, err := s.totals.SumLines(ctx, filter)
		if err != nil {
			s.LogError(ctx, err, "Failed to aggregate lines")
			return nil, fmt.Errorf("failed to aggregate lines: %w", err)
		}
		return positions, nil
	}

	positions := make(domain.Positions)
	err := s.lines.StreamLines(ctx, filter, func(l domain.PostedLine) error {
		positions.Add(l.JournalLine)
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to fold lines")
		return nil, fmt.Errorf("failed to fold lines: %w", err)
	}
	return positions, nil
}

func (s *balanceService) GetBalance(ctx context.Context, accountCode string, asOf time.Time, currency string) (*domain.AccountBalance, error) {
	account, err := s.accountSvc.GetAccount(ctx, accountCode)
	if err != nil {
		return nil, err
	}
	accountType, err := s.accountSvc.ResolveType(ctx, accountCode)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		if account.CurrencyCode == "" {
			return nil, fmt.Errorf("%w: account %s holds several currencies, a currency is required", apperrors.ErrValidation, accountCode)
		}
		currency = account.CurrencyCode
	}
	day := domain.DateOnly(asOf)

	key, cacheable := s.cacheKey(ctx, accountCode, day, currency)
	if cacheable {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.LogWarn(ctx, err, "Balance cache read failed", slog.String("account_code", accountCode))
		} else if ok {
			s.metrics.CacheLookup(true)
			return cached, nil
		}
		s.metrics.CacheLookup(false)
	}

	positions, err := s.FoldPositions(ctx, domain.LineFilter{AccountCodes: []string{accountCode}, Currency: currency, To: day})
	if err != nil {
		return nil, err
	}
	totals := positions[domain.Position{AccountCode: accountCode, Currency: currency}]
	balance, err := accounting.NewAccountBalance(accountCode, accountType, day, currency, totals.Debit, totals.Credit)
	if err != nil {
		return nil, &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
	}

	if cacheable {
		if err := s.cache.Set(ctx, key, balance); err != nil {
			s.LogWarn(ctx, err, "Balance cache write failed", slog.String("account_code", accountCode))
		}
	}
	return &balance, nil
}

// cacheKey reads the account generation before folding, so a post racing the fold
// leaves the stored value under a key nobody reads again.
func (s *balanceService) cacheKey(ctx context.Context, accountCode string, asOf time.Time, currency string) (portsrepo.BalanceKey, bool) {
	if s.cache == nil {
		return portsrepo.BalanceKey{}, false
	}
	gen, err := s.cache.Generation(ctx, accountCode)
	if err != nil {
		s.LogWarn(ctx, err, "Balance cache generation lookup failed", slog.String("account_code", accountCode))
		return portsrepo.BalanceKey{}, false
	}
	return portsrepo.BalanceKey{AccountCode: accountCode, Generation: gen, AsOf: asOf, Currency: currency}, true
}

func (s *balanceService) GetBalancesByCurrency(ctx context.Context, accountCode string, asOf time.Time) ([]domain.AccountBalance, error) {
	byAccount, err := s.GetBalances(ctx, []string{accountCode}, asOf)
	if err != nil {
		return nil, err
	}
	return byAccount[accountCode], nil
}

func (s *balanceService) GetBalances(ctx context.Context, accountCodes []string, asOf time.Time) (map[string][]domain.AccountBalance, error) {
	if len(accountCodes) == 0 {
		return map[string][]domain.AccountBalance{}, nil
	}
	chart, err := s.accountSvc.Chart(ctx)
	if err != nil {
		return nil, err
	}
	for _, code := range accountCodes {
		if _, ok := chart.Get(code); !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, code)
		}
	}
	day := domain.DateOnly(asOf)

	positions, err := s.FoldPositions(ctx, domain.LineFilter{AccountCodes: accountCodes, To: day})
	if err != nil {
		return nil, err
	}

	out := make(map[string][]domain.AccountBalance, len(accountCodes))
	for _, code := range accountCodes {
		out[code] = []domain.AccountBalance{}
	}
	for _, key := range positions.SortedKeys() {
		t, err := chart.ResolveType(key.AccountCode)
		if err != nil {
			return nil, &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
		}
		totals := positions[key]
		balance, err := accounting.NewAccountBalance(key.AccountCode, t, day, key.Currency, totals.Debit, totals.Credit)
		if err != nil {
			return nil, &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
		}
		out[key.AccountCode] = append(out[key.AccountCode], balance)
	}

	// Single-currency accounts always report their own currency, even without lines.
	for _, code := range accountCodes {
		account, _ := chart.Get(code)
		if account.CurrencyCode == "" || len(out[code]) > 0 {
			continue
		}
		t, err := chart.ResolveType(code)
		if err != nil {
			return nil, &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
		}
		balance, err := accounting.NewAccountBalance(code, t, day, account.CurrencyCode, decimal.Zero, decimal.Zero)
		if err != nil {
			return nil, &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
		}
		out[code] = []domain.AccountBalance{balance}
	}
	return out, nil
}

func (s *balanceService) GetMovements(ctx context.Context, accountCode string, from, to time.Time) ([]domain.PostedLine, error) {
	if _, err := s.accountSvc.GetAccount(ctx, accountCode); err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: from must not be after to", apperrors.ErrValidation)
	}
	fromDay := domain.DateOnly(from)

	movements := []domain.PostedLine{}
	err := s.lines.StreamLines(ctx, domain.LineFilter{AccountCodes: []string{accountCode}, From: &fromDay, To: domain.DateOnly(to)}, func(l domain.PostedLine) error {
		movements = append(movements, l)
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to read account movements", slog.String("account_code", accountCode))
		return nil, fmt.Errorf("failed to read account movements: %w", err)
	}
	return movements, nil
}

func (s *balanceService) GetAccountBalances(ctx context.Context, asOf time.Time, currency string) ([]domain.AccountBalances, error) {
	if currency != "" && s.rates == nil {
		return nil, fmt.Errorf("%w: currency translation is not configured", apperrors.ErrValidation)
	}
	chart, err := s.accountSvc.Chart(ctx)
	if err != nil {
		return nil, err
	}
	day := domain.DateOnly(asOf)

	positions, err := s.FoldPositions(ctx, domain.LineFilter{To: day})
	if err != nil {
		return nil, err
	}
	byAccount := make(map[string][]domain.Position)
	for _, key := range positions.SortedKeys() {
		byAccount[key.AccountCode] = append(byAccount[key.AccountCode], key)
	}

	rates := make(map[string]*domain.ExchangeRate)
	accounts := chart.Accounts()
	out := make([]domain.AccountBalances, 0, len(accounts))
	for _, account := range accounts {
		t, err := chart.ResolveType(account.Code)
		if err != nil {
			return nil, &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
		}
		entry := domain.AccountBalances{Account: account, Balances: []domain.ConvertedBalance{}}
		for _, key := range byAccount[account.Code] {
			totals := positions[key]
			original, err := accounting.NewAccountBalance(account.Code, t, day, key.Currency, totals.Debit, totals.Credit)
			if err != nil {
				return nil, &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
			}
			converted := domain.ConvertedBalance{
				AccountBalance:   original,
				OriginalCurrency: key.Currency,
				OriginalNet:      original.NetBalance,
				Rate:             decimal.NewFromInt(1),
			}
			if currency != "" && key.Currency != currency {
				rate, ok := rates[key.Currency]
				if !ok {
					rate, err = s.rates.GetExchangeRate(ctx, key.Currency, currency, day)
					if err != nil {
						return nil, err
					}
					rates[key.Currency] = rate
				}
				converted.AccountBalance, err = accounting.NewAccountBalance(account.Code, t, day, currency, rate.Convert(totals.Debit), rate.Convert(totals.Credit))
				if err != nil {
					return nil, &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
				}
				converted.Rate = rate.Rate
				converted.Converted = true
			}
			entry.Balances = append(entry.Balances, converted)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *balanceService) Invalidate(ctx context.Context, accountCodes ...string) {
	if s.cache == nil || len(accountCodes) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, accountCodes...); err != nil {
		// The posting already committed. Stale entries expire with the cache TTL.
		s.LogError(ctx, err, "Balance cache invalidation failed", slog.Any("account_codes", accountCodes))
	}
}

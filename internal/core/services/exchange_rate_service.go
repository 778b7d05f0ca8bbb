package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// inverseRatePrecision is the number of fraction digits kept when a rate is derived
// from the opposite pair.
const inverseRatePrecision = 12

// exchangeRateService provides business logic for exchange rates.
type exchangeRateService struct {
	BaseService
	rateRepo    portsrepo.ExchangeRateRepositoryFacade
	currencySvc portssvc.CurrencyReaderSvc
}

// NewExchangeRateService creates a new exchange rate service.
func NewExchangeRateService(rateRepo portsrepo.ExchangeRateRepositoryFacade, currencySvc portssvc.CurrencyReaderSvc) portssvc.ExchangeRateSvcFacade {
	return &exchangeRateService{
		rateRepo:    rateRepo,
		currencySvc: currencySvc,
	}
}

var _ portssvc.ExchangeRateSvcFacade = (*exchangeRateService)(nil)

// CreateExchangeRate handles the creation of a new exchange rate.
func (s *exchangeRateService) CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, userID string) (*domain.ExchangeRate, error) {
	from := strings.ToUpper(req.FromCurrencyCode)
	to := strings.ToUpper(req.ToCurrencyCode)

	if !req.Rate.IsPositive() {
		return nil, fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
	}
	if from == to {
		return nil, fmt.Errorf("%w: from and to currency codes cannot be the same", apperrors.ErrValidation)
	}
	if req.EffectiveDate.IsZero() {
		return nil, fmt.Errorf("%w: effectiveDate is required", apperrors.ErrValidation)
	}
	for _, code := range []string{from, to} {
		if _, err := s.currencySvc.GetCurrency(ctx, code); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: currency code '%s' not found", apperrors.ErrValidation, code)
			}
			return nil, fmt.Errorf("failed to validate currency '%s': %w", code, err)
		}
	}

	rate := domain.ExchangeRate{
		ID:            uuid.NewString(),
		FromCurrency:  from,
		ToCurrency:    to,
		Rate:          req.Rate,
		EffectiveDate: domain.DateOnly(req.EffectiveDate.Time),
		AuditFields:   auditFields(userID, s.Now()),
	}

	if err := s.rateRepo.SaveExchangeRate(ctx, rate); err != nil {
		s.LogOutcome(ctx, err, "Failed to save exchange rate",
			slog.String("from_currency", from),
			slog.String("to_currency", to),
			slog.String("effective_date", rate.EffectiveDate.Format(domain.DateLayout)))
		return nil, err
	}

	s.LogInfo(ctx, "Exchange rate recorded",
		slog.String("from_currency", from),
		slog.String("to_currency", to),
		slog.String("rate", rate.Rate.String()))
	return &rate, nil
}

// GetExchangeRate returns the latest rate effective on or before asOf. When only the
// opposite pair is recorded, its inverse is returned.
func (s *exchangeRateService) GetExchangeRate(ctx context.Context, from, to string, asOf time.Time) (*domain.ExchangeRate, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	day := domain.DateOnly(asOf)
	if from == to {
		return &domain.ExchangeRate{FromCurrency: from, ToCurrency: to, Rate: decimal.NewFromInt(1), EffectiveDate: day}, nil
	}

	rate, err := s.rateRepo.FindRateAsOf(ctx, from, to, day)
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to look up exchange rate", slog.String("from_currency", from), slog.String("to_currency", to))
		return nil, err
	}

	inverse, invErr := s.rateRepo.FindRateAsOf(ctx, to, from, day)
	if invErr != nil {
		if errors.Is(invErr, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no %s/%s rate effective on %s", apperrors.ErrNotFound, from, to, day.Format(domain.DateLayout))
		}
		return nil, invErr
	}
	return &domain.ExchangeRate{
		ID:            inverse.ID,
		FromCurrency:  from,
		ToCurrency:    to,
		Rate:          decimal.NewFromInt(1).DivRound(inverse.Rate, inverseRatePrecision),
		EffectiveDate: inverse.EffectiveDate,
		AuditFields:   inverse.AuditFields,
	}, nil
}

func (s *exchangeRateService) ListExchangeRates(ctx context.Context, from, to string) ([]domain.ExchangeRate, error) {
	rates, err := s.rateRepo.ListExchangeRates(ctx, strings.ToUpper(from), strings.ToUpper(to))
	if err != nil {
		s.LogError(ctx, err, "Failed to list exchange rates")
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	if rates == nil {
		return []domain.ExchangeRate{}, nil
	}
	return rates, nil
}

func (s *exchangeRateService) Convert(ctx context.Context, amount decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, *domain.ExchangeRate, error) {
	rate, err := s.GetExchangeRate(ctx, from, to, asOf)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return rate.Convert(amount), rate, nil
}

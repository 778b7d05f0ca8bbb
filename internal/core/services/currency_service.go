package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/dto"
)

const defaultCurrencyPrecision int32 = 2

type currencyService struct {
	BaseService
	currencyRepo portsrepo.CurrencyRepositoryFacade
}

// NewCurrencyService creates a new currency service.
func NewCurrencyService(currencyRepo portsrepo.CurrencyRepositoryFacade) portssvc.CurrencySvcFacade {
	return &currencyService{currencyRepo: currencyRepo}
}

var _ portssvc.CurrencySvcFacade = (*currencyService)(nil)

func (s *currencyService) CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, userID string) (*domain.Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if len(code) != 3 {
		return nil, fmt.Errorf("%w: currency code must have 3 letters", apperrors.ErrValidation)
	}
	precision := defaultCurrencyPrecision
	if req.Precision != nil {
		precision = *req.Precision
	}

	currency := domain.Currency{
		Code:        code,
		Symbol:      req.Symbol,
		Name:        req.Name,
		Precision:   precision,
		IsActive:    true,
		AuditFields: auditFields(userID, s.Now()),
	}

	if err := s.currencyRepo.SaveCurrency(ctx, currency); err != nil {
		s.LogOutcome(ctx, err, "Failed to create currency", slog.String("currency_code", code))
		return nil, fmt.Errorf("failed to create currency %s: %w", code, err)
	}

	s.LogInfo(ctx, "Currency created", slog.String("currency_code", code))
	return &currency, nil
}

func (s *currencyService) GetCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, strings.ToUpper(code))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get currency", slog.String("currency_code", code))
		}
		return nil, err
	}
	return currency, nil
}

func (s *currencyService) ListCurrencies(ctx context.Context, includeInactive bool) ([]domain.Currency, error) {
	currencies, err := s.currencyRepo.ListCurrencies(ctx, includeInactive)
	if err != nil {
		s.LogError(ctx, err, "Failed to list currencies")
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	if currencies == nil {
		return []domain.Currency{}, nil
	}
	return currencies, nil
}

func (s *currencyService) UpdateCurrency(ctx context.Context, code string, req dto.UpdateCurrencyRequest, userID string) (*domain.Currency, error) {
	currency, err := s.GetCurrency(ctx, code)
	if err != nil {
		return nil, err
	}
	if req.Symbol != nil {
		currency.Symbol = *req.Symbol
	}
	if req.Name != nil {
		currency.Name = *req.Name
	}
	if req.IsActive != nil {
		currency.IsActive = *req.IsActive
	}
	currency.LastUpdatedAt = s.Now()
	currency.LastUpdatedBy = userID

	if err := s.currencyRepo.UpdateCurrency(ctx, *currency); err != nil {
		s.LogOutcome(ctx, err, "Failed to update currency", slog.String("currency_code", currency.Code))
		return nil, err
	}
	s.LogInfo(ctx, "Currency updated", slog.String("currency_code", currency.Code), slog.Bool("is_active", currency.IsActive))
	return currency, nil
}

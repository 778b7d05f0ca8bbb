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
	"github.com/SscSPs/school_ledger/internal/utils/accounting"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo  portsrepo.AccountRepositoryFacade
	currencyRepo portsrepo.CurrencyReader
	// lineTotals is set when deactivation requires a zero balance.
	lineTotals portsrepo.LineTotalsReader
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithCurrencyRepository adds currency repository dependency
func WithCurrencyRepository(repo portsrepo.CurrencyReader) AccountServiceOption {
	return func(s *accountService) {
		s.currencyRepo = repo
	}
}

// WithZeroBalanceDeactivation refuses to deactivate accounts that still hold a balance.
func WithZeroBalanceDeactivation(totals portsrepo.LineTotalsReader) AccountServiceOption {
	return func(s *accountService) {
		s.lineTotals = totals
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repo portsrepo.AccountRepositoryFacade, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo: repo,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: account code is required", apperrors.ErrValidation)
	}
	parentCode := strings.TrimSpace(req.ParentCode)

	var requested domain.AccountType
	if req.AccountType != "" {
		t, err := domain.ParseAccountType(req.AccountType)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		requested = t
	}

	if _, err := s.accountRepo.FindAccountByCode(ctx, code); err == nil {
		return nil, &apperrors.DuplicateAccountError{Code: code}
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to check for existing account", slog.String("account_code", code))
		return nil, err
	}

	accountType, err := s.resolveNewAccountType(ctx, code, parentCode, requested)
	if err != nil {
		return nil, err
	}

	if req.CurrencyCode != "" {
		if err := s.requireActiveCurrency(ctx, req.CurrencyCode); err != nil {
			return nil, err
		}
	}

	now := s.Now()
	account := domain.Account{
		Code:         code,
		Name:         req.Name,
		Type:         accountType,
		ParentCode:   parentCode,
		CurrencyCode: req.CurrencyCode,
		Description:  req.Description,
		IsActive:     true,
		AuditFields:  auditFields(userID, now),
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogOutcome(ctx, err, "Failed to save account in repository", slog.String("account_code", code))
		return nil, err
	}

	s.LogInfo(ctx, "Account created",
		slog.String("account_code", code),
		slog.String("account_type", string(accountType)),
		slog.String("parent_code", parentCode))
	return &account, nil
}

// resolveNewAccountType validates the parent link and returns the type the new account takes.
func (s *accountService) resolveNewAccountType(ctx context.Context, code, parentCode string, requested domain.AccountType) (domain.AccountType, error) {
	if parentCode == "" {
		if requested == "" {
			return "", fmt.Errorf("%w: accountType is required for root accounts", apperrors.ErrValidation)
		}
		return requested, nil
	}
	if parentCode == code {
		return "", &apperrors.InvalidParentError{Code: code, ParentCode: parentCode, Reason: "an account cannot be its own parent"}
	}

	chart, err := s.Chart(ctx)
	if err != nil {
		return "", err
	}
	if _, ok := chart.Get(parentCode); !ok {
		return "", &apperrors.InvalidParentError{Code: code, ParentCode: parentCode, Reason: "parent account not found"}
	}
	rootType, err := chart.ResolveType(parentCode)
	if err != nil {
		return "", &apperrors.InvalidParentError{Code: code, ParentCode: parentCode, Reason: err.Error()}
	}
	if requested != "" && requested != rootType {
		return "", &apperrors.InvalidParentError{
			Code:       code,
			ParentCode: parentCode,
			Reason:     fmt.Sprintf("type %s conflicts with the parent's root type %s", requested, rootType),
		}
	}
	return rootType, nil
}

func (s *accountService) requireActiveCurrency(ctx context.Context, code string) error {
	if s.currencyRepo == nil {
		return nil
	}
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: currency %s not found", apperrors.ErrValidation, code)
		}
		return err
	}
	if !currency.IsActive {
		return fmt.Errorf("%w: currency %s is inactive", apperrors.ErrValidation, code)
	}
	return nil
}

func (s *accountService) GetAccount(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		// Not found is an expected outcome
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by code", slog.String("account_code", code))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

func (s *accountService) Chart(ctx context.Context) (*domain.Chart, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, domain.AccountFilter{IncludeInactive: true})
	if err != nil {
		s.LogError(ctx, err, "Failed to load chart of accounts")
		return nil, fmt.Errorf("failed to load chart of accounts: %w", err)
	}
	return domain.NewChart(accounts), nil
}

func (s *accountService) ResolveType(ctx context.Context, code string) (domain.AccountType, error) {
	chart, err := s.Chart(ctx)
	if err != nil {
		return "", err
	}
	if _, ok := chart.Get(code); !ok {
		return "", fmt.Errorf("%w: account %s", apperrors.ErrNotFound, code)
	}
	t, err := chart.ResolveType(code)
	if err != nil {
		s.LogError(ctx, err, "Chart of accounts is inconsistent", slog.String("account_code", code))
		return "", &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
	}
	return t, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, code string, userID string) (*domain.Account, error) {
	account, err := s.GetAccount(ctx, code)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return account, nil
	}

	if s.lineTotals != nil {
		positions, err := s.lineTotals.SumLines(ctx, domain.LineFilter{AccountCodes: []string{code}, To: domain.MaxDate})
		if err != nil {
			s.LogError(ctx, err, "Failed to sum account lines", slog.String("account_code", code))
			return nil, err
		}
		for _, key := range positions.SortedKeys() {
			if net := positions[key].Net(); !net.IsZero() {
				balance, err := accounting.NetAmount(account.Type, positions[key].Debit, positions[key].Credit)
				if err != nil {
					return nil, err
				}
				inUse := &apperrors.AccountInUseError{Code: code, Currency: key.Currency, Balance: balance}
				s.LogWarn(ctx, inUse, "Refusing to deactivate account with a balance", slog.String("account_code", code))
				return nil, inUse
			}
		}
	}

	return s.setActive(ctx, account, false, userID)
}

func (s *accountService) ReactivateAccount(ctx context.Context, code string, userID string) (*domain.Account, error) {
	account, err := s.GetAccount(ctx, code)
	if err != nil {
		return nil, err
	}
	if account.IsActive {
		return account, nil
	}
	return s.setActive(ctx, account, true, userID)
}

func (s *accountService) setActive(ctx context.Context, account *domain.Account, active bool, userID string) (*domain.Account, error) {
	now := s.Now()
	if err := s.accountRepo.SetAccountActive(ctx, account.Code, active, userID, now); err != nil {
		s.LogOutcome(ctx, err, "Failed to update account status", slog.String("account_code", account.Code))
		return nil, err
	}
	account.IsActive = active
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID

	s.LogInfo(ctx, "Account status changed", slog.String("account_code", account.Code), slog.Bool("is_active", active))
	return account, nil
}

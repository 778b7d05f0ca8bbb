// Package seed loads reference data (currencies, rates, chart of accounts, periods
// and the cash flow mapping) from a YAML file and applies it through the services.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// SystemUser is recorded as the author of seeded rows.
const SystemUser = "system:seed"

type Currency struct {
	Code      string `yaml:"code" validate:"required,len=3,uppercase"`
	Symbol    string `yaml:"symbol" validate:"required"`
	Name      string `yaml:"name" validate:"required"`
	Precision *int32 `yaml:"precision" validate:"omitempty,min=0,max=8"`
}

type ExchangeRate struct {
	From          string `yaml:"from" validate:"required,len=3,uppercase"`
	To            string `yaml:"to" validate:"required,len=3,uppercase,nefield=From"`
	Rate          string `yaml:"rate" validate:"required,numeric"`
	EffectiveDate string `yaml:"effective_date" validate:"required,datetime=2006-01-02"`
}

type Account struct {
	Code        string `yaml:"code" validate:"required,max=32"`
	Name        string `yaml:"name" validate:"required,max=255"`
	Type        string `yaml:"type" validate:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE INCOME EXPENSE"`
	Parent      string `yaml:"parent" validate:"omitempty,max=32"`
	Currency    string `yaml:"currency" validate:"omitempty,len=3,uppercase"`
	Description string `yaml:"description"`
}

type Period struct {
	Name  string `yaml:"name" validate:"required,max=64"`
	Start string `yaml:"start" validate:"required,datetime=2006-01-02"`
	End   string `yaml:"end" validate:"required,datetime=2006-01-02"`
}

// File is the document layout of a seed file.
type File struct {
	Currencies    []Currency        `yaml:"currencies" validate:"dive"`
	ExchangeRates []ExchangeRate    `yaml:"exchange_rates" validate:"dive"`
	Accounts      []Account         `yaml:"accounts" validate:"dive"`
	Periods       []Period          `yaml:"periods" validate:"dive"`
	CashFlow      map[string]string `yaml:"cash_flow" validate:"dive,keys,required,endkeys,oneof=operating investing financing unclassified"`
}

// Summary counts what Apply created and what already existed.
type Summary struct {
	Created int
	Skipped int
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates seed YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	if err := validator.New().Struct(&f); err != nil {
		return nil, fmt.Errorf("%w: invalid seed file: %v", apperrors.ErrValidation, err)
	}
	if err := f.checkParents(); err != nil {
		return nil, err
	}
	return &f, nil
}

// checkParents rejects a child listed before its parent. Parents not listed at all
// are expected to exist already.
func (f *File) checkParents() error {
	listed := make(map[string]int, len(f.Accounts))
	for i, a := range f.Accounts {
		listed[a.Code] = i
	}
	for i, a := range f.Accounts {
		if a.Parent == "" {
			continue
		}
		if j, ok := listed[a.Parent]; ok && j > i {
			return fmt.Errorf("%w: account %s is listed before its parent %s", apperrors.ErrValidation, a.Code, a.Parent)
		}
	}
	return nil
}

// CashFlowMapping returns the default mapping overridden by the file's cash_flow section.
func (f *File) CashFlowMapping() domain.CashFlowMapping {
	mapping := domain.DefaultCashFlowMapping()
	for source, bucket := range f.CashFlow {
		mapping[domain.SourceType(source)] = domain.CashFlowBucket(bucket)
	}
	return mapping
}

// Apply creates everything in the file that does not exist yet. It is safe to run on
// every start.
func Apply(ctx context.Context, f *File, svc *portssvc.ServiceContainer, logger *slog.Logger) (Summary, error) {
	var sum Summary
	tally := func(err error, what string) error {
		switch {
		case err == nil:
			sum.Created++
			return nil
		case errors.Is(err, apperrors.ErrDuplicate):
			sum.Skipped++
			return nil
		default:
			return fmt.Errorf("seed %s: %w", what, err)
		}
	}

	for _, c := range f.Currencies {
		_, err := svc.Currency.CreateCurrency(ctx, dto.CreateCurrencyRequest{
			CurrencyCode: c.Code,
			Symbol:       c.Symbol,
			Name:         c.Name,
			Precision:    c.Precision,
		}, SystemUser)
		if err := tally(err, "currency "+c.Code); err != nil {
			return sum, err
		}
	}

	for _, r := range f.ExchangeRates {
		// Validated by Parse.
		rate := decimal.RequireFromString(r.Rate)
		effective, _ := dto.ParseDate(r.EffectiveDate)
		_, err := svc.ExchangeRate.CreateExchangeRate(ctx, dto.CreateExchangeRateRequest{
			FromCurrencyCode: r.From,
			ToCurrencyCode:   r.To,
			Rate:             rate,
			EffectiveDate:    effective,
		}, SystemUser)
		if err := tally(err, fmt.Sprintf("exchange rate %s/%s", r.From, r.To)); err != nil {
			return sum, err
		}
	}

	for _, a := range f.Accounts {
		_, err := svc.Account.CreateAccount(ctx, dto.CreateAccountRequest{
			Code:         a.Code,
			Name:         a.Name,
			AccountType:  a.Type,
			ParentCode:   a.Parent,
			CurrencyCode: a.Currency,
			Description:  a.Description,
		}, SystemUser)
		if err := tally(err, "account "+a.Code); err != nil {
			return sum, err
		}
	}

	if len(f.Periods) > 0 {
		existing, err := svc.Period.ListPeriods(ctx)
		if err != nil {
			return sum, fmt.Errorf("seed periods: %w", err)
		}
		for _, p := range f.Periods {
			start, _ := dto.ParseDate(p.Start)
			end, _ := dto.ParseDate(p.End)
			if hasPeriod(existing, start.Time, end.Time) {
				sum.Skipped++
				continue
			}
			_, err := svc.Period.CreatePeriod(ctx, dto.CreatePeriodRequest{Name: p.Name, StartDate: start, EndDate: end}, SystemUser)
			if err := tally(err, "period "+p.Name); err != nil {
				return sum, err
			}
		}
	}

	logger.Info("Seed applied", slog.Int("created", sum.Created), slog.Int("skipped", sum.Skipped))
	return sum, nil
}

func hasPeriod(periods []domain.AccountingPeriod, start, end time.Time) bool {
	for _, p := range periods {
		if p.StartDate.Equal(start) && p.EndDate.Equal(end) {
			return true
		}
	}
	return false
}

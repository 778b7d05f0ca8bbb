package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/platform/metrics"
	"github.com/SscSPs/school_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// Integrity check names reported by the statement generators.
const (
	CheckTrialBalance       = "trial_balance"
	CheckAccountingEquation = "accounting_equation"
	CheckCashFlow           = "cash_flow"
)

// DefaultBaseCurrency is used by statements when no currency is requested or configured.
const DefaultBaseCurrency = "USD"

// reportingService implements the statement generators on top of the balance fold.
type reportingService struct {
	BaseService
	accountSvc   portssvc.AccountReaderSvc
	balances     portssvc.BalanceFolderSvc
	lines        portsrepo.LineReader
	baseCurrency string
	cashAccounts []string
	cashFlowMap  domain.CashFlowMapping
	metrics      *metrics.Metrics
}

// ReportingServiceOption is a functional option for configuring the reporting service
type ReportingServiceOption func(*reportingService)

// WithBaseCurrency sets the currency statements use when none is requested.
func WithBaseCurrency(code string) ReportingServiceOption {
	return func(s *reportingService) {
		if code != "" {
			s.baseCurrency = strings.ToUpper(code)
		}
	}
}

// WithCashAccounts sets the accounts (with their descendants) the cash flow statement covers.
func WithCashAccounts(codes ...string) ReportingServiceOption {
	return func(s *reportingService) {
		if len(codes) > 0 {
			s.cashAccounts = codes
		}
	}
}

// WithCashFlowMapping sets the source type to bucket mapping.
func WithCashFlowMapping(mapping domain.CashFlowMapping) ReportingServiceOption {
	return func(s *reportingService) {
		if len(mapping) > 0 {
			s.cashFlowMap = mapping
		}
	}
}

// WithReportingMetrics records integrity failures.
func WithReportingMetrics(m *metrics.Metrics) ReportingServiceOption {
	return func(s *reportingService) {
		s.metrics = m
	}
}

// NewReportingService creates a new reporting service.
func NewReportingService(accountSvc portssvc.AccountReaderSvc, balances portssvc.BalanceFolderSvc, lines portsrepo.LineReader, options ...ReportingServiceOption) portssvc.ReportingService {
	svc := &reportingService{
		accountSvc:   accountSvc,
		balances:     balances,
		lines:        lines,
		baseCurrency: DefaultBaseCurrency,
		cashAccounts: []string{"1000"},
		cashFlowMap:  domain.DefaultCashFlowMapping(),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ReportingService = (*reportingService)(nil)

func (s *reportingService) currency(requested string) string {
	if requested == "" {
		return s.baseCurrency
	}
	return strings.ToUpper(requested)
}

// snapshot loads the chart and resolves every account's type once per report.
func (s *reportingService) snapshot(ctx context.Context) (*domain.Chart, map[string]domain.AccountType, error) {
	chart, err := s.accountSvc.Chart(ctx)
	if err != nil {
		return nil, nil, err
	}
	types := make(map[string]domain.AccountType, chart.Len())
	for _, a := range chart.Accounts() {
		t, err := chart.ResolveType(a.Code)
		if err != nil {
			return nil, nil, &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
		}
		types[a.Code] = t
	}
	return chart, types, nil
}

func (s *reportingService) integrityFailure(ctx context.Context, err *apperrors.IntegrityError) error {
	s.metrics.IntegrityFailed(err.Check)
	attrs := []any{slog.String("check", err.Check)}
	for k, v := range err.Amounts {
		attrs = append(attrs, slog.String(k, v.String()))
	}
	s.LogError(ctx, err, "Ledger integrity check failed", attrs...)
	return err
}

// TrialBalance lists every account with a non-zero balance as of asOf.
func (s *reportingService) TrialBalance(ctx context.Context, asOf time.Time, currency string) (*domain.TrialBalance, error) {
	currency = s.currency(currency)
	day := domain.DateOnly(asOf)
	chart, types, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	positions, err := s.balances.FoldPositions(ctx, domain.LineFilter{Currency: currency, To: day})
	if err != nil {
		return nil, err
	}

	report := &domain.TrialBalance{AsOf: day, Currency: currency, Rows: []domain.TrialBalanceRow{}}
	for _, key := range positions.SortedKeys() {
		account, ok := chart.Get(key.AccountCode)
		if !ok {
			return nil, s.integrityFailure(ctx, &apperrors.IntegrityError{Check: CheckTrialBalance, Detail: fmt.Sprintf("lines reference unknown account %s", key.AccountCode)})
		}
		net := positions[key].Net()
		if net.IsZero() {
			continue
		}
		row := domain.TrialBalanceRow{
			AccountCode: account.Code,
			AccountName: account.Name,
			AccountType: types[account.Code],
			IsActive:    account.IsActive,
		}
		if net.IsPositive() {
			row.Debit = net
		} else {
			row.Credit = net.Neg()
		}
		report.TotalDebit = report.TotalDebit.Add(row.Debit)
		report.TotalCredit = report.TotalCredit.Add(row.Credit)
		report.Rows = append(report.Rows, row)
	}

	if !report.TotalDebit.Equal(report.TotalCredit) {
		return nil, s.integrityFailure(ctx, &apperrors.IntegrityError{
			Check:   CheckTrialBalance,
			Detail:  "total debits do not equal total credits",
			Amounts: map[string]decimal.Decimal{"total_debit": report.TotalDebit, "total_credit": report.TotalCredit},
		})
	}
	return report, nil
}

// IncomeStatement sums revenue and expense movements over rng. Closing entries are
// excluded so closed periods still show what they earned.
func (s *reportingService) IncomeStatement(ctx context.Context, rng domain.DateRange, currency string) (*domain.IncomeStatement, error) {
	if rng.From.After(rng.To) {
		return nil, fmt.Errorf("%w: from must not be after to", apperrors.ErrValidation)
	}
	currency = s.currency(currency)
	chart, types, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	from := domain.DateOnly(rng.From)
	positions, err := s.balances.FoldPositions(ctx, domain.LineFilter{
		Currency:           currency,
		From:               &from,
		To:                 domain.DateOnly(rng.To),
		ExcludeSourceTypes: []domain.SourceType{domain.SourcePeriodClose},
	})
	if err != nil {
		return nil, err
	}

	report := &domain.IncomeStatement{
		Range:    domain.DateRange{From: from, To: domain.DateOnly(rng.To)},
		Currency: currency,
		Revenue:  []domain.AccountAmount{},
		Expenses: []domain.AccountAmount{},
	}
	for _, key := range positions.SortedKeys() {
		t := types[key.AccountCode]
		if !domain.IsNominal(t) {
			continue
		}
		totals := positions[key]
		net, err := accounting.NetAmount(t, totals.Debit, totals.Credit)
		if err != nil {
			return nil, &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
		}
		amount := domain.AccountAmount{AccountCode: key.AccountCode, Name: accountName(chart, key.AccountCode), NetAmount: net}
		if amount.NetAmount.IsZero() {
			continue
		}
		if t == domain.Revenue {
			report.Revenue = append(report.Revenue, amount)
			report.TotalRevenue = report.TotalRevenue.Add(amount.NetAmount)
		} else {
			report.Expenses = append(report.Expenses, amount)
			report.TotalExpenses = report.TotalExpenses.Add(amount.NetAmount)
		}
	}
	report.NetIncome = report.TotalRevenue.Sub(report.TotalExpenses)
	return report, nil
}

// BalanceSheet reports the real accounts as of asOf, with unclosed net income shown
// as current earnings inside equity.
func (s *reportingService) BalanceSheet(ctx context.Context, asOf time.Time, currency string) (*domain.BalanceSheet, error) {
	currency = s.currency(currency)
	day := domain.DateOnly(asOf)
	chart, types, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	positions, err := s.balances.FoldPositions(ctx, domain.LineFilter{Currency: currency, To: day})
	if err != nil {
		return nil, err
	}

	report := &domain.BalanceSheet{
		AsOf:        day,
		Currency:    currency,
		Assets:      []domain.AccountAmount{},
		Liabilities: []domain.AccountAmount{},
		Equity:      []domain.AccountAmount{},
	}
	var equityTotal decimal.Decimal
	for _, key := range positions.SortedKeys() {
		t := types[key.AccountCode]
		totals := positions[key]
		net, err := accounting.NetAmount(t, totals.Debit, totals.Credit)
		if err != nil {
			return nil, &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
		}
		if net.IsZero() {
			continue
		}
		amount := domain.AccountAmount{AccountCode: key.AccountCode, Name: accountName(chart, key.AccountCode), NetAmount: net}
		switch t {
		case domain.Asset:
			report.Assets = append(report.Assets, amount)
			report.TotalAssets = report.TotalAssets.Add(net)
		case domain.Liability:
			report.Liabilities = append(report.Liabilities, amount)
			report.TotalLiabilities = report.TotalLiabilities.Add(net)
		case domain.Equity:
			report.Equity = append(report.Equity, amount)
			equityTotal = equityTotal.Add(net)
		case domain.Revenue:
			report.CurrentEarnings = report.CurrentEarnings.Add(net)
		case domain.Expense:
			report.CurrentEarnings = report.CurrentEarnings.Sub(net)
		default:
			return nil, s.integrityFailure(ctx, &apperrors.IntegrityError{Check: CheckAccountingEquation, Detail: fmt.Sprintf("lines reference unknown account %s", key.AccountCode)})
		}
	}
	report.TotalEquity = equityTotal.Add(report.CurrentEarnings)

	if !report.TotalAssets.Equal(report.TotalLiabilities.Add(report.TotalEquity)) {
		return nil, s.integrityFailure(ctx, &apperrors.IntegrityError{
			Check:  CheckAccountingEquation,
			Detail: "assets do not equal liabilities plus equity",
			Amounts: map[string]decimal.Decimal{
				"total_assets":      report.TotalAssets,
				"total_liabilities": report.TotalLiabilities,
				"total_equity":      report.TotalEquity,
			},
		})
	}
	return report, nil
}

// CashFlow classifies the movements of the cash accounts over rng by the source type
// of the entries that moved them.
func (s *reportingService) CashFlow(ctx context.Context, rng domain.DateRange, currency string) (*domain.CashFlowStatement, error) {
	if rng.From.After(rng.To) {
		return nil, fmt.Errorf("%w: from must not be after to", apperrors.ErrValidation)
	}
	currency = s.currency(currency)
	from, to := domain.DateOnly(rng.From), domain.DateOnly(rng.To)

	chart, _, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	cashCodes, err := s.cashAccountCodes(chart)
	if err != nil {
		return nil, err
	}

	opening, err := s.cashPosition(ctx, cashCodes, currency, from.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	closing, err := s.cashPosition(ctx, cashCodes, currency, to)
	if err != nil {
		return nil, err
	}

	// Net each entry's cash lines so transfers between cash accounts cancel.
	type entryCash struct {
		sourceType domain.SourceType
		net        decimal.Decimal
	}
	byEntry := make(map[string]*entryCash)
	order := make([]string, 0)
	err = s.lines.StreamLines(ctx, domain.LineFilter{AccountCodes: cashCodes, Currency: currency, From: &from, To: to}, func(l domain.PostedLine) error {
		e, ok := byEntry[l.EntryID]
		if !ok {
			e = &entryCash{sourceType: l.SourceType}
			byEntry[l.EntryID] = e
			order = append(order, l.EntryID)
		}
		if l.Side == domain.Debit {
			e.net = e.net.Add(l.Amount)
		} else {
			e.net = e.net.Sub(l.Amount)
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to read cash movements")
		return nil, fmt.Errorf("failed to read cash movements: %w", err)
	}

	sections := make(map[domain.CashFlowBucket]*domain.CashFlowSection, len(domain.CashFlowBuckets))
	for _, b := range domain.CashFlowBuckets {
		sections[b] = &domain.CashFlowSection{Bucket: b}
	}
	var netChange decimal.Decimal
	for _, id := range order {
		e := byEntry[id]
		section := sections[s.cashFlowMap.Bucket(e.sourceType)]
		if e.net.IsPositive() {
			section.Inflow = section.Inflow.Add(e.net)
		} else if e.net.IsNegative() {
			section.Outflow = section.Outflow.Add(e.net.Neg())
		}
		section.Net = section.Net.Add(e.net)
		netChange = netChange.Add(e.net)
	}

	report := &domain.CashFlowStatement{
		Range:        domain.DateRange{From: from, To: to},
		Currency:     currency,
		CashAccounts: cashCodes,
		OpeningCash:  opening,
		Sections:     make([]domain.CashFlowSection, 0, len(domain.CashFlowBuckets)),
		NetChange:    netChange,
		ClosingCash:  closing,
	}
	for _, b := range domain.CashFlowBuckets {
		report.Sections = append(report.Sections, *sections[b])
	}

	if !opening.Add(netChange).Equal(closing) {
		return nil, s.integrityFailure(ctx, &apperrors.IntegrityError{
			Check:  CheckCashFlow,
			Detail: "opening cash plus net change does not equal closing cash",
			Amounts: map[string]decimal.Decimal{
				"opening_cash": opening,
				"net_change":   netChange,
				"closing_cash": closing,
			},
		})
	}
	return report, nil
}

// cashAccountCodes expands the configured cash accounts to include their descendants.
func (s *reportingService) cashAccountCodes(chart *domain.Chart) ([]string, error) {
	seen := make(map[string]struct{})
	codes := make([]string, 0, len(s.cashAccounts))
	for _, root := range s.cashAccounts {
		if _, ok := chart.Get(root); !ok {
			return nil, fmt.Errorf("%w: cash account %s not found", apperrors.ErrValidation, root)
		}
		for _, code := range chart.Descendants(root) {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

// cashPosition returns the debit-minus-credit balance of the cash accounts as of asOf.
func (s *reportingService) cashPosition(ctx context.Context, codes []string, currency string, asOf time.Time) (decimal.Decimal, error) {
	positions, err := s.balances.FoldPositions(ctx, domain.LineFilter{AccountCodes: codes, Currency: currency, To: asOf})
	if err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	for _, t := range positions {
		total = total.Add(t.Net())
	}
	return total, nil
}

func accountName(chart *domain.Chart, code string) string {
	if a, ok := chart.Get(code); ok {
		return a.Name
	}
	return ""
}

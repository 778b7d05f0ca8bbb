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
	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/platform/metrics"
	"github.com/SscSPs/school_ledger/internal/utils/accounting"
)

// DefaultReconcileToleranceDays is the date window used when a request sets none.
const DefaultReconcileToleranceDays = 3

type reconciliationService struct {
	BaseService
	accountSvc    portssvc.AccountReaderSvc
	balances      portssvc.BalanceReaderSvc
	toleranceDays int
	metrics       *metrics.Metrics
}

// ReconciliationServiceOption is a functional option for configuring the reconciliation service
type ReconciliationServiceOption func(*reconciliationService)

// WithToleranceDays sets the default matching window.
func WithToleranceDays(days int) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		if days >= 0 {
			s.toleranceDays = days
		}
	}
}

// WithReconciliationMetrics records reconcile outcomes.
func WithReconciliationMetrics(m *metrics.Metrics) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		s.metrics = m
	}
}

// NewReconciliationService creates a new reconciliation checker. It only reads the ledger.
func NewReconciliationService(accountSvc portssvc.AccountReaderSvc, balances portssvc.BalanceReaderSvc, options ...ReconciliationServiceOption) portssvc.ReconciliationService {
	svc := &reconciliationService{
		accountSvc:    accountSvc,
		balances:      balances,
		toleranceDays: DefaultReconcileToleranceDays,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ReconciliationService = (*reconciliationService)(nil)

func (s *reconciliationService) Reconcile(ctx context.Context, bankAccountCode string, req domain.ReconciliationRequest) (*domain.ReconciliationResult, error) {
	account, err := s.accountSvc.GetAccount(ctx, bankAccountCode)
	if err != nil {
		return nil, err
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one statement line is required", apperrors.ErrValidation)
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = account.CurrencyCode
	}
	if currency == "" {
		return nil, fmt.Errorf("%w: account %s holds several currencies, a currency is required", apperrors.ErrValidation, bankAccountCode)
	}
	if !account.AcceptsCurrency(currency) {
		return nil, fmt.Errorf("%w: account %s does not hold %s", apperrors.ErrValidation, bankAccountCode, currency)
	}

	tolerance := s.toleranceDays
	if req.ToleranceDays != nil {
		if *req.ToleranceDays < 0 {
			return nil, fmt.Errorf("%w: toleranceDays must not be negative", apperrors.ErrValidation)
		}
		tolerance = *req.ToleranceDays
	}

	rng := statementRange(req)
	if rng.From.After(rng.To) {
		return nil, fmt.Errorf("%w: from must not be after to", apperrors.ErrValidation)
	}

	// Lines just outside the range may still match statement lines inside it.
	window := time.Duration(tolerance) * 24 * time.Hour
	movements, err := s.balances.GetMovements(ctx, bankAccountCode, rng.From.Add(-window), rng.To.Add(window))
	if err != nil {
		return nil, err
	}
	ledger := make([]domain.LedgerItem, 0, len(movements))
	for _, m := range movements {
		if m.CurrencyCode != currency {
			continue
		}
		// Statement amounts are signed from the bank's cash view: money in is positive.
		amount, err := accounting.CalculateSignedAmount(m.JournalLine, domain.Asset)
		if err != nil {
			return nil, err
		}
		ledger = append(ledger, domain.LedgerItem{
			EntryID:     m.EntryID,
			LineID:      m.ID,
			Date:        domain.DateOnly(m.TransactionDate),
			Amount:      amount,
			Currency:    m.CurrencyCode,
			Description: m.Description,
			SourceType:  m.SourceType,
		})
	}

	balance, err := s.balances.GetBalance(ctx, bankAccountCode, rng.To, currency)
	if err != nil {
		return nil, err
	}

	result := matchStatement(req.Lines, ledger, tolerance)
	result.UnmatchedLedger = inRange(result.UnmatchedLedger, rng)
	result.AccountCode = bankAccountCode
	result.Currency = currency
	result.Range = rng
	result.ToleranceDays = tolerance
	result.LedgerBalance, err = accounting.NetAmount(domain.Asset, balance.DebitTotal, balance.CreditTotal)
	if err != nil {
		return nil, err
	}
	if req.ClosingBalance != nil {
		closing := *req.ClosingBalance
		diff := closing.Sub(result.LedgerBalance)
		result.ClosingBalance = &closing
		result.Difference = &diff
	}

	outcome := "unreconciled"
	if result.IsReconciled() {
		outcome = "reconciled"
	}
	s.metrics.Reconciled(outcome)
	s.LogInfo(ctx, "Reconciliation completed",
		slog.String("account_code", bankAccountCode),
		slog.String("currency", currency),
		slog.Int("matched", len(result.Matched)),
		slog.Int("unmatched_ledger", len(result.UnmatchedLedger)),
		slog.Int("unmatched_statement", len(result.UnmatchedStatement)),
		slog.String("outcome", outcome))
	return result, nil
}

// statementRange defaults missing bounds to the earliest and latest statement dates.
func statementRange(req domain.ReconciliationRequest) domain.DateRange {
	minDate := domain.DateOnly(req.Lines[0].Date)
	maxDate := minDate
	for _, l := range req.Lines[1:] {
		d := domain.DateOnly(l.Date)
		if d.Before(minDate) {
			minDate = d
		}
		if d.After(maxDate) {
			maxDate = d
		}
	}
	rng := domain.DateRange{From: minDate, To: maxDate}
	if req.From != nil {
		rng.From = domain.DateOnly(*req.From)
	}
	if req.To != nil {
		rng.To = domain.DateOnly(*req.To)
	}
	return rng
}

// inRange keeps the ledger items dated inside rng.
func inRange(items []domain.LedgerItem, rng domain.DateRange) []domain.LedgerItem {
	out := make([]domain.LedgerItem, 0, len(items))
	for _, it := range items {
		if it.Date.Before(rng.From) || it.Date.After(rng.To) {
			continue
		}
		out = append(out, it)
	}
	return out
}

type candidate struct {
	stmt, ledger int
	days         int
}

// matchStatement pairs statement and ledger lines with equal amounts whose dates lie
// within tolerance days. Pairs are taken nearest date first, then earliest posting.
func matchStatement(stmt []domain.StatementLine, ledger []domain.LedgerItem, tolerance int) *domain.ReconciliationResult {
	candidates := make([]candidate, 0)
	for i, sl := range stmt {
		for j, li := range ledger {
			if !sl.Amount.Equal(li.Amount) {
				continue
			}
			days := daysBetween(sl.Date, li.Date)
			if days > tolerance {
				continue
			}
			candidates = append(candidates, candidate{stmt: i, ledger: j, days: days})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.days != cb.days {
			return ca.days < cb.days
		}
		if ca.ledger != cb.ledger {
			return ca.ledger < cb.ledger
		}
		return ca.stmt < cb.stmt
	})

	stmtUsed := make([]bool, len(stmt))
	ledgerUsed := make([]bool, len(ledger))
	result := &domain.ReconciliationResult{
		Matched:            []domain.ReconciliationMatch{},
		UnmatchedLedger:    []domain.LedgerItem{},
		UnmatchedStatement: []domain.StatementLine{},
	}
	for _, c := range candidates {
		if stmtUsed[c.stmt] || ledgerUsed[c.ledger] {
			continue
		}
		stmtUsed[c.stmt] = true
		ledgerUsed[c.ledger] = true
		result.Matched = append(result.Matched, domain.ReconciliationMatch{
			Statement: stmt[c.stmt],
			Ledger:    ledger[c.ledger],
			DaysApart: c.days,
		})
	}
	for i, used := range stmtUsed {
		if !used {
			result.UnmatchedStatement = append(result.UnmatchedStatement, stmt[i])
		}
	}
	for j, used := range ledgerUsed {
		if !used {
			result.UnmatchedLedger = append(result.UnmatchedLedger, ledger[j])
		}
	}
	return result
}

func daysBetween(a, b time.Time) int {
	d := int(domain.DateOnly(a).Sub(domain.DateOnly(b)).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

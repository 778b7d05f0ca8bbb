package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/SscSPs/school_ledger/internal/platform/metrics"
	"github.com/SscSPs/school_ledger/internal/utils/accounting"
)

// DefaultRetainedEarningsAccount receives net income when no account is configured.
const DefaultRetainedEarningsAccount = "3000"

// periodService manages accounting periods and the closing protocol.
type periodService struct {
	BaseService
	periodRepo       portsrepo.PeriodRepositoryFacade
	accountSvc       portssvc.AccountReaderSvc
	balances         portssvc.BalanceInvalidatorSvc
	retainedEarnings string
	metrics          *metrics.Metrics

	// closeLocks serializes CompleteClose per period within the process.
	closeLocks sync.Map
}

// PeriodServiceOption is a functional option for configuring the period service
type PeriodServiceOption func(*periodService)

// WithRetainedEarningsAccount sets the Equity account that receives net income.
func WithRetainedEarningsAccount(code string) PeriodServiceOption {
	return func(s *periodService) {
		if code != "" {
			s.retainedEarnings = code
		}
	}
}

// WithPeriodBalanceInvalidator notifies the balance aggregator after a close.
func WithPeriodBalanceInvalidator(svc portssvc.BalanceInvalidatorSvc) PeriodServiceOption {
	return func(s *periodService) {
		s.balances = svc
	}
}

// WithPeriodMetrics records close counters.
func WithPeriodMetrics(m *metrics.Metrics) PeriodServiceOption {
	return func(s *periodService) {
		s.metrics = m
	}
}

// NewPeriodService creates a new period manager.
func NewPeriodService(periodRepo portsrepo.PeriodRepositoryFacade, accountSvc portssvc.AccountReaderSvc, options ...PeriodServiceOption) portssvc.PeriodSvcFacade {
	svc := &periodService{
		periodRepo:       periodRepo,
		accountSvc:       accountSvc,
		retainedEarnings: DefaultRetainedEarningsAccount,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

func (s *periodService) CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest, userID string) (*domain.AccountingPeriod, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: period name is required", apperrors.ErrValidation)
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: startDate and endDate are required", apperrors.ErrValidation)
	}
	start, end := domain.DateOnly(req.StartDate.Time), domain.DateOnly(req.EndDate.Time)
	if start.After(end) {
		return nil, fmt.Errorf("%w: startDate must not be after endDate", apperrors.ErrValidation)
	}

	period := domain.AccountingPeriod{
		ID:          uuid.NewString(),
		Name:        req.Name,
		StartDate:   start,
		EndDate:     end,
		Status:      domain.PeriodOpen,
		AuditFields: auditFields(userID, s.Now()),
	}
	if err := s.periodRepo.SavePeriod(ctx, period); err != nil {
		s.LogOutcome(ctx, err, "Failed to create accounting period", slog.String("name", req.Name))
		return nil, err
	}

	s.LogInfo(ctx, "Accounting period created",
		slog.String("period_id", period.ID),
		slog.String("start_date", start.Format(domain.DateLayout)),
		slog.String("end_date", end.Format(domain.DateLayout)))
	return &period, nil
}

func (s *periodService) GetPeriod(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get accounting period", slog.String("period_id", periodID))
		}
		return nil, err
	}
	return period, nil
}

func (s *periodService) ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error) {
	periods, err := s.periodRepo.ListPeriods(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounting periods")
		return nil, fmt.Errorf("failed to list accounting periods: %w", err)
	}
	if periods == nil {
		return []domain.AccountingPeriod{}, nil
	}
	return periods, nil
}

func (s *periodService) FindPeriodForDate(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error) {
	return s.periodRepo.FindPeriodByDate(ctx, domain.DateOnly(date))
}

// InitiateClose moves an OPEN period to CLOSING once every earlier period is closed.
func (s *periodService) InitiateClose(ctx context.Context, periodID string, userID string) (*domain.AccountingPeriod, error) {
	period, err := s.periodRepo.TransitionPeriod(ctx, periodID, userID, s.Now(),
		func(p domain.AccountingPeriod, earlier []domain.AccountingPeriod) (domain.PeriodStatus, error) {
			if p.Status != domain.PeriodOpen {
				return "", &apperrors.PeriodNotOpenError{PeriodID: p.ID, Status: string(p.Status)}
			}
			for _, e := range earlier {
				if e.Status != domain.PeriodClosed {
					return "", &apperrors.EarlierPeriodOpenError{PeriodID: p.ID, EarlierPeriodID: e.ID, EarlierStatus: string(e.Status)}
				}
			}
			return domain.PeriodClosing, nil
		})
	if err != nil {
		s.LogOutcome(ctx, err, "Failed to initiate period close", slog.String("period_id", periodID))
		return nil, err
	}

	s.metrics.PeriodTransitioned(string(domain.PeriodClosing))
	s.LogInfo(ctx, "Period close initiated", slog.String("period_id", periodID), slog.String("user_id", userID))
	return period, nil
}

// AbortClose returns a CLOSING period to OPEN.
func (s *periodService) AbortClose(ctx context.Context, periodID string, userID string) (*domain.AccountingPeriod, error) {
	period, err := s.periodRepo.TransitionPeriod(ctx, periodID, userID, s.Now(),
		func(p domain.AccountingPeriod, _ []domain.AccountingPeriod) (domain.PeriodStatus, error) {
			if p.Status != domain.PeriodClosing {
				return "", &apperrors.PeriodNotClosingError{PeriodID: p.ID, Status: string(p.Status)}
			}
			return domain.PeriodOpen, nil
		})
	if err != nil {
		s.LogOutcome(ctx, err, "Failed to abort period close", slog.String("period_id", periodID))
		return nil, err
	}

	s.metrics.PeriodTransitioned(string(domain.PeriodOpen))
	s.LogInfo(ctx, "Period close aborted", slog.String("period_id", periodID), slog.String("user_id", userID))
	return period, nil
}

func (s *periodService) closeLock(periodID string) *sync.Mutex {
	lock, _ := s.closeLocks.LoadOrStore(periodID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// CompleteClose posts the closing entry and marks the period CLOSED.
func (s *periodService) CompleteClose(ctx context.Context, periodID string, userID string) (*domain.AccountingPeriod, *domain.JournalEntry, error) {
	lock := s.closeLock(periodID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	now := s.Now()
	period, closing, err := s.periodRepo.ClosePeriod(ctx, periodID, userID, now, s.closingBuilder(userID, now))
	elapsed := time.Since(started).Seconds()
	if err != nil {
		outcome := "rejected"
		if errors.Is(err, apperrors.ErrIntegrity) {
			outcome = "integrity_failure"
			s.metrics.IntegrityFailed("period_close")
		} else if !isExpected(err) {
			outcome = "error"
		}
		s.metrics.PeriodClosed(outcome, elapsed)
		s.LogOutcome(ctx, err, "Failed to complete period close", slog.String("period_id", periodID))
		return nil, nil, err
	}

	attrs := []any{slog.String("period_id", periodID), slog.String("user_id", userID)}
	if closing != nil {
		if s.balances != nil {
			s.balances.Invalidate(ctx, closing.AccountCodes()...)
		}
		attrs = append(attrs, slog.String("closing_entry_id", closing.ID), slog.Int("lines", len(closing.Lines)))
	}
	s.metrics.PeriodClosed("closed", elapsed)
	s.metrics.PeriodTransitioned(string(domain.PeriodClosed))
	s.LogInfo(ctx, "Period closed", attrs...)
	return period, closing, nil
}

// closingBuilder returns the function that validates the locked period and computes
// its closing entry from lines read inside the close transaction.
func (s *periodService) closingBuilder(userID string, now time.Time) portsrepo.ClosingBuilder {
	return func(ctx context.Context, period domain.AccountingPeriod, lines portsrepo.LineReader) (*domain.JournalEntry, error) {
		if period.Status != domain.PeriodClosing {
			return nil, &apperrors.PeriodNotClosingError{PeriodID: period.ID, Status: string(period.Status)}
		}

		chart, err := s.accountSvc.Chart(ctx)
		if err != nil {
			return nil, err
		}
		types := make(map[string]domain.AccountType, chart.Len())
		nominal := make([]string, 0)
		for _, a := range chart.Accounts() {
			t, err := chart.ResolveType(a.Code)
			if err != nil {
				return nil, &apperrors.IntegrityError{Check: "chart_of_accounts", Detail: err.Error()}
			}
			types[a.Code] = t
			if domain.IsNominal(t) {
				nominal = append(nominal, a.Code)
			}
		}
		if len(nominal) == 0 {
			return nil, nil
		}

		start := domain.DateOnly(period.StartDate)
		positions := make(domain.Positions)
		err = lines.StreamLines(ctx, domain.LineFilter{AccountCodes: nominal, From: &start, To: period.EndDate}, func(l domain.PostedLine) error {
			positions.Add(l.JournalLine)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fold period lines: %w", err)
		}

		closingLines := accounting.BuildClosingLines(positions, types, s.retainedEarnings)
		if len(closingLines) == 0 {
			return nil, nil
		}

		retained, ok := chart.Get(s.retainedEarnings)
		if !ok {
			return nil, fmt.Errorf("%w: retained earnings account %s not found", apperrors.ErrValidation, s.retainedEarnings)
		}
		if !retained.IsActive {
			return nil, fmt.Errorf("%w: retained earnings account %s is inactive", apperrors.ErrValidation, retained.Code)
		}
		if types[retained.Code] != domain.Equity {
			return nil, fmt.Errorf("%w: retained earnings account %s must be an equity account", apperrors.ErrValidation, retained.Code)
		}
		for _, l := range closingLines {
			if !retained.AcceptsCurrency(l.CurrencyCode) {
				return nil, fmt.Errorf("%w: retained earnings account %s does not accept %s", apperrors.ErrValidation, retained.Code, l.CurrencyCode)
			}
		}

		if err := verifyClosingLines(period.ID, closingLines, positions, types, s.retainedEarnings); err != nil {
			return nil, err
		}

		entry := &domain.JournalEntry{
			ID:              uuid.NewString(),
			TransactionDate: domain.DateOnly(period.EndDate),
			Description:     fmt.Sprintf("Close period %s", period.Name),
			SourceType:      domain.SourcePeriodClose,
			SourceID:        period.ID,
			PeriodID:        period.ID,
			Lines:           closingLines,
			AuditFields:     auditFields(userID, now),
		}
		assignLineIDs(entry)
		return entry, nil
	}
}

// verifyClosingLines checks the closing entry balances per currency and moves exactly
// the independently computed net income into retained earnings.
func verifyClosingLines(periodID string, lines []domain.JournalLine, positions domain.Positions, types map[string]domain.AccountType, retained string) error {
	totals := accounting.CurrencyTotals(lines)
	netIncome := accounting.NetIncomeByCurrency(positions, types)
	movement := accounting.RetainedEarningsMovement(lines, retained)

	seen := make(map[string]struct{}, len(totals)+len(netIncome))
	for c := range totals {
		seen[c] = struct{}{}
	}
	for c := range netIncome {
		seen[c] = struct{}{}
	}
	currencies := make([]string, 0, len(seen))
	for c := range seen {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	for _, c := range currencies {
		t := totals[c]
		if !t.Debit.Equal(t.Credit) || !movement[c].Equal(netIncome[c]) {
			return &apperrors.UnbalancedPeriodError{
				PeriodID:    periodID,
				Currency:    c,
				DebitTotal:  t.Debit,
				CreditTotal: t.Credit,
				NetIncome:   netIncome[c],
			}
		}
	}
	return nil
}

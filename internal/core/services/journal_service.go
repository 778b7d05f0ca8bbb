package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/SscSPs/school_ledger/internal/platform/metrics"
	"github.com/SscSPs/school_ledger/internal/utils/accounting"
	"github.com/SscSPs/school_ledger/internal/utils/pagination"
)

const (
	defaultJournalPageSize = 20
	maxJournalPageSize     = 100
)

var (
	ErrJournalMinLines   = errors.New("an entry needs at least two lines")
	ErrUnknownSourceType = errors.New("unknown source type")
)

// postableSourceTypes are the source types collaborators may post with. Reversal and
// period-close entries are produced by the engine only.
var postableSourceTypes = map[domain.SourceType]struct{}{
	domain.SourceFeePayment:    {},
	domain.SourceExpense:       {},
	domain.SourceAssetPurchase: {},
	domain.SourcePayroll:       {},
	domain.SourceManual:        {},
	domain.SourceAdjustment:    {},
}

// journalService is the posting engine. It is the only writer of journal entries
// apart from the period close.
type journalService struct {
	BaseService
	journalRepo  portsrepo.JournalRepositoryFacade
	accountRepo  portsrepo.AccountReader
	currencyRepo portsrepo.CurrencyReader
	balances     portssvc.BalanceInvalidatorSvc
	metrics      *metrics.Metrics
}

// JournalServiceOption is a functional option for configuring the journal service
type JournalServiceOption func(*journalService)

// WithBalanceInvalidator notifies the balance aggregator of touched accounts.
func WithBalanceInvalidator(svc portssvc.BalanceInvalidatorSvc) JournalServiceOption {
	return func(s *journalService) {
		s.balances = svc
	}
}

// WithJournalMetrics records posting counters.
func WithJournalMetrics(m *metrics.Metrics) JournalServiceOption {
	return func(s *journalService) {
		s.metrics = m
	}
}

// NewJournalService creates a new journal service.
func NewJournalService(journalRepo portsrepo.JournalRepositoryFacade, accountRepo portsrepo.AccountReader, currencyRepo portsrepo.CurrencyReader, options ...JournalServiceOption) portssvc.JournalSvcFacade {
	svc := &journalService{
		journalRepo:  journalRepo,
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// admitPosting is the period gate applied inside the write transaction.
func admitPosting(period *domain.AccountingPeriod, date time.Time) error {
	if period == nil {
		return &apperrors.NoOpenPeriodError{Date: date}
	}
	switch period.Status {
	case domain.PeriodOpen:
		return nil
	case domain.PeriodClosing:
		return &apperrors.PeriodLockedError{PeriodID: period.ID}
	default:
		return &apperrors.PeriodClosedError{PeriodID: period.ID, Date: date}
	}
}

// Post validates and records a balanced journal entry.
func (s *journalService) Post(ctx context.Context, req dto.PostEntryRequest, userID string) (*domain.JournalEntry, error) {
	logger := s.GetLogger(ctx).With(
		slog.String("source_type", string(req.SourceType)),
		slog.String("source_id", req.SourceID))

	entry, err := s.buildEntry(ctx, req, userID)
	if err != nil {
		s.metrics.PostingFailed(errorName(err))
		logger.Warn("Journal entry rejected", slog.String("error", err.Error()))
		return nil, err
	}

	posted, err := s.journalRepo.SaveEntry(ctx, *entry, admitPosting)
	if err != nil {
		s.metrics.PostingFailed(errorName(err))
		if isExpected(err) {
			logger.Warn("Journal entry rejected by period gate", slog.String("error", err.Error()))
		} else {
			logger.Error("Failed to save journal entry", slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.afterWrite(ctx, posted)
	logger.Info("Journal entry posted",
		slog.String("entry_id", posted.ID),
		slog.String("period_id", posted.PeriodID),
		slog.Int("lines", len(posted.Lines)))
	return posted, nil
}

func (s *journalService) buildEntry(ctx context.Context, req dto.PostEntryRequest, userID string) (*domain.JournalEntry, error) {
	if req.TransactionDate.IsZero() {
		return nil, fmt.Errorf("%w: transactionDate is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	if _, ok := postableSourceTypes[req.SourceType]; !ok {
		return nil, fmt.Errorf("%w: %w %q", apperrors.ErrValidation, ErrUnknownSourceType, req.SourceType)
	}

	lines := make([]domain.JournalLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = domain.JournalLine{
			LineNo:       i + 1,
			AccountCode:  strings.TrimSpace(l.AccountCode),
			Side:         domain.Side(strings.ToUpper(string(l.Side))),
			Amount:       l.Amount,
			CurrencyCode: strings.ToUpper(l.CurrencyCode),
			Memo:         l.Memo,
		}
	}
	if err := s.validateLines(ctx, lines); err != nil {
		return nil, err
	}

	now := s.Now()
	entry := &domain.JournalEntry{
		ID:              uuid.NewString(),
		TransactionDate: domain.DateOnly(req.TransactionDate.Time),
		Description:     req.Description,
		SourceType:      req.SourceType,
		SourceID:        req.SourceID,
		Lines:           lines,
		AuditFields:     auditFields(userID, now),
	}
	assignLineIDs(entry)
	return entry, nil
}

// validateLines runs the structural checks and the per-currency balance check.
func (s *journalService) validateLines(ctx context.Context, lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrJournalMinLines)
	}

	codes := make([]string, 0, len(lines))
	for _, l := range lines {
		codes = append(codes, l.AccountCode)
	}
	accounts, err := s.accountRepo.FindAccountsByCodes(ctx, codes)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	currencies := make(map[string]*domain.Currency)
	for _, l := range lines {
		account, ok := accounts[l.AccountCode]
		if !ok {
			return fmt.Errorf("%w: account %s not found", apperrors.ErrValidation, l.AccountCode)
		}
		if !account.IsActive {
			return fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, l.AccountCode)
		}
		if !l.Side.Valid() {
			return fmt.Errorf("%w: line %d side must be DEBIT or CREDIT", apperrors.ErrValidation, l.LineNo)
		}
		if err := accounting.ValidateAmount(l.AccountCode, l.Amount); err != nil {
			return err
		}

		currency, seen := currencies[l.CurrencyCode]
		if !seen {
			currency, err = s.currencyRepo.FindCurrencyByCode(ctx, l.CurrencyCode)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("failed to load currency %s: %w", l.CurrencyCode, err)
			}
			currencies[l.CurrencyCode] = currency
		}
		if currency == nil {
			return fmt.Errorf("%w: currency %s not found", apperrors.ErrValidation, l.CurrencyCode)
		}
		if !currency.IsActive {
			return fmt.Errorf("%w: currency %s is inactive", apperrors.ErrValidation, l.CurrencyCode)
		}
		if !account.AcceptsCurrency(l.CurrencyCode) {
			return fmt.Errorf("%w: account %s is denominated in %s, line is in %s",
				apperrors.ErrValidation, l.AccountCode, account.CurrencyCode, l.CurrencyCode)
		}
	}

	return accounting.ValidateEntryBalance(lines)
}

// Reverse posts the mirror image of an entry dated into an open period.
func (s *journalService) Reverse(ctx context.Context, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error) {
	logger := s.GetLogger(ctx).With(slog.String("entry_id", entryID))

	original, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if original.IsReversed() {
		err := &apperrors.AlreadyReversedError{EntryID: original.ID, ReversedBy: original.ReversedBy}
		s.metrics.PostingFailed(errorName(err))
		logger.Warn("Entry already reversed", slog.String("reversed_by", original.ReversedBy))
		return nil, err
	}
	if original.SourceType == domain.SourcePeriodClose {
		return nil, fmt.Errorf("%w: closing entries cannot be reversed", apperrors.ErrValidation)
	}

	now := s.Now()
	date := domain.DateOnly(now)
	if !req.ReversalDate.IsZero() {
		date = domain.DateOnly(req.ReversalDate.Time)
	}
	description := req.Description
	if strings.TrimSpace(description) == "" {
		description = fmt.Sprintf("Reversal of entry %s: %s", original.ID, original.Description)
	}

	reversal := domain.JournalEntry{
		ID:              uuid.NewString(),
		TransactionDate: date,
		Description:     description,
		SourceType:      domain.SourceReversal,
		SourceID:        original.ID,
		ReversalOf:      original.ID,
		Lines:           accounting.MirrorLines(original.Lines),
		AuditFields:     auditFields(userID, now),
	}
	if err := s.validateLines(ctx, reversal.Lines); err != nil {
		s.metrics.PostingFailed(errorName(err))
		logger.Warn("Reversal rejected", slog.String("error", err.Error()))
		return nil, err
	}
	assignLineIDs(&reversal)

	posted, err := s.journalRepo.SaveReversal(ctx, original.ID, reversal, admitPosting)
	if err != nil {
		s.metrics.PostingFailed(errorName(err))
		s.LogOutcome(ctx, err, "Failed to save reversal", slog.String("entry_id", entryID))
		return nil, err
	}

	s.afterWrite(ctx, posted)
	s.metrics.EntryReversed()
	logger.Info("Journal entry reversed",
		slog.String("reversal_id", posted.ID),
		slog.String("period_id", posted.PeriodID))
	return posted, nil
}

func (s *journalService) afterWrite(ctx context.Context, entry *domain.JournalEntry) {
	if s.balances != nil {
		s.balances.Invalidate(ctx, entry.AccountCodes()...)
	}
	s.metrics.EntryPosted(string(entry.SourceType))
}

func (s *journalService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get journal entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}
	return entry, nil
}

func (s *journalService) ListEntries(ctx context.Context, filter domain.JournalFilter, limit int, nextToken *string) (*domain.JournalPage, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, fmt.Errorf("%w: from must not be after to", apperrors.ErrValidation)
	}
	limit = pagination.NormalizeLimit(limit, defaultJournalPageSize, maxJournalPageSize)

	entries, next, err := s.journalRepo.ListEntries(ctx, filter, limit, nextToken)
	if err != nil {
		s.LogOutcome(ctx, err, "Failed to list journal entries")
		return nil, err
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	return &domain.JournalPage{Entries: entries, NextToken: next}, nil
}

func assignLineIDs(entry *domain.JournalEntry) {
	for i := range entry.Lines {
		entry.Lines[i].ID = uuid.NewString()
		entry.Lines[i].EntryID = entry.ID
		entry.Lines[i].LineNo = i + 1
	}
}

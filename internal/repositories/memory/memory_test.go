package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/school_ledger/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func admitOpen(p *domain.AccountingPeriod, date time.Time) error {
	if p == nil {
		return &apperrors.NoOpenPeriodError{Date: date}
	}
	if p.Status != domain.PeriodOpen {
		return &apperrors.PeriodClosedError{PeriodID: p.ID, Date: date}
	}
	return nil
}

func entry(id string, date time.Time, created time.Time, amount string) domain.JournalEntry {
	amt := decimal.RequireFromString(amount)
	return domain.JournalEntry{
		ID:              id,
		TransactionDate: date,
		Description:     "entry " + id,
		SourceType:      domain.SourceManual,
		Lines: []domain.JournalLine{
			{ID: id + "-1", EntryID: id, LineNo: 1, AccountCode: "1000", Side: domain.Debit, Amount: amt, CurrencyCode: "USD"},
			{ID: id + "-2", EntryID: id, LineNo: 2, AccountCode: "4000", Side: domain.Credit, Amount: amt, CurrencyCode: "USD"},
		},
		AuditFields: domain.AuditFields{CreatedAt: created, CreatedBy: "tester"},
	}
}

type LedgerRepositorySuite struct {
	suite.Suite
	ctx     context.Context
	journal *memory.JournalRepository
	periods *memory.PeriodRepository
}

func (s *LedgerRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.journal, s.periods = memory.NewLedgerRepositories()
	s.Require().NoError(s.periods.SavePeriod(s.ctx, domain.AccountingPeriod{ID: "jan", Name: "Jan", StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 31), Status: domain.PeriodOpen}))
	s.Require().NoError(s.periods.SavePeriod(s.ctx, domain.AccountingPeriod{ID: "feb", Name: "Feb", StartDate: day(2024, 2, 1), EndDate: day(2024, 2, 29), Status: domain.PeriodOpen}))
}

func TestLedgerRepositorySuite(t *testing.T) {
	suite.Run(t, new(LedgerRepositorySuite))
}

func (s *LedgerRepositorySuite) TestSavePeriod_Overlap() {
	err := s.periods.SavePeriod(s.ctx, domain.AccountingPeriod{ID: "x", StartDate: day(2024, 1, 15), EndDate: day(2024, 2, 15), Status: domain.PeriodOpen})
	var overlap *apperrors.PeriodOverlapError
	s.Require().ErrorAs(err, &overlap)
	s.Equal("jan", overlap.ExistingPeriodID)
}

func (s *LedgerRepositorySuite) TestSaveEntry_AssignsPeriod() {
	posted, err := s.journal.SaveEntry(s.ctx, entry("e1", day(2024, 2, 3), day(2024, 2, 3), "10"), admitOpen)
	s.Require().NoError(err)
	s.Equal("feb", posted.PeriodID)

	_, err = s.journal.SaveEntry(s.ctx, entry("e2", day(2024, 3, 3), day(2024, 3, 3), "10"), admitOpen)
	var noPeriod *apperrors.NoOpenPeriodError
	s.ErrorAs(err, &noPeriod)
}

func (s *LedgerRepositorySuite) TestSaveReversal_OnlyOnce() {
	_, err := s.journal.SaveEntry(s.ctx, entry("e1", day(2024, 1, 3), day(2024, 1, 3), "10"), admitOpen)
	s.Require().NoError(err)

	_, err = s.journal.SaveReversal(s.ctx, "e1", entry("r1", day(2024, 1, 4), day(2024, 1, 4), "10"), admitOpen)
	s.Require().NoError(err)

	original, err := s.journal.FindEntryByID(s.ctx, "e1")
	s.Require().NoError(err)
	s.Equal("r1", original.ReversedBy)

	_, err = s.journal.SaveReversal(s.ctx, "e1", entry("r2", day(2024, 1, 5), day(2024, 1, 5), "10"), admitOpen)
	var already *apperrors.AlreadyReversedError
	s.ErrorAs(err, &already)
}

func (s *LedgerRepositorySuite) TestListEntries_PagesDescending() {
	for i := 1; i <= 5; i++ {
		_, err := s.journal.SaveEntry(s.ctx, entry(fmt.Sprintf("e%d", i), day(2024, 1, i), day(2024, 1, i), "1"), admitOpen)
		s.Require().NoError(err)
	}

	page, token, err := s.journal.ListEntries(s.ctx, domain.JournalFilter{}, 2, nil)
	s.Require().NoError(err)
	s.Require().NotNil(token)
	s.Equal([]string{"e5", "e4"}, ids(page))

	page, token, err = s.journal.ListEntries(s.ctx, domain.JournalFilter{}, 2, token)
	s.Require().NoError(err)
	s.Require().NotNil(token)
	s.Equal([]string{"e3", "e2"}, ids(page))

	page, token, err = s.journal.ListEntries(s.ctx, domain.JournalFilter{}, 2, token)
	s.Require().NoError(err)
	s.Nil(token)
	s.Equal([]string{"e1"}, ids(page))
}

func (s *LedgerRepositorySuite) TestStreamLines_PostingOrder() {
	_, err := s.journal.SaveEntry(s.ctx, entry("late", day(2024, 1, 9), day(2024, 1, 1), "1"), admitOpen)
	s.Require().NoError(err)
	_, err = s.journal.SaveEntry(s.ctx, entry("early", day(2024, 1, 2), day(2024, 1, 2), "2"), admitOpen)
	s.Require().NoError(err)

	var got []string
	err = s.journal.StreamLines(s.ctx, domain.LineFilter{To: domain.MaxDate}, func(l domain.PostedLine) error {
		got = append(got, l.ID)
		return nil
	})
	s.Require().NoError(err)
	s.Equal([]string{"early-1", "early-2", "late-1", "late-2"}, got)

	positions, err := s.journal.SumLines(s.ctx, domain.LineFilter{AccountCodes: []string{"1000"}, To: domain.MaxDate})
	s.Require().NoError(err)
	s.True(positions[domain.Position{AccountCode: "1000", Currency: "USD"}].Debit.Equal(decimal.NewFromInt(3)))
}

func (s *LedgerRepositorySuite) TestTransitionPeriod_PassesEarlierPeriods() {
	var seen []string
	p, err := s.periods.TransitionPeriod(s.ctx, "feb", "tester", day(2024, 3, 1), func(p domain.AccountingPeriod, earlier []domain.AccountingPeriod) (domain.PeriodStatus, error) {
		for _, e := range earlier {
			seen = append(seen, e.ID)
		}
		return domain.PeriodClosing, nil
	})
	s.Require().NoError(err)
	s.Equal(domain.PeriodClosing, p.Status)
	s.Equal([]string{"jan"}, seen)

	_, err = s.periods.TransitionPeriod(s.ctx, "jan", "tester", day(2024, 3, 1), func(domain.AccountingPeriod, []domain.AccountingPeriod) (domain.PeriodStatus, error) {
		return domain.PeriodClosed, nil
	})
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *LedgerRepositorySuite) TestClosePeriod_BuilderReadsInsideLock() {
	_, err := s.journal.SaveEntry(s.ctx, entry("e1", day(2024, 1, 3), day(2024, 1, 3), "10"), admitOpen)
	s.Require().NoError(err)
	_, err = s.periods.TransitionPeriod(s.ctx, "jan", "tester", day(2024, 2, 1), func(domain.AccountingPeriod, []domain.AccountingPeriod) (domain.PeriodStatus, error) {
		return domain.PeriodClosing, nil
	})
	s.Require().NoError(err)

	build := func(ctx context.Context, p domain.AccountingPeriod, lines portsrepo.LineReader) (*domain.JournalEntry, error) {
		count := 0
		if err := lines.StreamLines(ctx, domain.LineFilter{To: p.EndDate}, func(domain.PostedLine) error {
			count++
			return nil
		}); err != nil {
			return nil, err
		}
		s.Equal(2, count)
		closing := entry("close", p.EndDate, day(2024, 2, 1), "10")
		closing.SourceType = domain.SourcePeriodClose
		return &closing, nil
	}

	period, closing, err := s.periods.ClosePeriod(s.ctx, "jan", "closer", day(2024, 2, 1), build)
	s.Require().NoError(err)
	s.Equal(domain.PeriodClosed, period.Status)
	s.Equal("close", period.ClosingEntryID)
	s.Equal("closer", period.ClosedBy)
	s.Require().NotNil(closing)
	s.Equal("jan", closing.PeriodID)

	// CLOSED periods accept nothing.
	_, err = s.journal.SaveEntry(s.ctx, entry("e2", day(2024, 1, 10), day(2024, 2, 2), "1"), admitOpen)
	var closed *apperrors.PeriodClosedError
	s.ErrorAs(err, &closed)
}

func (s *LedgerRepositorySuite) TestClosePeriod_BuilderErrorLeavesStatus() {
	_, err := s.periods.TransitionPeriod(s.ctx, "jan", "tester", day(2024, 2, 1), func(domain.AccountingPeriod, []domain.AccountingPeriod) (domain.PeriodStatus, error) {
		return domain.PeriodClosing, nil
	})
	s.Require().NoError(err)

	_, _, err = s.periods.ClosePeriod(s.ctx, "jan", "closer", day(2024, 2, 1), func(context.Context, domain.AccountingPeriod, portsrepo.LineReader) (*domain.JournalEntry, error) {
		return nil, &apperrors.UnbalancedPeriodError{PeriodID: "jan", Currency: "USD"}
	})
	s.ErrorIs(err, apperrors.ErrIntegrity)

	p, err := s.periods.FindPeriodByID(s.ctx, "jan")
	s.Require().NoError(err)
	s.Equal(domain.PeriodClosing, p.Status)
}

func ids(entries []domain.JournalEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestExchangeRateRepository_Series(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewExchangeRateRepository()

	save := func(date time.Time, rate string) error {
		return repo.SaveExchangeRate(ctx, domain.ExchangeRate{ID: rate, FromCurrency: "EUR", ToCurrency: "USD", Rate: decimal.RequireFromString(rate), EffectiveDate: date})
	}
	require.NoError(t, save(day(2024, 1, 1), "1.10"))
	require.NoError(t, save(day(2024, 2, 1), "1.20"))
	assert.ErrorIs(t, save(day(2024, 1, 15), "1.15"), apperrors.ErrValidation)
	assert.ErrorIs(t, save(day(2024, 2, 1), "1.25"), apperrors.ErrDuplicate)

	rate, err := repo.FindRateAsOf(ctx, "EUR", "USD", day(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, "1.10", rate.ID)

	rate, err = repo.FindRateAsOf(ctx, "EUR", "USD", day(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, "1.20", rate.ID)

	_, err = repo.FindRateAsOf(ctx, "EUR", "USD", day(2023, 12, 31))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAccountRepository_ListOrdersByCode(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAccountRepository()
	require.NoError(t, repo.SaveAccount(ctx, domain.Account{Code: "2000", Type: domain.Liability, IsActive: true}))
	require.NoError(t, repo.SaveAccount(ctx, domain.Account{Code: "1000", Type: domain.Asset, IsActive: true}))
	require.NoError(t, repo.SaveAccount(ctx, domain.Account{Code: "1100", ParentCode: "1000", IsActive: false}))

	var dup *apperrors.DuplicateAccountError
	assert.ErrorAs(t, repo.SaveAccount(ctx, domain.Account{Code: "1000"}), &dup)

	active, err := repo.ListAccounts(ctx, domain.AccountFilter{})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "1000", active[0].Code)

	all, err := repo.ListAccounts(ctx, domain.AccountFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

//go:build integration

package pgsql_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/core/services"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/SscSPs/school_ledger/internal/platform/config"
	"github.com/SscSPs/school_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/school_ledger/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	container "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const bursar = "bursar"

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PostgresLedgerSuite runs the service stack against a real PostgreSQL.
type PostgresLedgerSuite struct {
	suite.Suite
	ctx       context.Context
	container testcontainers.Container
	pool      *pgxpool.Pool
	svc       *portssvc.ServiceContainer
	jan       *domain.AccountingPeriod
}

func TestPostgresLedgerSuite(t *testing.T) {
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.ctx = context.Background()

	pg, err := container.Run(s.ctx,
		"postgres:16-alpine",
		container.WithDatabase("ledger"),
		container.WithUsername("ledger"),
		container.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			)))
	s.Require().NoError(err)
	s.container = pg

	url, err := pg.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.Require().NoError(database.RunMigrations(url, "file://../../../../migrations", logger))

	s.pool, err = database.NewPgxPool(s.ctx, url)
	s.Require().NoError(err)
}

func (s *PostgresLedgerSuite) TearDownSuite() {
	database.ClosePgxPool(s.pool)
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresLedgerSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE journal_lines, journal_entries, accounting_periods, accounts, exchange_rates, currencies CASCADE`)
	s.Require().NoError(err)

	cfg := &config.Config{
		BaseCurrency:            "USD",
		RetainedEarningsAccount: "3000",
		CashAccounts:            []string{"1000"},
		ReconcileToleranceDays:  3,
	}
	s.svc = services.NewServiceContainer(cfg, pgsql.NewRepositoryProvider(s.pool, nil), services.WithStoreFolds())

	_, err = s.svc.Currency.CreateCurrency(s.ctx, dto.CreateCurrencyRequest{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar"}, bursar)
	s.Require().NoError(err)
	for _, a := range []dto.CreateAccountRequest{
		{Code: "1000", Name: "Cash", AccountType: "ASSET"},
		{Code: "3000", Name: "Retained Earnings", AccountType: "EQUITY"},
		{Code: "4000", Name: "Fees", AccountType: "REVENUE"},
		{Code: "5000", Name: "Salaries", AccountType: "EXPENSE", CurrencyCode: "USD"},
	} {
		_, err := s.svc.Account.CreateAccount(s.ctx, a, bursar)
		s.Require().NoError(err, a.Code)
	}
	s.jan, err = s.svc.Period.CreatePeriod(s.ctx, dto.CreatePeriodRequest{
		Name: "2026-01", StartDate: dto.NewDate(date(2026, 1, 1)), EndDate: dto.NewDate(date(2026, 1, 31)),
	}, bursar)
	s.Require().NoError(err)
}

func (s *PostgresLedgerSuite) fee(day time.Time, amount string) (*domain.JournalEntry, error) {
	return s.svc.Journal.Post(s.ctx, dto.PostEntryRequest{
		TransactionDate: dto.NewDate(day),
		Description:     "Tuition",
		SourceType:      domain.SourceFeePayment,
		Lines: []dto.JournalLineRequest{
			{AccountCode: "1000", Side: domain.Debit, Amount: decimal.RequireFromString(amount), CurrencyCode: "USD"},
			{AccountCode: "4000", Side: domain.Credit, Amount: decimal.RequireFromString(amount), CurrencyCode: "USD"},
		},
	}, bursar)
}

func (s *PostgresLedgerSuite) TestPostAndReadBack() {
	posted, err := s.fee(date(2026, 1, 10), "1250.50")
	s.Require().NoError(err)
	s.Equal(s.jan.ID, posted.PeriodID)

	stored, err := s.svc.Journal.GetEntry(s.ctx, posted.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.Lines, 2)
	s.True(stored.Lines[0].Amount.Equal(decimal.RequireFromString("1250.50")))

	tb, err := s.svc.Reporting.TrialBalance(s.ctx, date(2026, 1, 31), "USD")
	s.Require().NoError(err)
	s.True(tb.TotalDebit.Equal(tb.TotalCredit))
	s.True(tb.TotalDebit.Equal(decimal.RequireFromString("1250.50")))
}

func (s *PostgresLedgerSuite) TestPostingOutsideAnyPeriod() {
	_, err := s.fee(date(2026, 3, 1), "10")
	var noPeriod *apperrors.NoOpenPeriodError
	s.ErrorAs(err, &noPeriod)
}

func (s *PostgresLedgerSuite) TestConcurrentReversalsProduceOne() {
	posted, err := s.fee(date(2026, 1, 10), "100")
	s.Require().NoError(err)

	const workers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		reversed  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Journal.Reverse(s.ctx, posted.ID, dto.ReverseEntryRequest{ReversalDate: dto.NewDate(date(2026, 1, 11))}, bursar)
			mu.Lock()
			defer mu.Unlock()
			var already *apperrors.AlreadyReversedError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &already):
				reversed++
			default:
				s.Failf("unexpected reversal error", "%v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(workers-1, reversed)

	cash, err := s.svc.Balance.GetBalance(s.ctx, "1000", date(2026, 1, 31), "USD")
	s.Require().NoError(err)
	s.True(cash.NetBalance.IsZero())
}

func (s *PostgresLedgerSuite) TestCloseLifecycle() {
	_, err := s.fee(date(2026, 1, 10), "500")
	s.Require().NoError(err)

	_, err = s.svc.Period.InitiateClose(s.ctx, s.jan.ID, bursar)
	s.Require().NoError(err)

	_, err = s.fee(date(2026, 1, 12), "5")
	var locked *apperrors.PeriodLockedError
	s.Require().ErrorAs(err, &locked)

	period, closing, err := s.svc.Period.CompleteClose(s.ctx, s.jan.ID, bursar)
	s.Require().NoError(err)
	s.Equal(domain.PeriodClosed, period.Status)
	s.Require().NotNil(closing)
	s.Equal(closing.ID, period.ClosingEntryID)
	s.Equal(domain.SourcePeriodClose, closing.SourceType)

	fees, err := s.svc.Balance.GetBalance(s.ctx, "4000", date(2026, 1, 31), "USD")
	s.Require().NoError(err)
	s.True(fees.NetBalance.IsZero())

	retained, err := s.svc.Balance.GetBalance(s.ctx, "3000", date(2026, 1, 31), "USD")
	s.Require().NoError(err)
	s.True(retained.NetBalance.Equal(decimal.NewFromInt(500)))

	is, err := s.svc.Reporting.IncomeStatement(s.ctx, s.jan.Range(), "USD")
	s.Require().NoError(err)
	s.True(is.NetIncome.Equal(decimal.NewFromInt(500)))

	_, err = s.fee(date(2026, 1, 20), "5")
	var closed *apperrors.PeriodClosedError
	s.ErrorAs(err, &closed)
}

func (s *PostgresLedgerSuite) TestOverlappingPeriodRejected() {
	_, err := s.svc.Period.CreatePeriod(s.ctx, dto.CreatePeriodRequest{
		Name: "mid", StartDate: dto.NewDate(date(2026, 1, 15)), EndDate: dto.NewDate(date(2026, 2, 14)),
	}, bursar)
	var overlap *apperrors.PeriodOverlapError
	s.Require().ErrorAs(err, &overlap)
	s.Equal(s.jan.ID, overlap.ExistingPeriodID)
}

func (s *PostgresLedgerSuite) TestPostsRacingACloseNeverInterleave() {
	_, err := s.fee(date(2026, 1, 5), "100")
	s.Require().NoError(err)

	const posters = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted = decimal.NewFromInt(100)
		failures []error
		closeErr error
	)
	start := make(chan struct{})
	for i := 0; i < posters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.fee(date(2026, 1, 20), "10")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted = accepted.Add(decimal.NewFromInt(10))
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		if _, err := s.svc.Period.InitiateClose(s.ctx, s.jan.ID, bursar); err != nil {
			closeErr = err
			return
		}
		_, _, closeErr = s.svc.Period.CompleteClose(s.ctx, s.jan.ID, bursar)
	}()
	close(start)
	wg.Wait()

	s.Require().NoError(closeErr)
	for _, err := range failures {
		var locked *apperrors.PeriodLockedError
		var closed *apperrors.PeriodClosedError
		s.True(errors.As(err, &locked) || errors.As(err, &closed), "unexpected posting error: %v", err)
	}

	is, err := s.svc.Reporting.IncomeStatement(s.ctx, s.jan.Range(), "USD")
	s.Require().NoError(err)
	s.True(is.TotalRevenue.Equal(accepted), "revenue %s, accepted %s", is.TotalRevenue, accepted)

	fees, err := s.svc.Balance.GetBalance(s.ctx, "4000", date(2026, 1, 31), "USD")
	s.Require().NoError(err)
	s.True(fees.NetBalance.IsZero())
}

package handlers_test

import (
	"net/http"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (suite *HandlerTestSuite) TestTrialBalance() {
	asOf := day(2026, 3, 31)
	report := &domain.TrialBalance{
		AsOf:     asOf,
		Currency: "USD",
		Rows: []domain.TrialBalanceRow{
			{AccountCode: "1110", AccountType: domain.Asset, Debit: decimal.NewFromInt(500), Credit: decimal.Zero},
			{AccountCode: "4100", AccountType: domain.Revenue, Debit: decimal.Zero, Credit: decimal.NewFromInt(500)},
		},
		TotalDebit:  decimal.NewFromInt(500),
		TotalCredit: decimal.NewFromInt(500),
	}
	suite.reporting.On("TrialBalance", mock.Anything, asOf, "USD").Return(report, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/reports/trial-balance?asOf=2026-03-31&currency=USD", nil, uuid.NewString())

	suite.Equal(http.StatusOK, w.Code)
	var body dto.TrialBalanceResponse
	suite.decode(w, &body)
	suite.Len(body.Rows, 2)
	suite.Equal("500.00", body.Totals.Debit)
	suite.Equal(body.Totals.Debit, body.Totals.Credit)
}

func (suite *HandlerTestSuite) TestTrialBalance_IntegrityFailure() {
	asOf := day(2026, 3, 31)
	suite.reporting.On("TrialBalance", mock.Anything, asOf, "").Return(nil, &apperrors.IntegrityError{
		Check:   "trial_balance",
		Detail:  "debits do not equal credits",
		Amounts: map[string]decimal.Decimal{"debit": decimal.NewFromInt(10), "credit": decimal.NewFromInt(9)},
	}).Once()

	w := suite.do(http.MethodGet, "/api/v1/reports/trial-balance?asOf=2026-03-31", nil, uuid.NewString())

	suite.Equal(http.StatusInternalServerError, w.Code)
	var body dto.ErrorResponse
	suite.decode(w, &body)
	suite.Equal("ledger integrity check failed", body.Error)
	suite.Equal("IntegrityError", body.Code)
	suite.Equal("trial_balance", body.Details["check"])
	suite.Equal("10", body.Details["debit"])
}

func (suite *HandlerTestSuite) TestIncomeStatement_QuarterAnchoredOnTo() {
	rng := domain.DateRange{From: day(2026, 4, 1), To: day(2026, 6, 30)}
	suite.reporting.On("IncomeStatement", mock.Anything, rng, "USD").
		Return(&domain.IncomeStatement{Range: rng, Currency: "USD"}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/reports/income-statement?range=quarter&to=2026-05-10&currency=USD", nil, uuid.NewString())

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestIncomeStatement_CustomRange() {
	rng := domain.DateRange{From: day(2026, 1, 15), To: day(2026, 2, 14)}
	suite.reporting.On("IncomeStatement", mock.Anything, rng, "").
		Return(&domain.IncomeStatement{Range: rng}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/reports/income-statement?from=2026-01-15&to=2026-02-14", nil, uuid.NewString())

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestIncomeStatement_CustomNeedsBothBounds() {
	w := suite.do(http.MethodGet, "/api/v1/reports/income-statement?range=custom&from=2026-01-15", nil, uuid.NewString())

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.reporting.AssertNotCalled(suite.T(), "IncomeStatement")
}

func (suite *HandlerTestSuite) TestBalanceSheet() {
	asOf := day(2026, 12, 31)
	suite.reporting.On("BalanceSheet", mock.Anything, asOf, "").
		Return(&domain.BalanceSheet{AsOf: asOf}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/reports/balance-sheet?asOf=2026-12-31", nil, uuid.NewString())

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestCashFlow() {
	rng := domain.DateRange{From: day(2026, 1, 1), To: day(2026, 3, 15)}
	report := &domain.CashFlowStatement{
		Range:        rng,
		CashAccounts: []string{"1110"},
		OpeningCash:  decimal.NewFromInt(100),
		Sections: []domain.CashFlowSection{
			{Bucket: domain.BucketOperating, Inflow: decimal.NewFromInt(50), Outflow: decimal.Zero, Net: decimal.NewFromInt(50)},
		},
		NetChange:   decimal.NewFromInt(50),
		ClosingCash: decimal.NewFromInt(150),
	}
	suite.reporting.On("CashFlow", mock.Anything, rng, "").Return(report, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/reports/cash-flow?range=ytd&to=2026-03-15", nil, uuid.NewString())

	suite.Equal(http.StatusOK, w.Code)
	var body dto.CashFlowResponse
	suite.decode(w, &body)
	suite.Equal("150.00", body.ClosingCash)
	suite.Len(body.Sections, 1)
}

func (suite *HandlerTestSuite) TestReconcile() {
	closing := decimal.NewFromInt(500)
	suite.reconciliation.On("Reconcile", mock.Anything, "1110", mock.MatchedBy(func(req domain.ReconciliationRequest) bool {
		return len(req.Lines) == 1 && req.ClosingBalance != nil && req.ClosingBalance.Equal(closing)
	})).Return(&domain.ReconciliationResult{
		AccountCode:   "1110",
		Currency:      "USD",
		LedgerBalance: closing,
	}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/reconciliations/1110", map[string]any{
		"statementLines": []map[string]any{{"reference": "DEP-1", "date": "2026-02-11", "amount": "500"}},
		"closingBalance": "500",
	}, uuid.NewString())

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestReconcile_NeedsStatementLines() {
	w := suite.do(http.MethodPost, "/api/v1/reconciliations/1110", map[string]any{"statementLines": []any{}}, uuid.NewString())

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.reconciliation.AssertNotCalled(suite.T(), "Reconcile")
}

func (suite *HandlerTestSuite) TestCreateCurrency_Duplicate() {
	userID := uuid.NewString()
	req := dto.CreateCurrencyRequest{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar"}
	suite.currencies.On("CreateCurrency", mock.Anything, req, userID).Return(nil, apperrors.ErrDuplicate).Once()

	w := suite.do(http.MethodPost, "/api/v1/currencies", req, userID)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestListCurrencies_IncludeInactive() {
	suite.currencies.On("ListCurrencies", mock.Anything, true).
		Return([]domain.Currency{{Code: "USD"}, {Code: "ZWL"}}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/currencies?includeInactive=true", nil, uuid.NewString())

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestConvert() {
	asOf := day(2026, 2, 10)
	rate := &domain.ExchangeRate{ID: "r1", FromCurrency: "EUR", ToCurrency: "USD", Rate: decimal.RequireFromString("1.1"), EffectiveDate: day(2026, 2, 1)}
	suite.rates.On("Convert", mock.Anything, mock.MatchedBy(func(a decimal.Decimal) bool {
		return a.Equal(decimal.NewFromInt(100))
	}), "EUR", "USD", asOf).Return(decimal.NewFromInt(110), rate, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/exchange-rates/convert?from=eur&to=USD&amount=100&asOf=2026-02-10", nil, uuid.NewString())

	suite.Equal(http.StatusOK, w.Code)
	var body dto.ConvertResponse
	suite.decode(w, &body)
	suite.Equal("110.00", body.Converted)
	suite.Equal("1.1", body.Rate)
	suite.Equal("2026-02-01", body.EffectiveDate.Format(domain.DateLayout))
}

func (suite *HandlerTestSuite) TestListExchangeRates_RequiresPair() {
	w := suite.do(http.MethodGet, "/api/v1/exchange-rates?from=EUR", nil, uuid.NewString())

	suite.Equal(http.StatusBadRequest, w.Code)
}

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

func feePayment() map[string]any {
	return map[string]any{
		"transactionDate": "2026-02-10",
		"description":     "Tuition fee",
		"sourceType":      "fee_payment",
		"sourceId":        "INV-1",
		"lines": []map[string]any{
			{"accountCode": "1110", "side": "DEBIT", "amount": "500.00", "currencyCode": "USD"},
			{"accountCode": "4100", "side": "CREDIT", "amount": "500.00", "currencyCode": "USD"},
		},
	}
}

func (suite *HandlerTestSuite) TestPostEntry_Success() {
	userID := uuid.NewString()
	posted := &domain.JournalEntry{
		ID:              uuid.NewString(),
		TransactionDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Description:     "Tuition fee",
		SourceType:      domain.SourceFeePayment,
		PeriodID:        "2026-02",
	}

	suite.journal.On("Post", mock.Anything, mock.MatchedBy(func(req dto.PostEntryRequest) bool {
		return len(req.Lines) == 2 &&
			req.Lines[0].Amount.Equal(decimal.RequireFromString("500")) &&
			req.TransactionDate.Format(domain.DateLayout) == "2026-02-10"
	}), userID).Return(posted, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/journal", feePayment(), userID)

	suite.Equal(http.StatusCreated, w.Code)
	var body dto.JournalEntryResponse
	suite.decode(w, &body)
	suite.Equal(posted.ID, body.EntryID)
	suite.Equal("2026-02", body.PeriodID)
}

func (suite *HandlerTestSuite) TestPostEntry_InvalidSide() {
	body := feePayment()
	body["lines"] = []map[string]any{
		{"accountCode": "1110", "side": "LEFT", "amount": "1", "currencyCode": "USD"},
	}

	w := suite.do(http.MethodPost, "/api/v1/journal", body, uuid.NewString())

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.journal.AssertNotCalled(suite.T(), "Post")
}

func (suite *HandlerTestSuite) TestPostEntry_ErrorMapping() {
	date := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unbalanced", &apperrors.UnbalancedEntryError{Currency: "USD", DebitTotal: decimal.NewFromInt(5), CreditTotal: decimal.NewFromInt(4)}, http.StatusBadRequest, "UnbalancedEntryError"},
		{"no period", &apperrors.NoOpenPeriodError{Date: date}, http.StatusConflict, "NoOpenPeriodError"},
		{"closed", &apperrors.PeriodClosedError{PeriodID: "2026-01", Date: date}, http.StatusConflict, "PeriodClosedError"},
		{"locked", &apperrors.PeriodLockedError{PeriodID: "2026-02"}, http.StatusLocked, "PeriodLockedError"},
		{"duplicate source", apperrors.ErrDuplicate, http.StatusConflict, ""},
	}
	for _, tc := range cases {
		suite.Run(tc.name, func() {
			userID := uuid.NewString()
			suite.journal.On("Post", mock.Anything, mock.Anything, userID).Return(nil, tc.err).Once()

			w := suite.do(http.MethodPost, "/api/v1/journal", feePayment(), userID)

			suite.Equal(tc.status, w.Code)
			var body dto.ErrorResponse
			suite.decode(w, &body)
			suite.Equal(tc.code, body.Code)
			if tc.status == http.StatusLocked {
				suite.NotEmpty(w.Header().Get("Retry-After"))
			}
		})
	}
}

func (suite *HandlerTestSuite) TestPostEntry_InternalErrorIsGeneric() {
	userID := uuid.NewString()
	suite.journal.On("Post", mock.Anything, mock.Anything, userID).
		Return(nil, apperrors.NewAppError(http.StatusInternalServerError, "db down", nil)).Once()

	w := suite.do(http.MethodPost, "/api/v1/journal", feePayment(), userID)

	suite.Equal(http.StatusInternalServerError, w.Code)
	var body dto.ErrorResponse
	suite.decode(w, &body)
	suite.Equal("Failed to post journal entry", body.Error)
}

func (suite *HandlerTestSuite) TestListEntries_FilterAndToken() {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	next := "next-page"
	suite.journal.On("ListEntries", mock.Anything, mock.MatchedBy(func(f domain.JournalFilter) bool {
		return f.From != nil && f.From.Equal(from) && f.To == nil &&
			f.SourceType == domain.SourceExpense && f.AccountCode == "5100"
	}), 25, mock.MatchedBy(func(token *string) bool {
		return token != nil && *token == "abc"
	})).Return(&domain.JournalPage{Entries: []domain.JournalEntry{{ID: "e1"}}, NextToken: &next}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/journal?from=2026-02-01&sourceType=expense&accountCode=5100&limit=25&nextToken=abc", nil, uuid.NewString())

	suite.Equal(http.StatusOK, w.Code)
	var body dto.ListJournalResponse
	suite.decode(w, &body)
	suite.Len(body.Entries, 1)
	suite.Require().NotNil(body.NextToken)
	suite.Equal(next, *body.NextToken)
}

func (suite *HandlerTestSuite) TestListEntries_LimitOutOfRange() {
	w := suite.do(http.MethodGet, "/api/v1/journal?limit=1000", nil, uuid.NewString())

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.journal.AssertNotCalled(suite.T(), "ListEntries")
}

func (suite *HandlerTestSuite) TestGetEntry() {
	suite.journal.On("GetEntry", mock.Anything, "e1").Return(&domain.JournalEntry{ID: "e1", ReversedBy: "e2"}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/journal/e1", nil, uuid.NewString())

	suite.Equal(http.StatusOK, w.Code)
	var body dto.JournalEntryResponse
	suite.decode(w, &body)
	suite.Equal("e2", body.ReversedBy)
}

func (suite *HandlerTestSuite) TestReverseEntry_WithoutBody() {
	userID := uuid.NewString()
	suite.journal.On("Reverse", mock.Anything, "e1", dto.ReverseEntryRequest{}, userID).
		Return(&domain.JournalEntry{ID: "e2", ReversalOf: "e1", SourceType: domain.SourceReversal}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/journal/e1/reverse", nil, userID)

	suite.Equal(http.StatusCreated, w.Code)
	var body dto.JournalEntryResponse
	suite.decode(w, &body)
	suite.Equal("e1", body.ReversalOf)
}

func (suite *HandlerTestSuite) TestReverseEntry_AlreadyReversed() {
	userID := uuid.NewString()
	suite.journal.On("Reverse", mock.Anything, "e1", mock.Anything, userID).
		Return(nil, &apperrors.AlreadyReversedError{EntryID: "e1", ReversedBy: "e2"}).Once()

	w := suite.do(http.MethodPost, "/api/v1/journal/e1/reverse", map[string]string{"reversalDate": "2026-02-11"}, userID)

	suite.Equal(http.StatusConflict, w.Code)
	var body dto.ErrorResponse
	suite.decode(w, &body)
	suite.Equal("AlreadyReversedError", body.Code)
	suite.Equal(string(apperrors.KindStateConflict), body.Kind)
}

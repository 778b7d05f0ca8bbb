package handlers_test

import (
	"net/http"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func february() *domain.AccountingPeriod {
	return &domain.AccountingPeriod{
		ID:        "2026-02",
		Name:      "February 2026",
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Status:    domain.PeriodOpen,
	}
}

func (suite *HandlerTestSuite) TestCreatePeriod_Overlap() {
	userID := uuid.NewString()
	suite.periods.On("CreatePeriod", mock.Anything, mock.MatchedBy(func(req dto.CreatePeriodRequest) bool {
		return req.Name == "Feb" && req.StartDate.Format(domain.DateLayout) == "2026-02-15"
	}), userID).Return(nil, &apperrors.PeriodOverlapError{ExistingPeriodID: "2026-02"}).Once()

	w := suite.do(http.MethodPost, "/api/v1/periods", map[string]string{
		"name": "Feb", "startDate": "2026-02-15", "endDate": "2026-03-14",
	}, userID)

	suite.Equal(http.StatusBadRequest, w.Code)
	var body dto.ErrorResponse
	suite.decode(w, &body)
	suite.Equal("PeriodOverlapError", body.Code)
}

func (suite *HandlerTestSuite) TestCreatePeriod_BadDate() {
	w := suite.do(http.MethodPost, "/api/v1/periods", map[string]string{
		"name": "Feb", "startDate": "02/01/2026", "endDate": "2026-02-28",
	}, uuid.NewString())

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.periods.AssertNotCalled(suite.T(), "CreatePeriod")
}

func (suite *HandlerTestSuite) TestListPeriods() {
	suite.periods.On("ListPeriods", mock.Anything).Return([]domain.AccountingPeriod{*february()}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/periods", nil, uuid.NewString())

	suite.Equal(http.StatusOK, w.Code)
	var body []dto.PeriodResponse
	suite.decode(w, &body)
	suite.Require().Len(body, 1)
	suite.Equal("2026-02-28", body[0].EndDate.Format(domain.DateLayout))
}

func (suite *HandlerTestSuite) TestInitiateClose_EarlierPeriodOpen() {
	userID := uuid.NewString()
	suite.periods.On("InitiateClose", mock.Anything, "2026-02", userID).
		Return(nil, &apperrors.EarlierPeriodOpenError{EarlierPeriodID: "2026-01"}).Once()

	w := suite.do(http.MethodPost, "/api/v1/periods/2026-02/initiate-close", nil, userID)

	suite.Equal(http.StatusConflict, w.Code)
	var body dto.ErrorResponse
	suite.decode(w, &body)
	suite.Equal("EarlierPeriodOpenError", body.Code)
}

func (suite *HandlerTestSuite) TestCompleteClose_ReturnsClosingEntry() {
	userID := uuid.NewString()
	closed := february()
	closed.Status = domain.PeriodClosed
	closed.ClosingEntryID = "close-1"
	closed.ClosedBy = userID
	entry := &domain.JournalEntry{ID: "close-1", SourceType: domain.SourcePeriodClose, PeriodID: "2026-02"}

	suite.periods.On("CompleteClose", mock.Anything, "2026-02", userID).Return(closed, entry, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/periods/2026-02/complete-close", nil, userID)

	suite.Equal(http.StatusOK, w.Code)
	var body dto.ClosePeriodResponse
	suite.decode(w, &body)
	suite.Equal(string(domain.PeriodClosed), body.Period.Status)
	suite.Require().NotNil(body.ClosingEntry)
	suite.Equal("close-1", body.ClosingEntry.EntryID)
	suite.Equal(string(domain.SourcePeriodClose), body.ClosingEntry.SourceType)
}

func (suite *HandlerTestSuite) TestCompleteClose_UnbalancedIsIntegrityFailure() {
	userID := uuid.NewString()
	suite.periods.On("CompleteClose", mock.Anything, "2026-02", userID).
		Return(nil, nil, &apperrors.UnbalancedPeriodError{PeriodID: "2026-02"}).Once()

	w := suite.do(http.MethodPost, "/api/v1/periods/2026-02/complete-close", nil, userID)

	suite.Equal(http.StatusInternalServerError, w.Code)
	var body dto.ErrorResponse
	suite.decode(w, &body)
	suite.Equal(apperrors.ErrIntegrity.Error(), body.Error)
	suite.Equal(string(apperrors.KindIntegrity), body.Kind)
}

func (suite *HandlerTestSuite) TestAbortClose_NotClosing() {
	userID := uuid.NewString()
	suite.periods.On("AbortClose", mock.Anything, "2026-02", userID).
		Return(nil, &apperrors.PeriodNotClosingError{PeriodID: "2026-02", Status: string(domain.PeriodOpen)}).Once()

	w := suite.do(http.MethodPost, "/api/v1/periods/2026-02/abort-close", nil, userID)

	suite.Equal(http.StatusConflict, w.Code)
}

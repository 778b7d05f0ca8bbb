package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/handlers"
	"github.com/SscSPs/school_ledger/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

// HandlerTestSuite serves requests through the full /api/v1 router with mocked services.
type HandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	jwtSecret string

	accounts       *MockAccountService
	balances       *MockBalanceService
	currencies     *MockCurrencyService
	rates          *MockExchangeRateService
	journal        *MockJournalService
	periods        *MockPeriodService
	reporting      *MockReportingService
	reconciliation *MockReconciliationService
}

// generateTestToken creates a signed JWT for testing.
func (suite *HandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "ledger-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.accounts = new(MockAccountService)
	suite.balances = new(MockBalanceService)
	suite.currencies = new(MockCurrencyService)
	suite.rates = new(MockExchangeRateService)
	suite.journal = new(MockJournalService)
	suite.periods = new(MockPeriodService)
	suite.reporting = new(MockReportingService)
	suite.reconciliation = new(MockReconciliationService)

	services := &portssvc.ServiceContainer{
		Account:        suite.accounts,
		Currency:       suite.currencies,
		ExchangeRate:   suite.rates,
		Journal:        suite.journal,
		Balance:        suite.balances,
		Period:         suite.periods,
		Reporting:      suite.reporting,
		Reconciliation: suite.reconciliation,
	}
	cfg := &config.Config{JWTSecret: suite.jwtSecret}
	suite.Require().NoError(handlers.RegisterRoutes(suite.router, cfg, services))
}

func (suite *HandlerTestSuite) TearDownTest() {
	suite.accounts.AssertExpectations(suite.T())
	suite.balances.AssertExpectations(suite.T())
	suite.currencies.AssertExpectations(suite.T())
	suite.rates.AssertExpectations(suite.T())
	suite.journal.AssertExpectations(suite.T())
	suite.periods.AssertExpectations(suite.T())
	suite.reporting.AssertExpectations(suite.T())
	suite.reconciliation.AssertExpectations(suite.T())
}

// do sends an authenticated request as userID.
func (suite *HandlerTestSuite) do(method, url string, body any, userID string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) decode(w *httptest.ResponseRecorder, out any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

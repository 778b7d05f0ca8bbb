package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/SscSPs/school_ledger/internal/middleware"
	"github.com/SscSPs/school_ledger/internal/utils"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to the chart of accounts and its balances.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	balanceService  portssvc.BalanceReaderSvc
	currencyService portssvc.CurrencyReaderSvc
	now             func() time.Time
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(as portssvc.AccountSvcFacade, bs portssvc.BalanceReaderSvc, cs portssvc.CurrencyReaderSvc) *accountHandler {
	return &accountHandler{
		accountService:  as,
		balanceService:  bs,
		currencyService: cs,
		now:             time.Now,
	}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, as portssvc.AccountSvcFacade, bs portssvc.BalanceReaderSvc, cs portssvc.CurrencyReaderSvc) {
	h := newAccountHandler(as, bs, cs)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:code", h.getAccount)
		accounts.POST("/:code/deactivate", h.deactivateAccount)
		accounts.POST("/:code/reactivate", h.reactivateAccount)
		accounts.GET("/:code/balance", h.getAccountBalance)
		accounts.GET("/:code/movements", h.getAccountMovements)
	}
	rg.GET("/balances", h.listBalances)
}

func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	creatorUserID, ok := requireUserID(c)
	if !ok {
		return
	}

	logger = logger.With(slog.String("creator_user_id", creatorUserID))
	logger.Info("Received request to create account", slog.String("account_code", req.Code), slog.String("parent_code", req.ParentCode))

	account, err := h.accountService.CreateAccount(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondError(c, err, "create account")
		return
	}

	logger.Info("Account created successfully", slog.String("account_code", account.Code))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

func (h *accountHandler) getAccount(c *gin.Context) {
	code := c.Param("code")
	account, err := h.accountService.GetAccount(c.Request.Context(), code)
	if err != nil {
		respondError(c, err, "retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}

	filter := domain.AccountFilter{
		Type:            domain.AccountType(params.AccountType),
		ParentCode:      params.ParentCode,
		IncludeInactive: params.IncludeInactive,
	}
	accounts, err := h.accountService.ListAccounts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "list accounts")
		return
	}

	logger.Debug("Accounts listed", slog.Int("count", len(accounts)))
	c.JSON(http.StatusOK, dto.ToListAccountsResponse(accounts))
}

func (h *accountHandler) deactivateAccount(c *gin.Context) {
	h.setActive(c, false)
}

func (h *accountHandler) reactivateAccount(c *gin.Context) {
	h.setActive(c, true)
}

func (h *accountHandler) setActive(c *gin.Context, active bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := c.Param("code")
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var (
		account *domain.Account
		err     error
		action  = "deactivate account"
	)
	if active {
		action = "reactivate account"
		account, err = h.accountService.ReactivateAccount(c.Request.Context(), code, userID)
	} else {
		account, err = h.accountService.DeactivateAccount(c.Request.Context(), code, userID)
	}
	if err != nil {
		respondError(c, err, action)
		return
	}

	logger.Info("Account status changed",
		slog.String("account_code", code),
		slog.Bool("is_active", account.IsActive),
		slog.String("user_id", userID))
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// getAccountBalance answers one currency when asked for it, otherwise every currency held.
func (h *accountHandler) getAccountBalance(c *gin.Context) {
	code := c.Param("code")
	asOf, err := dateQuery(c, "asOf", h.now())
	if err != nil {
		badRequest(c, "Invalid asOf date", err)
		return
	}

	if currency := c.Query("currency"); currency != "" {
		balance, err := h.balanceService.GetBalance(c.Request.Context(), code, asOf, currency)
		if err != nil {
			respondError(c, err, "retrieve balance")
			return
		}
		c.JSON(http.StatusOK, h.balanceResponse(c.Request.Context(), *balance))
		return
	}

	balances, err := h.balanceService.GetBalancesByCurrency(c.Request.Context(), code, asOf)
	if err != nil {
		respondError(c, err, "retrieve balance")
		return
	}
	resp := make([]dto.AccountBalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = h.balanceResponse(c.Request.Context(), b)
	}
	c.JSON(http.StatusOK, resp)
}

// balanceResponse adds the display amount when the balance's currency is known.
func (h *accountHandler) balanceResponse(ctx context.Context, b domain.AccountBalance) dto.AccountBalanceResponse {
	resp := dto.ToAccountBalanceResponse(b)
	if h.currencyService == nil {
		return resp
	}
	currency, err := h.currencyService.GetCurrency(ctx, b.Currency)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Currency lookup failed, omitting display amount",
			slog.String("currency", b.Currency), slog.String("error", err.Error()))
		return resp
	}
	resp.DisplayNet = utils.FormatWithCurrencyPrecision(b.NetBalance, *currency)
	return resp
}

func (h *accountHandler) getAccountMovements(c *gin.Context) {
	code := c.Param("code")
	today := h.now()
	to, err := dateQuery(c, "to", today)
	if err != nil {
		badRequest(c, "Invalid to date", err)
		return
	}
	from, err := dateQuery(c, "from", time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		badRequest(c, "Invalid from date", err)
		return
	}

	lines, err := h.balanceService.GetMovements(c.Request.Context(), code, from, to)
	if err != nil {
		respondError(c, err, "retrieve movements")
		return
	}
	c.JSON(http.StatusOK, dto.ToMovementResponses(lines))
}

func (h *accountHandler) listBalances(c *gin.Context) {
	asOf, err := dateQuery(c, "asOf", h.now())
	if err != nil {
		badRequest(c, "Invalid asOf date", err)
		return
	}

	balances, err := h.balanceService.GetAccountBalances(c.Request.Context(), asOf, c.Query("currency"))
	if err != nil {
		respondError(c, err, "retrieve balances")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountBalancesResponse(balances))
}

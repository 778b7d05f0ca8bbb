package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/SscSPs/school_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// exchangeRateHandler handles HTTP requests related to exchange rates.
type exchangeRateHandler struct {
	exchangeRateService portssvc.ExchangeRateSvcFacade
	now                 func() time.Time
}

// newExchangeRateHandler creates a new exchangeRateHandler.
func newExchangeRateHandler(ers portssvc.ExchangeRateSvcFacade) *exchangeRateHandler {
	return &exchangeRateHandler{
		exchangeRateService: ers,
		now:                 time.Now,
	}
}

// registerExchangeRateRoutes registers routes related to exchange rates.
func registerExchangeRateRoutes(rg *gin.RouterGroup, exchangeRateService portssvc.ExchangeRateSvcFacade) {
	h := newExchangeRateHandler(exchangeRateService)

	rates := rg.Group("/exchange-rates")
	{
		rates.POST("", h.createExchangeRate)
		rates.GET("", h.listExchangeRates)
		rates.GET("/convert", h.convert)
	}
}

func (h *exchangeRateHandler) createExchangeRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	creatorUserID, ok := requireUserID(c)
	if !ok {
		return
	}

	logger.Info("Received request to create exchange rate",
		slog.String("from_currency", req.FromCurrencyCode),
		slog.String("to_currency", req.ToCurrencyCode),
		slog.String("rate", req.Rate.String()),
		slog.String("creator_user_id", creatorUserID))

	rate, err := h.exchangeRateService.CreateExchangeRate(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondError(c, err, "create exchange rate")
		return
	}

	logger.Info("Exchange rate created successfully", slog.String("exchange_rate_id", rate.ID))
	c.JSON(http.StatusCreated, dto.ToExchangeRateResponse(rate))
}

// listExchangeRates returns the history of one pair, or the current rate when asOf is given.
func (h *exchangeRateHandler) listExchangeRates(c *gin.Context) {
	from := strings.ToUpper(c.Query("from"))
	to := strings.ToUpper(c.Query("to"))
	if from == "" || to == "" {
		badRequest(c, "Missing currency pair", fmt.Errorf("from and to are required"))
		return
	}

	if c.Query("asOf") != "" {
		asOf, err := dateQuery(c, "asOf", h.now())
		if err != nil {
			badRequest(c, "Invalid asOf date", err)
			return
		}
		rate, err := h.exchangeRateService.GetExchangeRate(c.Request.Context(), from, to, asOf)
		if err != nil {
			respondError(c, err, "retrieve exchange rate")
			return
		}
		c.JSON(http.StatusOK, dto.ToExchangeRateResponse(rate))
		return
	}

	rates, err := h.exchangeRateService.ListExchangeRates(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err, "list exchange rates")
		return
	}
	c.JSON(http.StatusOK, dto.ToListExchangeRateResponse(rates))
}

func (h *exchangeRateHandler) convert(c *gin.Context) {
	from := strings.ToUpper(c.Query("from"))
	to := strings.ToUpper(c.Query("to"))
	if from == "" || to == "" {
		badRequest(c, "Missing currency pair", fmt.Errorf("from and to are required"))
		return
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		badRequest(c, "Invalid amount", err)
		return
	}
	asOf, err := dateQuery(c, "asOf", h.now())
	if err != nil {
		badRequest(c, "Invalid asOf date", err)
		return
	}

	converted, rate, err := h.exchangeRateService.Convert(c.Request.Context(), amount, from, to, asOf)
	if err != nil {
		respondError(c, err, "convert amount")
		return
	}

	resp := dto.ConvertResponse{
		FromCurrencyCode: from,
		ToCurrencyCode:   to,
		Amount:           dto.Amount(amount),
		Converted:        dto.Amount(converted),
		Rate:             "1",
		EffectiveDate:    dto.NewDate(asOf),
	}
	if rate != nil {
		resp.Rate = rate.Rate.String()
		resp.EffectiveDate = dto.NewDate(rate.EffectiveDate)
	}
	c.JSON(http.StatusOK, resp)
}

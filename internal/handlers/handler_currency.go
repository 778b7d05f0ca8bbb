package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/SscSPs/school_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// currencyHandler handles HTTP requests related to currencies.
type currencyHandler struct {
	currencyService portssvc.CurrencySvcFacade
}

// newCurrencyHandler creates a new currencyHandler.
func newCurrencyHandler(cs portssvc.CurrencySvcFacade) *currencyHandler {
	return &currencyHandler{
		currencyService: cs,
	}
}

// registerCurrencyRoutes registers routes related to currencies.
func registerCurrencyRoutes(rg *gin.RouterGroup, currencyService portssvc.CurrencySvcFacade) {
	h := newCurrencyHandler(currencyService)

	currencies := rg.Group("/currencies")
	{
		currencies.POST("", h.createCurrency)
		currencies.GET("", h.listCurrencies)
		currencies.GET("/:code", h.getCurrencyByCode)
		currencies.PATCH("/:code", h.updateCurrency)
	}
}

func (h *currencyHandler) createCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	creatorUserID, ok := requireUserID(c)
	if !ok {
		return
	}

	logger.Info("Received request to create currency",
		slog.String("currency_code", req.CurrencyCode),
		slog.String("creator_user_id", creatorUserID))

	currency, err := h.currencyService.CreateCurrency(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondError(c, err, "create currency")
		return
	}

	logger.Info("Currency created successfully", slog.String("currency_code", currency.Code))
	c.JSON(http.StatusCreated, dto.ToCurrencyResponse(currency))
}

func (h *currencyHandler) getCurrencyByCode(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	currency, err := h.currencyService.GetCurrency(c.Request.Context(), code)
	if err != nil {
		respondError(c, err, "retrieve currency")
		return
	}
	c.JSON(http.StatusOK, dto.ToCurrencyResponse(currency))
}

func (h *currencyHandler) listCurrencies(c *gin.Context) {
	includeInactive := false
	if raw := c.Query("includeInactive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "Invalid includeInactive", err)
			return
		}
		includeInactive = v
	}

	currencies, err := h.currencyService.ListCurrencies(c.Request.Context(), includeInactive)
	if err != nil {
		respondError(c, err, "list currencies")
		return
	}
	c.JSON(http.StatusOK, dto.ToListCurrencyResponse(currencies))
}

func (h *currencyHandler) updateCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := strings.ToUpper(c.Param("code"))
	var req dto.UpdateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	currency, err := h.currencyService.UpdateCurrency(c.Request.Context(), code, req, userID)
	if err != nil {
		respondError(c, err, "update currency")
		return
	}

	logger.Info("Currency updated", slog.String("currency_code", code), slog.String("user_id", userID))
	c.JSON(http.StatusOK, dto.ToCurrencyResponse(currency))
}

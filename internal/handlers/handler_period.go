package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/SscSPs/school_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// periodHandler handles accounting periods and the close workflow.
type periodHandler struct {
	periodService portssvc.PeriodSvcFacade
}

func newPeriodHandler(ps portssvc.PeriodSvcFacade) *periodHandler {
	return &periodHandler{periodService: ps}
}

// registerPeriodRoutes registers routes related to accounting periods.
func registerPeriodRoutes(rg *gin.RouterGroup, periodService portssvc.PeriodSvcFacade) {
	h := newPeriodHandler(periodService)

	periods := rg.Group("/periods")
	{
		periods.POST("", h.createPeriod)
		periods.GET("", h.listPeriods)
		periods.GET("/:id", h.getPeriod)
		periods.POST("/:id/initiate-close", h.initiateClose)
		periods.POST("/:id/complete-close", h.completeClose)
		periods.POST("/:id/abort-close", h.abortClose)
	}
}

func (h *periodHandler) createPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	creatorUserID, ok := requireUserID(c)
	if !ok {
		return
	}

	period, err := h.periodService.CreatePeriod(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondError(c, err, "create period")
		return
	}

	logger.Info("Period created",
		slog.String("period_id", period.ID),
		slog.String("name", period.Name),
		slog.String("creator_user_id", creatorUserID))
	c.JSON(http.StatusCreated, dto.ToPeriodResponse(period))
}

func (h *periodHandler) listPeriods(c *gin.Context) {
	periods, err := h.periodService.ListPeriods(c.Request.Context())
	if err != nil {
		respondError(c, err, "list periods")
		return
	}
	c.JSON(http.StatusOK, dto.ToListPeriodResponse(periods))
}

func (h *periodHandler) getPeriod(c *gin.Context) {
	period, err := h.periodService.GetPeriod(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve period")
		return
	}
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

func (h *periodHandler) initiateClose(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	period, err := h.periodService.InitiateClose(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "initiate period close")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Period close initiated",
		slog.String("period_id", period.ID), slog.String("user_id", userID))
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

func (h *periodHandler) completeClose(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	period, closing, err := h.periodService.CompleteClose(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "complete period close")
		return
	}
	closingID := ""
	if closing != nil {
		closingID = closing.ID
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Period closed",
		slog.String("period_id", period.ID),
		slog.String("closing_entry_id", closingID),
		slog.String("user_id", userID))
	c.JSON(http.StatusOK, dto.ToClosePeriodResponse(period, closing))
}

func (h *periodHandler) abortClose(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	period, err := h.periodService.AbortClose(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "abort period close")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Period close aborted",
		slog.String("period_id", period.ID), slog.String("user_id", userID))
	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

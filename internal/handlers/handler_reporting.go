package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/SscSPs/school_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles the financial statements.
type reportingHandler struct {
	reportingService portssvc.ReportingService
	now              func() time.Time
}

// newReportingHandler creates a new reportingHandler.
func newReportingHandler(rs portssvc.ReportingService) *reportingHandler {
	return &reportingHandler{
		reportingService: rs,
		now:              time.Now,
	}
}

// registerReportingRoutes registers routes related to reporting.
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingService) {
	h := newReportingHandler(reportingService)

	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance", h.getTrialBalance)
		reports.GET("/income-statement", h.getIncomeStatement)
		reports.GET("/balance-sheet", h.getBalanceSheet)
		reports.GET("/cash-flow", h.getCashFlow)
	}
}

func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	asOf, err := dateQuery(c, "asOf", h.now())
	if err != nil {
		badRequest(c, "Invalid asOf date", err)
		return
	}

	report, err := h.reportingService.TrialBalance(c.Request.Context(), asOf, c.Query("currency"))
	if err != nil {
		respondError(c, err, "generate trial balance")
		return
	}

	logger.Info("Trial balance generated", slog.Time("as_of", asOf), slog.Int("rows", len(report.Rows)))
	c.JSON(http.StatusOK, dto.ToTrialBalanceResponse(report))
}

func (h *reportingHandler) getIncomeStatement(c *gin.Context) {
	rng, err := reportRange(c, h.now())
	if err != nil {
		badRequest(c, "Invalid report range", err)
		return
	}

	report, err := h.reportingService.IncomeStatement(c.Request.Context(), rng, c.Query("currency"))
	if err != nil {
		respondError(c, err, "generate income statement")
		return
	}
	c.JSON(http.StatusOK, dto.ToIncomeStatementResponse(report))
}

func (h *reportingHandler) getBalanceSheet(c *gin.Context) {
	asOf, err := dateQuery(c, "asOf", h.now())
	if err != nil {
		badRequest(c, "Invalid asOf date", err)
		return
	}

	report, err := h.reportingService.BalanceSheet(c.Request.Context(), asOf, c.Query("currency"))
	if err != nil {
		respondError(c, err, "generate balance sheet")
		return
	}
	c.JSON(http.StatusOK, dto.ToBalanceSheetResponse(report))
}

func (h *reportingHandler) getCashFlow(c *gin.Context) {
	rng, err := reportRange(c, h.now())
	if err != nil {
		badRequest(c, "Invalid report range", err)
		return
	}

	report, err := h.reportingService.CashFlow(c.Request.Context(), rng, c.Query("currency"))
	if err != nil {
		respondError(c, err, "generate cash flow statement")
		return
	}
	c.JSON(http.StatusOK, dto.ToCashFlowResponse(report))
}

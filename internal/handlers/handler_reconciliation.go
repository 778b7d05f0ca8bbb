package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/SscSPs/school_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationService
}

// registerReconciliationRoutes registers the bank reconciliation check.
func registerReconciliationRoutes(rg *gin.RouterGroup, svc portssvc.ReconciliationService) {
	h := &reconciliationHandler{reconciliationService: svc}
	rg.POST("/reconciliations/:accountCode", h.reconcile)
}

func (h *reconciliationHandler) reconcile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	accountCode := c.Param("accountCode")
	result, err := h.reconciliationService.Reconcile(c.Request.Context(), accountCode, req.ToDomain())
	if err != nil {
		respondError(c, err, "reconcile account")
		return
	}

	logger.Info("Reconciliation served",
		slog.String("account_code", accountCode),
		slog.Bool("reconciled", result.IsReconciled()))
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(result))
}

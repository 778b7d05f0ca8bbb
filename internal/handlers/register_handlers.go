package handlers

import (
	"fmt"
	"net/http"

	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/middleware"
	"github.com/SscSPs/school_ledger/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) error {

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	service *portssvc.ServiceContainer,
) error {
	var guards []gin.HandlerFunc
	if cfg.RateLimit != "" {
		limiter, err := middleware.NewMemoryLimiter(cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("invalid rate limit %q: %w", cfg.RateLimit, err)
		}
		guards = append(guards, middleware.RateLimit(limiter))
	}

	var parserOpts []jwt.ParserOption
	if cfg.JWTIssuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	guards = append(guards, middleware.AuthMiddleware(cfg.JWTSecret, parserOpts...))

	v1 := r.Group("/api/v1", guards...)

	registerAccountRoutes(v1, service.Account, service.Balance, service.Currency)
	registerCurrencyRoutes(v1, service.Currency)
	registerExchangeRateRoutes(v1, service.ExchangeRate)
	registerJournalRoutes(v1, service.Journal)
	registerPeriodRoutes(v1, service.Period)
	registerReportingRoutes(v1, service.Reporting)
	registerReconciliationRoutes(v1, service.Reconciliation)
	return nil
}

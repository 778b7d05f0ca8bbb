package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/school_ledger/internal/adapters/cache"
	portsrepo "github.com/SscSPs/school_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/school_ledger/internal/core/services"
	"github.com/SscSPs/school_ledger/internal/handlers"
	"github.com/SscSPs/school_ledger/internal/middleware"
	"github.com/SscSPs/school_ledger/internal/platform/config"
	"github.com/SscSPs/school_ledger/internal/platform/metrics"
	"github.com/SscSPs/school_ledger/internal/platform/seed"
	"github.com/SscSPs/school_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/school_ledger/internal/repositories/memory"
	"github.com/SscSPs/school_ledger/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	balanceCache, closeCache, err := newBalanceCache(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize balance cache", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeCache()

	var (
		repos   portsrepo.RepositoryProvider
		options = []services.ContainerOption{services.WithMetrics(metrics.NewMetrics())}
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("Using the in-memory store. Ledger data will not survive a restart.")
		repos = memory.NewRepositoryProvider(balanceCache)
	default:
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.ClosePgxPool(dbPool)
		logger.Info("Database connection pool established.")

		logger.Info("Running database migrations...")
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			logger.Error("Failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}

		repos = pgsql.NewRepositoryProvider(dbPool, balanceCache)
		options = append(options, services.WithStoreFolds())
	}

	var seedFile *seed.File
	if cfg.SeedFile != "" {
		seedFile, err = seed.Load(cfg.SeedFile)
		if err != nil {
			logger.Error("Failed to load seed file", slog.String("path", cfg.SeedFile), slog.String("error", err.Error()))
			os.Exit(1)
		}
		options = append(options, services.WithStatementMapping(seedFile.CashFlowMapping()))
	}

	serviceContainer := services.NewServiceContainer(cfg, repos, options...)

	if seedFile != nil {
		if _, err := seed.Apply(ctx, seedFile, serviceContainer, logger); err != nil {
			logger.Error("Failed to apply seed file", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, serviceContainer); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down server", slog.String("error", err.Error()))
	}
	logger.Info("Shutdown complete")
}

// newBalanceCache picks Redis when REDIS_URL is set and the in-process LRU otherwise.
func newBalanceCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.BalanceCache, func(), error) {
	if cfg.RedisURL == "" {
		lru, err := cache.NewLRUBalanceCache(cfg.BalanceCacheSize)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info("Balance cache: in-process LRU", slog.Int("size", cfg.BalanceCacheSize))
		return lru, func() {}, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, func() {}, err
	}
	logger.Info("Balance cache: redis", slog.Duration("ttl", cfg.BalanceCacheTTL))
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Error("Error closing redis client", slog.String("error", err.Error()))
		}
	}
	return cache.NewRedisBalanceCache(client, cfg.BalanceCacheTTL), closeFn, nil
}

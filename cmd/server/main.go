package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/ubankhq/ubank/internal/adapter/http"
	"github.com/ubankhq/ubank/internal/adapter/http/handler"
	"github.com/ubankhq/ubank/internal/adapter/http/middleware"
	postgresRepo "github.com/ubankhq/ubank/internal/adapter/repository/postgres"
	redisRepo "github.com/ubankhq/ubank/internal/adapter/repository/redis"
	"github.com/ubankhq/ubank/internal/infrastructure/auth"
	"github.com/ubankhq/ubank/internal/infrastructure/config"
	"github.com/ubankhq/ubank/internal/infrastructure/logger"
	"github.com/ubankhq/ubank/internal/infrastructure/metrics"
	"github.com/ubankhq/ubank/internal/infrastructure/postgres"
	"github.com/ubankhq/ubank/internal/infrastructure/redis"
	"github.com/ubankhq/ubank/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool, cfg.LockTimeout)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(appLogger)

	// Use cases
	transferUC := usecase.NewTransferUseCase(
		txManager, accountRepo, transactionRepo, auditRepo, idGen, idGen, retrier, appLogger)
	depositUC := usecase.NewDepositUseCase(
		txManager, accountRepo, transactionRepo, auditRepo, idGen, idGen, retrier, appLogger)
	accountUC := usecase.NewAccountUseCase(accountRepo, transactionRepo, auditRepo)
	ledgerUC := usecase.NewLedgerUseCase(transactionRepo, cache, cfg.ConsistencyCacheTTL)

	engineMetrics := metrics.New()

	// Handlers
	transactionHandler := handler.NewTransactionHandler(transferUC, depositUC, engineMetrics)
	accountHandler := handler.NewAccountHandler(accountUC, engineMetrics)
	ledgerHandler := handler.NewLedgerHandler(ledgerUC, engineMetrics)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	} else {
		appLogger.Warn().Msg("JWT_SECRET not set, trusting the gateway identity header")
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				rateLimiter.CleanupLimiters()
			}
		}()
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		TransactionHandler: transactionHandler,
		AccountHandler:     accountHandler,
		LedgerHandler:      ledgerHandler,
		HealthHandler:      healthHandler,
		JWTManager:         jwtManager,
		IdempotencyStore:   idempotencyStore,
		RateLimiter:        rateLimiter,
		Logger:             appLogger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}

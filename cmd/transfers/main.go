package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonno85/tech-task/internal/app/transfers"
	"github.com/jonno85/tech-task/internal/config"
	transfers_http "github.com/jonno85/tech-task/internal/handler/http/transfers"
	"github.com/jonno85/tech-task/internal/infrastructure/database"
	kafka_infra "github.com/jonno85/tech-task/internal/infrastructure/kafka"
	"github.com/jonno85/tech-task/internal/infrastructure/logging"
	"github.com/jonno85/tech-task/internal/lock"
	"github.com/jonno85/tech-task/internal/outbox"
	"github.com/jonno85/tech-task/internal/repository/bank_accounts_repo"
	"github.com/jonno85/tech-task/internal/repository/outbox_repo"
	"github.com/jonno85/tech-task/internal/repository/transactions_repo"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info("Transfer Service starting...", zap.String("service_name", cfg.ServiceName))

	ctxMain, cancelMain := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancelMain()

	appLogger.Info("Waiting for database to be available...")
	db, err := database.ConnectWithRetry(ctxMain, database.DBConfig{
		DSN:          cfg.GetDBConnectionString(),
		MaxOpenConns: cfg.DBConfig.MaxOpenConns,
		MaxIdleConns: cfg.DBConfig.MaxIdleConns,
	}, cfg.DBConfig.ConnectRetries, cfg.DBConfig.ConnectRetryDelay, appLogger)
	if err != nil {
		appLogger.Fatal("Could not connect to database. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		} else {
			appLogger.Info("Database connection closed.")
		}
	}()

	if err := database.RunMigrations(cfg.MigrationsPath, cfg.GetDBMigrationConnectionString(), appLogger); err != nil {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	locker, closeLocker := newAccountLocker(ctxMain, cfg, appLogger.With(zap.String("component", "AccountLocker")))
	defer closeLocker()

	var (
		outboxWriter    transactions_repo.OutboxWriter
		outboxProcessor *outbox.Processor
	)
	if cfg.KafkaEnabled() {
		topicsCtx, cancelTopics := context.WithTimeout(ctxMain, 10*time.Second)
		err := kafka_infra.EnsureTopics(topicsCtx, cfg.GetKafkaBrokers(), []string{cfg.KafkaTransfersTopic}, appLogger)
		cancelTopics()
		if err != nil {
			appLogger.Fatal("Failed to ensure Kafka topics", zap.Error(err))
		}

		kafkaProducer := kafka_infra.NewProducer(cfg.GetKafkaBrokers(), appLogger.With(zap.String("component", "KafkaProducer")))
		defer func() {
			if err := kafkaProducer.Close(); err != nil {
				appLogger.Error("Error closing Kafka producer", zap.Error(err))
			}
		}()

		outboxRepository := outbox_repo.NewOutboxRepository()
		outboxWriter = outboxRepository

		processorCfg := outbox.DefaultProcessorConfig(cfg.KafkaTransfersTopic)
		processorCfg.PollInterval = cfg.OutboxPollInterval
		processorCfg.PollTimeout = cfg.OutboxPollTimeout
		processorCfg.BatchSize = cfg.OutboxBatchSize
		outboxProcessor = outbox.NewProcessor(
			db,
			outboxRepository,
			kafkaProducer,
			processorCfg,
			appLogger.With(zap.String("component", "OutboxProcessor")),
		)
		appLogger.Info("Outbox Processor initialized.", zap.String("topic", cfg.KafkaTransfersTopic))
	} else {
		appLogger.Info("KAFKA_BROKER_URL not set, executed bulk transfers are not published")
	}

	bankAccountRepository := bank_accounts_repo.NewBankAccountRepository(db, appLogger.With(zap.String("component", "BankAccountRepository")))
	transactionRepository := transactions_repo.NewTransactionRepository(db, outboxWriter, cfg.KafkaTransfersTopic,
		appLogger.With(zap.String("component", "TransactionRepository")))

	transferService := transfers.NewTransferService(
		bankAccountRepository,
		transactionRepository,
		locker,
		appLogger.With(zap.String("component", "TransferService")),
	)
	appLogger.Info("Transfer Service initialized.")

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	err = transfers_http.RegisterRoutes(router, transferService, transfers_http.RouterConfig{
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.AllowedOrigins,
	}, appLogger.With(zap.String("component", "HTTPHandler")))
	if err != nil {
		appLogger.Fatal("Failed to register HTTP routes", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if outboxProcessor != nil {
		outboxProcessor.Start(ctxMain)
	}

	select {
	case <-ctxMain.Done():
		appLogger.Info("Shutdown signal received")
	case err := <-serverErr:
		appLogger.Error("HTTP server failed", zap.Error(err))
	}
	cancelMain()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		appLogger.Info("HTTP server gracefully shut down.")
	}

	if outboxProcessor != nil {
		outboxProcessor.Stop()
	}

	appLogger.Info("Application gracefully shut down.")
}

// newAccountLocker returns the locker serializing bulk transfers per account and
// a func releasing its resources.
func newAccountLocker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (lock.Locker, func()) {
	switch cfg.AccountLockBackend {
	case config.LockBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Fatal("Failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}

		opts := lock.DefaultRedisLockerOptions()
		opts.Expiry = cfg.AccountLockTTL
		logger.Info("Using redis account locks", zap.String("addr", cfg.RedisAddr))
		return lock.NewRedisLocker(client, opts, logger), func() {
			if err := client.Close(); err != nil {
				logger.Error("Error closing redis client", zap.Error(err))
			}
		}
	case config.LockBackendNone:
		logger.Warn("Account locking disabled, concurrent bulk transfers may overdraw an account")
		return lock.NoopLocker{}, func() {}
	default:
		logger.Info("Using in-process account locks")
		return lock.NewMemoryLocker(), func() {}
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jonno85/tech-task/internal/bootstrap"
	"github.com/jonno85/tech-task/internal/config"
	"github.com/jonno85/tech-task/internal/infrastructure/database"
	"github.com/jonno85/tech-task/internal/infrastructure/logging"
	"github.com/jonno85/tech-task/internal/repository/bank_accounts_repo"
	"github.com/jonno85/tech-task/internal/repository/transactions_repo"
)

func main() {
	truncate := flag.Bool("truncate", false, "Empty bank_accounts, transactions and outbox_messages before seeding")
	seedFile := flag.String("seed", "", "Path to a JSON file of bank accounts to create")
	list := flag.Bool("list", false, "Print every bank account and transaction as JSON")
	transactionName := flag.String("transaction-name", "", "Print the first transaction paid to this counterparty")
	skipMigrations := flag.Bool("skip-migrations", false, "Do not apply pending migrations")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, options{
		truncate:        *truncate,
		seedFile:        *seedFile,
		list:            *list,
		transactionName: *transactionName,
		skipMigrations:  *skipMigrations,
	}); err != nil {
		logger.Error("Bootstrap failed", zap.Error(err))
		os.Exit(1)
	}
}

type options struct {
	truncate        bool
	seedFile        string
	list            bool
	transactionName string
	skipMigrations  bool
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts options) error {
	db, err := database.ConnectWithRetry(ctx, database.DBConfig{
		DSN:          cfg.GetDBConnectionString(),
		MaxOpenConns: cfg.DBConfig.MaxOpenConns,
		MaxIdleConns: cfg.DBConfig.MaxIdleConns,
	}, cfg.DBConfig.ConnectRetries, cfg.DBConfig.ConnectRetryDelay, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if !opts.skipMigrations {
		if err := database.RunMigrations(cfg.MigrationsPath, cfg.GetDBMigrationConnectionString(), logger); err != nil {
			return err
		}
	}

	if opts.truncate {
		if err := database.TruncateTables(ctx, db); err != nil {
			return err
		}
		logger.Info("Tables truncated")
	}

	accounts := bank_accounts_repo.NewBankAccountRepository(db, logger)
	transactions := transactions_repo.NewTransactionRepository(db, nil, cfg.KafkaTransfersTopic, logger)

	if opts.seedFile != "" {
		f, err := os.Open(opts.seedFile)
		if err != nil {
			return fmt.Errorf("failed to open seed file: %w", err)
		}
		seed, err := bootstrap.LoadSeed(f)
		f.Close()
		if err != nil {
			return err
		}
		created, err := bootstrap.NewSeeder(accounts, logger).Seed(ctx, seed)
		if err != nil {
			return err
		}
		logger.Info("Seeding completed", zap.Int("created", created), zap.Int("total", len(seed)))
	}

	reporter := bootstrap.NewReporter(accounts, transactions)
	if opts.list {
		if err := reporter.WriteAll(ctx, os.Stdout); err != nil {
			return err
		}
	}
	if opts.transactionName != "" {
		if err := reporter.WriteTransaction(ctx, os.Stdout, opts.transactionName); err != nil {
			return err
		}
	}
	return nil
}

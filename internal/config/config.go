package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
	LockBackendNone   = "none"
)

type Config struct {
	HTTPPort       int
	ServiceName    string
	RequestTimeout time.Duration
	AllowedOrigins []string
	LogLevel       string

	DBConfig struct {
		Host              string
		Port              int
		User              string
		Password          string
		Name              string
		SSLMode           string
		MaxOpenConns      int
		MaxIdleConns      int
		ConnectRetries    int
		ConnectRetryDelay time.Duration
	}
	MigrationsPath string

	// AccountLockTTL may be shorter than RequestTimeout; work under a redis
	// lock gets a deadline ahead of the TTL.
	AccountLockBackend string
	AccountLockTTL     time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int

	KafkaBrokerURL      string
	KafkaTransfersTopic string

	OutboxPollInterval time.Duration
	OutboxPollTimeout  time.Duration
	OutboxBatchSize    int
}

// LoadConfig reads the environment. Every malformed value is reported in the returned error.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	l := &loader{}

	cfg.HTTPPort = l.getEnvAsInt("HTTP_PORT", 3000)
	cfg.ServiceName = getEnvOrDefault("SERVICE_NAME", "Qonto service")
	cfg.RequestTimeout = l.getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second)
	cfg.AllowedOrigins = splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.DBConfig.Host = getEnvOrDefault("TRANSFERS_DB_HOST", "localhost")
	cfg.DBConfig.Port = l.getEnvAsInt("TRANSFERS_DB_PORT", 5432)
	cfg.DBConfig.User = getEnvOrDefault("TRANSFERS_DB_USER", "user")
	cfg.DBConfig.Password = getEnvOrDefault("TRANSFERS_DB_PASSWORD", "password")
	cfg.DBConfig.Name = getEnvOrDefault("TRANSFERS_DB_NAME", "transfers_db")
	cfg.DBConfig.SSLMode = getEnvOrDefault("TRANSFERS_DB_SSLMODE", "disable")
	cfg.DBConfig.MaxOpenConns = l.getEnvAsInt("DB_MAX_OPEN_CONNS", 20)
	cfg.DBConfig.MaxIdleConns = l.getEnvAsInt("DB_MAX_IDLE_CONNS", 10)
	cfg.DBConfig.ConnectRetries = l.getEnvAsInt("DB_CONNECT_RETRIES", 10)
	cfg.DBConfig.ConnectRetryDelay = l.getEnvAsDuration("DB_CONNECT_RETRY_DELAY", 5*time.Second)
	cfg.MigrationsPath = getEnvOrDefault("MIGRATIONS_PATH", "migrations")

	cfg.AccountLockBackend = strings.ToLower(getEnvOrDefault("ACCOUNT_LOCK_BACKEND", LockBackendMemory))
	cfg.AccountLockTTL = l.getEnvAsDuration("ACCOUNT_LOCK_TTL", 10*time.Second)
	cfg.RedisAddr = getEnvOrDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", "")
	cfg.RedisDB = l.getEnvAsInt("REDIS_DB", 0)

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "")
	cfg.KafkaTransfersTopic = getEnvOrDefault("KAFKA_TRANSFERS_TOPIC", "bulk_transfer_events")

	cfg.OutboxPollInterval = l.getEnvAsDuration("OUTBOX_POLL_INTERVAL", 1*time.Second)
	cfg.OutboxPollTimeout = l.getEnvAsDuration("OUTBOX_POLL_TIMEOUT", 500*time.Millisecond)
	cfg.OutboxBatchSize = l.getEnvAsInt("OUTBOX_BATCH_SIZE", 100)

	if err := errors.Join(append(l.errs, cfg.validate()...)...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	switch c.AccountLockBackend {
	case LockBackendMemory, LockBackendRedis, LockBackendNone:
	default:
		errs = append(errs, fmt.Errorf("ACCOUNT_LOCK_BACKEND must be one of memory, redis, none: got %q", c.AccountLockBackend))
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort))
	}
	if c.OutboxBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("OUTBOX_BATCH_SIZE must be positive: %d", c.OutboxBatchSize))
	}
	if c.OutboxPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("OUTBOX_POLL_INTERVAL must be positive: %s", c.OutboxPollInterval))
	}
	if c.AccountLockTTL <= 0 {
		errs = append(errs, fmt.Errorf("ACCOUNT_LOCK_TTL must be positive: %s", c.AccountLockTTL))
	}
	return errs
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBConfig.User, c.DBConfig.Password),
		Host:     fmt.Sprintf("%s:%d", c.DBConfig.Host, c.DBConfig.Port),
		Path:     "/" + c.DBConfig.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBConfig.SSLMode),
	}
	return u.String()
}

// KafkaEnabled reports whether executed bulk transfers are published.
func (c *Config) KafkaEnabled() bool {
	return strings.TrimSpace(c.KafkaBrokerURL) != ""
}

func (c *Config) GetKafkaBrokers() []string {
	return splitList(c.KafkaBrokerURL)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

type loader struct {
	errs []error
}

func (l *loader) getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return value
}

func (l *loader) getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := time.ParseDuration(strings.TrimSpace(valueStr))
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return value
}

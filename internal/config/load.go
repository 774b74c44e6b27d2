package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort                 = 8080
	defaultDBDriver             = DriverSQLite
	defaultDBPath               = "./data/finova.db"
	defaultDBHealthInterval     = 30 * time.Second
	defaultDBRetryAttempts      = 3
	defaultRateLimitPerMinute   = 10
	defaultRateLimitBurst       = 5
	defaultAllowedOrigin        = "*"
	defaultBudgetAlertThreshold = 80
	defaultShutdownTimeout      = 10 * time.Second

	envPort                 = "PORT"
	envDBDriver             = "DB_DRIVER"
	envDBPath               = "DB_PATH"
	envDirectURL            = "DIRECT_URL"
	envDatabaseURL          = "DATABASE_URL"
	envDBSimpleProtocol     = "DB_SIMPLE_PROTOCOL"
	envDBMaxOpenConns       = "DB_MAX_OPEN_CONNS"
	envDBHealthInterval     = "DB_HEALTH_INTERVAL"
	envDBRetryAttempts      = "DB_RETRY_ATTEMPTS"
	envJWTSecret            = "JWT_SECRET"
	envJWTIssuer            = "JWT_ISSUER"
	envRateLimitPerMinute   = "RATE_LIMIT_PER_MINUTE"
	envRateLimitBurst       = "RATE_LIMIT_BURST"
	envAllowedOrigin        = "ALLOWED_ORIGIN"
	envMongoURI             = "MONGO_URI"
	envBudgetAlertThreshold = "BUDGET_ALERT_THRESHOLD"
	envShutdownTimeout      = "SHUTDOWN_TIMEOUT"
)

// Load reads envFiles (".env" if none are given) into the environment,
// without overriding variables that are already set, and builds the
// configuration. Invalid numbers fall back to their defaults with a warning.
func Load(ctx context.Context, logger *slog.Logger, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		err := godotenv.Load(f)
		switch {
		case err == nil:
			logger.DebugContext(ctx, "Loaded environment file", "file", f)
		case errors.Is(err, fs.ErrNotExist):
			logger.DebugContext(ctx, "No environment file", "file", f)
		default:
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:                 intEnv(ctx, logger, envPort, defaultPort),
		DBDriver:             strings.ToLower(stringEnv(ctx, logger, envDBDriver, defaultDBDriver)),
		DBPath:               stringEnv(ctx, logger, envDBPath, defaultDBPath),
		DatabaseURL:          databaseURL(ctx, logger),
		DBSimpleProtocol:     boolEnv(ctx, logger, envDBSimpleProtocol, false),
		DBMaxOpenConns:       intEnv(ctx, logger, envDBMaxOpenConns, 0),
		DBHealthInterval:     durationEnv(ctx, logger, envDBHealthInterval, defaultDBHealthInterval),
		DBRetryAttempts:      intEnv(ctx, logger, envDBRetryAttempts, defaultDBRetryAttempts),
		JWTSecret:            os.Getenv(envJWTSecret),
		JWTIssuer:            os.Getenv(envJWTIssuer),
		RateLimitPerMinute:   intEnv(ctx, logger, envRateLimitPerMinute, defaultRateLimitPerMinute),
		RateLimitBurst:       intEnv(ctx, logger, envRateLimitBurst, defaultRateLimitBurst),
		AllowedOrigin:        stringEnv(ctx, logger, envAllowedOrigin, defaultAllowedOrigin),
		MongoURI:             os.Getenv(envMongoURI),
		BudgetAlertThreshold: intEnv(ctx, logger, envBudgetAlertThreshold, defaultBudgetAlertThreshold),
		ShutdownTimeout:      durationEnv(ctx, logger, envShutdownTimeout, defaultShutdownTimeout),
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("%s or %s is required for the postgres driver", envDirectURL, envDatabaseURL)
		}
	default:
		return nil, fmt.Errorf("unsupported %s %q", envDBDriver, cfg.DBDriver)
	}

	if cfg.MongoURI == "" {
		logger.DebugContext(ctx, "No MongoDB configured, emails will be logged")
	}

	return cfg, nil
}

// databaseURL prefers the direct connection URL, which bypasses any pooler.
func databaseURL(ctx context.Context, logger *slog.Logger) string {
	if v := os.Getenv(envDirectURL); v != "" {
		logger.DebugContext(ctx, "Using database URL from environment variable", "var", envDirectURL)
		return v
	}
	if v := os.Getenv(envDatabaseURL); v != "" {
		logger.DebugContext(ctx, "Using database URL from environment variable", "var", envDatabaseURL)
		return v
	}
	return ""
}

func stringEnv(ctx context.Context, logger *slog.Logger, key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		logger.DebugContext(ctx, "Using default value", "var", key, "value", def)
		return def
	}
	logger.DebugContext(ctx, "Using value from environment variable", "var", key, "value", v)
	return v
}

func intEnv(ctx context.Context, logger *slog.Logger, key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		logger.DebugContext(ctx, "Using default value", "var", key, "value", def)
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.WarnContext(ctx, "Invalid value for "+key+", using default", "value", v, "default", def)
		return def
	}
	logger.DebugContext(ctx, "Using value from environment variable", "var", key, "value", n)
	return n
}

func boolEnv(ctx context.Context, logger *slog.Logger, key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		logger.DebugContext(ctx, "Using default value", "var", key, "value", def)
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.WarnContext(ctx, "Invalid value for "+key+", using default", "value", v, "default", def, "error", err)
		return def
	}
	logger.DebugContext(ctx, "Using value from environment variable", "var", key, "value", b)
	return b
}

func durationEnv(ctx context.Context, logger *slog.Logger, key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		logger.DebugContext(ctx, "Using default value", "var", key, "value", def)
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.WarnContext(ctx, "Invalid value for "+key+", using default", "value", v, "default", def)
		return def
	}
	logger.DebugContext(ctx, "Using value from environment variable", "var", key, "value", d)
	return d
}

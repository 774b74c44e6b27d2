// Package config loads Finova's settings from the environment.
package config

import "time"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	Port int

	// DBDriver is DriverSQLite or DriverPostgres.
	DBDriver string
	// DBPath is the SQLite database file.
	DBPath string
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string
	// DBSimpleProtocol disables Postgres prepared statements.
	DBSimpleProtocol bool
	// DBMaxOpenConns caps the Postgres pool; zero means unlimited.
	DBMaxOpenConns int
	// DBHealthInterval is how often the store is pinged.
	DBHealthInterval time.Duration
	// DBRetryAttempts bounds retries of transient store errors.
	DBRetryAttempts int

	// JWTSecret verifies identity-provider tokens.
	JWTSecret string
	// JWTIssuer, if set, must match the token's iss claim.
	JWTIssuer string

	RateLimitPerMinute int
	RateLimitBurst     int

	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string

	// MongoURI locates the email outbox. Empty logs emails instead.
	MongoURI string

	// BudgetAlertThreshold is the percentage of budget that triggers an alert.
	BudgetAlertThreshold int

	ShutdownTimeout time.Duration
}

package app

import (
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL       string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnLifetime time.Duration
	DBMaxConnIdleTime time.Duration

	// RunMigrations applies pending schema migrations at startup.
	RunMigrations bool

	// CORSOrigins lists origins allowed to make credentialed requests.
	CORSOrigins []string

	// If true, /readyz returns 503 unless the database is reachable.
	ReadinessRequireDB bool
}

// LoadConfig loads Config from environment variables with defaults.
// A .env file in the working directory is merged in first, if present.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr: EnvString("BUDGETLY_HTTP_ADDR", "0.0.0.0:3001"),
		LogLevel: EnvString("BUDGETLY_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("BUDGETLY_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("BUDGETLY_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("BUDGETLY_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("BUDGETLY_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("BUDGETLY_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL:       EnvString("BUDGETLY_DATABASE_URL", ""),
		DBMaxConns:        EnvInt32("BUDGETLY_DB_MAX_CONNS", 10),
		DBMinConns:        EnvInt32("BUDGETLY_DB_MIN_CONNS", 0),
		DBMaxConnLifetime: EnvDuration("BUDGETLY_DB_MAX_CONN_LIFETIME", 30*time.Minute),
		DBMaxConnIdleTime: EnvDuration("BUDGETLY_DB_MAX_CONN_IDLE_TIME", 5*time.Minute),

		RunMigrations: EnvBool("BUDGETLY_DB_MIGRATE", true),

		CORSOrigins: EnvStrings("BUDGETLY_CORS_ORIGINS", []string{"http://localhost:3000"}),

		ReadinessRequireDB: EnvBool("BUDGETLY_READINESS_REQUIRE_DB", true),
	}
}

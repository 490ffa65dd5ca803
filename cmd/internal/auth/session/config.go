package session

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config defines runtime configuration for the session subsystem.
//
// It controls session lifetime, sweep cadence, token entropy, and cookie
// attributes. Explicit and environment-driven so deployments can tune it
// without code changes.
type Config struct {
	// TTL is the session lifetime measured from login.
	TTL time.Duration

	// SweepInterval is the period of the background expiry sweep.
	SweepInterval time.Duration

	// TokenBytes is the number of random bytes behind each opaque token.
	TokenBytes int

	// CookieName is the session cookie name.
	CookieName string

	// CookieSecure marks the cookie Secure (HTTPS-only deployments).
	CookieSecure bool
}

// DefaultConfig mirrors the original deployment: 7-day sessions swept every
// two minutes.
func DefaultConfig() Config {
	return Config{
		TTL:           7 * 24 * time.Hour,
		SweepInterval: 2 * time.Minute,
		TokenBytes:    32,
		CookieName:    "budgetly_session",
		CookieSecure:  false,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("BUDGETLY_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	if v := os.Getenv("BUDGETLY_SESSION_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.SweepInterval = d
	}

	if v := os.Getenv("BUDGETLY_SESSION_TOKEN_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 16 || n > 64 {
			return Config{}, ErrConfig
		}
		cfg.TokenBytes = n
	}

	if v := strings.TrimSpace(os.Getenv("BUDGETLY_SESSION_COOKIE_NAME")); v != "" {
		cfg.CookieName = v
	}

	if v := strings.TrimSpace(os.Getenv("BUDGETLY_SESSION_COOKIE_SECURE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, ErrConfig
		}
		cfg.CookieSecure = b
	}

	return cfg, nil
}

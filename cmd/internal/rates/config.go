package rates

import (
	"errors"
	"os"
	"strings"
	"time"
)

// ErrConfig reports invalid exchange-rate configuration.
var ErrConfig = errors.New("rates: invalid configuration")

// Config defines the upstream provider settings.
type Config struct {
	// BaseURL is the provider root, without a trailing slash.
	BaseURL string

	// APIKey authenticates against the provider. Empty means the endpoint
	// is unconfigured; requests will fail with a server error.
	APIKey string

	// Timeout bounds a single upstream call.
	Timeout time.Duration
}

// DefaultConfig targets the hosted v6 exchangerate-api endpoint.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://v6.exchangerate-api.com/v6",
		Timeout: 10 * time.Second,
	}
}

// LoadConfigFromEnv loads provider settings from the environment.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("BUDGETLY_EXCHANGE_BASE_URL")); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	cfg.APIKey = strings.TrimSpace(os.Getenv("BUDGETLY_EXCHANGE_API_KEY"))

	if v := os.Getenv("BUDGETLY_EXCHANGE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.Timeout = d
	}

	return cfg, nil
}

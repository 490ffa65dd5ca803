package password

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is bcrypt's hard input limit; longer input is silently
// truncated by the algorithm, which we refuse instead.
const maxPasswordBytes = 72

// Config holds the hashing work factor.
type Config struct {
	// Cost is the bcrypt work factor. Each increment doubles the hashing cost.
	Cost int
}

// DefaultConfig returns the default work factor (bcrypt cost 10).
func DefaultConfig() Config {
	return Config{Cost: bcrypt.DefaultCost}
}

// FromEnv loads the hashing configuration from the environment.
// An unset variable keeps the default; an out-of-range value is a hard error,
// because silently falling back to weaker hashing is unacceptable.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("BUDGETLY_BCRYPT_COST")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return Config{}, ErrConfig
		}
		cfg.Cost = n
	}

	return cfg, nil
}

// Hash returns a salted bcrypt hash of plain. Output length is fixed (60
// bytes) while the embedded salt makes the output non-deterministic.
func (c Config) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrPasswordEmpty
	}
	if len(plain) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	cost := c.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	out, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether plain reproduces encoded when hashed with the salt
// embedded in encoded. A mismatch is (false, nil); only a malformed hash is
// an error.
func (c Config) Verify(plain, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, ErrInvalidHash
}

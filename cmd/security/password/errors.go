package password

import "errors"

var (
	// ErrPasswordEmpty is returned when asked to hash an empty password.
	ErrPasswordEmpty = errors.New("password is empty")

	// ErrPasswordTooLong is returned when the password exceeds bcrypt's 72-byte input limit.
	ErrPasswordTooLong = errors.New("password too long")

	// ErrInvalidHash is returned when a stored hash cannot be parsed as bcrypt output.
	ErrInvalidHash = errors.New("invalid bcrypt hash format")

	// ErrConfig is returned for an out-of-range cost configuration.
	ErrConfig = errors.New("invalid password config")
)

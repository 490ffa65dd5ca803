package session

import "errors"

var (
	// ErrSessionNotFound is returned when a token does not resolve to a session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid session config")
)

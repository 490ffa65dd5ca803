// Package session maps opaque session tokens to user identity with expiry.
//
// The plain token lives only in the client's cookie; the store persists a
// SHA-256 hash. Expiry is enforced passively by a periodic sweep, not by
// synchronous checks at read time: an expired-but-not-yet-swept session
// remains usable, which callers must accept as the consistency model.
package session

// Package identity owns the User model and its persistence boundary.
//
// It validates registration input, enforces email uniqueness through the
// storage layer's constraints, and provisions the default transaction
// categories for a new user in the same transaction as the user row.
package identity

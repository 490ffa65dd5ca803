// Package password is the credential hasher: a one-way, salted bcrypt
// transform plus verifier.
//
// Hashing cost is tunable via BUDGETLY_BCRYPT_COST; verification never errors
// on a plain mismatch, only on malformed hash input.
package password

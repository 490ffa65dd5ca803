// Package ledger is the bookkeeping surface: user-owned transactions and the
// categories that group them. Every query is scoped by the owning user id;
// ownership is enforced in SQL predicates, not in handler logic.
package ledger

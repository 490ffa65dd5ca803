package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a row does not exist or is owned by someone else.
	ErrNotFound = errors.New("not_found")

	// ErrInvalidRef is returned when a transaction references a category the
	// caller does not own (or that does not exist).
	ErrInvalidRef = errors.New("invalid_reference")
)

// Category is a user-owned label for grouping transactions.
type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transaction is a single bookkeeping entry. Amounts are integer cents.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	CategoryID  *string   `json:"categoryId"`
	Title       string    `json:"title"`
	AmountCents int64     `json:"amountCents"`
	OccurredAt  time.Time `json:"occurredAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateTransactionInput describes a new transaction.
type CreateTransactionInput struct {
	UserID      string
	CategoryID  *string
	Title       string
	AmountCents int64
	OccurredAt  time.Time
	Now         time.Time
}

// Store is the ledger persistence boundary. All reads and deletes are scoped
// to the owning user.
type Store interface {
	ListCategories(ctx context.Context, userID string) ([]Category, error)
	CreateCategory(ctx context.Context, now time.Time, userID, name string) (Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error

	ListTransactions(ctx context.Context, userID string) ([]Transaction, error)
	CreateTransaction(ctx context.Context, in CreateTransactionInput) (Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

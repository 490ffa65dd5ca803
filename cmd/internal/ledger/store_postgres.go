package ledger

import (
	"context"
	"errors"
	"time"

	"budgetly/cmd/identity/ids"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
// The pool is owned by the caller and must not be closed here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("ledger: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// ListCategories returns the user's categories, oldest first.
func (s *PostgresStore) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, created_at
		FROM transaction_categories
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CreateCategory inserts a category for the user.
func (s *PostgresStore) CreateCategory(ctx context.Context, now time.Time, userID, name string) (Category, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ids.NewULID(now)
	if err != nil {
		return Category{}, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO transaction_categories (id, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, userID, name, now)
	if err != nil {
		return Category{}, err
	}

	return Category{ID: id, UserID: userID, Name: name, CreatedAt: now}, nil
}

// DeleteCategory removes the user's category. Transactions that referenced it
// keep existing with a NULL category (ON DELETE SET NULL).
func (s *PostgresStore) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM transaction_categories
		WHERE id = $1 AND user_id = $2
	`, categoryID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTransactions returns the user's transactions, newest first.
func (s *PostgresStore) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, category_id, title, amount_cents, occurred_at, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY occurred_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]Transaction, 0)
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Title, &t.AmountCents, &t.OccurredAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// CreateTransaction inserts a transaction. A category reference must belong to
// the same user; a foreign or missing category is ErrInvalidRef.
func (s *PostgresStore) CreateTransaction(ctx context.Context, in CreateTransactionInput) (Transaction, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	if in.CategoryID != nil {
		var one int
		err := s.pool.QueryRow(ctx, `
			SELECT 1 FROM transaction_categories
			WHERE id = $1 AND user_id = $2
		`, *in.CategoryID, in.UserID).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrInvalidRef
		}
		if err != nil {
			return Transaction{}, err
		}
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Transaction{}, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO transactions (id, user_id, category_id, title, amount_cents, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, in.UserID, in.CategoryID, in.Title, in.AmountCents, occurredAt, now)
	if err != nil {
		// The ownership check above races with category deletion; the FK has
		// the final word.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return Transaction{}, ErrInvalidRef
		}
		return Transaction{}, err
	}

	return Transaction{
		ID:          id,
		UserID:      in.UserID,
		CategoryID:  in.CategoryID,
		Title:       in.Title,
		AmountCents: in.AmountCents,
		OccurredAt:  occurredAt,
		CreatedAt:   now,
	}, nil
}

// DeleteTransaction removes the user's transaction.
func (s *PostgresStore) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM transactions
		WHERE id = $1 AND user_id = $2
	`, transactionID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

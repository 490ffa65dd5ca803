package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - CreateUser runs the user insert and the category batch in one transaction,
//   so a duplicate email can never leave partial state behind.
// - Unique-constraint violations are mapped to ConflictError; everything else
//   passes through as a storage fault.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("identity: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// CreateUser creates the user row and its default categories atomically.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}
	if in.PasswordHash == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	userID, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, email, in.PasswordHash, strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName), now)
	if err != nil {
		return User{}, mapPgError(op, err)
	}

	// Default categories ride in the same transaction as a single batch.
	batch := &pgx.Batch{}
	for _, name := range in.Categories {
		catID, idErr := NewULID(now)
		if idErr != nil {
			return User{}, idErr
		}
		batch.Queue(`
			INSERT INTO transaction_categories (id, user_id, name, created_at)
			VALUES ($1, $2, $3, $4)
		`, catID, userID, name, now)
	}
	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		for range in.Categories {
			if _, execErr := br.Exec(); execErr != nil {
				_ = br.Close()
				return User{}, mapPgError(op, execErr)
			}
		}
		if closeErr := br.Close(); closeErr != nil {
			return User{}, mapPgError(op, closeErr)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, mapPgError(op, err)
	}

	return User{
		ID:           userID,
		Email:        email,
		PasswordHash: in.PasswordHash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		CreatedAt:    now,
	}, nil
}

// GetUserByEmail loads a user by exact email match (stored case-sensitively).
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"
	return s.getUser(ctx, op, `
		SELECT id, email, password_hash, first_name, last_name, created_at
		FROM users
		WHERE email = $1
	`, strings.TrimSpace(email))
}

// GetUserByID loads a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"
	return s.getUser(ctx, op, `
		SELECT id, email, password_hash, first_name, last_name, created_at
		FROM users
		WHERE id = $1
	`, id)
}

func (s *PostgresStore) getUser(ctx context.Context, op, query, arg string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// mapPgError translates driver errors into identity error kinds.
func mapPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code != "23505" { // unique_violation
		return err
	}
	// users.email is the only unique constraint in play.
	return ConflictError{Op: op, Field: "email"}
}

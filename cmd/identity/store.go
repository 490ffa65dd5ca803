package identity

import (
	"context"
	"time"
)

// User is the canonical account record.
// PasswordHash is produced only by cmd/security/password; no code path stores
// or compares a plaintext password.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string

	CreatedAt time.Time
}

// DefaultCategoryNames are provisioned for every new user at registration time.
var DefaultCategoryNames = []string{"Products", "Entertainment", "Bills"}

// CreateUserInput describes a user registration request.
// The password arrives already hashed; Categories are the names to provision
// alongside the user row.
type CreateUserInput struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Categories   []string
	Now          time.Time
}

// Store is the identity persistence boundary.
//
// Contract:
//   - CreateUser creates the user row and its default categories as ONE atomic
//     unit; a duplicate email surfaces as ConflictError{Field: "email"} with no
//     partial state left behind.
//   - Get* return NotFoundError for an empty result; any other error is a
//     storage fault.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
}

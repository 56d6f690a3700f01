package repository

import (
	"context"
	"errors"

	"accounts-backend/internal/features/user/models"
)

var (
	// ErrUserNotFound is returned when no user matches the given id or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the unique email constraint is violated.
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository is the single source of truth for user records. Role and
// ledger writes go through it; each call is atomic per record.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	AppendDocument(ctx context.Context, id string, doc models.Document) (*models.User, error)
	TouchLastConnection(ctx context.Context, id string) error
}

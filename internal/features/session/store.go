// Package session stores the authenticated identity for the lifetime of a
// client session.
package session

import (
	"context"
	"errors"

	"accounts-backend/internal/features/user/models"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Store persists session identities keyed by an opaque session id.
type Store interface {
	// Create saves the identity under a fresh session id and returns the id.
	Create(ctx context.Context, identity models.SessionIdentity) (string, error)
	Get(ctx context.Context, sessionID string) (*models.SessionIdentity, error)
	Delete(ctx context.Context, sessionID string) error
}

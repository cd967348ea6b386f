// Package store provides session persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/datequiz/internal/domain"
)

// ErrNotFound is returned when a conversation has no stored attributes.
var ErrNotFound = errors.New("session not found")

// Repository defines the interface for persisting per-conversation attributes.
type Repository interface {
	// GetSession retrieves the stored attributes for a conversation.
	// Returns ErrNotFound when nothing has been saved yet.
	GetSession(ctx context.Context, sessionID string) (*domain.StoredSession, error)

	// SaveSession creates or replaces the attributes for a conversation.
	SaveSession(ctx context.Context, sessionID string, s domain.Session) error

	// DeleteSession removes a conversation. Deleting a missing one is not an error.
	DeleteSession(ctx context.Context, sessionID string) error

	// CleanupExpired removes conversations idle for longer than ttl and
	// returns their ids.
	CleanupExpired(ctx context.Context, ttl time.Duration) ([]string, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the backing store.
	Close() error
}

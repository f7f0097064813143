// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/coachd/internal/domain"
)

// Signal is a pending "start this challenge's conversation" intent for one
// browser tab session.
type Signal struct {
	UserID          string
	SessionID       string
	ChallengeNumber int
	CreatedAt       time.Time
}

// Repository defines the interface for persisting users, state blobs and
// conversation signals.
type Repository interface {
	// GetUser retrieves a user by their user ID. It returns nil, nil when the
	// user does not exist.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// GetStateBlob returns the raw state stored under key. found is false
	// when nothing has been saved yet.
	GetStateBlob(ctx context.Context, userID, key string) (data []byte, found bool, err error)

	// PutStateBlob overwrites the raw state stored under key.
	PutStateBlob(ctx context.Context, userID, key string, data []byte) error

	// PutSignal stores a signal, replacing any previous one for the session.
	PutSignal(ctx context.Context, signal Signal) error

	// TakeSignal returns and deletes the signal for a session. It returns
	// nil, nil when there is none.
	TakeSignal(ctx context.Context, userID, sessionID string) (*Signal, error)

	// CleanupExpiredSignals removes signals older than ttl.
	CleanupExpiredSignals(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

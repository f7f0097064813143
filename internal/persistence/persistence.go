// Package persistence loads and saves the aggregate user state as a single
// serialized blob per user.
//
// Load never fails: a missing or unparsable blob yields defaults. Save
// overwrites the whole blob, last write wins.
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ashureev/coachd/internal/domain"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "coach_state"

// BlobStore is the storage the layer needs.
type BlobStore interface {
	GetStateBlob(ctx context.Context, userID, key string) ([]byte, bool, error)
	PutStateBlob(ctx context.Context, userID, key string, data []byte) error
}

// Layer is the load/save contract over a BlobStore.
type Layer struct {
	blobs    BlobStore
	key      string
	logger   *slog.Logger
	detached bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Layer storing state under key.
func New(blobs BlobStore, key string, logger *slog.Logger) *Layer {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Layer{
		blobs:  blobs,
		key:    key,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Detached returns a Layer with no backing storage: Load returns defaults
// and Save is a no-op. It is used where state must be renderable without a
// database, such as prompt previews in the CLI.
func Detached() *Layer {
	return &Layer{
		key:      DefaultKey,
		logger:   slog.Default(),
		detached: true,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Key returns the storage key.
func (l *Layer) Key() string { return l.key }

// Load returns the user's state, degrading to defaults on any failure.
func (l *Layer) Load(ctx context.Context, userID string) *domain.UserState {
	state, err := l.load(ctx, userID)
	if err != nil {
		l.logger.Warn("Failed to read user state, using defaults", "user_id", userID, "error", err)
		return domain.DefaultState()
	}
	return state
}

// load distinguishes a storage failure (returned) from corrupt content
// (degraded to defaults).
func (l *Layer) load(ctx context.Context, userID string) (*domain.UserState, error) {
	if l.detached {
		return domain.DefaultState(), nil
	}
	data, found, err := l.blobs.GetStateBlob(ctx, userID, l.key)
	if err != nil {
		return nil, err
	}
	if !found {
		return domain.DefaultState(), nil
	}
	state, err := domain.DecodeState(data)
	if err != nil {
		l.logger.Warn("Stored user state is unreadable, resetting to defaults", "user_id", userID, "error", err)
		return domain.DefaultState(), nil
	}
	return state, nil
}

// Save serializes and overwrites the user's state.
func (l *Layer) Save(ctx context.Context, userID string, state *domain.UserState) error {
	if l.detached {
		return nil
	}
	data, err := state.Encode()
	if err != nil {
		return err
	}
	if err := l.blobs.PutStateBlob(ctx, userID, l.key, data); err != nil {
		return fmt.Errorf("save user state: %w", err)
	}
	return nil
}

// Update runs a read-modify-write of the user's state under a per-user
// lock. If fn returns an error nothing is saved. A storage read failure
// aborts the update instead of overwriting stored state with defaults.
func (l *Layer) Update(ctx context.Context, userID string, fn func(*domain.UserState) error) (*domain.UserState, error) {
	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	state, err := l.load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user state: %w", err)
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	if err := l.Save(ctx, userID, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Import replaces the user's state with a previously exported blob. Unlike
// Load, unparsable input is an error because it comes from the caller.
func (l *Layer) Import(ctx context.Context, userID string, data []byte) (*domain.UserState, error) {
	state, err := domain.DecodeState(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalid, err)
	}
	return l.Update(ctx, userID, func(s *domain.UserState) error {
		*s = *state
		return nil
	})
}

func (l *Layer) userLock(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	return lock
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/coachd/internal/domain"
	"github.com/ashureev/coachd/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	writeAttempts  = 3
	writeBaseDelay = 100 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_state (
		user_id TEXT NOT NULL,
		state_key TEXT NOT NULL,
		state_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, state_key)
	);

	CREATE TABLE IF NOT EXISTS pending_signals (
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		challenge_number INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, session_id)
	);
	CREATE INDEX IF NOT EXISTS idx_pending_signals_created ON pending_signals(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	var user domain.User
	var lastSeen, createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Username,
		user.LastSeenAt.Unix(), user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}
	return nil
}

// GetStateBlob returns the raw state stored for a user under key.
func (s *SQLiteStore) GetStateBlob(ctx context.Context, userID, key string) ([]byte, bool, error) {
	query := `SELECT state_json FROM user_state WHERE user_id = ? AND state_key = ?`

	var data string
	err := s.db.QueryRowContext(ctx, query, userID, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read state blob: %w", err)
	}
	return []byte(data), true, nil
}

// PutStateBlob overwrites the state stored for a user under key, retrying
// with exponential backoff while SQLite reports a write conflict.
func (s *SQLiteStore) PutStateBlob(ctx context.Context, userID, key string, data []byte) error {
	query := `
	INSERT INTO user_state (user_id, state_key, state_json, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id, state_key) DO UPDATE SET
		state_json = excluded.state_json,
		updated_at = excluded.updated_at`

	err := shared.RetryOnConflict(ctx, "PutStateBlob", writeAttempts, writeBaseDelay, func() error {
		_, err := s.db.ExecContext(ctx, query, userID, key, string(data), time.Now().Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("write state blob for %s: %w", userID, err)
	}
	return nil
}

// PutSignal stores a pending conversation signal for a tab session.
func (s *SQLiteStore) PutSignal(ctx context.Context, signal Signal) error {
	query := `
	INSERT INTO pending_signals (user_id, session_id, challenge_number, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id, session_id) DO UPDATE SET
		challenge_number = excluded.challenge_number,
		created_at = excluded.created_at`

	createdAt := signal.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	err := shared.RetryOnConflict(ctx, "PutSignal", writeAttempts, writeBaseDelay, func() error {
		_, err := s.db.ExecContext(ctx, query,
			signal.UserID, signal.SessionID, signal.ChallengeNumber, createdAt.Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("put signal: %w", err)
	}
	return nil
}

// TakeSignal atomically reads and deletes the signal for a session.
func (s *SQLiteStore) TakeSignal(ctx context.Context, userID, sessionID string) (*Signal, error) {
	query := `
	DELETE FROM pending_signals WHERE user_id = ? AND session_id = ?
	RETURNING challenge_number, created_at`

	signal := Signal{UserID: userID, SessionID: sessionID}
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, userID, sessionID).Scan(&signal.ChallengeNumber, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("take signal: %w", err)
	}
	signal.CreatedAt = time.Unix(createdAt, 0)
	return &signal, nil
}

// CleanupExpiredSignals removes signals older than ttl.
func (s *SQLiteStore) CleanupExpiredSignals(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM pending_signals WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired signals: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

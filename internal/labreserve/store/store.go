package store

import (
	"context"
	"errors"
	"time"

	"github.com/labreserve/labreserve/internal/labreserve/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable, and a WithTx helper for the multi-step operations that
// must be atomic (session rotation in particular).
type Store interface {
	Users() Users
	RefreshSessions() RefreshSessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle transactions.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername looks a user up by username, ignoring case.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail looks a user up by email, ignoring case.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// A case-insensitive username or email collision yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash replaces the stored password hash and bumps
	// updated_at.
	UpdatePasswordHash(ctx context.Context, userID, hash string) error

	// DeleteUser cascades to refresh_sessions (per schema).
	DeleteUser(ctx context.Context, userID string) error
}

type RefreshSessions interface {
	// CreateSession stores a new refresh session record.
	CreateSession(ctx context.Context, s domain.RefreshSession) error

	// GetSessionByID returns the session with its owning user attached.
	GetSessionByID(ctx context.Context, id string) (domain.RefreshSession, error)

	// RevokeSession flips revoked to true. Revocation is monotonic: the
	// statement never writes false.
	RevokeSession(ctx context.Context, id string) error

	// RevokeAllUserSessions bulk revocation for a user (e.g., password reset).
	RevokeAllUserSessions(ctx context.Context, userID string) error

	// TrimActiveSessions hard-deletes the user's active (not revoked, not
	// expired at now) sessions beyond the newest keep, ordered by creation
	// time descending with id descending as tie-break. Run inside the same
	// transaction as the insert that follows it.
	TrimActiveSessions(ctx context.Context, userID string, keep int, now time.Time) error

	// CountActiveSessions returns how many sessions are active at now.
	CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error)

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labreserve/labreserve/internal/labreserve/domain"
	"github.com/labreserve/labreserve/internal/labreserve/store"
	"github.com/labreserve/labreserve/pkg/cryptox"
	"github.com/labreserve/labreserve/pkg/idx"
	"github.com/labreserve/labreserve/pkg/slogx"
)

const (
	// MaxActiveSessions is the maximum number of concurrently active refresh
	// sessions a single user may hold. Logging in or refreshing beyond this
	// trims the oldest active sessions to make room for the new one.
	MaxActiveSessions = 5

	// SecretSize is the number of random bytes in a refresh credential's
	// secret part.
	SecretSize = 32
)

var (
	ErrSessionInvalid = errors.New("invalid_session")
	ErrSessionRevoked = errors.New("session_revoked")
	ErrSessionExpired = errors.New("session_expired")
)

// SessionService owns the refresh session lifecycle: minting new sessions
// with opaque credentials, validating presented credentials, and revoking
// sessions on logout or rotation.
//
// A credential is "<sessionID>.<secret>". Only the hex SHA-256 digest of the
// secret is persisted, so a database leak never exposes usable credentials.
type SessionService struct {
	Store      store.Store
	SessionTTL time.Duration
}

// Create mints a new refresh session for userID and returns the opaque
// credential. If rotatedFrom names an existing session, that session is
// revoked in the same transaction, so the old credential dies the moment
// its replacement exists.
//
// Room for the new session is made by trimming: any active sessions beyond
// the newest MaxActiveSessions-1 are hard-deleted before the insert. The
// whole sequence runs inside one transaction, so the per-user cap holds
// even under concurrent logins.
func (s *SessionService) Create(ctx context.Context, userID, rotatedFrom string) (string, error) {
	now := time.Now().UTC()

	secret, err := cryptox.GenerateSecret(SecretSize)
	if err != nil {
		return "", err
	}

	session := domain.RefreshSession{
		ID:         idx.New().String(),
		UserID:     userID,
		SecretHash: cryptox.DigestSecret(secret),
		Revoked:    false,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.SessionTTL),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if rotatedFrom != "" {
			if err := tx.RefreshSessions().RevokeSession(ctx, rotatedFrom); err != nil {
				return err
			}
		}
		if err := tx.RefreshSessions().TrimActiveSessions(ctx, userID, MaxActiveSessions-1, now); err != nil {
			return err
		}
		return tx.RefreshSessions().CreateSession(ctx, session)
	})
	if err != nil {
		return "", err
	}

	return session.ID + "." + secret, nil
}

// Validate resolves a presented credential to its session.
//
// Outcomes:
//   - malformed credential (no dot, empty parts): (nil, nil)
//   - no session with that ID: (nil, ErrSessionInvalid)
//   - session revoked: (session, ErrSessionRevoked), so callers can react
//     to credential replay
//   - session expired: (session, ErrSessionExpired); expiry is checked
//     before the digest, an expired session never validates even with the
//     right secret
//   - secret digest mismatch: (nil, nil)
//
// Only a live session with a matching digest returns (session, nil).
func (s *SessionService) Validate(ctx context.Context, credential string) (*domain.RefreshSession, error) {
	now := time.Now().UTC()

	sessionID, secret, ok := splitCredential(credential)
	if !ok {
		return nil, nil
	}

	session, err := s.Store.RefreshSessions().GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	if session.Revoked {
		return &session, ErrSessionRevoked
	}
	if !now.Before(session.ExpiresAt) {
		return &session, ErrSessionExpired
	}

	if !cryptox.VerifySecret(secret, session.SecretHash) {
		return nil, nil
	}

	return &session, nil
}

// Dispose revokes the session a credential points at. Revoked and expired
// sessions are revoked again without complaint, so calling Dispose twice
// with the same credential is harmless. Malformed credentials and digest
// mismatches are no-ops; a credential naming a session that does not exist
// reports ErrSessionInvalid.
func (s *SessionService) Dispose(ctx context.Context, credential string) error {
	l := slogx.FromContext(ctx)

	session, err := s.Validate(ctx, credential)
	if err != nil && !errors.Is(err, ErrSessionRevoked) && !errors.Is(err, ErrSessionExpired) {
		return err
	}
	if session == nil {
		return nil
	}

	if err := s.Store.RefreshSessions().RevokeSession(ctx, session.ID); err != nil {
		l.Error("failed to revoke session", "session_id", session.ID, "error", err)
		return err
	}
	return nil
}

// DisposeAll revokes every active session a user holds. Used for account
// level sign-out and when an administrator deactivates a user.
func (s *SessionService) DisposeAll(ctx context.Context, userID string) error {
	return s.Store.RefreshSessions().RevokeAllUserSessions(ctx, userID)
}

// splitCredential breaks "<sessionID>.<secret>" into its parts. Both parts
// must be non-empty; extra dots belong to the secret.
func splitCredential(credential string) (sessionID, secret string, ok bool) {
	sessionID, secret, found := strings.Cut(credential, ".")
	if !found || sessionID == "" || secret == "" {
		return "", "", false
	}
	return sessionID, secret, true
}

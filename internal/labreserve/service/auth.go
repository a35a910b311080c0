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
	"github.com/labreserve/labreserve/pkg/jwtx"
	"github.com/labreserve/labreserve/pkg/slogx"
)

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUsernameTaken      = errors.New("username_taken")
	ErrEmailTaken         = errors.New("email_taken")
	ErrWeakPassword       = errors.New("weak_password")
	ErrInvalidInput       = errors.New("invalid_input")
)

// AuthService orchestrates login, registration, token refresh, and logout.
// It owns the access-token side; refresh credentials are delegated to the
// SessionService.
type AuthService struct {
	Store     store.Store
	Sessions  *SessionService
	Signer    jwtx.Signer
	Issuer    string
	AccessTTL time.Duration
}

// Login verifies a username/password pair and issues a fresh token pair.
// Unknown usernames and wrong passwords both report ErrInvalidCredentials,
// so the response never reveals which accounts exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("password verification failed", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.issuePair(ctx, user, "", now)
}

// Register creates a USER-role account and signs it in. Username and email
// uniqueness are case-insensitive; conflicts report ErrUsernameTaken or
// ErrEmailTaken so the handler can point at the offending field.
func (s *AuthService) Register(ctx context.Context, username, name, password string, email *string) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	username = strings.TrimSpace(username)
	name = strings.TrimSpace(name)
	if username == "" || name == "" {
		return nil, ErrInvalidInput
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	if email != nil {
		trimmed := strings.TrimSpace(*email)
		if trimmed == "" {
			email = nil
		} else {
			email = &trimmed
		}
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().GetUserByUsername(ctx, username); err == nil {
			return ErrUsernameTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if email != nil {
			if _, err := tx.Users().GetUserByEmail(ctx, *email); err == nil {
				return ErrEmailTaken
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}

		return tx.Users().CreateUser(ctx, user)
	})
	if err != nil {
		// The unique indexes are the real guard; the lookups above just
		// pick the friendlier error first.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	return s.issuePair(ctx, user, "", now)
}

// Refresh rotates a refresh credential: the presented session is revoked
// and a new session plus a new access token are issued in its place.
// Malformed, unknown, mismatched, and revoked credentials all surface as
// ErrSessionInvalid; only expiry keeps its own identity so the HTTP layer
// can answer EXPIRED_TOKEN.
func (s *AuthService) Refresh(ctx context.Context, credential string) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	session, err := s.Sessions.Validate(ctx, credential)
	if err != nil {
		if errors.Is(err, ErrSessionRevoked) {
			// A revoked credential presented again means the original was
			// replayed or leaked after rotation.
			l.Warn("revoked refresh credential presented", "session_id", session.ID, "user_id", session.UserID)
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionInvalid
	}

	user := *session.User
	return s.issuePair(ctx, user, session.ID, now)
}

// Logout disposes of the presented credential. Credentials that are already
// dead are fine; logout always succeeds from the caller's point of view
// unless the store itself fails.
func (s *AuthService) Logout(ctx context.Context, credential string) error {
	err := s.Sessions.Dispose(ctx, credential)
	if errors.Is(err, ErrSessionInvalid) {
		return nil
	}
	return err
}

// Me returns the profile for an authenticated user id.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

func (s *AuthService) issuePair(ctx context.Context, user domain.User, rotatedFrom string, now time.Time) (*domain.TokenPair, error) {
	credential, err := s.Sessions.Create(ctx, user.ID, rotatedFrom)
	if err != nil {
		return nil, err
	}

	claims := jwtx.NewAccessClaims(user.ID, user.Username, string(user.Role), s.AccessTTL, s.Issuer, now)
	accessToken, err := s.Signer.Sign(claims)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:       accessToken,
		AccessTokenTTL:    s.AccessTTL,
		RefreshCredential: credential,
		User:              user,
	}, nil
}

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/labreserve/labreserve/internal/labreserve/domain"
	"github.com/labreserve/labreserve/internal/labreserve/store"
	"github.com/labreserve/labreserve/pkg/cryptox"
	"github.com/labreserve/labreserve/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func makeUser(username string, email *string) domain.User {
	now := time.Now().UTC()
	return domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		Name:         username,
		PasswordHash: "argon2id-placeholder",
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func makeSession(userID string, expiresAt time.Time) domain.RefreshSession {
	return domain.RefreshSession{
		ID:         idx.New().String(),
		UserID:     userID,
		SecretHash: cryptox.DigestSecret("secret-" + userID),
		CreatedAt:  time.Now().UTC(),
		ExpiresAt:  expiresAt,
	}
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	email := "alice@example.com"
	u := makeUser("alice", &email)
	require.NoError(t, st.Users().CreateUser(ctx, u))

	t.Run("lookup by id", func(t *testing.T) {
		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Username, got.Username)
		require.NotNil(t, got.Email)
		require.Equal(t, email, *got.Email)
	})

	t.Run("lookup by username ignores case", func(t *testing.T) {
		got, err := st.Users().GetUserByUsername(ctx, "ALICE")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("lookup by email ignores case", func(t *testing.T) {
		got, err := st.Users().GetUserByEmail(ctx, "Alice@Example.COM")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		_, err := st.Users().GetUserByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate username maps to ErrAlreadyExists", func(t *testing.T) {
		dup := makeUser("Alice", nil)
		err := st.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("nil email allowed repeatedly", func(t *testing.T) {
		require.NoError(t, st.Users().CreateUser(ctx, makeUser("bob", nil)))
		require.NoError(t, st.Users().CreateUser(ctx, makeUser("carol", nil)))
	})

	t.Run("update password hash", func(t *testing.T) {
		require.NoError(t, st.Users().UpdatePasswordHash(ctx, u.ID, "new-hash"))
		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)

		err = st.Users().UpdatePasswordHash(ctx, idx.New().String(), "x")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSessionsRepo(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	u := makeUser("alice", nil)
	require.NoError(t, st.Users().CreateUser(ctx, u))

	t.Run("create and get with user attached", func(t *testing.T) {
		s := makeSession(u.ID, time.Now().UTC().Add(time.Hour))
		require.NoError(t, st.RefreshSessions().CreateSession(ctx, s))

		got, err := st.RefreshSessions().GetSessionByID(ctx, s.ID)
		require.NoError(t, err)
		require.Equal(t, s.SecretHash, got.SecretHash)
		require.False(t, got.Revoked)
		require.NotNil(t, got.User)
		require.Equal(t, u.Username, got.User.Username)
		require.WithinDuration(t, s.ExpiresAt, got.ExpiresAt, time.Second)
	})

	t.Run("unknown session maps to ErrNotFound", func(t *testing.T) {
		_, err := st.RefreshSessions().GetSessionByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("revoke is monotonic", func(t *testing.T) {
		s := makeSession(u.ID, time.Now().UTC().Add(time.Hour))
		require.NoError(t, st.RefreshSessions().CreateSession(ctx, s))

		require.NoError(t, st.RefreshSessions().RevokeSession(ctx, s.ID))
		require.NoError(t, st.RefreshSessions().RevokeSession(ctx, s.ID))

		got, err := st.RefreshSessions().GetSessionByID(ctx, s.ID)
		require.NoError(t, err)
		require.True(t, got.Revoked)
	})

	t.Run("deleting the user cascades", func(t *testing.T) {
		victim := makeUser("victim", nil)
		require.NoError(t, st.Users().CreateUser(ctx, victim))
		s := makeSession(victim.ID, time.Now().UTC().Add(time.Hour))
		require.NoError(t, st.RefreshSessions().CreateSession(ctx, s))

		require.NoError(t, st.Users().DeleteUser(ctx, victim.ID))

		_, err := st.RefreshSessions().GetSessionByID(ctx, s.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestTrimActiveSessions(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	now := time.Now().UTC()

	u := makeUser("alice", nil)
	require.NoError(t, st.Users().CreateUser(ctx, u))

	// Five active sessions plus one revoked and one expired, which trimming
	// must leave alone.
	active := make([]domain.RefreshSession, 0, 5)
	for i := 0; i < 5; i++ {
		s := makeSession(u.ID, now.Add(time.Hour))
		require.NoError(t, st.RefreshSessions().CreateSession(ctx, s))
		active = append(active, s)
	}

	revoked := makeSession(u.ID, now.Add(time.Hour))
	require.NoError(t, st.RefreshSessions().CreateSession(ctx, revoked))
	require.NoError(t, st.RefreshSessions().RevokeSession(ctx, revoked.ID))

	expired := makeSession(u.ID, now.Add(-time.Hour))
	require.NoError(t, st.RefreshSessions().CreateSession(ctx, expired))

	require.NoError(t, st.RefreshSessions().TrimActiveSessions(ctx, u.ID, 2, now))

	count, err := st.RefreshSessions().CountActiveSessions(ctx, u.ID, now)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// The two newest survive; ULIDs break same-second creation ties.
	for _, s := range active[:3] {
		_, err := st.RefreshSessions().GetSessionByID(ctx, s.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	}
	for _, s := range active[3:] {
		_, err := st.RefreshSessions().GetSessionByID(ctx, s.ID)
		require.NoError(t, err)
	}

	// Revoked and expired rows were not touched.
	_, err = st.RefreshSessions().GetSessionByID(ctx, revoked.ID)
	require.NoError(t, err)
	_, err = st.RefreshSessions().GetSessionByID(ctx, expired.ID)
	require.NoError(t, err)
}

func TestDeleteExpiredSessions(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	now := time.Now().UTC()

	u := makeUser("alice", nil)
	require.NoError(t, st.Users().CreateUser(ctx, u))

	live := makeSession(u.ID, now.Add(time.Hour))
	dead := makeSession(u.ID, now.Add(-time.Hour))
	require.NoError(t, st.RefreshSessions().CreateSession(ctx, live))
	require.NoError(t, st.RefreshSessions().CreateSession(ctx, dead))

	require.NoError(t, st.RefreshSessions().DeleteExpiredSessions(ctx, now))

	_, err := st.RefreshSessions().GetSessionByID(ctx, live.ID)
	require.NoError(t, err)
	_, err = st.RefreshSessions().GetSessionByID(ctx, dead.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	u := makeUser("alice", nil)
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	u := makeUser("alice", nil)
	err := st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, u)
	})
	require.NoError(t, err)

	got, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Username, got.Username)
}

package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labreserve/labreserve/internal/labreserve/domain"
	"github.com/labreserve/labreserve/internal/labreserve/store"
	"github.com/labreserve/labreserve/internal/labreserve/store/drivers/sqlite"
	"github.com/labreserve/labreserve/pkg/cryptox"
	"github.com/labreserve/labreserve/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestUser(t *testing.T, st store.Store, username string) domain.User {
	t.Helper()

	now := time.Now().UTC()
	hash, err := cryptox.HashPassword("correct horse battery")
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Name:         strings.ToUpper(username[:1]) + username[1:],
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestSessionCreateAndValidate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "alice")

	svc := &SessionService{Store: st, SessionTTL: time.Hour}

	credential, err := svc.Create(ctx, user.ID, "")
	require.NoError(t, err)
	require.Contains(t, credential, ".")

	session, err := svc.Validate(ctx, credential)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, user.ID, session.UserID)
	require.NotNil(t, session.User)
	require.Equal(t, user.Username, session.User.Username)

	// The stored row never contains the secret itself.
	secret := strings.SplitN(credential, ".", 2)[1]
	require.NotEqual(t, secret, session.SecretHash)
	require.Len(t, session.SecretHash, 64) // hex SHA-256
}

func TestSessionValidateMalformed(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	svc := &SessionService{Store: st, SessionTTL: time.Hour}

	for _, credential := range []string{"", "no-dot-here", ".secret", "id.", "."} {
		session, err := svc.Validate(ctx, credential)
		require.NoError(t, err, "credential %q", credential)
		require.Nil(t, session, "credential %q", credential)
	}
}

func TestSessionValidateUnknownID(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	svc := &SessionService{Store: st, SessionTTL: time.Hour}

	session, err := svc.Validate(ctx, idx.New().String()+".some-secret")
	require.ErrorIs(t, err, ErrSessionInvalid)
	require.Nil(t, session)
}

func TestSessionValidateWrongSecret(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "alice")

	svc := &SessionService{Store: st, SessionTTL: time.Hour}

	credential, err := svc.Create(ctx, user.ID, "")
	require.NoError(t, err)
	sessionID := strings.SplitN(credential, ".", 2)[0]

	t.Run("wrong secret of the right shape", func(t *testing.T) {
		session, err := svc.Validate(ctx, sessionID+".definitely-not-the-secret")
		require.NoError(t, err)
		require.Nil(t, session)
	})

	t.Run("short secret does not error", func(t *testing.T) {
		// Exercises the length-mismatch path of the constant-time compare.
		session, err := svc.Validate(ctx, sessionID+".x")
		require.NoError(t, err)
		require.Nil(t, session)
	})
}

func TestSessionValidateExpired(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "alice")

	svc := &SessionService{Store: st, SessionTTL: time.Hour}

	// Insert an already-expired session directly so the digest still matches.
	secret, err := cryptox.GenerateSecret(SecretSize)
	require.NoError(t, err)
	session := domain.RefreshSession{
		ID:         idx.New().String(),
		UserID:     user.ID,
		SecretHash: cryptox.DigestSecret(secret),
		CreatedAt:  time.Now().UTC().Add(-2 * time.Hour),
		ExpiresAt:  time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, st.RefreshSessions().CreateSession(ctx, session))

	// Expiry wins even though the digest would match.
	got, err := svc.Validate(ctx, session.ID+"."+secret)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.NotNil(t, got)
	require.Equal(t, session.ID, got.ID)
}

func TestSessionRotationRevokesPrior(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "alice")

	svc := &SessionService{Store: st, SessionTTL: time.Hour}

	first, err := svc.Create(ctx, user.ID, "")
	require.NoError(t, err)
	firstID := strings.SplitN(first, ".", 2)[0]

	second, err := svc.Create(ctx, user.ID, firstID)
	require.NoError(t, err)

	// The old credential now reports revoked, not absent.
	session, err := svc.Validate(ctx, first)
	require.ErrorIs(t, err, ErrSessionRevoked)
	require.NotNil(t, session)
	require.True(t, session.Revoked)

	// The replacement works.
	session, err = svc.Validate(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, session)
}

func TestSessionSequentialRefreshChain(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "alice")

	svc := &SessionService{Store: st, SessionTTL: time.Hour}

	credential, err := svc.Create(ctx, user.ID, "")
	require.NoError(t, err)
	first := credential

	for i := 0; i < 5; i++ {
		session, err := svc.Validate(ctx, credential)
		require.NoError(t, err)
		require.NotNil(t, session)

		credential, err = svc.Create(ctx, user.ID, session.ID)
		require.NoError(t, err)
	}

	// A rotation chain only ever has one live end.
	count, err := st.RefreshSessions().CountActiveSessions(ctx, user.ID, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// The very first credential reports revoked, proving replay detection
	// survives the whole chain.
	_, err = svc.Validate(ctx, first)
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestSessionCapEnforcedAcrossLogins(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "alice")

	svc := &SessionService{Store: st, SessionTTL: time.Hour}

	credentials := make([]string, 0, MaxActiveSessions+1)
	for i := 0; i < MaxActiveSessions+1; i++ {
		credential, err := svc.Create(ctx, user.ID, "")
		require.NoError(t, err)
		credentials = append(credentials, credential)

		count, err := st.RefreshSessions().CountActiveSessions(ctx, user.ID, time.Now().UTC())
		require.NoError(t, err)
		require.LessOrEqual(t, count, MaxActiveSessions)
	}

	count, err := st.RefreshSessions().CountActiveSessions(ctx, user.ID, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, MaxActiveSessions, count)

	// The oldest session was hard-deleted, not revoked: its credential is
	// simply unknown now.
	_, err = svc.Validate(ctx, credentials[0])
	require.ErrorIs(t, err, ErrSessionInvalid)

	// The newer ones all still validate.
	for _, credential := range credentials[1:] {
		session, err := svc.Validate(ctx, credential)
		require.NoError(t, err)
		require.NotNil(t, session)
	}
}

func TestSessionDispose(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "alice")

	svc := &SessionService{Store: st, SessionTTL: time.Hour}

	credential, err := svc.Create(ctx, user.ID, "")
	require.NoError(t, err)

	require.NoError(t, svc.Dispose(ctx, credential))

	_, err = svc.Validate(ctx, credential)
	require.ErrorIs(t, err, ErrSessionRevoked)

	t.Run("second dispose is a no-op", func(t *testing.T) {
		require.NoError(t, svc.Dispose(ctx, credential))
	})

	t.Run("malformed credential is a no-op", func(t *testing.T) {
		require.NoError(t, svc.Dispose(ctx, "garbage"))
	})

	t.Run("unknown session reports invalid", func(t *testing.T) {
		err := svc.Dispose(ctx, idx.New().String()+".secret")
		require.ErrorIs(t, err, ErrSessionInvalid)
	})
}

func TestSessionDisposeAll(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "alice")

	svc := &SessionService{Store: st, SessionTTL: time.Hour}

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, user.ID, "")
		require.NoError(t, err)
	}

	require.NoError(t, svc.DisposeAll(ctx, user.ID))

	count, err := st.RefreshSessions().CountActiveSessions(ctx, user.ID, time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

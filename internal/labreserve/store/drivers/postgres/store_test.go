package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/labreserve/labreserve/internal/labreserve/domain"
	"github.com/labreserve/labreserve/internal/labreserve/store"
	"github.com/labreserve/labreserve/pkg/cryptox"
	"github.com/labreserve/labreserve/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newPostgresStore spins up a throwaway postgres container. Skips when no
// container runtime is available so the suite stays runnable on bare CI.
func newPostgresStore(t *testing.T) *Store {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "labreserve",
				"POSTGRES_PASSWORD": "labreserve",
				"POSTGRES_DB":       "labreserve_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("container runtime unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf(
		"postgres://labreserve:labreserve@%s:%s/labreserve_test?sslmode=disable",
		host, port.Port(),
	)

	st, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	st := newPostgresStore(t)
	now := time.Now().UTC()

	email := "alice@example.com"
	user := domain.User{
		ID:           idx.New().String(),
		Username:     "alice",
		Email:        &email,
		Name:         "Alice",
		PasswordHash: "argon2id-placeholder",
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(ctx, user))

	t.Run("case-insensitive lookups", func(t *testing.T) {
		got, err := st.Users().GetUserByUsername(ctx, "ALICE")
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)

		got, err = st.Users().GetUserByEmail(ctx, "Alice@Example.COM")
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
	})

	t.Run("unique violation maps to ErrAlreadyExists", func(t *testing.T) {
		dup := user
		dup.ID = idx.New().String()
		dup.Email = nil
		err := st.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("session lifecycle", func(t *testing.T) {
		session := domain.RefreshSession{
			ID:         idx.New().String(),
			UserID:     user.ID,
			SecretHash: cryptox.DigestSecret("some-secret"),
			CreatedAt:  now,
			ExpiresAt:  now.Add(time.Hour),
		}
		require.NoError(t, st.RefreshSessions().CreateSession(ctx, session))

		got, err := st.RefreshSessions().GetSessionByID(ctx, session.ID)
		require.NoError(t, err)
		require.False(t, got.Revoked)
		require.NotNil(t, got.User)
		require.Equal(t, "alice", got.User.Username)

		require.NoError(t, st.RefreshSessions().RevokeSession(ctx, session.ID))
		got, err = st.RefreshSessions().GetSessionByID(ctx, session.ID)
		require.NoError(t, err)
		require.True(t, got.Revoked)
	})

	t.Run("trim keeps the newest sessions", func(t *testing.T) {
		trimUser := user
		trimUser.ID = idx.New().String()
		trimUser.Username = "bob"
		trimUser.Email = nil
		require.NoError(t, st.Users().CreateUser(ctx, trimUser))

		ids := make([]string, 0, 4)
		for i := 0; i < 4; i++ {
			s := domain.RefreshSession{
				ID:         idx.New().String(),
				UserID:     trimUser.ID,
				SecretHash: cryptox.DigestSecret(fmt.Sprintf("secret-%d", i)),
				CreatedAt:  now.Add(time.Duration(i) * time.Second),
				ExpiresAt:  now.Add(time.Hour),
			}
			require.NoError(t, st.RefreshSessions().CreateSession(ctx, s))
			ids = append(ids, s.ID)
		}

		require.NoError(t, st.RefreshSessions().TrimActiveSessions(ctx, trimUser.ID, 2, now))

		count, err := st.RefreshSessions().CountActiveSessions(ctx, trimUser.ID, now)
		require.NoError(t, err)
		require.Equal(t, 2, count)

		for _, id := range ids[:2] {
			_, err := st.RefreshSessions().GetSessionByID(ctx, id)
			require.ErrorIs(t, err, store.ErrNotFound)
		}
		for _, id := range ids[2:] {
			_, err := st.RefreshSessions().GetSessionByID(ctx, id)
			require.NoError(t, err)
		}
	})

	t.Run("transaction rollback", func(t *testing.T) {
		ghost := user
		ghost.ID = idx.New().String()
		ghost.Username = "ghost"
		ghost.Email = nil

		failure := fmt.Errorf("induced failure")
		err := st.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Users().CreateUser(ctx, ghost); err != nil {
				return err
			}
			return failure
		})
		require.ErrorIs(t, err, failure)

		_, err = st.Users().GetUserByID(ctx, ghost.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

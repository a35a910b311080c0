package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/labreserve/labreserve/internal/labreserve/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.RefreshSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_sessions (id, user_id, secret_hash, revoked, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID,
		s.UserID,
		s.SecretHash,
		s.Revoked,
		s.CreatedAt,
		s.ExpiresAt,
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.RefreshSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT s.id, s.user_id, s.secret_hash, s.revoked, s.created_at, s.expires_at,
		        u.id, u.username, u.email, u.name, u.password_hash, u.role, u.created_at, u.updated_at
		 FROM refresh_sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.id = $1`, id)

	var (
		s     domain.RefreshSession
		u     domain.User
		email sql.NullString
		role  string
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.SecretHash, &s.Revoked, &s.CreatedAt, &s.ExpiresAt,
		&u.ID, &u.Username, &email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.RefreshSession{}, mapNotFound(err)
	}

	u.Email = mapNullString(email)
	u.Role = domain.Role(role)
	s.User = &u

	return s, nil
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, id string) error {
	// Monotonic: only ever writes revoked=true.
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked = TRUE WHERE id = $1`, id)
	return err
}

func (r *sessionsRepo) RevokeAllUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`, userID)
	return err
}

// TrimActiveSessions deletes the user's active sessions beyond the newest
// keep. Creation-time ties break on id, which is monotonic for ULIDs.
func (r *sessionsRepo) TrimActiveSessions(ctx context.Context, userID string, keep int, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_sessions
		 WHERE user_id = $1
		   AND NOT revoked
		   AND expires_at > $2
		   AND id NOT IN (
		       SELECT id FROM refresh_sessions
		       WHERE user_id = $1 AND NOT revoked AND expires_at > $2
		       ORDER BY created_at DESC, id DESC
		       LIMIT $3
		   )`,
		userID, now, keep)
	return err
}

func (r *sessionsRepo) CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM refresh_sessions
		 WHERE user_id = $1 AND NOT revoked AND expires_at > $2`,
		userID, now).Scan(&count)
	return count, err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_sessions WHERE expires_at <= $1`, now)
	return err
}

package sqlite

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
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.UserID,
		s.SecretHash,
		boolToInt(s.Revoked),
		s.CreatedAt.Unix(),
		s.ExpiresAt.Unix(),
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.RefreshSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT s.id, s.user_id, s.secret_hash, s.revoked, s.created_at, s.expires_at,
		        u.id, u.username, u.email, u.name, u.password_hash, u.role, u.created_at, u.updated_at
		 FROM refresh_sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.id = ?`, id)

	var (
		s                  domain.RefreshSession
		u                  domain.User
		revoked            int
		sCreated, sExpires int64
		email              sql.NullString
		role               string
		uCreated, uUpdated int64
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.SecretHash, &revoked, &sCreated, &sExpires,
		&u.ID, &u.Username, &email, &u.Name, &u.PasswordHash, &role, &uCreated, &uUpdated,
	)
	if err != nil {
		return domain.RefreshSession{}, mapNotFound(err)
	}

	s.Revoked = revoked != 0
	s.CreatedAt = time.Unix(sCreated, 0).UTC()
	s.ExpiresAt = time.Unix(sExpires, 0).UTC()
	u.Email = mapNullString(email)
	u.Role = domain.Role(role)
	u.CreatedAt = time.Unix(uCreated, 0).UTC()
	u.UpdatedAt = time.Unix(uUpdated, 0).UTC()
	s.User = &u

	return s, nil
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, id string) error {
	// Monotonic: only ever writes revoked=1.
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked = 1 WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) RevokeAllUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked = 1 WHERE user_id = ? AND revoked = 0`, userID)
	return err
}

// TrimActiveSessions deletes the user's active sessions beyond the newest
// keep. This is the CTE-style compound from the rotation design collapsed
// into one statement: the ranked subquery picks the survivors, the outer
// DELETE removes the rest. Creation-time ties break on id, which is
// monotonic for ULIDs.
func (r *sessionsRepo) TrimActiveSessions(ctx context.Context, userID string, keep int, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_sessions
		 WHERE user_id = ?
		   AND revoked = 0
		   AND expires_at > ?
		   AND id NOT IN (
		       SELECT id FROM refresh_sessions
		       WHERE user_id = ? AND revoked = 0 AND expires_at > ?
		       ORDER BY created_at DESC, id DESC
		       LIMIT ?
		   )`,
		userID, now.Unix(), userID, now.Unix(), keep)
	return err
}

func (r *sessionsRepo) CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM refresh_sessions
		 WHERE user_id = ? AND revoked = 0 AND expires_at > ?`,
		userID, now.Unix()).Scan(&count)
	return count, err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_sessions WHERE expires_at <= ?`, now.Unix())
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package domain

import "time"

// RefreshSession models one issued refresh credential. The credential handed
// to the client is "<ID>.<secret>"; only the secret's hex SHA-256 digest is
// stored. Revoked is monotonic: once true it never reverts.
type RefreshSession struct {
	ID         string
	UserID     string
	SecretHash string // hex-encoded SHA-256 of the opaque secret
	Revoked    bool
	CreatedAt  time.Time
	ExpiresAt  time.Time

	// User is the owning account, populated by lookups that the auth flows
	// use to re-issue access tokens without a second round trip.
	User *User
}

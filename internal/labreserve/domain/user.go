package domain

import "time"

// Role is the coarse access level of an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account in the laboratory-reservation system. Username and
// email (when present) are unique ignoring case; the store enforces this
// with functional unique indexes, the service pre-checks to report friendly
// conflicts.
type User struct {
	ID           string
	Username     string
	Email        *string // nullable; unique ignoring case when set
	Name         string  // display name
	PasswordHash string  // argon2id PHC string, written exactly once at registration
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

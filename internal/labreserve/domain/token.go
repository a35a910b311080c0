package domain

import "time"

// TokenPair is what a successful login/register/refresh produces: the signed
// short-lived access token plus the opaque refresh credential destined for
// the HTTP-only cookie.
type TokenPair struct {
	AccessToken       string
	AccessTokenTTL    time.Duration
	RefreshCredential string // "<session id>.<secret>", never persisted
	User              User
}

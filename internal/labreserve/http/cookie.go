package http

import (
	"net/http"
	"time"
)

// RefreshCookieName is the cookie that carries the opaque refresh
// credential. The access token never touches a cookie.
const RefreshCookieName = "refresh_token"

const refreshCookiePath = "/v1/auth"

// setRefreshCookie installs the refresh credential. Path is pinned to the
// auth prefix so the browser only sends it where it is needed; secure is a
// config toggle for plain-HTTP local development.
func setRefreshCookie(w http.ResponseWriter, credential string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    credential,
		Path:     refreshCookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie expires the cookie with the same attributes it was set
// with, which is what browsers require to actually drop it.
func clearRefreshCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshCredentialFromRequest pulls the credential out of the cookie.
// Returns "" when the cookie is absent.
func refreshCredentialFromRequest(r *http.Request) string {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

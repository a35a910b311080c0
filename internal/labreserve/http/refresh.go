package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labreserve/labreserve/internal/labreserve/service"
	"github.com/labreserve/labreserve/pkg/httpx"
	"github.com/labreserve/labreserve/pkg/slogx"
)

type RefreshHandler struct {
	AuthService   *service.AuthService
	RefreshTTL    time.Duration
	SecureCookies bool
}

// ServeHTTP rotates a refresh credential.
//
//	@Summary		Refresh tokens
//	@Description	Exchanges the refresh_token cookie for a new access token. The
//	@Description	presented session is revoked and a replacement cookie is set, so
//	@Description	each credential works exactly once.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	TokenResponse	"New access token and rotated cookie"
//	@Failure		401	{object}	APIError		"Missing, invalid, revoked, or expired refresh token"
//	@Failure		500	{object}	APIError		"Internal server error"
//	@Router			/v1/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	credential := refreshCredentialFromRequest(r)
	if credential == "" {
		ErrInvalidToken.WriteError(w)
		return
	}

	pair, err := h.AuthService.Refresh(ctx, credential)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionExpired):
			clearRefreshCookie(w, h.SecureCookies)
			ErrExpiredToken.WriteError(w)
		case errors.Is(err, service.ErrSessionInvalid):
			clearRefreshCookie(w, h.SecureCookies)
			ErrInvalidToken.WriteError(w)
		default:
			log.Error("refresh failed", "error", err)
			ErrServerError.WriteError(w)
		}
		return
	}

	setRefreshCookie(w, pair.RefreshCredential, h.RefreshTTL, h.SecureCookies)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newTokenResponse(pair))
}

package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labreserve/labreserve/internal/labreserve/service"
	"github.com/labreserve/labreserve/pkg/httpx"
	"github.com/labreserve/labreserve/pkg/slogx"
)

type LoginHandler struct {
	AuthService   *service.AuthService
	RefreshTTL    time.Duration
	SecureCookies bool
}

// ServeHTTP handles username/password login.
//
//	@Summary		Log in
//	@Description	Verifies a username/password pair, issues a short-lived access token
//	@Description	and sets the refresh_token cookie carrying the opaque refresh credential.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	TokenResponse	"Access token and user profile"
//	@Failure		400		{object}	APIError		"Malformed request body"
//	@Failure		401		{object}	APIError		"Unknown username or wrong password"
//	@Failure		500		{object}	APIError		"Internal server error"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := httpx.ReadJSON(w, r, &req, maxBodyBytes); err != nil {
		ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Username == "" || req.Password == "" {
		ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.AuthService.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			ErrInvalidCredentials.WriteError(w)
			return
		}
		log.Error("login failed", "error", err)
		ErrServerError.WriteError(w)
		return
	}

	setRefreshCookie(w, pair.RefreshCredential, h.RefreshTTL, h.SecureCookies)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newTokenResponse(pair))
}

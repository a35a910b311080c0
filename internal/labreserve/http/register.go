package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labreserve/labreserve/internal/labreserve/service"
	"github.com/labreserve/labreserve/pkg/httpx"
	"github.com/labreserve/labreserve/pkg/slogx"
)

type RegisterHandler struct {
	AuthService   *service.AuthService
	RefreshTTL    time.Duration
	SecureCookies bool
}

// ServeHTTP handles account registration.
//
//	@Summary		Register
//	@Description	Creates a USER-role account and signs it in. Username and email
//	@Description	uniqueness are case-insensitive.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"New account details"
//	@Success		201		{object}	TokenResponse	"Access token and user profile"
//	@Failure		400		{object}	APIError		"Malformed body, missing fields, or password too short"
//	@Failure		409		{object}	APIError		"Username or email already taken"
//	@Failure		500		{object}	APIError		"Internal server error"
//	@Router			/v1/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RegisterRequest
	if err := httpx.ReadJSON(w, r, &req, maxBodyBytes); err != nil {
		ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.AuthService.Register(ctx, req.Username, req.Name, req.Password, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			ErrUsernameTaken.WriteError(w)
		case errors.Is(err, service.ErrEmailTaken):
			ErrEmailTaken.WriteError(w)
		case errors.Is(err, service.ErrWeakPassword), errors.Is(err, service.ErrInvalidInput):
			ErrInvalidRequest.WriteError(w)
		default:
			log.Error("registration failed", "error", err)
			ErrServerError.WriteError(w)
		}
		return
	}

	setRefreshCookie(w, pair.RefreshCredential, h.RefreshTTL, h.SecureCookies)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, newTokenResponse(pair))
}

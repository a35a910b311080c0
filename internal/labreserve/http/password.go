package http

import (
	"errors"
	"net/http"

	"github.com/labreserve/labreserve/internal/labreserve/service"
	"github.com/labreserve/labreserve/pkg/httpx"
	"github.com/labreserve/labreserve/pkg/slogx"
)

// ChangePasswordRequest is the body for PUT /v1/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ChangePasswordHandler struct {
	UserService   *service.UserService
	SecureCookies bool
}

// ServeHTTP rotates the caller's password.
//
//	@Summary		Change password
//	@Description	Verifies the current password, stores the new one, and revokes every
//	@Description	refresh session the account holds. The caller must log in again.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	ChangePasswordRequest	true	"Current and new password"
//	@Success		204		"Password changed, sessions revoked"
//	@Failure		400		{object}	APIError	"Malformed body or new password too short"
//	@Failure		401		{object}	APIError	"Wrong current password or missing access token"
//	@Failure		500		{object}	APIError	"Internal server error"
//	@Router			/v1/auth/password [put].
func (h *ChangePasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		ErrInvalidToken.WriteError(w)
		return
	}

	var req ChangePasswordRequest
	if err := httpx.ReadJSON(w, r, &req, maxBodyBytes); err != nil {
		ErrInvalidRequest.WriteError(w)
		return
	}

	err := h.UserService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrWeakPassword):
			ErrInvalidRequest.WriteError(w)
		default:
			log.Error("password change failed", "user_id", userID, "error", err)
			ErrServerError.WriteError(w)
		}
		return
	}

	// The refresh cookie now names a revoked session; drop it too.
	clearRefreshCookie(w, h.SecureCookies)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

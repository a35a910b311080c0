package http

import (
	"errors"
	"net/http"

	"github.com/labreserve/labreserve/internal/labreserve/service"
	"github.com/labreserve/labreserve/internal/labreserve/store"
	"github.com/labreserve/labreserve/pkg/httpx"
	"github.com/labreserve/labreserve/pkg/slogx"
)

type MeHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP returns the authenticated user's profile.
//
//	@Summary		Current user
//	@Description	Returns the profile of the user identified by the bearer access token.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	UserResponse	"User profile"
//	@Failure		401	{object}	APIError		"Invalid or missing access token"
//	@Failure		500	{object}	APIError		"Internal server error"
//	@Router			/v1/auth/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.AuthService.Me(ctx, userID)
	if err != nil {
		// The token can outlive the account it was issued for.
		if errors.Is(err, store.ErrNotFound) {
			ErrInvalidToken.WriteError(w)
			return
		}
		log.Warn("failed to load user", "user_id", userID, "error", err)
		ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(user))
}

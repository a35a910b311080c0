package http

import (
	"net/http"

	"github.com/labreserve/labreserve/internal/labreserve/service"
	"github.com/labreserve/labreserve/pkg/httpx"
	"github.com/labreserve/labreserve/pkg/slogx"
)

type LogoutHandler struct {
	AuthService   *service.AuthService
	SecureCookies bool
}

// ServeHTTP revokes the presented refresh session and drops the cookie.
//
//	@Summary		Log out
//	@Description	Revokes the refresh session named by the refresh_token cookie and
//	@Description	clears the cookie. Succeeds even when the cookie is missing or the
//	@Description	session is already dead.
//	@Tags			Auth
//	@Produce		json
//	@Success		204	"Logged out"
//	@Failure		500	{object}	APIError	"Internal server error"
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if credential := refreshCredentialFromRequest(r); credential != "" {
		if err := h.AuthService.Logout(ctx, credential); err != nil {
			log.Error("logout failed", "error", err)
			ErrServerError.WriteError(w)
			return
		}
	}

	clearRefreshCookie(w, h.SecureCookies)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

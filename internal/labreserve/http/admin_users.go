package http

import (
	"errors"
	"net/http"

	"github.com/labreserve/labreserve/internal/labreserve/service"
	"github.com/labreserve/labreserve/internal/labreserve/store"
	"github.com/labreserve/labreserve/pkg/slogx"
)

type AdminUsersHandler struct {
	UserService *service.UserService
}

// HandleDelete removes an account.
//
//	@Summary		Delete a user
//	@Description	Deletes the account and, via the schema cascade, all of its refresh
//	@Description	sessions. Requires the ADMIN role.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path	string	true	"User id"
//	@Success		204	"User deleted"
//	@Failure		401	{object}	APIError	"Invalid or missing access token"
//	@Failure		403	"Caller is not an admin"
//	@Failure		404	{object}	APIError	"No such user"
//	@Failure		500	{object}	APIError	"Internal server error"
//	@Router			/v1/admin/users/{id} [delete].
func (h *AdminUsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := r.PathValue("id")
	if userID == "" {
		ErrInvalidRequest.WriteError(w)
		return
	}

	// Existence check first so deleting an unknown id reports 404 instead
	// of silently succeeding.
	if _, err := h.UserService.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			(&APIError{
				StatusCode:  http.StatusNotFound,
				Code:        ErrorCodeInvalidRequest,
				Description: "no such user",
			}).WriteError(w)
			return
		}
		log.Error("user lookup failed", "user_id", userID, "error", err)
		ErrServerError.WriteError(w)
		return
	}

	if err := h.UserService.DeleteUser(ctx, userID); err != nil {
		log.Error("user delete failed", "user_id", userID, "error", err)
		ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

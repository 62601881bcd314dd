package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/stockdesk/internal/auth/service"
	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/aussiebroadwan/stockdesk/pkg/httpx"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
)

type MeHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Current user
//	@Description	Returns the profile of the account the bearer token was issued to.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserProfile	"id, username, email, role"
//	@Failure		401	{object}	authsdk.APIError	"invalid or missing access token, or unknown subject"
//	@Failure		403	{object}	authsdk.APIError	"account disabled"
//	@Failure		500	{object}	authsdk.APIError	"internal server error"
//	@Router			/auth/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.UserService.GetActiveUser(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			// A valid signature for a deleted subject is still not a session.
			authsdk.ErrInvalidToken.WriteError(w)
		case errors.Is(err, service.ErrAccountDisabled):
			authsdk.ErrAccountDisabled.WriteError(w)
		default:
			log.Warn("failed to load user", "user_id", userID, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserProfile{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	})
}

package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/stockdesk/internal/auth/service"
	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/aussiebroadwan/stockdesk/pkg/httpx"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
)

type LoginHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Exchange email and password for a signed access token. The token's exp claim carries its expiry.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"email, password"
//	@Success		200		{object}	authsdk.LoginResponse	"token"
//	@Failure		400		{object}	authsdk.APIError		"malformed body"
//	@Failure		401		{object}	authsdk.APIError		"invalid email or password"
//	@Failure		403		{object}	authsdk.APIError		"account disabled"
//	@Failure		429		{object}	authsdk.APIError		"rate limited"
//	@Failure		500		{object}	authsdk.APIError		"internal server error"
//	@Router			/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	token, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			authsdk.ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrAccountDisabled):
			authsdk.ErrAccountDisabled.WriteError(w)
		default:
			log.Error("login failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{Token: token})
}

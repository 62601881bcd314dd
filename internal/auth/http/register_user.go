package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/stockdesk/internal/auth/domain"
	"github.com/aussiebroadwan/stockdesk/internal/auth/service"
	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/aussiebroadwan/stockdesk/pkg/httpx"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
)

type RegisterUserHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Register a user
//	@Description	Creates an account. USER accounts must enrol a face image as a base64 data URL. Requires the ADMIN role.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterUserRequest		true	"username, email, password, role, status, faceImage"
//	@Success		201		{object}	authsdk.RegisterUserResponse	"id"
//	@Failure		400		{object}	authsdk.APIError				"validation failed"
//	@Failure		401		{object}	authsdk.APIError				"invalid or missing access token"
//	@Failure		403		{object}	authsdk.APIError				"caller is not an administrator"
//	@Failure		409		{object}	authsdk.APIError				"email or username taken"
//	@Failure		500		{object}	authsdk.APIError				"internal server error"
//	@Router			/auth/register/user [post].
func (h *RegisterUserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RegisterUserRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if problems := req.Validate(); len(problems) > 0 {
		authsdk.ErrValidation.WithDetails(problems).WriteError(w)
		return
	}

	// Validate has already checked role and status.
	role, _ := domain.ParseRole(req.Role)
	status, _ := domain.ParseStatus(req.Status)

	reg := service.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		Status:   status,
	}
	if req.FaceImage != "" {
		mime, data, err := authsdk.DecodeDataURL(req.FaceImage)
		if err != nil {
			authsdk.ErrValidation.WithDetails(map[string]string{"faceImage": "must be a base64 image data URL"}).WriteError(w)
			return
		}
		reg.FaceImage, reg.FaceMIME = data, mime
	}

	id, err := h.UserService.RegisterUser(ctx, reg)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			authsdk.ErrEmailTaken.WriteError(w)
		case errors.Is(err, service.ErrFaceRequired):
			authsdk.ErrValidation.WithDetails(map[string]string{"faceImage": "is required for USER accounts"}).WriteError(w)
		case errors.Is(err, service.ErrInvalidImage):
			authsdk.ErrValidation.WithDetails(map[string]string{"faceImage": "could not be decoded"}).WriteError(w)
		default:
			log.Error("failed to register user", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterUserResponse{ID: id})
}

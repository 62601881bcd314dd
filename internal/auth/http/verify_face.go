package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/stockdesk/internal/auth/service"
	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/aussiebroadwan/stockdesk/pkg/httpx"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
)

const (
	faceMismatchCode    = "face_mismatch"
	faceMismatchDetails = "the submitted face does not match the enrolled face"
)

type VerifyFaceHandler struct {
	FaceService *service.FaceService
}

// ServeHTTP godoc
//
//	@Summary		Verify a face
//	@Description	Compares a captured still frame with the face enrolled for email.
//	@Description	A non-match is a 200 with verified=false; the reason is only written to the audit log.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyFaceRequest	true	"email, image (base64 data URL)"
//	@Success		200		{object}	authsdk.VerifyFaceResponse	"verified, error, details"
//	@Failure		400		{object}	authsdk.APIError			"malformed body or image"
//	@Failure		429		{object}	authsdk.APIError			"rate limited"
//	@Failure		500		{object}	authsdk.APIError			"internal server error"
//	@Router			/auth/verify-face [post].
func (h *VerifyFaceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.VerifyFaceRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		authsdk.ErrValidation.WithDetails(map[string]string{"email": "is required"}).WriteError(w)
		return
	}

	_, image, err := authsdk.DecodeDataURL(req.Image)
	if err != nil {
		authsdk.ErrValidation.WithDetails(map[string]string{"image": "must be a base64 image data URL"}).WriteError(w)
		return
	}

	verdict, err := h.FaceService.VerifyFace(ctx, req.Email, image, httpx.ClientIP(r))
	if err != nil {
		if errors.Is(err, service.ErrInvalidImage) {
			authsdk.ErrValidation.WithDetails(map[string]string{"image": "could not be decoded"}).WriteError(w)
			return
		}
		log.Error("face verification failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	resp := authsdk.VerifyFaceResponse{Verified: verdict.Verified}
	if !verdict.Verified {
		resp.Error = faceMismatchCode
		resp.Details = faceMismatchDetails
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

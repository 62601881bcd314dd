package authsdk

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrMalformedResponse is returned when a 2xx response lacks a required field.
var ErrMalformedResponse = errors.New("authsdk: malformed response")

// Login exchanges credentials for an access token. It does not touch
// Headers; attaching the token is the caller's decision.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/login", LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, ErrMalformedResponse
	}

	return &out, nil
}

// Me fetches the profile of the bearer currently set in Headers.
func (c *SDKClient) Me(ctx context.Context) (*UserProfile, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var out UserProfile
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if out.ID == "" || out.Role == "" {
		return nil, ErrMalformedResponse
	}

	return &out, nil
}

// VerifyFace submits a still frame for the claimed email. A non-match is
// reported in the response, not as an error.
func (c *SDKClient) VerifyFace(ctx context.Context, email, imageDataURL string) (*VerifyFaceResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/verify-face", VerifyFaceRequest{
		Email: strings.TrimSpace(email),
		Image: imageDataURL,
	})
	if err != nil {
		return nil, err
	}

	// Decode into a map first so a body without "verified" is not mistaken
	// for a non-match.
	var raw map[string]any
	if err := decodeJSON(resp, &raw, http.StatusOK); err != nil {
		return nil, err
	}
	verified, ok := raw["verified"].(bool)
	if !ok {
		return nil, ErrMalformedResponse
	}

	out := &VerifyFaceResponse{Verified: verified}
	out.Error, _ = raw["error"].(string)
	out.Details, _ = raw["details"].(string)
	return out, nil
}

// RegisterUser creates an account. The bearer in Headers must belong to an
// ADMIN.
func (c *SDKClient) RegisterUser(ctx context.Context, req RegisterUserRequest) (*RegisterUserResponse, error) {
	if errs := req.Validate(); errs != nil {
		return nil, ErrValidation.WithDetails(errs)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/register/user", req)
	if err != nil {
		return nil, err
	}

	var out RegisterUserResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}

	return &out, nil
}

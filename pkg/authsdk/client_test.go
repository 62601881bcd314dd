package authsdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *authsdk.SDKClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return authsdk.NewSDKClient(srv.URL + "/")
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/auth/login", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body authsdk.LoginRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ada@example.com", body.Email)
			assert.Equal(t, "hunter22", body.Password)

			_ = json.NewEncoder(w).Encode(authsdk.LoginResponse{Token: "tok"})
		})

		out, err := c.Login(context.Background(), " ada@example.com ", "hunter22")
		require.NoError(t, err)
		require.Equal(t, "tok", out.Token)
		require.Empty(t, c.Headers.Authorization(), "login must not attach the token itself")
	})

	t.Run("rejection is an APIError", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			authsdk.ErrInvalidCredentials.WriteError(w)
		})

		_, err := c.Login(context.Background(), "ada@example.com", "nope")
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		require.Equal(t, authsdk.ErrorCodeInvalidCredentials, apiErr.Code)
		require.True(t, authsdk.IsRejection(err))
	})

	t.Run("server error is not a rejection", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		})

		_, err := c.Login(context.Background(), "ada@example.com", "pw")
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, authsdk.ErrorCodeServerError, apiErr.Code)
		require.False(t, authsdk.IsRejection(err))
	})

	t.Run("transport failure is not an APIError", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		c := authsdk.NewSDKClient(srv.URL)
		srv.Close()

		_, err := c.Login(context.Background(), "ada@example.com", "pw")
		require.Error(t, err)
		var apiErr *authsdk.APIError
		require.False(t, errors.As(err, &apiErr))
		require.False(t, authsdk.IsRejection(err))
	})

	t.Run("empty token", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})

		_, err := c.Login(context.Background(), "ada@example.com", "pw")
		require.ErrorIs(t, err, authsdk.ErrMalformedResponse)
	})
}

func TestMeUsesDefaultHeaders(t *testing.T) {
	t.Parallel()

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			authsdk.ErrInvalidToken.WriteError(w)
			return
		}
		_ = json.NewEncoder(w).Encode(authsdk.UserProfile{ID: "01J", Username: "ada", Email: "ada@example.com", Role: authsdk.RoleAdmin})
	})

	_, err := c.Me(context.Background())
	require.True(t, authsdk.IsRejection(err))

	c.Headers.SetBearer("tok")
	me, err := c.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, authsdk.RoleAdmin, me.Role)

	c.Headers.ClearBearer()
	c.Headers.ClearBearer()
	require.Empty(t, c.Headers.Authorization())
}

func TestVerifyFace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    *authsdk.VerifyFaceResponse
		wantErr error
	}{
		{"match", `{"verified":true}`, &authsdk.VerifyFaceResponse{Verified: true}, nil},
		{"mismatch", `{"verified":false,"error":"face_mismatch","details":"distance 31"}`,
			&authsdk.VerifyFaceResponse{Error: "face_mismatch", Details: "distance 31"}, nil},
		{"missing verdict", `{"ok":true}`, nil, authsdk.ErrMalformedResponse},
		{"verdict wrong type", `{"verified":"yes"}`, nil, authsdk.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				var req authsdk.VerifyFaceRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "ada@example.com", req.Email)
				assert.Equal(t, "data:image/png;base64,AAAA", req.Image)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := c.VerifyFace(context.Background(), "ada@example.com", "data:image/png;base64,AAAA")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRegisterUser(t *testing.T) {
	t.Parallel()

	face := authsdk.EncodeDataURL("image/png", []byte{1, 2, 3})

	t.Run("created", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/register/user", r.URL.Path)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"01JNEW"}`))
		})

		out, err := c.RegisterUser(context.Background(), authsdk.RegisterUserRequest{
			Username: "clerk", Email: "clerk@example.com", Password: "password1",
			Role: authsdk.RoleUser, Status: authsdk.StatusActive, FaceImage: face,
		})
		require.NoError(t, err)
		require.Equal(t, "01JNEW", out.ID)
	})

	t.Run("invalid request never hits the server", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})

		_, err := c.RegisterUser(context.Background(), authsdk.RegisterUserRequest{Role: authsdk.RoleUser})
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, authsdk.ErrorCodeValidation, apiErr.Code)
		require.Contains(t, apiErr.Details, "faceImage")
		require.Contains(t, apiErr.Details, "username")
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(authsdk.HealthResponse{Status: "ok", Version: r.URL.Path})
	})

	live, err := c.GetLiveness(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/livez", live.Version)

	ready, err := c.GetReadiness(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/readyz", ready.Version)
}

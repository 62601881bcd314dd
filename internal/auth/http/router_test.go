package http_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authhttp "github.com/aussiebroadwan/stockdesk/internal/auth/http"
	"github.com/aussiebroadwan/stockdesk/internal/auth/domain"
	"github.com/aussiebroadwan/stockdesk/internal/auth/facematch"
	"github.com/aussiebroadwan/stockdesk/internal/auth/service"
	"github.com/aussiebroadwan/stockdesk/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/aussiebroadwan/stockdesk/pkg/cryptox"
	"github.com/aussiebroadwan/stockdesk/pkg/httpx"
	"github.com/aussiebroadwan/stockdesk/pkg/jwtx"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const issuer = "https://auth.test"

type fixture struct {
	srv   *httptest.Server
	users *service.UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("kid-1", pemKey)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	verifier := jwtx.NewVerifierEdDSA(keys, issuer)

	hasher := cryptox.NewPasswordHasher("pepper")
	users := &service.UserService{Store: st, Hasher: hasher}

	r := authhttp.NewRouter(keys, verifier, "test", st, httpx.DefaultLimits(), slogx.Discard())
	r.AuthService = &service.AuthService{Store: st, Hasher: hasher, Signer: signer, Issuer: issuer, AccessTTL: time.Hour}
	r.UserService = users
	r.FaceService = &service.FaceService{Store: st, Matcher: facematch.Matcher{}}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, users: users}
}

func (f *fixture) register(t *testing.T, reg service.Registration) string {
	t.Helper()
	id, err := f.users.RegisterUser(context.Background(), reg)
	require.NoError(t, err)
	return id
}

func (f *fixture) client() *authsdk.SDKClient {
	return authsdk.NewSDKClient(f.srv.URL)
}

func gradientPNG(t *testing.T, inverted bool) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := range 32 {
		for x := range 32 {
			v := uint8(x * 8)
			if inverted {
				v = 255 - v
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoginAndMe(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	id := f.register(t, service.Registration{
		Username: "boss", Email: "boss@example.com", Password: "password123", Role: domain.RoleAdmin,
	})

	c := f.client()

	_, err := c.Login(ctx, "boss@example.com", "wrong-password")
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, authsdk.ErrorCodeInvalidCredentials, apiErr.Code)

	_, err = c.Me(ctx)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	resp, err := c.Login(ctx, "boss@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	c.Headers.SetBearer(resp.Token)
	me, err := c.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, id, me.ID)
	require.Equal(t, authsdk.RoleAdmin, me.Role)
	require.Equal(t, "boss", me.Username)
}

func TestMeRejectsDisabledAccount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	id := f.register(t, service.Registration{
		Username: "temp", Email: "temp@example.com", Password: "password123", Role: domain.RoleAdmin,
	})

	c := f.client()
	resp, err := c.Login(ctx, "temp@example.com", "password123")
	require.NoError(t, err)
	c.Headers.SetBearer(resp.Token)

	require.NoError(t, f.users.Store.Users().UpdateStatus(ctx, id, domain.StatusDisabled))

	_, err = c.Me(ctx)
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, authsdk.ErrorCodeAccountDisabled, apiErr.Code)

	_, err = c.Login(ctx, "temp@example.com", "password123")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestVerifyFace(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, service.Registration{
		Username: "clerk", Email: "clerk@example.com", Password: "password123",
		Role: domain.RoleUser, FaceImage: gradientPNG(t, false), FaceMIME: "image/png",
	})

	c := f.client()

	res, err := c.VerifyFace(ctx, "clerk@example.com", authsdk.EncodeDataURL("image/png", gradientPNG(t, false)))
	require.NoError(t, err)
	require.True(t, res.Verified)
	require.Empty(t, res.Error)

	res, err = c.VerifyFace(ctx, "clerk@example.com", authsdk.EncodeDataURL("image/png", gradientPNG(t, true)))
	require.NoError(t, err)
	require.False(t, res.Verified)
	require.Equal(t, "face_mismatch", res.Error)

	// unknown accounts look exactly like a mismatch
	res, err = c.VerifyFace(ctx, "ghost@example.com", authsdk.EncodeDataURL("image/png", gradientPNG(t, false)))
	require.NoError(t, err)
	require.False(t, res.Verified)
	require.Equal(t, "face_mismatch", res.Error)

	_, err = c.VerifyFace(ctx, "clerk@example.com", "not a data url")
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Contains(t, apiErr.Details, "image")
}

func TestRegisterUserRequiresAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, service.Registration{
		Username: "boss", Email: "boss@example.com", Password: "password123", Role: domain.RoleAdmin,
	})
	f.register(t, service.Registration{
		Username: "clerk", Email: "clerk@example.com", Password: "password123",
		Role: domain.RoleUser, FaceImage: gradientPNG(t, false), FaceMIME: "image/png",
	})

	newUser := authsdk.RegisterUserRequest{
		Username:  "newbie",
		Email:     "newbie@example.com",
		Password:  "password123",
		Role:      authsdk.RoleUser,
		Status:    authsdk.StatusActive,
		FaceImage: authsdk.EncodeDataURL("image/png", gradientPNG(t, true)),
	}

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.client().RegisterUser(ctx, newUser)
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})

	t.Run("plain user", func(t *testing.T) {
		c := f.client()
		resp, err := c.Login(ctx, "clerk@example.com", "password123")
		require.NoError(t, err)
		c.Headers.SetBearer(resp.Token)

		_, err = c.RegisterUser(ctx, newUser)
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	})

	t.Run("admin", func(t *testing.T) {
		c := f.client()
		resp, err := c.Login(ctx, "boss@example.com", "password123")
		require.NoError(t, err)
		c.Headers.SetBearer(resp.Token)

		created, err := c.RegisterUser(ctx, newUser)
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)

		_, err = c.RegisterUser(ctx, newUser)
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusConflict, apiErr.StatusCode)

		// server-side validation, bypassing the client's own checks
		req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/auth/register/user",
			strings.NewReader(`{"username":"x","email":"bad","password":"short","role":"ROOT"}`))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+resp.Token)
		req.Header.Set("Content-Type", "application/json")
		raw, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer raw.Body.Close()
		require.Equal(t, http.StatusBadRequest, raw.StatusCode)
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	c := f.client()

	live, err := c.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := c.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.NotNil(t, ready.Checks)
	require.Equal(t, "ok", ready.Checks.Database)
}

func TestMalformedLoginBody(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, err := http.Post(f.srv.URL+"/auth/login", "application/json", strings.NewReader(`{"email":`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}


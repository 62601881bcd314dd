package auth_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * End-to-end tests run the auth service image in a container. Build it with
 *
 *	docker build -t stockdesk-auth:test -f cmd/auth/Dockerfile .
 *
 * and set STOCKDESK_E2E_IMAGE=stockdesk-auth:test; without it the tests skip.
 */

const (
	adminEmail    = "admin@stockdesk.test"
	adminPassword = "Admin123!pass"
)

// setupAuthContainer starts the auth service and returns its base URL.
func setupAuthContainer(t *testing.T, extraEnv map[string]string) string {
	t.Helper()

	imageName := os.Getenv("STOCKDESK_E2E_IMAGE")
	if imageName == "" {
		t.Skip("STOCKDESK_E2E_IMAGE not set")
	}

	ctx := context.Background()

	env := map[string]string{
		"AUTH_DATABASE_FILE":       "/data/auth.db",
		"AUTH_PEPPER_FILE":         "/data/pepper",
		"AUTH_ISSUER":              "stockdesk-auth",
		"BOOTSTRAP_ADMIN_USERNAME": "admin",
		"BOOTSTRAP_ADMIN_EMAIL":    adminEmail,
		"BOOTSTRAP_ADMIN_PASSWORD": adminPassword,
		"ENV":                      "test",
		"LOG_LEVEL":                "info",
		"LOG_FORMAT":               "json",
		// Tests make many rapid requests which would otherwise hit the login limits
		"AUTH_RATELIMIT_LOGIN": "1000/1m",
		"AUTH_RATELIMIT_FACE":  "1000/1m",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        imageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          env,
			WaitingFor: wait.ForHTTP("/readyz").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// loginAdmin returns a client carrying the bootstrap administrator's token.
func loginAdmin(t *testing.T, baseURL string) *authsdk.SDKClient {
	t.Helper()
	c := authsdk.NewSDKClient(baseURL)
	resp, err := c.Login(t.Context(), adminEmail, adminPassword)
	require.NoError(t, err, "bootstrap admin should be able to log in")
	c.Headers.SetBearer(resp.Token)
	return c
}

// faceDataURL renders a synthetic "face" as a PNG data URL.
func faceDataURL(t *testing.T, inverted bool) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 48, 48))
	for y := range 48 {
		for x := range 48 {
			v := uint8(x * 5)
			if inverted {
				v = 255 - v
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return authsdk.EncodeDataURL("image/png", buf.Bytes())
}

func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

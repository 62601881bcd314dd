package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/aussiebroadwan/stockdesk/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/stockdesk/pkg/cryptox"
	"github.com/aussiebroadwan/stockdesk/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestHasher() *cryptox.PasswordHasher {
	return cryptox.NewPasswordHasher("test-pepper")
}

func newTestSigner(t *testing.T) *jwtx.EdDSASigner {
	t.Helper()
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	s, err := jwtx.NewSignerEdDSA("test-kid", pemKey)
	require.NoError(t, err)
	return s
}

// facePNG renders a horizontal gradient. The inverted variant hashes as far
// from the plain one as an average hash allows.
func facePNG(t *testing.T, inverted bool) []byte {
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

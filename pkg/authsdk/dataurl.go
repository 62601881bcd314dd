package authsdk

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidDataURL = errors.New("authsdk: invalid image data URL")

// EncodeDataURL renders image bytes as "data:<mime>;base64,<payload>".
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL parses a base64 image data URL and returns its media type and
// payload.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}

	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || !strings.HasPrefix(mime, "image/") {
		return "", nil, ErrInvalidDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, ErrInvalidDataURL
	}

	return mime, data, nil
}

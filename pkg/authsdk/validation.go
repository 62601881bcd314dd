package authsdk

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	requiredReason = "required"
	onlyAlphanum   = "must only contain a-z, A-Z, 0-9, _ or -"
)

var reUsername = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks the registration fields. It returns field names mapped to
// messages, or nil when the request is valid. The server runs the same
// checks.
func (r RegisterUserRequest) Validate() map[string]string {
	errs := make(map[string]string)

	username := strings.TrimSpace(r.Username)
	switch {
	case username == "":
		errs["username"] = requiredReason
	case len(username) < 3 || len(username) > 32:
		errs["username"] = "must be 3-32 characters"
	case !reUsername.MatchString(username):
		errs["username"] = onlyAlphanum
	}

	email := strings.TrimSpace(r.Email)
	if email == "" {
		errs["email"] = requiredReason
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs["email"] = "not a valid address"
	}

	switch {
	case r.Password == "":
		errs["password"] = requiredReason
	case len(r.Password) < 8:
		errs["password"] = "too short (min 8)"
	case len(r.Password) > 128:
		errs["password"] = "too long (max 128)"
	}

	switch r.Role {
	case RoleAdmin:
	case RoleUser:
		if r.FaceImage == "" {
			errs["faceImage"] = "required for USER accounts"
		}
	default:
		errs["role"] = "must be ADMIN or USER"
	}

	switch r.Status {
	case "", StatusActive, StatusDisabled:
	default:
		errs["status"] = "must be active or disabled"
	}

	if r.FaceImage != "" {
		if _, _, err := DecodeDataURL(r.FaceImage); err != nil {
			errs["faceImage"] = "must be a base64 image data URL"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

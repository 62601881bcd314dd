package session

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle position of a Guard.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	// StateExpired is transient. Observers see it just before the guard
	// cleans up and returns to StateAnonymous.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "ANONYMOUS"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateExpired:
		return "EXPIRED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Role is the authorization level of the signed-in user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole maps a role name to a Role. Unknown names are rejected so a
// profile with a role this client does not understand never authorizes
// anything.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Profile is the identity the current token belongs to.
type Profile struct {
	ID       string
	Username string
	Email    string
	Role     Role
}

// Snapshot is a point-in-time copy of the guard state.
type Snapshot struct {
	State State
	Token string

	// ExpiresAt is zero when the token's expiry could not be decoded.
	ExpiresAt time.Time

	// Profile is nil until /auth/me has answered for Token.
	Profile *Profile
}

// HasCredential reports whether a token is held.
func (s Snapshot) HasCredential() bool {
	return s.Token != ""
}

// Expired reports whether the held token is expired at now. A token with an
// undecodable expiry is always expired. Without a token there is nothing to
// expire.
func (s Snapshot) Expired(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || !s.ExpiresAt.After(now)
}

// Valid reports whether a token is held and not expired at now.
func (s Snapshot) Valid(now time.Time) bool {
	return s.HasCredential() && !s.Expired(now)
}

// Package gate decides whether a console view may be shown for the current
// session. Every navigation is decided afresh from a session snapshot.
package gate

import (
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/console/session"
)

// Requirement is what a view demands of the session. The zero value admits
// any signed-in user.
type Requirement struct {
	// Role, when set, is the only role allowed to see the view.
	Role session.Role
}

// AdminOnly admits only administrators.
var AdminOnly = Requirement{Role: session.RoleAdmin}

type Action int

const (
	Render Action = iota
	RedirectLogin
	RedirectLanding
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect-login"
	case RedirectLanding:
		return "redirect-landing"
	default:
		return "unknown"
	}
}

// Decision is the gate's verdict. Reason is for logs only.
type Decision struct {
	Action Action
	Reason string
}

// Decide is the console's single authorization check.
func Decide(snap session.Snapshot, req Requirement, now time.Time) Decision {
	if !snap.HasCredential() {
		return Decision{Action: RedirectLogin, Reason: "no credential"}
	}
	if snap.Expired(now) {
		return Decision{Action: RedirectLogin, Reason: "credential expired"}
	}
	// A token without a resolved identity is still being set up, or about
	// to be discarded. Neither may see protected content.
	if snap.Profile == nil || snap.State != session.StateAuthenticated {
		return Decision{Action: RedirectLogin, Reason: "identity unresolved"}
	}
	if req.Role != "" && snap.Profile.Role != req.Role {
		return Decision{Action: RedirectLanding, Reason: "requires role " + string(req.Role)}
	}
	return Decision{Action: Render}
}

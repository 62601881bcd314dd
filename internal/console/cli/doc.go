// Package cli is the interactive stockdesk admin console.
//
// It puts a read-eval-print loop in front of the session guard, the login
// screen and its face capture flow, and the gated console views. Typical
// flow for staff: face, capture, verify <email>, login <email>. Admins log
// in directly with login <email> admin.
//
// The loop is started with App.Run, which blocks until the user exits or
// input ends.
package cli

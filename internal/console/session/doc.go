// Package session holds the console's authentication state: the bearer
// token, the profile it resolves to, and the background loop that logs the
// user out once the token expires.
//
// A Guard is the only writer of the outbound Authorization header. Other
// components read its state through Snapshot and Subscribe.
package session

package session

import "errors"

var (
	// ErrCredentialRejected means the auth service refused the email and
	// password. Login reports it as (false, nil); it is kept in LastError.
	ErrCredentialRejected = errors.New("session: credentials rejected")

	// ErrAuthTransport means the auth service could not be reached or failed
	// to answer. It is never reported for wrong credentials.
	ErrAuthTransport = errors.New("session: auth service unavailable")

	// ErrSessionExpired means the token expired or its profile could not be
	// fetched, and the guard logged out.
	ErrSessionExpired = errors.New("session: session expired")
)

package domain

import "time"

// FaceAttempt is one audited call to the face verifier.
type FaceAttempt struct {
	ID         string
	UserID     string // empty when the email matched no account
	Email      string
	Verified   bool
	Distance   int // -1 when no comparison ran
	Reason     string
	RemoteAddr string
	CreatedAt  time.Time
}

package domain

import (
	"errors"
	"time"
)

// Role is the account role carried in access tokens.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Status controls whether an account may log in.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

var (
	ErrUnknownRole   = errors.New("domain: unknown role")
	ErrUnknownStatus = errors.New("domain: unknown status")
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleUser:
		return r, nil
	}
	return "", ErrUnknownRole
}

// ParseStatus maps "" to StatusActive.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case "":
		return StatusActive, nil
	case StatusActive, StatusDisabled:
		return st, nil
	}
	return "", ErrUnknownStatus
}

// RequiresFace reports whether logins for this role must pass face
// verification first.
func (r Role) RequiresFace() bool { return r == RoleUser }

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2 encoded
	Role         Role
	Status       Status

	// Enrolled face, nil for accounts that never verify.
	FaceImage []byte
	FaceMIME  string
	FaceHash  string // hex perceptual hash of FaceImage

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) Active() bool { return u.Status == StatusActive }

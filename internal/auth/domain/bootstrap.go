package domain

// BootstrapAdmin describes the administrator created on first start.
type BootstrapAdmin struct {
	Username string
	Email    string
	Password string
}

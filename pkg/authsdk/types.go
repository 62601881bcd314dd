package authsdk

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"

	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed access token. Its expiry is inside the
// token's exp claim.
type LoginResponse struct {
	Token string `json:"token"`
}

// UserProfile is returned by GET /auth/me.
type UserProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// VerifyFaceRequest is the body of POST /auth/verify-face. Image is a
// base64 data URL, e.g. "data:image/jpeg;base64,...".
type VerifyFaceRequest struct {
	Email string `json:"email"`
	Image string `json:"image"`
}

// VerifyFaceResponse is the verifier's verdict. Error and Details are only
// set when Verified is false.
type VerifyFaceResponse struct {
	Verified bool   `json:"verified"`
	Error    string `json:"error,omitempty"`
	Details  string `json:"details,omitempty"`
}

// RegisterUserRequest is the body of POST /auth/register/user. FaceImage is
// a data URL and is required for USER accounts.
type RegisterUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	FaceImage string `json:"faceImage,omitempty"`
}

type RegisterUserResponse struct {
	ID string `json:"id"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks lists readiness of the service dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

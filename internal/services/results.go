package services

// Login steps returned to the caller
const (
	StepTwoFactorRequired = "2fa_required"
	StepSetupTwoFactor    = "setup_2fa"
)

// UserSummary is the public part of a user returned by login
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserProfile is returned by refresh
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult is the outcome of a successful password check.
// Token and RefreshToken are only set for StepSetupTwoFactor.
type LoginResult struct {
	Step         string      `json:"step"`
	User         UserSummary `json:"user"`
	Token        string      `json:"token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
}

// SessionResult carries a freshly issued session
type SessionResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"-"`
}

// EnrollmentResult is returned when two-factor enrollment starts
type EnrollmentResult struct {
	Secret        string `json:"secret"`
	EnrollmentURI string `json:"enrollment_uri"`
	QRCode        string `json:"qr_code"`
}

// RefreshResult is returned by a refresh token exchange
type RefreshResult struct {
	AccessToken string      `json:"access_token"`
	User        UserProfile `json:"user"`
}

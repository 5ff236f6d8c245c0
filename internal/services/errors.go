package services

import "errors"

// Sentinel errors carry the message returned to API clients.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidRole        = errors.New("invalid role")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAdminExists        = errors.New("You are not authorized to sign up as admin. Admin account already exists.")
	ErrCannotDeleteAdmin  = errors.New("cannot delete admin account")
	ErrCannotRemoveSelf   = errors.New("cannot remove yourself")

	ErrNotFound    = errors.New("not found")
	ErrJobNotFound = errors.New("job not found")
	ErrForbidden   = errors.New("forbidden")

	ErrApplicationNotFound  = errors.New("application not found")
	ErrAlreadyApplied       = errors.New("already applied")
	ErrInvalidAction        = errors.New("invalid action")
	ErrNotJobOwner          = errors.New("You can only manage applications for your own job postings")
	ErrApplicationWithdrawn = errors.New("application was withdrawn by the student")
	ErrNotWithdrawable      = errors.New("application can no longer be withdrawn")
	ErrResumeNotAttached    = errors.New("resume not attached to application")
	ErrResumeMissing        = errors.New("resume not found in database")

	ErrMailerUnavailable  = errors.New("mail transporter not initialized")
	ErrLLMUnavailable     = errors.New("job extraction is not configured")
	ErrInvalidModelOutput = errors.New("model returned invalid JSON")
)

// ValidationError reports a malformed or incomplete request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

package apperr

// AuthCode classifies authentication and session failures.
type AuthCode string

const (
	AuthInvalidCredentials AuthCode = "INVALID_CREDENTIALS"
	AuthSessionExpired     AuthCode = "SESSION_EXPIRED"
	AuthTokenInvalid       AuthCode = "TOKEN_INVALID"
	AuthTokenExpired       AuthCode = "TOKEN_EXPIRED"
	AuthUnauthorized       AuthCode = "UNAUTHORIZED"
	AuthForbidden          AuthCode = "FORBIDDEN"
	AuthAccountLocked      AuthCode = "ACCOUNT_LOCKED"
	AuthAccountDisabled    AuthCode = "ACCOUNT_DISABLED"
	AuthRateLimited        AuthCode = "RATE_LIMITED"
	AuthMFARequired        AuthCode = "MFA_REQUIRED"
	AuthPasswordExpired    AuthCode = "PASSWORD_EXPIRED"
	AuthSigninFailed       AuthCode = "SIGNIN_FAILED"
	AuthSignoutFailed      AuthCode = "SIGNOUT_FAILED"
	AuthRefreshFailed      AuthCode = "REFRESH_FAILED"
)

// AuthCodes lists the closed set of auth codes.
var AuthCodes = []AuthCode{
	AuthInvalidCredentials, AuthSessionExpired, AuthTokenInvalid, AuthTokenExpired,
	AuthUnauthorized, AuthForbidden, AuthAccountLocked, AuthAccountDisabled,
	AuthRateLimited, AuthMFARequired, AuthPasswordExpired, AuthSigninFailed,
	AuthSignoutFailed, AuthRefreshFailed,
}

var authMessages = map[AuthCode]string{
	AuthInvalidCredentials: "Invalid email or password",
	AuthSessionExpired:     "Your session has expired",
	AuthTokenInvalid:       "Authentication token is invalid",
	AuthTokenExpired:       "Authentication token has expired",
	AuthUnauthorized:       "You are not authorized to perform this action",
	AuthForbidden:          "Access to this resource is forbidden",
	AuthAccountLocked:      "Account is locked",
	AuthAccountDisabled:    "Account has been disabled",
	AuthRateLimited:        "Too many authentication attempts",
	AuthMFARequired:        "Multi-factor authentication is required",
	AuthPasswordExpired:    "Password has expired and must be changed",
	AuthSigninFailed:       "Sign in failed",
	AuthSignoutFailed:      "Sign out failed",
	AuthRefreshFailed:      "Failed to refresh session",
}

var authSeverity = map[AuthCode]Severity{
	AuthAccountLocked:   SeverityCritical,
	AuthAccountDisabled: SeverityCritical,
	AuthSessionExpired:  SeverityHigh,
	AuthTokenExpired:    SeverityHigh,
	AuthTokenInvalid:    SeverityHigh,
	AuthUnauthorized:    SeverityHigh,
	AuthForbidden:       SeverityHigh,
	AuthRefreshFailed:   SeverityHigh,
	AuthSignoutFailed:   SeverityLow,
}

var authNonRetryable = map[AuthCode]bool{
	AuthInvalidCredentials: true,
	AuthTokenInvalid:       true,
	AuthUnauthorized:       true,
	AuthForbidden:          true,
	AuthAccountLocked:      true,
	AuthAccountDisabled:    true,
	AuthMFARequired:        true,
	AuthPasswordExpired:    true,
}

// Valid reports whether c belongs to the auth code set.
func (c AuthCode) Valid() bool {
	_, ok := authMessages[c]
	return ok
}

func (c AuthCode) DefaultMessage() string {
	return authMessages[c]
}

func (c AuthCode) DefaultSeverity() Severity {
	if s, ok := authSeverity[c]; ok {
		return s
	}
	return SeverityMedium
}

func (c AuthCode) DefaultRetryable() bool {
	return !authNonRetryable[c]
}

// AuthError is raised by sign-in, session and permission checks.
type AuthError struct {
	base
	userID    string
	sessionID string
}

// NewAuthError builds an auth error. An empty code becomes UNAUTHORIZED.
func NewAuthError(code AuthCode, opts ...Option) *AuthError {
	if code == "" {
		code = AuthUnauthorized
	}
	o := buildOptions(opts)
	return &AuthError{
		base: newBase(KindAuth, string(code), codeDefaults{
			message:   code.DefaultMessage(),
			severity:  code.DefaultSeverity(),
			retryable: code.DefaultRetryable(),
		}, o),
		userID:    o.userID,
		sessionID: o.sessionID,
	}
}

func (e *AuthError) AuthCode() AuthCode { return AuthCode(e.code) }
func (e *AuthError) UserID() string     { return e.userID }
func (e *AuthError) SessionID() string  { return e.sessionID }

func (e *AuthError) WithContext(ctx Fields) Error {
	cp := *e
	cp.base = e.base.withContext(ctx)
	return &cp
}

func (e *AuthError) Record() Record {
	r := e.record()
	r.UserID = e.userID
	r.SessionID = e.sessionID
	return r
}

func (e *AuthError) MarshalJSON() ([]byte, error) {
	return marshalRecord(e.Record())
}

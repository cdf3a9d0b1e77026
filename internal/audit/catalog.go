package audit

type EventType string

const (
	EventLoginSuccess       EventType = "login_success"
	EventLoginFailure       EventType = "login_failure"
	EventLogout             EventType = "logout"
	EventSessionRevoked     EventType = "session_revoked"
	EventSessionRevokedAll  EventType = "session_revoked_all"
	EventTokenRefreshed     EventType = "token_refreshed"
	EventTwoFactorEnabled   EventType = "two_factor_enabled"
	EventTwoFactorDisabled  EventType = "two_factor_disabled"
	EventTwoFactorFailed    EventType = "two_factor_failed"
	EventAccountLocked      EventType = "account_locked"
	EventAccountUnlocked    EventType = "account_unlocked"
	EventAccountStatusSet   EventType = "account_status_set"
	EventEmailVerified      EventType = "email_verified"
	EventAccountRegistered  EventType = "account_registered"
	EventPasswordChanged    EventType = "password_changed"
)

// EventInfo is the display shape of an event: what a notification or an
// account activity page renders for it. A closed table rather than a
// switch so the exhaustiveness test can diff it against the constant set.
type EventInfo struct {
	Icon    string
	Title   string
	Message string
}

var Catalog = map[EventType]EventInfo{
	EventLoginSuccess:      {Icon: "key", Title: "Signed in", Message: "Your account was signed in"},
	EventLoginFailure:      {Icon: "alert", Title: "Failed sign-in", Message: "A sign-in attempt failed"},
	EventLogout:            {Icon: "exit", Title: "Signed out", Message: "Your session ended"},
	EventSessionRevoked:    {Icon: "shield", Title: "Device signed out", Message: "A device was signed out remotely"},
	EventSessionRevokedAll: {Icon: "shield", Title: "Other devices signed out", Message: "All other devices were signed out"},
	EventTokenRefreshed:    {Icon: "refresh", Title: "Session refreshed", Message: "Your session credentials were renewed"},
	EventTwoFactorEnabled:  {Icon: "lock", Title: "Two-factor enabled", Message: "Two-factor authentication is now on"},
	EventTwoFactorDisabled: {Icon: "unlock", Title: "Two-factor disabled", Message: "Two-factor authentication was turned off"},
	EventTwoFactorFailed:   {Icon: "alert", Title: "Two-factor failed", Message: "A two-factor code was rejected"},
	EventAccountLocked:     {Icon: "lock", Title: "Account locked", Message: "Too many failed sign-in attempts"},
	EventAccountUnlocked:   {Icon: "unlock", Title: "Account unlocked", Message: "Your account lock expired"},
	EventAccountStatusSet:  {Icon: "gavel", Title: "Account status changed", Message: "An administrator changed your account status"},
	EventEmailVerified:     {Icon: "mail", Title: "Email verified", Message: "Your email address was confirmed"},
	EventAccountRegistered: {Icon: "user", Title: "Account created", Message: "Welcome to Shoplane"},
	EventPasswordChanged:   {Icon: "key", Title: "Password changed", Message: "Your password was changed"},
}

// AllEventTypes mirrors the constant block above; the catalog test keeps
// the two in lockstep.
var AllEventTypes = []EventType{
	EventLoginSuccess,
	EventLoginFailure,
	EventLogout,
	EventSessionRevoked,
	EventSessionRevokedAll,
	EventTokenRefreshed,
	EventTwoFactorEnabled,
	EventTwoFactorDisabled,
	EventTwoFactorFailed,
	EventAccountLocked,
	EventAccountUnlocked,
	EventAccountStatusSet,
	EventEmailVerified,
	EventAccountRegistered,
	EventPasswordChanged,
}

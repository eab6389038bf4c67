package domain

import "time"

// SignInRequiredMessage is shown when a page needs a signed-in user.
const SignInRequiredMessage = "Please log in to access your profile."

// Reasons a request carries no authenticated session.
const (
	ReasonNoSession      = "no session"
	ReasonUnknownSession = "unknown session"
	ReasonExpired        = "session expired"
)

// Session binds an opaque portal token to the identity provider's access token.
type Session struct {
	Token       string
	AccessToken string
	User        User
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionContext is the per-request authentication state. It is either
// authenticated, carrying the session, or unauthenticated with a reason.
type SessionContext struct {
	session *Session
	reason  string
}

func Authenticated(session Session) SessionContext {
	return SessionContext{session: &session}
}

func Unauthenticated(reason string) SessionContext {
	if reason == "" {
		reason = ReasonNoSession
	}
	return SessionContext{reason: reason}
}

func (c SessionContext) IsAuthenticated() bool { return c.session != nil }

// Session returns the session when authenticated.
func (c SessionContext) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Reason explains an unauthenticated context; empty when authenticated.
func (c SessionContext) Reason() string {
	if c.session != nil {
		return ""
	}
	if c.reason == "" {
		return ReasonNoSession
	}
	return c.reason
}

// UserID is empty for unauthenticated contexts.
func (c SessionContext) UserID() string {
	if c.session == nil {
		return ""
	}
	return c.session.User.ID
}

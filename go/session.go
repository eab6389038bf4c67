package portalserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	accountsdomain "github.com/Apurer/pet-portal/internal/domains/accounts/domain"
	accountsports "github.com/Apurer/pet-portal/internal/domains/accounts/ports"
)

// DefaultSessionCookieName carries the portal session token in browsers.
const DefaultSessionCookieName = "pet_portal_session"

const (
	sessionContextKey = "portal.session"
	signInPath        = "/login"
)

// SessionCookie describes how the session token is written to browsers.
type SessionCookie struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func (c SessionCookie) name() string {
	if c.Name == "" {
		return DefaultSessionCookieName
	}
	return c.Name
}

func (c SessionCookie) write(ctx *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if c.MaxAge > 0 && (maxAge <= 0 || maxAge > int(c.MaxAge.Seconds())) {
		maxAge = int(c.MaxAge.Seconds())
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.name(), token, maxAge, "/", "", c.Secure, true)
}

func (c SessionCookie) clear(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.name(), "", -1, "/", "", c.Secure, true)
}

// SessionMiddleware resolves the caller's token into a session context for
// every request. It never rejects; RequireSession does that per route.
func SessionMiddleware(accounts accountsports.Service, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookie.name())
		sessionCtx := accountsdomain.Unauthenticated(accountsdomain.ReasonNoSession)
		if token != "" && accounts != nil {
			sessionCtx = accounts.Resolve(c.Request.Context(), token)
		}
		c.Set(sessionContextKey, sessionCtx)
		c.Next()
	}
}

// RequireSession answers 401 with a sign-in hint when the request is anonymous.
func RequireSession(c *gin.Context) {
	if _, ok := currentSession(c); !ok {
		problems.Unauthenticated(c, accountsdomain.SignInRequiredMessage, signInPath)
		return
	}
	c.Next()
}

// SessionContextFrom returns the session context installed by SessionMiddleware.
func SessionContextFrom(c *gin.Context) accountsdomain.SessionContext {
	if value, ok := c.Get(sessionContextKey); ok {
		if sessionCtx, ok := value.(accountsdomain.SessionContext); ok {
			return sessionCtx
		}
	}
	return accountsdomain.Unauthenticated(accountsdomain.ReasonNoSession)
}

func currentSession(c *gin.Context) (accountsdomain.Session, bool) {
	return SessionContextFrom(c).Session()
}

func sessionToken(c *gin.Context, cookieName string) string {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if token, err := c.Cookie(cookieName); err == nil {
		return strings.TrimSpace(token)
	}
	return ""
}

package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"ourhotel/internal/config"
	"ourhotel/internal/models"
	"ourhotel/internal/services"
)

const (
	SessionCookie   = "ourhotel_session"
	CSRFTokenHeader = "X-CSRF-Token"

	// gin context keys
	ContextSession = "session"
)

// SessionGuard runs the session integrity checks on every request before the
// handler: cookie lookup, binding check, timeout, periodic re-keying, CSRF
// rotation, last-activity touch. Mutating requests must present the session's
// CSRF token in the X-CSRF-Token header; a mismatch stops the request before
// any side effect. The current token is echoed on every response so clients
// always hold the latest one.
func SessionGuard(sessionService *services.SessionService, auditService *services.AuditService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookieID, _ := c.Cookie(SessionCookie)

		sess, err := sessionService.StartOrRefresh(cookieID, c.ClientIP(), c.GetHeader("User-Agent"))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrSessionTimeout):
				replaceSession(c, sessionService, cfg)
				c.JSON(401, gin.H{"error": "Session expired, please log in again", "code": "session_timeout"})
			case errors.Is(err, services.ErrSessionHijacked):
				replaceSession(c, sessionService, cfg)
				c.JSON(401, gin.H{"error": "Session terminated for your security, please log in again", "code": "session_hijacked"})
			default:
				c.JSON(500, gin.H{"error": "Please try again later"})
			}
			c.Abort()
			return
		}

		if sess.ID != cookieID {
			setSessionCookie(c, cfg, sess.ID)
		}
		c.Header(CSRFTokenHeader, sess.CSRFToken)

		if mutating(c.Request.Method) {
			token := c.GetHeader(CSRFTokenHeader)
			if !sessionService.ValidateCSRF(sess, token) {
				auditService.Record(sess.UserID, models.ActionCSRFFailure,
					"CSRF token validation failed for "+c.Request.Method+" "+c.Request.URL.Path,
					c.ClientIP(), c.GetHeader("User-Agent"))
				c.JSON(403, gin.H{"error": "Security error: invalid request", "code": "csrf_mismatch"})
				c.Abort()
				return
			}
		}

		c.Set(ContextSession, sess)
		c.Next()
	}
}

// RequireAuth rejects requests whose session has no authenticated user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil || !sess.LoggedIn || sess.UserID == nil {
			c.JSON(401, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole rejects authenticated sessions whose role is not listed.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil || !sess.LoggedIn {
			c.JSON(401, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			if sess.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			c.JSON(403, gin.H{"error": "Forbidden: insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentSession returns the request's session, or nil outside the guard.
func CurrentSession(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSession)
	if !exists {
		return nil
	}
	sess, ok := value.(*models.Session)
	if !ok {
		return nil
	}
	return sess
}

// ReplaceSession swaps the context and cookie over to a new session record,
// used after login regeneration and logout.
func ReplaceSession(c *gin.Context, cfg *config.Config, sess *models.Session) {
	setSessionCookie(c, cfg, sess.ID)
	c.Header(CSRFTokenHeader, sess.CSRFToken)
	c.Set(ContextSession, sess)
}

func replaceSession(c *gin.Context, sessionService *services.SessionService, cfg *config.Config) {
	fresh, err := sessionService.Start(c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		// the client still gets the 401, just without a replacement cookie
		slog.Error("failed to start replacement session", "error", err)
		return
	}
	ReplaceSession(c, cfg, fresh)
}

func setSessionCookie(c *gin.Context, cfg *config.Config, id string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		SessionCookie,
		id,
		int(cfg.Security.SessionTimeoutDuration().Seconds()),
		"/",
		"",
		cfg.Security.CookieSecure,
		true, // HttpOnly
	)
}

func mutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

package middleware

import (
	"bitwise74/learning-api/internal/session"
	"bitwise74/learning-api/internal/store"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionConfig is what the session middleware needs to resolve a cookie.
type SessionConfig struct {
	CookieName string
	Secure     bool
	Signer     *session.Signer
	Holder     *session.Holder
	Store      *store.Store
}

// NewSessionMiddleware resolves the session cookie into the signed in user.
// The user is read from the store on every request so role changes and
// deletions apply immediately. On success "session" and "userID" are set on
// the context.
func NewSessionMiddleware(cfg SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		value, err := c.Cookie(cfg.CookieName)
		if err != nil || value == "" {
			unauthorized(c, "Please log in to continue")
			return
		}

		id, err := cfg.Signer.Parse(value)
		if err != nil {
			ClearSessionCookie(c, cfg)
			unauthorized(c, "Session invalid. Please log in again")
			return
		}

		s, err := cfg.Holder.Get(id)
		if err != nil {
			ClearSessionCookie(c, cfg)
			unauthorized(c, "Session expired. Please log in again")
			return
		}

		u, err := cfg.Store.FindByID(c.Request.Context(), s.User.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				cfg.Holder.End(id)
				ClearSessionCookie(c, cfg)
				unauthorized(c, "Account no longer exists")
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"ok":        false,
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to load session user", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		s.User = u.Snapshot()
		if err := cfg.Holder.Update(id, s.User); err != nil {
			zap.L().Warn("Failed to refresh session", zap.Error(err), zap.String("requestID", requestID))
		}

		c.Set("session", s)
		c.Set("userID", strconv.FormatUint(uint64(s.User.ID), 10))
		c.Next()
	}
}

// CurrentSession returns the session resolved by the session middleware.
func CurrentSession(c *gin.Context) *session.Session {
	return c.MustGet("session").(*session.Session)
}

// RequireAdmin must run after the session middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := c.Get("session")
		if !ok || !s.(*session.Session).User.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"ok":        false,
				"error":     "Admin access required",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Next()
	}
}

// SetSessionCookie stores the signed session ID on the client.
func SetSessionCookie(c *gin.Context, cfg SessionConfig, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, value, 0, "/", "", cfg.Secure, true)
}

// ClearSessionCookie removes the session cookie from the client.
func ClearSessionCookie(c *gin.Context, cfg SessionConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.Secure, true)
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"ok":        false,
		"error":     msg,
		"requestID": c.GetString("requestID"),
	})
}

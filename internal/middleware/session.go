package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/session"
)

const (
	SessionHeader = "X-Session-ID"
	sessionKey    = "session"
	saveTimeout   = 2 * time.Second
)

type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session opens the visitor's session from the cookie or the X-Session-ID
// header and writes back the actions the handler dispatched.
func Session(resolver *session.Resolver, opts SessionOptions, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if cookie, err := c.Cookie(opts.CookieName); err == nil && cookie != "" {
			id = cookie
		}

		sc, err := resolver.Open(c.Request.Context(), id)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "session store unavailable", Retryable: true})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(opts.CookieName, sc.ID, int(opts.TTL.Seconds()), "/", "", opts.Secure, true)
		c.Header(SessionHeader, sc.ID)
		SetSession(c, sc)

		c.Next()

		// The request context may already be canceled by the client.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), saveTimeout)
		defer cancel()
		if err := resolver.Save(ctx, sc); err != nil {
			log.Error("save session", "session_id", sc.ID, "error", err)
		}
	}
}

func SetSession(c *gin.Context, sc *session.Context) {
	c.Set(sessionKey, sc)
}

// GetSession returns the session opened by Session. It panics when the
// middleware is missing from the chain.
func GetSession(c *gin.Context) *session.Context {
	return c.MustGet(sessionKey).(*session.Context)
}

// AdminOnly turns non-admin sessions away before any backend call. The role
// comes from the client-side token and is advisory; the backend enforces it.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetSession(c).Identity().IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Error: "admin only", Redirect: "/"})
			return
		}
		c.Next()
	}
}

package web

import (
	"errors"
	"net/http"

	"tweetlink/internal/auth"
	"tweetlink/internal/models"
	"tweetlink/internal/users"

	"github.com/gin-gonic/gin"
)

const requestContextKey = "tweetlink.request"

// RequestContext is built once per inbound request and never shared
// between requests.
type RequestContext struct {
	Session *auth.Session
	// User is nil when nobody is signed in or the session's user id no
	// longer resolves to a record.
	User *models.User
}

// SignedIn reports whether the request has a current user.
func (rc *RequestContext) SignedIn() bool {
	return rc.User != nil
}

// LoadRequestContext loads the session and resolves its user id before any
// handler runs.
func (h *Handler) LoadRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		sess, err := h.Sessions.Load(ctx, c.Request)
		if err != nil {
			h.Logger.Error("session load failed", "err", err)
			c.String(http.StatusServiceUnavailable, "Service temporarily unavailable")
			c.Abort()
			return
		}

		rc := &RequestContext{Session: sess}
		if id, ok := sess.UserID(); ok {
			user, err := h.Users.FindByID(ctx, id)
			switch {
			case err == nil:
				rc.User = user
			case errors.Is(err, users.ErrNotFound):
				h.Logger.Debug("session user no longer exists", "user_id", id)
			default:
				h.Logger.Warn("session user lookup failed", "user_id", id, "err", err)
			}
		}

		c.Set(requestContextKey, rc)
		c.Next()
	}
}

// Current returns the request context set by LoadRequestContext.
func Current(c *gin.Context) *RequestContext {
	return c.MustGet(requestContextKey).(*RequestContext)
}

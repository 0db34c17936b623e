package web

import (
	"errors"
	"net/http"

	"tweetlink/internal/accounts"
	"tweetlink/internal/users"
	"tweetlink/pkg/protocol"

	"github.com/gin-gonic/gin"
)

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// NewSession renders the sign-in form.
func (h *Handler) NewSession(c *gin.Context) {
	h.render(c, http.StatusOK, "sign_in.html", gin.H{"Email": ""})
}

// CreateSession signs the user in and, when a Twitter identity was staged
// before login, links it to the user.
func (h *Handler) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()
	rc := Current(c)

	var form loginForm
	_ = c.ShouldBind(&form)

	user, err := h.Users.Authenticate(ctx, form.Email, form.Password)
	if err != nil {
		if !errors.Is(err, users.ErrInvalidCredentials) {
			h.Logger.Error("login lookup failed", "err", err)
		}
		h.renderNow(c, http.StatusUnprocessableEntity, "sign_in.html", gin.H{
			"Flash": protocol.Flash{Kind: protocol.FlashAlert, Message: MsgInvalidCredentials},
			"Email": form.Email,
		})
		return
	}

	sess := rc.Session
	if err := h.Sessions.Renew(ctx, sess); err != nil {
		h.Logger.Warn("session renew failed", "err", err)
	}
	sess.SetUserID(user.ID)
	rc.User = user

	staged, ok := sess.TakeTwitterOAuth()
	if !ok {
		h.redirect(c, PathHome, protocol.FlashNotice, MsgLoggedIn)
		return
	}

	res := h.Links.Link(ctx, user.ID, stagedProfile(staged))
	if !res.OK() {
		h.Logger.Error("twitter link after login failed", "user_id", user.ID, "username", staged.Username, "err", res.Err)
		h.redirect(c, PathHome, protocol.FlashAlert, MsgLoggedInLinkFailed)
		return
	}
	h.redirect(c, PathHome, protocol.FlashNotice, MsgLoggedInAndConnected)
}

// DestroySession signs the user out. Signing out twice is harmless.
func (h *Handler) DestroySession(c *gin.Context) {
	rc := Current(c)
	rc.Session.ClearUserID()
	rc.User = nil
	h.redirect(c, PathHome, protocol.FlashNotice, MsgLoggedOut)
}

func stagedProfile(s protocol.TwitterOAuth) accounts.Profile {
	return accounts.Profile{
		UID:      s.UID,
		Name:     s.Name,
		Username: s.Username,
		Image:    s.Image,
		Token:    s.Token,
		Secret:   s.Secret,
	}
}

package web

import (
	"errors"
	"net/url"

	"tweetlink/internal/accounts"
	"tweetlink/internal/oauth"
	"tweetlink/pkg/protocol"

	"github.com/gin-gonic/gin"
)

// TwitterRequest starts the OAuth handshake.
func (h *Handler) TwitterRequest(c *gin.Context) {
	if h.Twitter == nil {
		h.failTo(c, "not_configured")
		return
	}

	state, err := oauth.NewState()
	if err != nil {
		h.Logger.Error("generate oauth state failed", "err", err)
		h.failTo(c, "internal_error")
		return
	}
	verifier := oauth.NewVerifier()

	rc := Current(c)
	rc.Session.SetOAuthState(protocol.OAuthState{State: state, Verifier: verifier})
	h.redirect(c, h.Twitter.AuthCodeURL(state, verifier), protocol.FlashNone, "")
}

// TwitterCallback handles the provider redirecting back. Provider errors,
// a state mismatch and failed code exchanges go to the failure endpoint;
// a verified identity is handed to connectTwitter.
func (h *Handler) TwitterCallback(c *gin.Context) {
	if h.Twitter == nil {
		h.failTo(c, "not_configured")
		return
	}

	if msg := param(c, "error"); msg != "" {
		h.failTo(c, msg)
		return
	}

	rc := Current(c)
	st, ok := rc.Session.TakeOAuthState()
	if !ok || st.State == "" || st.State != param(c, "state") {
		h.Logger.Warn("twitter oauth callback rejected", "err", oauth.ErrStateMismatch)
		h.failTo(c, "csrf_detected")
		return
	}

	result, err := h.Twitter.Authenticate(c.Request.Context(), param(c, "code"), st.Verifier)
	if err != nil {
		h.Logger.Warn("twitter oauth authenticate failed", "err", err)
		reason := "invalid_credentials"
		if errors.Is(err, oauth.ErrMissingCode) {
			reason = "missing_code"
		}
		h.failTo(c, reason)
		return
	}

	h.connectTwitter(c, result)
}

// connectTwitter links the identity to the signed-in user, or stages it in
// the session until the next login when nobody is signed in.
func (h *Handler) connectTwitter(c *gin.Context, result *oauth.AuthResult) {
	rc := Current(c)

	if rc.User == nil {
		rc.Session.StageTwitterOAuth(protocol.TwitterOAuth{
			UID:      result.UID,
			Name:     result.Name,
			Username: result.Nickname,
			Image:    result.Image,
			Token:    result.Token,
			Secret:   result.Secret,
		})
		rc.Session.SetFlash(protocol.FlashAlert, MsgSignInToConnect)
		if err := h.Sessions.Save(c.Request.Context(), c.Writer, rc.Session); err != nil {
			h.Logger.Error("twitter oauth error", "err", err)
			c.Redirect(redirectStatus(c.Request.Method), PathHome)
			return
		}
		c.Redirect(redirectStatus(c.Request.Method), PathSignIn)
		return
	}

	res := h.Links.Link(c.Request.Context(), rc.User.ID, accounts.Profile{
		UID:      result.UID,
		Name:     result.Name,
		Username: result.Nickname,
		Image:    result.Image,
		Token:    result.Token,
		Secret:   result.Secret,
	})
	if !res.OK() {
		h.Logger.Error("twitter oauth error", "user_id", rc.User.ID, "username", result.Nickname, "err", res.Err)
		h.redirect(c, PathHome, protocol.FlashAlert, MsgTwitterError)
		return
	}
	h.redirect(c, PathHome, protocol.FlashNotice, MsgTwitterConnected)
}

// Failure is where the provider, or our own callback, lands after a failed
// authentication. It never touches users or linked accounts.
func (h *Handler) Failure(c *gin.Context) {
	h.Logger.Info("twitter authentication failed", "message", param(c, "message"))
	h.redirect(c, PathHome, protocol.FlashAlert, MsgTwitterFailed)
}

func (h *Handler) failTo(c *gin.Context, reason string) {
	h.redirect(c, PathAuthFailure+"?message="+url.QueryEscape(reason), protocol.FlashNone, "")
}

// param reads a callback parameter from the query string or, for POST
// callbacks, the form body.
func param(c *gin.Context, key string) string {
	if v, ok := c.GetQuery(key); ok {
		return v
	}
	return c.PostForm(key)
}

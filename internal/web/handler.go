package web

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"tweetlink/internal/accounts"
	"tweetlink/internal/auth"
	"tweetlink/internal/models"
	"tweetlink/internal/oauth"
	"tweetlink/pkg/protocol"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*
var templateFS embed.FS

// UserStore is the subset of users.Repository the handlers need.
type UserStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// AccountLinker is the subset of accounts.Linker the handlers need.
type AccountLinker interface {
	Link(ctx context.Context, userID uint, p accounts.Profile) accounts.Result
	ForUser(ctx context.Context, userID uint) (*models.TwitterAccount, error)
}

type Handler struct {
	Users    UserStore
	Links    AccountLinker
	Sessions *auth.SessionManager
	// Twitter is nil when no client id is configured.
	Twitter oauth.Provider
	Logger  *slog.Logger
}

func (h *Handler) LoadTemplates(r *gin.Engine) error {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)
	return nil
}

// NewRouter wires middleware, templates and routes into a gin engine.
func NewRouter(h *Handler) (*gin.Engine, error) {
	if h.Logger == nil {
		h.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(RequestID(), RequestLogger(h.Logger), gin.Recovery())

	if err := h.LoadTemplates(r); err != nil {
		return nil, err
	}

	r.GET("/healthz", h.Health)

	g := r.Group("/", h.LoadRequestContext())
	g.GET(PathHome, h.Index)
	g.GET(PathSignIn, h.NewSession)
	g.POST(PathSignIn, h.CreateSession)
	g.DELETE(PathSignOut, h.DestroySession)
	g.POST(PathSignOut, h.DestroySession)
	g.GET(PathTwitter, h.TwitterRequest)
	g.GET(PathTwitterCallback, h.TwitterCallback)
	g.POST(PathTwitterCallback, h.TwitterCallback)
	g.GET(PathAuthFailure, h.Failure)
	g.POST(PathAuthFailure, h.Failure)

	return r, nil
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Index(c *gin.Context) {
	rc := Current(c)

	data := gin.H{"PendingTwitter": rc.Session.PendingTwitterOAuth()}
	if rc.User != nil {
		account, err := h.Links.ForUser(c.Request.Context(), rc.User.ID)
		if err != nil {
			h.Logger.Error("load twitter account failed", "user_id", rc.User.ID, "err", err)
		}
		data["TwitterAccount"] = account
	}

	h.render(c, http.StatusOK, "index.html", data)
}

// render shows the pending flash message, if any, alongside data.
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	rc := Current(c)
	if f, ok := rc.Session.TakeFlash(); ok {
		data["Flash"] = f
		if err := h.Sessions.Save(c.Request.Context(), c.Writer, rc.Session); err != nil {
			h.Logger.Warn("session save failed", "err", err)
		}
	}
	h.renderNow(c, status, name, data)
}

// renderNow renders without touching the stored flash.
func (h *Handler) renderNow(c *gin.Context, status int, name string, data gin.H) {
	data["CurrentUser"] = Current(c).User
	c.HTML(status, name, data)
}

// redirect stores a flash message, saves the session and redirects.
func (h *Handler) redirect(c *gin.Context, to string, kind protocol.FlashKind, msg string) {
	rc := Current(c)
	if kind != protocol.FlashNone {
		rc.Session.SetFlash(kind, msg)
	}
	if err := h.Sessions.Save(c.Request.Context(), c.Writer, rc.Session); err != nil {
		h.Logger.Error("session save failed", "err", err)
	}
	c.Redirect(redirectStatus(c.Request.Method), to)
}

// redirectStatus makes browsers follow non-GET redirects with a GET.
func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusFound
	}
	return http.StatusSeeOther
}

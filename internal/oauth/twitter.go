// Package oauth performs the Twitter OAuth 2.0 (PKCE) handshake and reads
// the authorizing user's profile.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL     = "https://twitter.com/i/oauth2/authorize"
	DefaultTokenURL    = "https://api.twitter.com/2/oauth2/token"
	DefaultUserInfoURL = "https://api.twitter.com/2/users/me"
)

var DefaultScopes = []string{"tweet.read", "users.read", "offline.access"}

var (
	ErrNotConfigured = errors.New("twitter oauth is not configured")
	ErrStateMismatch = errors.New("oauth state mismatch")
	ErrMissingCode   = errors.New("missing authorization code")
)

// AuthResult is the identity and credentials returned by a successful
// handshake.
type AuthResult struct {
	UID      string
	Name     string
	Nickname string
	Image    string
	Token    string
	// Secret holds the refresh token. OAuth 2.0 has no token secret.
	Secret string
}

// Provider is implemented by Twitter and by test doubles.
type Provider interface {
	// AuthCodeURL returns the URL the browser is sent to.
	AuthCodeURL(state, verifier string) string
	// Authenticate exchanges the callback code and fetches the profile.
	Authenticate(ctx context.Context, code, verifier string) (*AuthResult, error)
}

// Config describes a Twitter OAuth client.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
}

// Twitter talks to the Twitter API.
type Twitter struct {
	cfg         *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewTwitter returns ErrNotConfigured when the client id is empty.
func NewTwitter(cfg Config) (*Twitter, error) {
	if cfg.ClientID == "" {
		return nil, ErrNotConfigured
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = DefaultUserInfoURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}

	authStyle := oauth2.AuthStyleInParams
	if cfg.ClientSecret != "" {
		authStyle = oauth2.AuthStyleInHeader
	}

	return &Twitter{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: authStyle,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// WithHTTPClient replaces the client used for token and profile requests.
func (t *Twitter) WithHTTPClient(c *http.Client) *Twitter {
	t.httpClient = c
	return t
}

func (t *Twitter) AuthCodeURL(state, verifier string) string {
	return t.cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (t *Twitter) Authenticate(ctx context.Context, code, verifier string) (*AuthResult, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, t.httpClient)
	token, err := t.cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	client := t.cfg.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.userInfoURL+"?user.fields=profile_image_url", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch twitter user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter API returned status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode twitter user response: %w", err)
	}
	if body.Data.ID == "" || body.Data.Username == "" {
		return nil, errors.New("twitter user response missing id or username")
	}

	return &AuthResult{
		UID:      body.Data.ID,
		Name:     body.Data.Name,
		Nickname: body.Data.Username,
		Image:    body.Data.ProfileImageURL,
		Token:    token.AccessToken,
		Secret:   token.RefreshToken,
	}, nil
}

// NewState returns a random CSRF state value.
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewVerifier returns a PKCE code verifier.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTwitter struct {
	wantVerifier string
	meStatus     int
}

func (f *fakeTwitter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/2/oauth2/token":
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Form.Get("code") != "good-code" || r.Form.Get("code_verifier") != f.wantVerifier {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-123",
			"refresh_token": "refresh-456",
			"token_type":    "bearer",
			"expires_in":    7200,
		})
	case "/2/users/me":
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.meStatus != 0 {
			w.WriteHeader(f.meStatus)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":"42","name":"Ada Lovelace","username":"ada","profile_image_url":"https://pbs.twimg.com/ada.png"}}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestTwitter(t *testing.T, fake *fakeTwitter) *Twitter {
	t.Helper()

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	tw, err := NewTwitter(Config{
		ClientID:     "client",
		ClientSecret: "shh",
		RedirectURL:  "http://localhost/auth/twitter/callback",
		AuthURL:      srv.URL + "/i/oauth2/authorize",
		TokenURL:     srv.URL + "/2/oauth2/token",
		UserInfoURL:  srv.URL + "/2/users/me",
	})
	require.NoError(t, err)
	return tw.WithHTTPClient(srv.Client())
}

func TestNewTwitter_NotConfigured(t *testing.T) {
	_, err := NewTwitter(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTwitter_AuthCodeURL(t *testing.T) {
	verifier := NewVerifier()
	tw := newTestTwitter(t, &fakeTwitter{wantVerifier: verifier})

	raw := tw.AuthCodeURL("state-1", verifier)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, "tweet.read users.read offline.access", q.Get("scope"))
}

func TestTwitter_Authenticate(t *testing.T) {
	verifier := NewVerifier()
	tw := newTestTwitter(t, &fakeTwitter{wantVerifier: verifier})

	res, err := tw.Authenticate(context.Background(), "good-code", verifier)
	require.NoError(t, err)
	assert.Equal(t, &AuthResult{
		UID:      "42",
		Name:     "Ada Lovelace",
		Nickname: "ada",
		Image:    "https://pbs.twimg.com/ada.png",
		Token:    "access-123",
		Secret:   "refresh-456",
	}, res)
}

func TestTwitter_AuthenticateFailures(t *testing.T) {
	verifier := NewVerifier()

	t.Run("missing code", func(t *testing.T) {
		tw := newTestTwitter(t, &fakeTwitter{wantVerifier: verifier})
		_, err := tw.Authenticate(context.Background(), "", verifier)
		assert.ErrorIs(t, err, ErrMissingCode)
	})

	t.Run("wrong verifier", func(t *testing.T) {
		tw := newTestTwitter(t, &fakeTwitter{wantVerifier: verifier})
		_, err := tw.Authenticate(context.Background(), "good-code", "other")
		assert.Error(t, err)
	})

	t.Run("profile request fails", func(t *testing.T) {
		tw := newTestTwitter(t, &fakeTwitter{wantVerifier: verifier, meStatus: http.StatusTooManyRequests})
		_, err := tw.Authenticate(context.Background(), "good-code", verifier)
		assert.ErrorContains(t, err, "status 429")
	})
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tweetlink/pkg/protocol"

	"github.com/gorilla/securecookie"
)

const (
	CookieName = "tweetlink_session"
	DefaultTTL = 30 * 24 * time.Hour
)

// SessionManager correlates browsers with server-side session payloads.
// The cookie carries only a signed and encrypted opaque token; the payload
// lives in the Store under the token's hash.
type SessionManager struct {
	sc       *securecookie.SecureCookie
	store    Store
	ttl      time.Duration
	isSecure bool // Whether to set Secure flag on cookies
}

// SessionOptions configures a SessionManager.
type SessionOptions struct {
	HashKey  string // hex, at least 32 bytes
	BlockKey string // hex, at least 32 bytes
	TTL      time.Duration
	Secure   bool
}

// NewSessionManager creates a new session manager.
// Missing or invalid keys are replaced by random ones (sessions won't survive restarts).
func NewSessionManager(store Store, opts SessionOptions) *SessionManager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}

	hashKey := decodeOrGenerateKey("session hash key", opts.HashKey, 32)
	blockKey := decodeOrGenerateKey("session block key", opts.BlockKey, 32)

	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(opts.TTL.Seconds()))

	return &SessionManager{
		sc:       sc,
		store:    store,
		ttl:      opts.TTL,
		isSecure: opts.Secure,
	}
}

// decodeOrGenerateKey decodes a hex key or generates a random one
func decodeOrGenerateKey(name, keyHex string, length int) []byte {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err == nil && len(key) >= length {
			return key[:length]
		}
		slog.Warn("invalid key, generating random key", "key", name)
	} else {
		slog.Warn("key not set, using random key (sessions won't persist)", "key", name)
	}

	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("generate %s: %v", name, err))
	}
	return key
}

// Session is one browser's session for the duration of a request.
type Session struct {
	token   string
	payload protocol.SessionPayload
	isNew   bool
}

// Load reads the session for the request. A missing, forged or expired
// cookie yields a fresh empty session rather than an error; only store
// failures are returned.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	if cookie, err := r.Cookie(CookieName); err == nil {
		var token string
		if err := sm.sc.Decode(CookieName, cookie.Value, &token); err == nil {
			payload, err := sm.store.Load(ctx, HashToken(token))
			switch {
			case err == nil:
				return &Session{token: token, payload: *payload}, nil
			case !errors.Is(err, ErrNoSession):
				return nil, err
			}
		}
	}
	return sm.newSession()
}

func (sm *SessionManager) newSession() (*Session, error) {
	token, err := GenerateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	return &Session{
		token:   token,
		payload: protocol.SessionPayload{CreatedAt: time.Now().Unix()},
		isNew:   true,
	}, nil
}

// Save persists the payload and writes the session cookie.
func (sm *SessionManager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := sm.store.Save(ctx, HashToken(s.token), &s.payload, sm.ttl); err != nil {
		return err
	}

	encoded, err := sm.sc.Encode(CookieName, s.token)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(sm.ttl.Seconds()),
		Secure:   sm.isSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.isNew = false
	return nil
}

// Renew moves the payload to a fresh token and drops the old one. Call it
// when privileges change, before Save.
func (sm *SessionManager) Renew(ctx context.Context, s *Session) error {
	old := s.token
	token, err := GenerateSecureToken()
	if err != nil {
		return fmt.Errorf("generate session token: %w", err)
	}
	if !s.isNew {
		if err := sm.store.Delete(ctx, HashToken(old)); err != nil {
			return err
		}
	}
	s.token = token
	return nil
}

// ClearCookie removes the session cookie from the browser.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   sm.isSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserID returns the signed-in user's id, if any.
func (s *Session) UserID() (uint, bool) {
	if s.payload.UserID == nil {
		return 0, false
	}
	return *s.payload.UserID, true
}

func (s *Session) SetUserID(id uint) {
	s.payload.UserID = &id
}

// ClearUserID signs the session out. Clearing an empty session is a no-op.
func (s *Session) ClearUserID() {
	s.payload.UserID = nil
}

// StageTwitterOAuth keeps a Twitter identity until the next login.
func (s *Session) StageTwitterOAuth(data protocol.TwitterOAuth) {
	s.payload.TwitterOAuth = &data
}

// PendingTwitterOAuth reports whether staged Twitter data is waiting.
func (s *Session) PendingTwitterOAuth() bool {
	return s.payload.TwitterOAuth != nil
}

// TakeTwitterOAuth returns the staged Twitter identity and removes it from
// the session.
func (s *Session) TakeTwitterOAuth() (protocol.TwitterOAuth, bool) {
	data := s.payload.TwitterOAuth
	if data == nil {
		return protocol.TwitterOAuth{}, false
	}
	s.payload.TwitterOAuth = nil
	return *data, true
}

func (s *Session) SetOAuthState(state protocol.OAuthState) {
	s.payload.OAuthState = &state
}

// TakeOAuthState returns the pending OAuth state and removes it.
func (s *Session) TakeOAuthState() (protocol.OAuthState, bool) {
	st := s.payload.OAuthState
	if st == nil {
		return protocol.OAuthState{}, false
	}
	s.payload.OAuthState = nil
	return *st, true
}

func (s *Session) SetFlash(kind protocol.FlashKind, msg string) {
	s.payload.Flash = &protocol.Flash{Kind: kind, Message: msg}
}

// TakeFlash returns the pending flash message and removes it.
func (s *Session) TakeFlash() (protocol.Flash, bool) {
	f := s.payload.Flash
	if f == nil {
		return protocol.Flash{}, false
	}
	s.payload.Flash = nil
	return *f, true
}

// Payload returns the session payload as it would be stored.
func (s *Session) Payload() protocol.SessionPayload {
	return s.payload
}

package protocol

// FlashKind distinguishes informational flash messages from error ones.
type FlashKind string

const (
	FlashNone   FlashKind = ""
	FlashNotice FlashKind = "notice"
	FlashAlert  FlashKind = "alert"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// TwitterOAuth is a Twitter identity captured while nobody was signed in.
// It waits in the session until the next successful login consumes it.
type TwitterOAuth struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image"`
	Token    string `json:"token"`
	Secret   string `json:"secret"`
}

// OAuthState holds the CSRF state and PKCE verifier between the redirect to
// the provider and its callback.
type OAuthState struct {
	State    string `json:"state"`
	Verifier string `json:"verifier"`
}

// SessionPayload is the value kept in the session store under the hash of
// the browser's session token.
type SessionPayload struct {
	UserID       *uint         `json:"user_id"`
	TwitterOAuth *TwitterOAuth `json:"twitter_oauth,omitempty"`
	OAuthState   *OAuthState   `json:"oauth_state,omitempty"`
	Flash        *Flash        `json:"flash,omitempty"`
	CreatedAt    int64         `json:"created_at"`
}

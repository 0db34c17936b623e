package web

// User-facing flash messages. None of them carry internal error text.
const (
	MsgLoggedIn             = "Logged in successfully"
	MsgLoggedInAndConnected = "Logged in and connected to Twitter successfully!"
	MsgLoggedInLinkFailed   = "Logged in, but we couldn't connect your Twitter account. Please try again."
	MsgInvalidCredentials   = "Invalid email or password"
	MsgLoggedOut            = "Logged out successfully"
	MsgTwitterConnected     = "Successfully connected your Twitter account!"
	MsgSignInToConnect      = "Please sign in to connect your Twitter account."
	MsgTwitterError         = "Something went wrong while connecting to Twitter. Please try again."
	MsgTwitterFailed        = "Failed to authenticate with Twitter. Please try again."
)

const (
	PathHome            = "/"
	PathSignIn          = "/sign_in"
	PathSignOut         = "/sign_out"
	PathTwitter         = "/auth/twitter"
	PathTwitterCallback = "/auth/twitter/callback"
	PathAuthFailure     = "/auth/failure"
)

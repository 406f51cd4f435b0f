package google

// DefaultOAuthScopes are the Google OAuth scopes required for the booking
// server. These scopes are used consistently across the application for
// OAuth configurations.
//
// The scopes provide access to:
//   - OpenID Connect user info (required for identifying the account)
//   - Google Calendar: full access (the clinic's appointment book)
var DefaultOAuthScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Calendar scope
	"https://www.googleapis.com/auth/calendar",
}

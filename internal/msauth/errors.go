package msauth

import "errors"

// Guard errors returned by Session precondition checks. The messages are
// user-facing: they travel verbatim into MCP error replies, so they name
// the tool the caller should run next.
var (
	// ErrNotAuthenticated is returned when no access token is present.
	ErrNotAuthenticated = errors.New("Not authenticated. Run the authenticate_device or authenticate_browser tool first")

	// ErrTokenExpired is returned when the stored access token has expired.
	ErrTokenExpired = errors.New("access token has expired. Run the authenticate_device or authenticate_browser tool to sign in again")

	// ErrSiteNotSet is returned when a SharePoint-scoped operation runs
	// before set_site_url.
	ErrSiteNotSet = errors.New("no SharePoint site configured. Run the set_site_url tool first")

	// ErrInvalidSiteURL is returned by SetSiteURL for URLs that are not
	// https SharePoint site URLs.
	ErrInvalidSiteURL = errors.New("site URL must start with https:// and contain .sharepoint.com")
)

// AuthError wraps a failure of either authentication flow with the stage
// it failed in (e.g. "device code request", "token exchange", "callback").
type AuthError struct {
	Stage string
	Err   error
}

func (e *AuthError) Error() string {
	return "authentication failed during " + e.Stage + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

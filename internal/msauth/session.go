package msauth

import (
	"strings"
	"sync"
	"time"
)

// Session holds the process-lifetime authentication state: the current
// token set and the selected SharePoint site URL. It is created empty at
// startup, mutated by the auth flows and set_site_url, and never
// persisted.
//
// All access goes through the mutex; the session is shared by every tool
// invocation the host fires concurrently.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	siteURL      string

	// now is replaceable in tests.
	now func() time.Time
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{now: time.Now}
}

// SetTokens stores a token set obtained from either auth flow.
func (s *Session) SetTokens(accessToken, refreshToken string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.expiresAt = expiresAt
}

// Clear drops the token set and site URL.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	s.siteURL = ""
}

// RequireAuth checks that a non-expired access token is present.
// It is a pure precondition check with no side effects, invoked at the
// start of every privileged operation.
func (s *Session) RequireAuth() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.accessToken == "" {
		return ErrNotAuthenticated
	}
	if !s.expiresAt.After(s.now()) {
		return ErrTokenExpired
	}
	return nil
}

// RequireSite checks that a SharePoint site URL has been configured.
func (s *Session) RequireSite() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.siteURL == "" {
		return ErrSiteNotSet
	}
	return nil
}

// Token implements graph.TokenSource. It returns the same guard errors
// as RequireAuth so an expired session can never reach the API.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.accessToken == "" {
		return "", ErrNotAuthenticated
	}
	if !s.expiresAt.After(s.now()) {
		return "", ErrTokenExpired
	}
	return s.accessToken, nil
}

// SetSiteURL validates and stores a SharePoint site URL. Valid URLs
// start with https:// and contain .sharepoint.com; they are stored
// verbatim.
func (s *Session) SetSiteURL(siteURL string) error {
	if !strings.HasPrefix(siteURL, "https://") || !strings.Contains(siteURL, ".sharepoint.com") {
		return ErrInvalidSiteURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.siteURL = siteURL
	return nil
}

// SiteURL returns the stored site URL, or "" when unset.
func (s *Session) SiteURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.siteURL
}

// RefreshToken returns the stored refresh token, or "" when unset.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Status is a point-in-time snapshot of the session for the auth_status
// tool. The tokens themselves are never exposed.
type Status struct {
	Authenticated bool      `json:"authenticated"`
	TokenExpired  bool      `json:"tokenExpired,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt,omitzero"`
	SiteURL       string    `json:"siteUrl,omitempty"`
}

// Status reports whether the session holds a usable token and which
// site is selected.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		SiteURL: s.siteURL,
	}
	if s.accessToken != "" {
		st.ExpiresAt = s.expiresAt
		if s.expiresAt.After(s.now()) {
			st.Authenticated = true
		} else {
			st.TokenExpired = true
		}
	}
	return st
}

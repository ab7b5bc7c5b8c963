// Package msauth handles authentication against the Microsoft identity
// platform and holds the process-lifetime session state.
//
// Two interchangeable flows produce the same session token set: the
// device code grant (DeviceCodeFlow), where the user signs in on a
// second device while this process polls the token endpoint, and the
// authorization code + PKCE flow (BrowserFlow), which binds a fixed
// localhost port and catches the browser redirect.
//
// Session is the only shared mutable state in the server. Its guard
// methods (RequireAuth, RequireSite) are pure precondition checks that
// every privileged tool runs before touching the Graph API.
package msauth

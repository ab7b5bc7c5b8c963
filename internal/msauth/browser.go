package msauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// DefaultCallbackPort is the fixed localhost port the redirect flow
// listens on. Client registrations must include
// http://localhost:8400/callback as a redirect URI.
const DefaultCallbackPort = 8400

// DefaultCallbackTimeout bounds how long the flow waits for the browser
// to deliver the authorization code.
const DefaultCallbackTimeout = 300 * time.Second

// callbackPath is the HTTP path the OAuth2 redirect hits.
const callbackPath = "/callback"

// stateTokenBytes is the number of random bytes for the OAuth2 state parameter.
const stateTokenBytes = 16

// callbackResult carries the authorization code or error from the callback handler.
type callbackResult struct {
	code string
	err  error
}

// BrowserFlow implements the authorization code + PKCE flow with a local
// callback listener. Only one listener may be active at a time: a new
// Authenticate call shuts down any listener a previous call left behind
// before binding the fixed port again.
type BrowserFlow struct {
	Port    int
	Timeout time.Duration

	// OpenURL launches the system browser. Defaults to OpenBrowser.
	OpenURL func(string) error

	// Endpoint overrides the Microsoft authorization/token endpoints.
	// Tests point this at an httptest server.
	Endpoint oauth2.Endpoint

	logger *slog.Logger

	mu     sync.Mutex
	active *http.Server
}

// NewBrowserFlow creates a browser flow with the fixed default port and
// timeout.
func NewBrowserFlow(logger *slog.Logger) *BrowserFlow {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserFlow{
		Port:    DefaultCallbackPort,
		Timeout: DefaultCallbackTimeout,
		OpenURL: OpenBrowser,
		logger:  logger,
	}
}

// Authenticate runs the redirect flow and stores the resulting token set
// in session. Empty clientID or tenantID fall back to the built-in
// public client and "common".
func (f *BrowserFlow) Authenticate(ctx context.Context, session *Session, clientID, tenantID string) error {
	if clientID == "" {
		clientID = DefaultClientID
	}
	if tenantID == "" {
		tenantID = DefaultTenantID
	}

	// A lingering listener from an earlier attempt would make the fixed
	// port bind fail with address-in-use.
	f.closeActive()

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", f.Port))
	if err != nil {
		return &AuthError{
			Stage: "callback listener",
			Err:   fmt.Errorf("binding port %d (is another sign-in already running?): %w", f.Port, err),
		}
	}

	endpoint := f.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = microsoft.AzureADEndpoint(tenantID)
	}

	cfg := &oauth2.Config{
		ClientID:    clientID,
		Endpoint:    endpoint,
		RedirectURL: fmt.Sprintf("http://localhost:%d%s", listener.Addr().(*net.TCPAddr).Port, callbackPath),
		Scopes:      DefaultScopes,
	}

	state, err := generateState()
	if err != nil {
		listener.Close()
		return &AuthError{Stage: "state generation", Err: err}
	}
	verifier := oauth2.GenerateVerifier()

	resultCh := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+callbackPath, func(w http.ResponseWriter, r *http.Request) {
		handleCallback(w, r, state, resultCh)
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	f.setActive(srv)
	defer f.closeActive()

	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			resultCh <- callbackResult{err: fmt.Errorf("callback server error: %w", serveErr)}
		}
	}()

	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	f.logger.Info("opening browser for authorization",
		slog.Int("callback_port", f.Port),
	)
	if openErr := f.OpenURL(authURL); openErr != nil {
		f.logger.Warn("failed to open browser; open the URL manually",
			slog.String("url", authURL),
			slog.String("error", openErr.Error()),
		)
	}

	code, err := f.waitForCallback(ctx, resultCh)
	if err != nil {
		return err
	}

	f.logger.Info("received authorization code, exchanging for token")

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return &AuthError{Stage: "token exchange", Err: err}
	}

	session.SetTokens(tok.AccessToken, tok.RefreshToken, tok.Expiry)
	f.logger.Info("browser flow completed", slog.Time("expires_at", tok.Expiry))
	return nil
}

// waitForCallback blocks until the callback fires, the timeout elapses,
// or ctx is canceled. Whichever fires first wins; the listener is closed
// by the deferred cleanup either way.
func (f *BrowserFlow) waitForCallback(ctx context.Context, resultCh <-chan callbackResult) (string, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-resultCh:
		if result.err != nil {
			return "", &AuthError{Stage: "callback", Err: result.err}
		}
		return result.code, nil
	case <-timer.C:
		return "", &AuthError{
			Stage: "callback",
			Err:   fmt.Errorf("no authorization callback received within %s", timeout),
		}
	case <-ctx.Done():
		return "", &AuthError{Stage: "callback", Err: ctx.Err()}
	}
}

// handleCallback validates the state, extracts the code, and reports the result.
func handleCallback(w http.ResponseWriter, r *http.Request, state string, resultCh chan<- callbackResult) {
	if r.URL.Query().Get("state") != state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		resultCh <- callbackResult{err: errors.New("OAuth2 state mismatch (possible CSRF)")}
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		desc := r.URL.Query().Get("error_description")
		http.Error(w, "Authorization failed: "+errParam, http.StatusBadRequest)
		resultCh <- callbackResult{err: fmt.Errorf("authorization server returned %s: %s", errParam, desc)}
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		resultCh <- callbackResult{err: errors.New("callback missing authorization code")}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>Authentication successful</h1>"+
		"<p>You can close this window and return to your assistant.</p></body></html>")
	resultCh <- callbackResult{code: code}
}

func (f *BrowserFlow) setActive(srv *http.Server) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = srv
}

// closeActive shuts down the active callback server, if any.
func (f *BrowserFlow) closeActive() {
	f.mu.Lock()
	srv := f.active
	f.active = nil
	f.mu.Unlock()

	if srv == nil {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		f.logger.Warn("callback server shutdown error", slog.String("error", err.Error()))
	}
}

// generateState produces a cryptographically random hex string for the
// OAuth2 state parameter.
func generateState() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// OpenBrowser launches the system browser for the given URL.
func OpenBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

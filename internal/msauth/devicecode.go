package msauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultLoginBase is the Microsoft identity platform endpoint.
const DefaultLoginBase = "https://login.microsoftonline.com"

// DefaultClientID is a public multi-tenant client registration used when
// the caller does not supply one.
const DefaultClientID = "14d82eec-204b-4c2f-b7e8-296a70dab67e"

// DefaultTenantID selects the multi-tenant endpoint.
const DefaultTenantID = "common"

// DefaultScopes are requested by both auth flows.
var DefaultScopes = []string{
	"offline_access",
	"User.Read",
	"Files.Read.All",
	"Sites.Read.All",
}

// Device flow OAuth error codes. Transient codes keep the poll loop
// running; everything else is fatal.
const (
	codeAuthorizationPending  = "authorization_pending"
	codeSlowDown              = "slow_down"
	codeAuthorizationDeclined = "authorization_declined"
	codeExpiredToken          = "expired_token"
)

// DeviceCode carries the fields of a device authorization response that
// the user needs to complete sign-in on a second device.
type DeviceCode struct {
	UserCode        string
	VerificationURI string
	Message         string

	deviceCode string
	expiresIn  int
	interval   int
}

// DeviceCodeFlow implements the OAuth2 device authorization grant
// against the Microsoft identity platform. The zero value is not usable;
// construct with NewDeviceCodeFlow.
type DeviceCodeFlow struct {
	ClientID  string
	TenantID  string
	LoginBase string

	// Display is called once the device code is issued, before polling
	// starts. The server uses it to log the verification instructions.
	Display func(DeviceCode)

	httpClient *http.Client
	logger     *slog.Logger

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDeviceCodeFlow creates a device code flow. Empty clientID or
// tenantID fall back to the built-in public client and "common".
func NewDeviceCodeFlow(clientID, tenantID string, logger *slog.Logger) *DeviceCodeFlow {
	if clientID == "" {
		clientID = DefaultClientID
	}
	if tenantID == "" {
		tenantID = DefaultTenantID
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DeviceCodeFlow{
		ClientID:   clientID,
		TenantID:   tenantID,
		LoginBase:  DefaultLoginBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Run executes the flow: request a device code, surface it via Display,
// then poll the token endpoint until the user authorizes, the code
// expires, or a fatal error code is returned. On success the token set
// is stored in session.
//
// There is no cancellation mechanism beyond ctx and the code's own
// expiry; transient poll responses never surface as errors.
func (f *DeviceCodeFlow) Run(ctx context.Context, session *Session) (*DeviceCode, error) {
	dc, err := f.requestDeviceCode(ctx)
	if err != nil {
		return nil, &AuthError{Stage: "device code request", Err: err}
	}

	f.logger.Info("device code issued, waiting for user authorization",
		slog.String("verification_uri", dc.VerificationURI),
		slog.Int("expires_in", dc.expiresIn),
	)

	if f.Display != nil {
		f.Display(*dc)
	}

	if err := f.poll(ctx, session, dc); err != nil {
		return nil, err
	}
	return dc, nil
}

// requestDeviceCode POSTs to the devicecode endpoint.
func (f *DeviceCodeFlow) requestDeviceCode(ctx context.Context) (*DeviceCode, error) {
	form := url.Values{
		"client_id": {f.ClientID},
		"scope":     {strings.Join(DefaultScopes, " ")},
	}

	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/devicecode", f.LoginBase, f.TenantID)
	body, err := f.postForm(ctx, endpoint, form)
	if err != nil {
		return nil, err
	}

	var raw struct {
		DeviceCode      string `json:"device_code"`
		UserCode        string `json:"user_code"`
		VerificationURI string `json:"verification_uri"`
		ExpiresIn       int    `json:"expires_in"`
		Interval        int    `json:"interval"`
		Message         string `json:"message"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding device code response: %w", err)
	}
	if raw.DeviceCode == "" {
		return nil, errors.New("device code response missing device_code")
	}

	if raw.Interval <= 0 {
		raw.Interval = 5
	}

	return &DeviceCode{
		UserCode:        raw.UserCode,
		VerificationURI: raw.VerificationURI,
		Message:         raw.Message,
		deviceCode:      raw.DeviceCode,
		expiresIn:       raw.ExpiresIn,
		interval:        raw.Interval,
	}, nil
}

// poll repeatedly POSTs to the token endpoint at the server-specified
// interval. slow_down doubles the wait before the next attempt.
func (f *DeviceCodeFlow) poll(ctx context.Context, session *Session, dc *DeviceCode) error {
	interval := time.Duration(dc.interval) * time.Second
	deadline := f.now().Add(time.Duration(dc.expiresIn) * time.Second)
	wait := interval

	for {
		if !f.now().Before(deadline) {
			return &AuthError{
				Stage: "device code polling",
				Err:   errors.New("device code expired before authorization completed"),
			}
		}

		if err := f.sleep(ctx, wait); err != nil {
			return &AuthError{Stage: "device code polling", Err: err}
		}

		tok, oauthCode, err := f.pollOnce(ctx, dc.deviceCode)
		if err != nil {
			return &AuthError{Stage: "device code polling", Err: err}
		}
		if tok != nil {
			f.storeToken(session, tok)
			f.logger.Info("device code flow completed",
				slog.Time("expires_at", f.now().Add(time.Duration(tok.ExpiresIn)*time.Second)),
			)
			return nil
		}

		switch oauthCode {
		case codeAuthorizationPending:
			wait = interval
		case codeSlowDown:
			wait *= 2
		case codeAuthorizationDeclined:
			return &AuthError{Stage: "device code polling", Err: errors.New("user declined the authorization request")}
		case codeExpiredToken:
			return &AuthError{Stage: "device code polling", Err: errors.New("device code expired before authorization completed")}
		default:
			return &AuthError{Stage: "device code polling", Err: fmt.Errorf("token endpoint returned %q", oauthCode)}
		}

		f.logger.Debug("authorization pending",
			slog.String("code", oauthCode),
			slog.Duration("next_poll", wait),
		)
	}
}

// tokenResponse is the successful token endpoint payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// pollOnce performs one token poll. Returns exactly one of: a token, an
// OAuth error code (transient or fatal), or a transport/protocol error.
func (f *DeviceCodeFlow) pollOnce(ctx context.Context, deviceCode string) (*tokenResponse, string, error) {
	form := url.Values{
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"client_id":   {f.ClientID},
		"device_code": {deviceCode},
	}

	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/token", f.LoginBase, f.TenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, "", fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		var tok tokenResponse
		if err := json.Unmarshal(body, &tok); err != nil {
			return nil, "", fmt.Errorf("decoding token response: %w", err)
		}
		return &tok, "", nil
	}

	var oauthErr struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &oauthErr); err != nil || oauthErr.Error == "" {
		return nil, "", fmt.Errorf("token endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil, oauthErr.Error, nil
}

func (f *DeviceCodeFlow) storeToken(session *Session, tok *tokenResponse) {
	session.SetTokens(tok.AccessToken, tok.RefreshToken, f.now().Add(time.Duration(tok.ExpiresIn)*time.Second))
}

// postForm POSTs a form and returns the body for 2xx responses.
func (f *DeviceCodeFlow) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// sleepCtx waits for d or until ctx is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mwessel/graphdrive/internal/config"
	"github.com/mwessel/graphdrive/internal/graph"
	"github.com/mwessel/graphdrive/internal/instrumentation"
	"github.com/mwessel/graphdrive/internal/msauth"
	"github.com/mwessel/graphdrive/internal/search"
)

// ServerContext holds the shared state for the MCP server: the single
// in-memory session, the Graph client bound to it, both auth flows, and
// the search engine. One ServerContext serves all tool invocations for
// the lifetime of the process.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg     config.Config
	session *msauth.Session
	client  *graph.Client
	device  *msauth.DeviceCodeFlow
	browser *msauth.BrowserFlow
	engine  *search.Engine

	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	logger  *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context with an empty session.
// Authentication happens later through the auth tools; nothing here
// touches the network.
func NewServerContext(ctx context.Context, cfg config.Config, logger *slog.Logger) (*ServerContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	session := msauth.NewSession()
	if cfg.SiteURL != "" {
		if err := session.SetSiteURL(cfg.SiteURL); err != nil {
			cancel()
			return nil, fmt.Errorf("configured site URL: %w", err)
		}
	}

	client := graph.NewClient(cfg.GraphBaseURL, &http.Client{Timeout: 60 * time.Second}, session, logger)

	device := msauth.NewDeviceCodeFlow(cfg.ClientID, cfg.TenantID, logger)
	device.LoginBase = cfg.LoginBaseURL
	device.Display = func(dc msauth.DeviceCode) {
		logger.Info("sign-in required: enter the code at the verification URL",
			slog.String("verification_uri", dc.VerificationURI),
			slog.String("user_code", dc.UserCode),
		)
	}

	browser := msauth.NewBrowserFlow(logger)
	browser.Port = cfg.CallbackPort

	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		cfg:     cfg,
		session: session,
		client:  client,
		device:  device,
		browser: browser,
		engine:  search.NewEngine(client, logger),
		metrics: &instrumentation.Metrics{},
		audit:   instrumentation.NewAuditLogger(logger),
		logger:  logger,
	}, nil
}

// Context returns the server's lifetime context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the effective configuration.
func (sc *ServerContext) Config() config.Config {
	return sc.cfg
}

// Session returns the shared authentication session.
func (sc *ServerContext) Session() *msauth.Session {
	return sc.session
}

// Graph returns the Graph API client.
func (sc *ServerContext) Graph() *graph.Client {
	return sc.client
}

// Search returns the search engine.
func (sc *ServerContext) Search() *search.Engine {
	return sc.engine
}

// DeviceFlow returns the device code authentication flow.
func (sc *ServerContext) DeviceFlow() *msauth.DeviceCodeFlow {
	return sc.device
}

// BrowserFlow returns the browser redirect authentication flow.
func (sc *ServerContext) BrowserFlow() *msauth.BrowserFlow {
	return sc.browser
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder. Never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// Audit returns the audit logger. Never nil.
func (sc *ServerContext) Audit() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.audit
}

// SetInstrumentation wires a provider's metrics recorder and an audit
// logger into the context. Called once during startup.
func (sc *ServerContext) SetInstrumentation(metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if metrics != nil {
		sc.metrics = metrics
	}
	if audit != nil {
		sc.audit = audit
	}
}

// ResolveSiteDrive resolves the configured SharePoint site to its
// default document library. Resolution happens on every call rather
// than being cached: the site selection can change between calls via
// set_site_url, and a stale drive ID would silently read the wrong
// library.
func (sc *ServerContext) ResolveSiteDrive(ctx context.Context) (*graph.Drive, error) {
	if err := sc.session.RequireSite(); err != nil {
		return nil, err
	}

	siteURL := sc.session.SiteURL()
	hostname, siteName, err := graph.ParseSiteURL(siteURL)
	if err != nil {
		return nil, err
	}

	site, err := sc.client.Site(ctx, hostname, siteName)
	if err != nil {
		return nil, fmt.Errorf("resolving site %s: %w", siteURL, err)
	}

	drive, err := sc.client.SiteDrive(ctx, site.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving document library for site %s: %w", siteURL, err)
	}
	return drive, nil
}

// MyDrive resolves the signed-in user's OneDrive.
func (sc *ServerContext) MyDrive(ctx context.Context) (*graph.Drive, error) {
	drive, err := sc.client.MyDrive(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving OneDrive: %w", err)
	}
	return drive, nil
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwessel/graphdrive/internal/config"
	"github.com/mwessel/graphdrive/internal/instrumentation"
	"github.com/mwessel/graphdrive/internal/logging"
	"github.com/mwessel/graphdrive/internal/server"
	"github.com/mwessel/graphdrive/internal/tools/auth_tools"
	"github.com/mwessel/graphdrive/internal/tools/files_tools"
	"github.com/mwessel/graphdrive/internal/tools/search_tools"
)

// serveOptions collects the serve command's flag values.
type serveOptions struct {
	debug      bool
	transport  string
	httpAddr   string
	configPath string

	clientID string
	tenantID string
	siteURL  string

	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing SharePoint and
OneDrive file tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Authentication happens at runtime through the authenticate_device or
authenticate_browser tools; the server starts with an empty session and
holds tokens in memory only.

Configuration is read from ` + "`" + `$XDG_CONFIG_HOME/graphdrive/config.toml` + "`" + `
(override with --config), then GRAPHDRIVE_* environment variables, then
flags, in increasing priority.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a TOML config file (default: $XDG_CONFIG_HOME/graphdrive/config.toml)")
	cmd.Flags().StringVar(&opts.clientID, "client-id", "", "Azure AD application (client) ID. Can also use GRAPHDRIVE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.tenantID, "tenant-id", "", "Azure AD tenant ID. Can also use GRAPHDRIVE_TENANT_ID env var.")
	cmd.Flags().StringVar(&opts.siteURL, "site-url", "", "SharePoint site URL to preselect. Can also use GRAPHDRIVE_SITE_URL env var.")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (non-stdio transports only)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadConfig layers the config file, environment, and flag overrides.
func loadConfig(opts *serveOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}

	if opts.clientID != "" {
		cfg.ClientID = opts.clientID
	}
	if opts.tenantID != "" {
		cfg.TenantID = opts.tenantID
	}
	if opts.siteURL != "" {
		cfg.SiteURL = opts.siteURL
	}
	return cfg, nil
}

func runServe(opts *serveOptions) error {
	logger := logging.Setup(opts.debug)

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if addr := os.Getenv("METRICS_ADDR"); addr != "" && opts.metricsAddr == server.DefaultMetricsAddr {
		opts.metricsAddr = addr
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	serverContext, err := server.NewServerContext(shutdownCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	if provider.Enabled() {
		serverContext.SetInstrumentation(provider.Metrics(),
			instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}

	// Start the metrics server for non-stdio transports. With stdio the
	// process lives inside an MCP host and must not open listeners.
	var metricsServer *server.MetricsServer
	if opts.transport != "stdio" && opts.metricsEnabled && provider.Enabled() {
		health := server.NewHealthChecker(serverContext)
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metricsAddr,
			InstrumentationProvider: provider,
			HealthChecker:           health,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Error("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	mcpSrv := mcpserver.NewMCPServer("graphdrive", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch opts.transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		logger.Info("starting MCP server",
			slog.String("transport", opts.transport),
			slog.String("addr", opts.httpAddr),
		)
		return runStreamableHTTPServer(mcpSrv, shutdownCtx, opts.httpAddr, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}
}

// registerAllTools registers all MCP tools.
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Auth",
			register: func() error {
				return auth_tools.RegisterAuthTools(mcpSrv, ctx)
			},
		},
		{
			name: "Files",
			register: func() error {
				return files_tools.RegisterFileTools(mcpSrv, ctx)
			},
		},
		{
			name: "Search",
			register: func() error {
				return search_tools.RegisterSearchTools(mcpSrv, ctx)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(mcpSrv *mcpserver.MCPServer, ctx context.Context, addr string, logger *slog.Logger) error {
	httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
	)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", logging.Err(err))
		}
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

package cmd

import (
	"context"
	"io"
	"log/slog"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwessel/graphdrive/internal/config"
	"github.com/mwessel/graphdrive/internal/server"
)

func TestLoadConfigFlagOverrides(t *testing.T) {
	// An isolated config dir so no developer config file leaks in.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	opts := &serveOptions{
		clientID: "flag-client",
		tenantID: "flag-tenant",
		siteURL:  "https://contoso.sharepoint.com/sites/flags",
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.ClientID != "flag-client" {
		t.Errorf("ClientID = %q, want flag override", cfg.ClientID)
	}
	if cfg.TenantID != "flag-tenant" {
		t.Errorf("TenantID = %q, want flag override", cfg.TenantID)
	}
	if cfg.SiteURL != "https://contoso.sharepoint.com/sites/flags" {
		t.Errorf("SiteURL = %q, want flag override", cfg.SiteURL)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig(&serveOptions{})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	want := config.Default()
	if cfg.ClientID != want.ClientID || cfg.TenantID != want.TenantID {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := loadConfig(&serveOptions{configPath: "/does/not/exist.toml"}); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestRegisterAllTools(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sc, err := server.NewServerContext(context.Background(), config.Default(), logger)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	defer func() { _ = sc.Shutdown() }()

	mcpSrv := mcpserver.NewMCPServer("graphdrive-test", "test",
		mcpserver.WithToolCapabilities(true),
	)

	if err := registerAllTools(mcpSrv, sc); err != nil {
		t.Fatalf("registerAllTools() error = %v", err)
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/mwessel/graphdrive/internal/graph"
	"github.com/mwessel/graphdrive/internal/msauth"
)

// Config holds the server settings. Everything has a working default;
// a config file and environment variables are both optional.
//
// Precedence, lowest to highest: defaults, config file, environment,
// command-line flags (applied by the caller).
type Config struct {
	// ClientID is the Azure app registration to authenticate as.
	ClientID string `toml:"client_id"`

	// TenantID scopes sign-in to one tenant; "common" allows any.
	TenantID string `toml:"tenant_id"`

	// SiteURL preselects a SharePoint site so set_site_url is not
	// needed every session.
	SiteURL string `toml:"site_url"`

	// CallbackPort is the localhost port for the browser flow redirect.
	CallbackPort int `toml:"callback_port"`

	// GraphBaseURL and LoginBaseURL exist for testing against fakes.
	GraphBaseURL string `toml:"graph_base_url"`
	LoginBaseURL string `toml:"login_base_url"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ClientID:     msauth.DefaultClientID,
		TenantID:     msauth.DefaultTenantID,
		CallbackPort: msauth.DefaultCallbackPort,
		GraphBaseURL: graph.DefaultBaseURL,
		LoginBaseURL: msauth.DefaultLoginBase,
	}
}

// DefaultPath returns the conventional config file location,
// $XDG_CONFIG_HOME/graphdrive/config.toml or the platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving user config dir: %w", err)
	}
	return filepath.Join(dir, "graphdrive", "config.toml"), nil
}

// Load builds the effective configuration: defaults, then the TOML file
// at path (or the default location when path is empty), then GRAPHDRIVE_*
// environment variables. A missing file at the default location is not
// an error; a missing file at an explicit path is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		defaultPath, err := DefaultPath()
		if err != nil {
			// No home directory. Environment overrides still apply.
			applyEnv(&cfg)
			return cfg, nil
		}
		path = defaultPath
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays GRAPHDRIVE_* environment variables.
func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("GRAPHDRIVE_CLIENT_ID", &cfg.ClientID)
	setString("GRAPHDRIVE_TENANT_ID", &cfg.TenantID)
	setString("GRAPHDRIVE_SITE_URL", &cfg.SiteURL)
	setString("GRAPHDRIVE_GRAPH_BASE_URL", &cfg.GraphBaseURL)
	setString("GRAPHDRIVE_LOGIN_BASE_URL", &cfg.LoginBaseURL)

	if v, ok := os.LookupEnv("GRAPHDRIVE_CALLBACK_PORT"); ok && v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port < 65536 {
			cfg.CallbackPort = port
		}
	}
}

// Validate checks the fields that would otherwise fail deep inside an
// auth flow.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("config: client_id must not be empty")
	}
	if c.TenantID == "" {
		return errors.New("config: tenant_id must not be empty")
	}
	if c.CallbackPort <= 0 || c.CallbackPort >= 65536 {
		return fmt.Errorf("config: callback_port %d out of range", c.CallbackPort)
	}
	return nil
}

// Package config loads server settings from a TOML file and
// GRAPHDRIVE_* environment variables, layered over built-in defaults.
package config

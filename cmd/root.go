package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the graphdrive application
var rootCmd = &cobra.Command{
	Use:   "graphdrive",
	Short: "MCP server for SharePoint and OneDrive files",
	Long: `graphdrive exposes SharePoint document libraries and OneDrive drives
to AI assistants through the Model Context Protocol (MCP).

It provides tools for authenticating against the Microsoft identity
platform (device code or browser flow), browsing folder structures,
listing recent and shared files, reading file content, and running a
best-effort content search across a drive via the Microsoft Graph API.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "graphdrive version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gmail-mcp",
	Short: "Gmail tool server for AI assistants",
	Long: `gmail-mcp exposes Gmail operations (send, search, labels, batch
processing, attachment download) as tools for AI assistants.

It can run as:
  - An MCP (Model Context Protocol) server over stdio (default)
  - An HTTP API server

Authentication uses a server-wide OAuth token written by the auth command,
or stateless per-request user credentials when enabled.`,
	SilenceUsage: true,
}

// version is set by main at startup.
var version = "dev"

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gmail-mcp version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}

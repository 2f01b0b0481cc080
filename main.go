package main

import (
	"github.com/joho/godotenv"

	"github.com/inletmail/gmail-mcp/cmd"
)

// version is set by the linker at build time.
var version = "dev"

func main() {
	// Missing .env is fine; explicit environment variables win anyway.
	_ = godotenv.Load()

	cmd.SetVersion(version)
	cmd.Execute()
}

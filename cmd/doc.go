// Package cmd implements the gmail-mcp command line interface: serve starts
// the tool server on the chosen transport, auth runs the interactive
// authorization flow, and version prints the build version.
package cmd

// Package server hosts the two transports of the Gmail tool server: the MCP
// stdio server and the HTTP API surface. Both dispatch into the same closed
// tool registry.
//
// ServerContext carries the process-wide state: the startup configuration
// and, in server-credential mode, the single fallback Gmail client. The
// fallback client is constructed lazily on first use and is read-only
// afterwards; per-request user credentials never touch it.
package server

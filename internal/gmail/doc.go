// Package gmail wraps the Gmail REST API for the tool surface: message
// send/draft/read/search/modify/delete, label management with get-or-create
// semantics, and attachment download.
//
// A Client is bound to exactly one authorization client. In per-request
// credential mode a fresh Client is constructed for every tool call and
// discarded afterwards; in server-credential mode one Client is shared
// read-only for the process lifetime.
package gmail

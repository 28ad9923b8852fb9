// Package transport carries MCP frames between clients and the shared
// *mcp.Server. Every session gets its own connection; tool calls from one
// session never block another.
package transport

import (
	"context"
	"errors"
)

// Names used for logging and the active_sessions gauge.
const (
	NameStdio = "stdio"
	NameSSE   = "sse"
)

// ErrSessionClosed is returned when a frame is delivered to a session whose
// stream has already ended.
var ErrSessionClosed = errors.New("session closed")

// Binding serves the MCP server over one transport until ctx is cancelled
// or the peer goes away.
type Binding interface {
	Serve(ctx context.Context) error
}

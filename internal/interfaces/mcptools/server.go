package mcptools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerName is advertised to clients during initialize.
const ServerName = "image-mcp"

// NewServer creates the MCP server shared by every transport session. The
// dispatch table is its only state and is read-only after this call.
func NewServer(dispatcher *Dispatcher, version string) *mcp.Server {
	impl := &mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}
	server := mcp.NewServer(impl, nil)
	dispatcher.Register(server)
	return server
}

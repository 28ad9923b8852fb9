package interfaces

import (
	"github.com/google/wire"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/janhq/image-mcp/internal/infrastructure/config"
	"github.com/janhq/image-mcp/internal/infrastructure/replicate"
	"github.com/janhq/image-mcp/internal/interfaces/httpserver"
	"github.com/janhq/image-mcp/internal/interfaces/mcptools"
	"github.com/janhq/image-mcp/internal/interfaces/transport"
)

// InterfacesProvider provides all interface layer dependencies
var InterfacesProvider = wire.NewSet(
	mcptools.NewGenerateImageTool,
	ProvideDispatcher,
	ProvideMCPServer,
	transport.NewSessionRegistry,
	transport.NewStdioBinding,
	httpserver.NewHTTPServer,
)

// ProvideDispatcher builds the tool table served by every session.
func ProvideDispatcher(generateImage *mcptools.GenerateImageTool) *mcptools.Dispatcher {
	return mcptools.NewDispatcher(replicate.ProviderName, generateImage)
}

// ProvideMCPServer creates the single MCP server shared by all transports.
func ProvideMCPServer(dispatcher *mcptools.Dispatcher, cfg *config.Config) *mcp.Server {
	return mcptools.NewServer(dispatcher, cfg.Version)
}

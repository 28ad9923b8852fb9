package routes

import (
	"github.com/google/wire"

	"github.com/janhq/image-mcp/internal/interfaces/httpserver/routes/mcp"
)

// RoutesProvider provides all route dependencies
var RoutesProvider = wire.NewSet(
	mcp.NewMCPRoute,
)
